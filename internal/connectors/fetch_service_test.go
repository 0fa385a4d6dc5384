package connectors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedexpert/internal"
	"vedexpert/internal/storage"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
	err      error
	label    string
}

func (s *stubConnector) FetchInbox(_ context.Context, label string, _ int) ([]internal.FetchedMailMessage, error) {
	s.label = label
	return s.messages, s.err
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFetchAndStore(t *testing.T) {
	db := openDB(t)
	rawDir := filepath.Join(t.TempDir(), "raw")
	stub := &stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<a@x>", Subject: "ТН ВЭД", Raw: []byte("Subject: a\r\n\r\nНоутбук\r\n")},
		{Provider: "imap", MessageID: "<b@x>", Raw: nil},
		{Provider: "imap", MessageID: "", Raw: []byte("Subject: c\r\n\r\nВино\r\n")},
	}}

	res, err := NewFetchService(db, rawDir, stub).FetchAndStore(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 3, Stored: 2, Skipped: 1}, res)
	assert.Equal(t, "INBOX", stub.label)

	rows, err := db.ListEmailsByStatus("fetched", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		_, err := os.Stat(row.RawRef)
		assert.NoError(t, err)
		assert.Len(t, row.Hash, 64)
	}

	entries, err := os.ReadDir(rawDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStoreUsesHashWhenMessageIDMissing(t *testing.T) {
	db := openDB(t)
	store := NewMailStoreService(db, t.TempDir())
	row, err := store.Store(internal.FetchedMailMessage{Provider: "gmail", Raw: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "sha256:"+row.Hash, row.MessageID)

	again, err := store.Store(internal.FetchedMailMessage{Provider: "gmail", Raw: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, row.ID, again.ID)
}

func TestFetchAndStoreWrapsConnectorError(t *testing.T) {
	db := openDB(t)
	stub := &stubConnector{err: errors.New("connection refused")}
	_, err := NewFetchService(db, t.TempDir(), stub).FetchAndStore(context.Background(), "INBOX", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch INBOX")
}
