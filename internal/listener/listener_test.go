package listener

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedexpert/internal"
	"vedexpert/internal/catalog"
	"vedexpert/internal/config"
	"vedexpert/internal/pipeline"
	"vedexpert/internal/storage"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
	calls    atomic.Int32
}

func (s *stubConnector) FetchInbox(_ context.Context, _ string, _ int) ([]internal.FetchedMailMessage, error) {
	s.calls.Add(1)
	out := s.messages
	s.messages = nil
	return out, nil
}

func rawMail(subject, body string) []byte {
	return []byte("From: client@example.com\r\n" +
		"Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n\r\n" +
		strings.ReplaceAll(body, "\n", "\r\n"))
}

func testConfig(dir string) config.Config {
	return config.Config{
		RawMailDir:               filepath.Join(dir, "raw"),
		OutputDir:                filepath.Join(dir, "out"),
		MailListenerProvider:     "imap",
		MailListenerLabel:        "INBOX",
		MailListenerIntervalSec:  1,
		MailListenerFetchMax:     10,
		MailListenerProcessBatch: 10,
		MailListenerAutoExport:   true,
	}
}

func TestRunCycleExportsReports(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	stub := &stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<req@example.com>", Subject: "Пошлина и код ТН ВЭД", Raw: rawMail("Пошлина и код ТН ВЭД", "Кофемашина DeLonghi из Италии за 25000 руб\n")},
		{Provider: "imap", MessageID: "<news@example.com>", Subject: "Новости", Raw: rawMail("Новости", "Обсудим планы на квартал\n")},
	}}

	svc := pipeline.NewService(catalog.NewFromEntries(nil), nil, nil, nil, nil)
	l := NewService(db, testConfig(dir), svc).WithConnector(stub)
	_, ok, err := l.LastCycle()
	require.NoError(t, err)
	assert.False(t, ok)

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, l.RunCycle(context.Background()))

	req, err := db.MustEmailByProviderMessageID("imap", "<req@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "exported", req.Status)
	_, err = os.Stat(ReportPath(testConfig(dir).OutputDir, req.ID, req.MessageID))
	assert.NoError(t, err)

	news, err := db.MustEmailByProviderMessageID("imap", "<news@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "skipped", news.Status)

	last, ok, err := l.LastCycle()
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, last.Before(before))
	assert.Equal(t, 1, svc.Stats().Classified)
}

func TestRunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	stub := &stubConnector{}
	l := NewService(db, testConfig(dir), pipeline.NewService(nil, nil, nil, nil, nil)).WithConnector(stub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return stub.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestUnsupportedProvider(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig(dir)
	cfg.MailListenerProvider = "pop3"
	err = NewService(db, cfg, pipeline.NewService(nil, nil, nil, nil, nil)).RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pop3")
}

func TestReportPathSanitizesMessageID(t *testing.T) {
	got := ReportPath("/out", 7, "<a/b@example.com>")
	assert.Equal(t, filepath.Join("/out", "listener", "7__a_b_example.com_.xlsx"), got)
}
