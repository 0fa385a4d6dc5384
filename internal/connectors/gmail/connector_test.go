package gmail

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

const sampleRaw = "From: Client <client@example.com>\r\n" +
	"Subject: =?utf-8?q?=D0=A2=D0=9D_=D0=92=D0=AD=D0=94?=\r\n" +
	"Message-ID: <abc@example.com>\r\n" +
	"Date: Mon, 02 Feb 2026 10:15:00 +0300\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n\r\n" +
	"Ноутбук из Китая\r\n"

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte(sampleRaw)

	got, err := decodeBase64URL(base64.RawURLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = decodeBase64URL(base64.URLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = decodeBase64URL("***")
	assert.Error(t, err)
}

func TestFetchedFromRaw(t *testing.T) {
	now := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	msg := fetchedFromRaw("18c0", []byte(sampleRaw), now)

	assert.Equal(t, "gmail", msg.Provider)
	assert.Equal(t, "<abc@example.com>", msg.MessageID)
	assert.Equal(t, "ТН ВЭД", msg.Subject)
	assert.Contains(t, msg.From, "client@example.com")
	assert.Equal(t, "2026-02-02T07:15:00Z", msg.ReceivedAt)
}

func TestFetchedFromRawFallsBackToGmailID(t *testing.T) {
	now := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	msg := fetchedFromRaw("18c0", []byte("Subject: hi\r\n\r\nbody\r\n"), now)
	assert.Equal(t, "18c0", msg.MessageID)
	assert.Equal(t, "2026-02-03T00:00:00Z", msg.ReceivedAt)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&googleapi.Error{Code: 429}))
	assert.True(t, isTransient(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 503})))
	assert.False(t, isTransient(&googleapi.Error{Code: 404}))
	assert.False(t, isTransient(errors.New("boom")))
}
