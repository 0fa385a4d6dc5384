package connectors

import (
	"context"
	"fmt"
	"log/slog"

	"vedexpert/internal/storage"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched int
	Stored  int
	Skipped int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

// FetchAndStore pulls up to max messages and records them in the ledger.
// Messages without a body are skipped.
func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetch %s: %w", label, err)
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		if len(msg.Raw) == 0 {
			res.Skipped++
			continue
		}
		row, err := s.store.Store(msg)
		if err != nil {
			return res, err
		}
		slog.Debug("mail stored", "provider", row.Provider, "message_id", row.MessageID, "status", row.Status)
		res.Stored++
	}

	return res, nil
}
