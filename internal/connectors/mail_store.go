package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"vedexpert/internal"
	"vedexpert/internal/storage"
)

// MailStoreService keeps raw messages on disk under their sha256 and a
// ledger row per provider message id.
type MailStoreService struct {
	db         *storage.DB
	rawMailDir string
}

func NewMailStoreService(db *storage.DB, rawMailDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir}
}

func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.EmailRow, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.EmailRow{}, err
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.EmailRow{}, err
		}
	}

	messageID := strings.TrimSpace(msg.MessageID)
	if messageID == "" {
		messageID = "sha256:" + hash
	}
	return s.db.UpsertEmail(msg.Provider, messageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched")
}
