package listener

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"vedexpert/internal/config"
	"vedexpert/internal/connectors"
	gmailconnector "vedexpert/internal/connectors/gmail"
	imapconnector "vedexpert/internal/connectors/imap"
	"vedexpert/internal/pipeline"
	"vedexpert/internal/storage"
)

const lastCycleKey = "listener_last_cycle"

// Service polls a mailbox, classifies requests found in new messages and
// writes one XLSX report per processed message.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.ProcessingService
	connector connectors.MailConnector
}

func NewService(db *storage.DB, cfg config.Config, svc *pipeline.Service) *Service {
	return &Service{db: db, cfg: cfg, processor: pipeline.NewProcessingService(db, svc)}
}

// WithConnector replaces the provider connector built from config.
func (s *Service) WithConnector(c connectors.MailConnector) *Service {
	s.connector = c
	return s
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	attrs := []any{"provider", s.provider(), "interval", interval}
	if last, ok, err := s.LastCycle(); err != nil {
		slog.Warn("read last listener cycle", "error", err)
	} else if ok {
		attrs = append(attrs, "last_cycle", last)
	}
	slog.Info("mail listener started", attrs...)

	for {
		if err := s.RunCycle(ctx); err != nil {
			slog.Error("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("mail listener stopped")
			return nil
		case <-time.After(interval):
		}
	}
}

// LastCycle reports when the listener last completed a cycle against this
// ledger. ok is false if no cycle has run yet.
func (s *Service) LastCycle() (at time.Time, ok bool, err error) {
	v, err := s.db.GetMetadata(lastCycleKey)
	if err != nil || v == nil {
		return time.Time{}, false, err
	}
	at, err = time.Parse(time.RFC3339, *v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", lastCycleKey, err)
	}
	return at, true, nil
}

func (s *Service) provider() string {
	return strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
}

func (s *Service) RunCycle(ctx context.Context) error {
	provider := s.provider()
	mailConnector, err := s.makeConnector(ctx, provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processedEmails, processedLines, err := s.processor.ProcessPending(s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return err
	}

	exported := 0
	if s.cfg.MailListenerAutoExport {
		if exported, err = s.exportProcessed(provider); err != nil {
			return err
		}
	}

	_ = s.db.SetMetadata(lastCycleKey, time.Now().UTC().Format(time.RFC3339))
	slog.Info("listener cycle done",
		"provider", provider,
		"fetched", fetchResult.Fetched,
		"stored", fetchResult.Stored,
		"processed", processedEmails,
		"lines", processedLines,
		"exported", exported,
	)
	return nil
}

func (s *Service) exportProcessed(provider string) (int, error) {
	emails, err := s.db.ListEmailsByStatus("processed", 200)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, email := range emails {
		if email.Provider != provider {
			continue
		}
		rows, err := s.db.GetExportRows(email.ID)
		if err != nil {
			return exported, err
		}
		if len(rows) == 0 {
			continue
		}
		outputPath := ReportPath(s.cfg.OutputDir, email.ID, email.MessageID)
		if err := pipeline.ExportQuotesToXLSX(rows, outputPath); err != nil {
			return exported, err
		}
		_ = s.db.UpdateEmailStatus(email.ID, "exported")
		exported++
	}
	return exported, nil
}

// ReportPath is where the report of one message is written.
func ReportPath(outputDir string, emailID int, messageID string) string {
	filename := fmt.Sprintf("%d_%s.xlsx", emailID, sanitizeMessageID(messageID))
	return filepath.Join(outputDir, "listener", filename)
}

func (s *Service) makeConnector(ctx context.Context, provider string) (connectors.MailConnector, error) {
	if s.connector != nil {
		return s.connector, nil
	}
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "@", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
