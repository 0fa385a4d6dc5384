package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"vedexpert/internal"
	"vedexpert/internal/storage"
)

// ProcessingService runs stored mail messages through the classification
// pipeline and records the outcome in the ledger.
type ProcessingService struct {
	db  *storage.DB
	svc *Service
}

func NewProcessingService(db *storage.DB, svc *Service) *ProcessingService {
	return &ProcessingService{db: db, svc: svc}
}

type ProcessResult struct {
	EmailID   int
	Processed int
	Summary   BatchSummary
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(email)
}

// ProcessByID reprocesses one stored message by its ledger id.
func (s *ProcessingService) ProcessByID(emailID int) (ProcessResult, error) {
	email, err := s.db.GetEmailByID(emailID)
	if err != nil {
		return ProcessResult{}, err
	}
	if email == nil {
		return ProcessResult{}, fmt.Errorf("email not found: id=%d", emailID)
	}
	return s.ProcessEmail(*email)
}

func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	processedLines := 0
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(email)
		if err != nil {
			return processedEmails, processedLines, err
		}
		processedEmails++
		processedLines += res.Processed
	}
	return processedEmails, processedLines, nil
}

func (s *ProcessingService) ProcessEmail(email internal.EmailRow) (ProcessResult, error) {
	start := time.Now()
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	items, subject, text, attachmentNames, err := ExtractItemsFromEmailRaw(raw)
	if err != nil {
		return ProcessResult{}, err
	}

	detect := DetectClassificationRequest(firstNonEmpty(subject, email.Subject), text, "", attachmentNames)
	if err := s.db.ClearEmailProcessing(email.ID); err != nil {
		return ProcessResult{}, err
	}

	if !detect.IsRequest {
		slog.Info("mail skipped", "email_id", email.ID, "score", detect.Score)
		_ = s.db.UpdateEmailStatus(email.ID, "skipped")
		_ = s.db.InsertRun(traceID(), email.ID, timings(start), map[string]int{"extracted": 0, "classified": 0, "review": 0, "notClassified": 0})
		return ProcessResult{EmailID: email.ID}, nil
	}

	lines, summary := s.svc.ClassifyBatch(items)
	for _, line := range lines {
		queryID, err := s.db.InsertQuery(email.ID, line.Item)
		if err != nil {
			return ProcessResult{}, err
		}
		if err := s.db.InsertQuote(queryID, ExportRow(line), line.Quote.Candidates); err != nil {
			return ProcessResult{}, err
		}
	}

	if err := s.db.UpdateEmailStatus(email.ID, "processed"); err != nil {
		return ProcessResult{}, err
	}
	_ = s.db.InsertRun(traceID(), email.ID, timings(start), map[string]int{
		"extracted":     summary.Lines,
		"classified":    summary.Classified,
		"review":        summary.NeedsReview,
		"notClassified": summary.NotClassified,
	})
	slog.Info("mail processed", "email_id", email.ID, "lines", summary.Lines, "classified", summary.Classified, "review", summary.NeedsReview)

	return ProcessResult{EmailID: email.ID, Processed: len(lines), Summary: summary}, nil
}

func timings(start time.Time) map[string]float64 {
	return map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
}

func traceID() string {
	return uuid.NewString()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
