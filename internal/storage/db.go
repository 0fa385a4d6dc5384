package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"vedexpert/internal"
	"vedexpert/internal/util"
)

// DB is the mail intake ledger. Classification state never lands here.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS queries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  emailId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  source TEXT NOT NULL,
  query TEXT NOT NULL,
  qty REAL,
  unit TEXT,
  metaJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(emailId, lineNo, source, query),
  FOREIGN KEY(emailId) REFERENCES emails(id)
);

CREATE TABLE IF NOT EXISTS quotes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  queryId INTEGER NOT NULL UNIQUE,
  status TEXT NOT NULL,
  code TEXT,
  description TEXT,
  category TEXT,
  origin TEXT,
  declaredValue TEXT,
  dutyRate TEXT,
  vatRate TEXT,
  dutyAmount TEXT,
  vatAmount TEXT,
  totalFees TEXT,
  totalCost TEXT,
  needsReview INTEGER NOT NULL DEFAULT 0,
  documents TEXT,
  candidatesJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(queryId) REFERENCES queries(id)
);
CREATE INDEX IF NOT EXISTS idx_quotes_code ON quotes(code);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  emailId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES emails(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

const emailColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func scanEmail(s interface{ Scan(...any) error }) (internal.EmailRow, error) {
	var row internal.EmailRow
	err := s.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef)
	return row, err
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEmailByID(id int) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`SELECT `+emailColumns+` FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		row, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

// ClearEmailProcessing drops queries and quotes of a message so it can be
// processed again.
func (d *DB) ClearEmailProcessing(emailID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM quotes WHERE queryId IN (SELECT id FROM queries WHERE emailId = ?)`, emailID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM queries WHERE emailId = ?`, emailID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) InsertQuery(emailID int, item internal.ExtractionItem) (int64, error) {
	metaJSON, _ := json.Marshal(item.Meta)
	result, err := d.conn.Exec(`
INSERT INTO queries (emailId, lineNo, source, query, qty, unit, metaJson)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, emailID, item.LineNo, string(item.Source), item.Query, item.Qty, item.Unit, string(metaJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) InsertQuote(queryID int64, row internal.QuoteExportRow, candidates []internal.Candidate) error {
	if candidates == nil {
		candidates = []internal.Candidate{}
	}
	candidatesJSON, _ := json.Marshal(candidates)
	_, err := d.conn.Exec(`
INSERT INTO quotes (
  queryId, status, code, description, category, origin, declaredValue,
  dutyRate, vatRate, dutyAmount, vatAmount, totalFees, totalCost,
  needsReview, documents, candidatesJson
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, queryID, row.Status, row.Code, row.Description, row.Category, row.Origin, row.DeclaredValue,
		row.DutyRate, row.VATRate, row.DutyAmount, row.VATAmount, row.TotalFees, row.TotalCost,
		row.NeedsReview, row.Documents, string(candidatesJSON))
	return err
}

func (d *DB) InsertRun(traceID string, emailID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, emailId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, emailID, string(timingsJSON), string(countsJSON))
	return err
}

// LastRunCounts returns the counters of the most recent run for a message.
func (d *DB) LastRunCounts(emailID int) (map[string]int, error) {
	var countsJSON string
	err := d.conn.QueryRow(`SELECT countsJson FROM runs WHERE emailId = ? ORDER BY id DESC LIMIT 1`, emailID).Scan(&countsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	if err := json.Unmarshal([]byte(countsJSON), &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// GetExportRows lists the quotes of a message: clean classifications first,
// then those needing review, then unclassified lines.
func (d *DB) GetExportRows(emailID int) ([]internal.QuoteExportRow, error) {
	rows, err := d.conn.Query(`
SELECT
  q.lineNo, q.source, q.query, q.qty,
  r.status, r.code, r.description, r.category, r.origin, r.declaredValue,
  r.dutyRate, r.vatRate, r.dutyAmount, r.vatAmount, r.totalFees, r.totalCost,
  r.needsReview, r.documents, r.candidatesJson
FROM queries q
JOIN quotes r ON r.queryId = q.id
WHERE q.emailId = ?
ORDER BY
  CASE WHEN r.status = 'NOT_CLASSIFIED' THEN 3 WHEN r.needsReview = 1 THEN 2 ELSE 1 END,
  q.lineNo ASC
`, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QuoteExportRow
	for rows.Next() {
		var row internal.QuoteExportRow
		var qty sql.NullFloat64
		var code, description, category, origin, declared sql.NullString
		var dutyRate, vatRate, dutyAmount, vatAmount, totalFees, totalCost, documents sql.NullString
		var candidatesJSON string
		if err := rows.Scan(
			&row.InputLineNo, &row.Source, &row.Query, &qty,
			&row.Status, &code, &description, &category, &origin, &declared,
			&dutyRate, &vatRate, &dutyAmount, &vatAmount, &totalFees, &totalCost,
			&row.NeedsReview, &documents, &candidatesJSON,
		); err != nil {
			return nil, err
		}
		row.Qty = qty.Float64
		row.Code, row.Description, row.Category = code.String, description.String, category.String
		row.Origin, row.DeclaredValue = origin.String, declared.String
		row.DutyRate, row.VATRate = dutyRate.String, vatRate.String
		row.DutyAmount, row.VATAmount = dutyAmount.String, vatAmount.String
		row.TotalFees, row.TotalCost = totalFees.String, totalCost.String
		row.Documents = documents.String

		var candidates []internal.Candidate
		_ = json.Unmarshal([]byte(candidatesJSON), &candidates)
		if len(candidates) > 0 {
			row.Candidate = util.StringPtr(candidates[0].Name)
			row.CandidateCode = util.StringPtr(candidates[0].Code)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}
