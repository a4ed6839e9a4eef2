package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/orgair-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// default backend; a single file is enough for a tracked universe of a
// few hundred tickers.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id       TEXT PRIMARY KEY,
	ticker   TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL,
	sector   TEXT NOT NULL DEFAULT '',
	industry TEXT NOT NULL DEFAULT '',
	added_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	ticker        TEXT NOT NULL,
	category      TEXT NOT NULL,
	filing_date   DATETIME NOT NULL,
	source_format TEXT NOT NULL,
	full_text     TEXT NOT NULL,
	word_count    INTEGER NOT NULL,
	tables        TEXT,
	sections      TEXT,
	parse_errors  TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS chunks (
	document_id TEXT NOT NULL REFERENCES documents(id),
	chunk_index INTEGER NOT NULL,
	text        TEXT NOT NULL,
	word_count  INTEGER NOT NULL,
	PRIMARY KEY (document_id, chunk_index)
);

CREATE TABLE IF NOT EXISTS signals (
	id             TEXT PRIMARY KEY,
	company_id     TEXT NOT NULL,
	category       TEXT NOT NULL,
	source         TEXT NOT NULL,
	signal_date    DATETIME NOT NULL,
	raw_value      TEXT NOT NULL,
	score          REAL NOT NULL,
	evidence_count INTEGER NOT NULL,
	confidence     REAL NOT NULL,
	metadata       TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS summaries (
	company_id       TEXT PRIMARY KEY,
	ticker           TEXT NOT NULL,
	hiring_score     REAL,
	innovation_score REAL,
	digital_score    REAL,
	leadership_score REAL,
	composite_score  REAL,
	signal_count     INTEGER NOT NULL DEFAULT 0,
	last_updated     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_ticker ON documents(ticker);
CREATE INDEX IF NOT EXISTS idx_documents_ticker_category ON documents(ticker, category);
CREATE INDEX IF NOT EXISTS idx_signals_company_id ON signals(company_id);
CREATE INDEX IF NOT EXISTS idx_signals_company_category ON signals(company_id, category, signal_date DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, c model.Company) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, ticker, name, sector, industry, added_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ticker) DO UPDATE SET name = excluded.name, sector = excluded.sector, industry = excluded.industry`,
		c.ID.String(), c.Ticker, c.Name, c.Sector, c.Industry, c.AddedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert company %s", c.Ticker)
}

func (s *SQLiteStore) UpsertCompanies(ctx context.Context, companies []model.Company) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO companies (id, ticker, name, sector, industry, added_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ticker) DO UPDATE SET name = excluded.name, sector = excluded.sector, industry = excluded.industry`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	for _, c := range companies {
		if _, err := stmt.ExecContext(ctx, c.ID.String(), c.Ticker, c.Name, c.Sector, c.Industry, c.AddedAt); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert company %s", c.Ticker)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert tx")
	}
	return len(companies), nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, ticker string) (*model.Company, error) {
	var c model.Company
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, ticker, name, sector, industry, added_at FROM companies WHERE ticker = ?`,
		ticker,
	).Scan(&id, &c.Ticker, &c.Name, &c.Sector, &c.Industry, &c.AddedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", ticker)
	}
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse company id %s", id)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticker, name, sector, industry, added_at FROM companies ORDER BY ticker`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		var id string
		if err := rows.Scan(&id, &c.Ticker, &c.Name, &c.Sector, &c.Industry, &c.AddedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse company id %s", id)
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) SaveDocument(ctx context.Context, doc model.ParsedDocument) error {
	tablesJSON, err := json.Marshal(doc.Tables)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tables")
	}
	sectionsJSON, err := json.Marshal(doc.Sections)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sections")
	}
	errorsJSON, err := json.Marshal(doc.ParseErrors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal parse errors")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, ticker, category, filing_date, source_format, full_text, word_count, tables, sections, parse_errors, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		doc.DocumentID, doc.Ticker, string(doc.Category), doc.FilingDate,
		string(doc.SourceFormat), doc.FullText, doc.WordCount,
		string(tablesJSON), string(sectionsJSON), string(errorsJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save document %s", doc.DocumentID)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, documentID string) (*model.ParsedDocument, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ticker, category, filing_date, source_format, full_text, word_count, tables, sections, parse_errors
		 FROM documents WHERE id = ?`,
		documentID,
	)
	doc, err := scanDocumentSQLite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document %s", documentID)
	}
	return doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.ParsedDocument, error) {
	query := `SELECT id, ticker, category, filing_date, source_format, full_text, word_count, tables, sections, parse_errors
	          FROM documents WHERE 1=1`
	var args []any

	if filter.Ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, filter.Ticker)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY filing_date DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.ParsedDocument
	for rows.Next() {
		doc, err := scanDocumentSQLite(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		docs = append(docs, *doc)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) SaveChunks(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin chunk tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (document_id, chunk_index, text, word_count) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare chunk insert")
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.DocumentID, c.ChunkIndex, c.Text, c.ApproxWordCount); err != nil {
			return eris.Wrapf(err, "sqlite: insert chunk %s/%d", c.DocumentID, c.ChunkIndex)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit chunk tx")
}

func (s *SQLiteStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = ?`, documentID,
	).Scan(&count)
	return count, eris.Wrapf(err, "sqlite: count chunks for %s", documentID)
}

func (s *SQLiteStore) SaveSignal(ctx context.Context, sig model.ExternalSignal) error {
	metadataJSON, err := json.Marshal(sig.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal signal metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO signals (id, company_id, category, source, signal_date, raw_value, score, evidence_count, confidence, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sig.ID.String(), sig.CompanyID.String(), string(sig.Category), sig.Source,
		sig.SignalDate, sig.RawValue, sig.Score, sig.EvidenceCount, sig.Confidence,
		string(metadataJSON), sig.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save signal %s", sig.ID)
}

func (s *SQLiteStore) ListSignals(ctx context.Context, companyID uuid.UUID) ([]model.ExternalSignal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, category, source, signal_date, raw_value, score, evidence_count, confidence, metadata, created_at
		 FROM signals WHERE company_id = ? ORDER BY signal_date DESC`,
		companyID.String(),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list signals for %s", companyID)
	}
	defer rows.Close()

	var signals []model.ExternalSignal
	for rows.Next() {
		var sig model.ExternalSignal
		var id, company, metadataJSON string
		if err := rows.Scan(&id, &company, &sig.Category, &sig.Source, &sig.SignalDate,
			&sig.RawValue, &sig.Score, &sig.EvidenceCount, &sig.Confidence,
			&metadataJSON, &sig.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan signal")
		}
		if sig.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse signal id %s", id)
		}
		if sig.CompanyID, err = uuid.Parse(company); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse signal company id %s", company)
		}
		if metadataJSON != "" && metadataJSON != "null" {
			if err := json.Unmarshal([]byte(metadataJSON), &sig.Metadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal signal metadata")
			}
		}
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "sqlite: list signals iterate")
}

func (s *SQLiteStore) SaveSummary(ctx context.Context, summary model.SignalSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (company_id, ticker, hiring_score, innovation_score, digital_score, leadership_score, composite_score, signal_count, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (company_id) DO UPDATE SET
		   ticker = excluded.ticker, hiring_score = excluded.hiring_score,
		   innovation_score = excluded.innovation_score, digital_score = excluded.digital_score,
		   leadership_score = excluded.leadership_score, composite_score = excluded.composite_score,
		   signal_count = excluded.signal_count, last_updated = excluded.last_updated`,
		summary.CompanyID.String(), summary.Ticker,
		summary.HiringScore, summary.InnovationScore, summary.DigitalScore,
		summary.LeadershipScore, summary.CompositeScore,
		summary.SignalCount, summary.LastUpdated,
	)
	return eris.Wrapf(err, "sqlite: save summary for %s", summary.Ticker)
}

func (s *SQLiteStore) GetSummary(ctx context.Context, companyID uuid.UUID) (*model.SignalSummary, error) {
	var sum model.SignalSummary
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT company_id, ticker, hiring_score, innovation_score, digital_score, leadership_score, composite_score, signal_count, last_updated
		 FROM summaries WHERE company_id = ?`,
		companyID.String(),
	).Scan(&id, &sum.Ticker, &sum.HiringScore, &sum.InnovationScore, &sum.DigitalScore,
		&sum.LeadershipScore, &sum.CompositeScore, &sum.SignalCount, &sum.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get summary for %s", companyID)
	}
	if sum.CompanyID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse summary company id %s", id)
	}
	return &sum, nil
}

func (s *SQLiteStore) ListSummaries(ctx context.Context) ([]model.SignalSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_id, ticker, hiring_score, innovation_score, digital_score, leadership_score, composite_score, signal_count, last_updated
		 FROM summaries ORDER BY composite_score IS NULL, composite_score DESC, ticker`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list summaries")
	}
	defer rows.Close()

	var summaries []model.SignalSummary
	for rows.Next() {
		var sum model.SignalSummary
		var id string
		if err := rows.Scan(&id, &sum.Ticker, &sum.HiringScore, &sum.InnovationScore,
			&sum.DigitalScore, &sum.LeadershipScore, &sum.CompositeScore,
			&sum.SignalCount, &sum.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan summary")
		}
		if sum.CompanyID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse summary company id %s", id)
		}
		summaries = append(summaries, sum)
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: list summaries iterate")
}

// Open selects a backend by driver name.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn)
	case "sqlite", "":
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanDocumentSQLite(row scannable) (*model.ParsedDocument, error) {
	var doc model.ParsedDocument
	var category, format string
	var tablesJSON, sectionsJSON, errorsJSON sql.NullString

	err := row.Scan(&doc.DocumentID, &doc.Ticker, &category, &doc.FilingDate,
		&format, &doc.FullText, &doc.WordCount, &tablesJSON, &sectionsJSON, &errorsJSON)
	if err != nil {
		return nil, err
	}
	doc.Category = model.FilingCategory(category)
	doc.SourceFormat = model.SourceFormat(format)

	if tablesJSON.Valid && tablesJSON.String != "null" {
		if err := json.Unmarshal([]byte(tablesJSON.String), &doc.Tables); err != nil {
			return nil, eris.Wrap(err, "unmarshal tables")
		}
	}
	if sectionsJSON.Valid && sectionsJSON.String != "null" {
		if err := json.Unmarshal([]byte(sectionsJSON.String), &doc.Sections); err != nil {
			return nil, eris.Wrap(err, "unmarshal sections")
		}
	}
	if errorsJSON.Valid && errorsJSON.String != "null" {
		if err := json.Unmarshal([]byte(errorsJSON.String), &doc.ParseErrors); err != nil {
			return nil, eris.Wrap(err, "unmarshal parse errors")
		}
	}
	return &doc, nil
}
