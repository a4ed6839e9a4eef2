package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/orgair-cli/internal/db"
	"github.com/sells-group/orgair-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id       TEXT PRIMARY KEY,
	ticker   TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL,
	sector   TEXT NOT NULL DEFAULT '',
	industry TEXT NOT NULL DEFAULT '',
	added_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	ticker        TEXT NOT NULL,
	category      TEXT NOT NULL,
	filing_date   TIMESTAMPTZ NOT NULL,
	source_format TEXT NOT NULL,
	full_text     TEXT NOT NULL,
	word_count    INTEGER NOT NULL,
	tables        JSONB,
	sections      JSONB,
	parse_errors  JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
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
	signal_date    TIMESTAMPTZ NOT NULL,
	raw_value      TEXT NOT NULL,
	score          DOUBLE PRECISION NOT NULL,
	evidence_count INTEGER NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL,
	metadata       JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS summaries (
	company_id       TEXT PRIMARY KEY,
	ticker           TEXT NOT NULL,
	hiring_score     DOUBLE PRECISION,
	innovation_score DOUBLE PRECISION,
	digital_score    DOUBLE PRECISION,
	leadership_score DOUBLE PRECISION,
	composite_score  DOUBLE PRECISION,
	signal_count     INTEGER NOT NULL DEFAULT 0,
	last_updated     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_ticker ON documents(ticker);
CREATE INDEX IF NOT EXISTS idx_documents_ticker_category ON documents(ticker, category);
CREATE INDEX IF NOT EXISTS idx_signals_company_id ON signals(company_id);
CREATE INDEX IF NOT EXISTS idx_signals_company_category ON signals(company_id, category, signal_date DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, c model.Company) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, ticker, name, sector, industry, added_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (ticker) DO UPDATE SET name = $3, sector = $4, industry = $5`,
		c.ID.String(), c.Ticker, c.Name, c.Sector, c.Industry, c.AddedAt,
	)
	return eris.Wrapf(err, "postgres: upsert company %s", c.Ticker)
}

// UpsertCompanies bulk-upserts via a temp table and COPY, which keeps
// roster imports of a few thousand rows to a single round trip.
func (s *PostgresStore) UpsertCompanies(ctx context.Context, companies []model.Company) (int, error) {
	rows := make([][]any, 0, len(companies))
	for _, c := range companies {
		rows = append(rows, []any{c.ID.String(), c.Ticker, c.Name, c.Sector, c.Industry, c.AddedAt})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "companies",
		Columns:      []string{"id", "ticker", "name", "sector", "industry", "added_at"},
		ConflictKeys: []string{"ticker"},
		UpdateCols:   []string{"name", "sector", "industry"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk upsert companies")
	}
	return int(n), nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, ticker string) (*model.Company, error) {
	var c model.Company
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id, ticker, name, sector, industry, added_at FROM companies WHERE ticker = $1`,
		ticker,
	).Scan(&id, &c.Ticker, &c.Name, &c.Sector, &c.Industry, &c.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", ticker)
	}
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "postgres: parse company id %s", id)
	}
	return &c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, ticker, name, sector, industry, added_at FROM companies ORDER BY ticker`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		var id string
		if err := rows.Scan(&id, &c.Ticker, &c.Name, &c.Sector, &c.Industry, &c.AddedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse company id %s", id)
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) SaveDocument(ctx context.Context, doc model.ParsedDocument) error {
	tablesJSON, err := json.Marshal(doc.Tables)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tables")
	}
	sectionsJSON, err := json.Marshal(doc.Sections)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal sections")
	}
	errorsJSON, err := json.Marshal(doc.ParseErrors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal parse errors")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, ticker, category, filing_date, source_format, full_text, word_count, tables, sections, parse_errors, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		doc.DocumentID, doc.Ticker, string(doc.Category), doc.FilingDate,
		string(doc.SourceFormat), doc.FullText, doc.WordCount,
		tablesJSON, sectionsJSON, errorsJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save document %s", doc.DocumentID)
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (*model.ParsedDocument, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, ticker, category, filing_date, source_format, full_text, word_count, tables, sections, parse_errors
		 FROM documents WHERE id = $1`,
		documentID,
	)
	doc, err := scanDocumentPgx(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get document %s", documentID)
	}
	return doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.ParsedDocument, error) {
	query := `SELECT id, ticker, category, filing_date, source_format, full_text, word_count, tables, sections, parse_errors
	          FROM documents WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Ticker != "" {
		query += fmt.Sprintf(` AND ticker = $%d`, argIdx)
		args = append(args, filter.Ticker)
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}
	query += ` ORDER BY filing_date DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.ParsedDocument
	for rows.Next() {
		doc, err := scanDocumentPgx(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		docs = append(docs, *doc)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

// SaveChunks bulk-inserts via COPY; chunk rows only ever arrive for a
// freshly inserted document, so there is no conflict to resolve.
func (s *PostgresStore) SaveChunks(ctx context.Context, chunks []model.Chunk) error {
	rows := make([][]any, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, []any{c.DocumentID, c.ChunkIndex, c.Text, c.ApproxWordCount})
	}
	_, err := db.CopyFrom(ctx, s.pool, "chunks",
		[]string{"document_id", "chunk_index", "text", "word_count"}, rows)
	return eris.Wrap(err, "postgres: save chunks")
}

func (s *PostgresStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID,
	).Scan(&count)
	return count, eris.Wrapf(err, "postgres: count chunks for %s", documentID)
}

func (s *PostgresStore) SaveSignal(ctx context.Context, sig model.ExternalSignal) error {
	metadataJSON, err := json.Marshal(sig.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal signal metadata")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO signals (id, company_id, category, source, signal_date, raw_value, score, evidence_count, confidence, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sig.ID.String(), sig.CompanyID.String(), string(sig.Category), sig.Source,
		sig.SignalDate, sig.RawValue, sig.Score, sig.EvidenceCount, sig.Confidence,
		metadataJSON, sig.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save signal %s", sig.ID)
}

func (s *PostgresStore) ListSignals(ctx context.Context, companyID uuid.UUID) ([]model.ExternalSignal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, category, source, signal_date, raw_value, score, evidence_count, confidence, metadata, created_at
		 FROM signals WHERE company_id = $1 ORDER BY signal_date DESC`,
		companyID.String(),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list signals for %s", companyID)
	}
	defer rows.Close()

	var signals []model.ExternalSignal
	for rows.Next() {
		var sig model.ExternalSignal
		var id, company string
		var metadataJSON []byte
		if err := rows.Scan(&id, &company, &sig.Category, &sig.Source, &sig.SignalDate,
			&sig.RawValue, &sig.Score, &sig.EvidenceCount, &sig.Confidence,
			&metadataJSON, &sig.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan signal")
		}
		if sig.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse signal id %s", id)
		}
		if sig.CompanyID, err = uuid.Parse(company); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse signal company id %s", company)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &sig.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal signal metadata")
			}
		}
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "postgres: list signals iterate")
}

func (s *PostgresStore) SaveSummary(ctx context.Context, summary model.SignalSummary) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO summaries (company_id, ticker, hiring_score, innovation_score, digital_score, leadership_score, composite_score, signal_count, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (company_id) DO UPDATE SET
		   ticker = $2, hiring_score = $3, innovation_score = $4, digital_score = $5,
		   leadership_score = $6, composite_score = $7, signal_count = $8, last_updated = $9`,
		summary.CompanyID.String(), summary.Ticker,
		summary.HiringScore, summary.InnovationScore, summary.DigitalScore,
		summary.LeadershipScore, summary.CompositeScore,
		summary.SignalCount, summary.LastUpdated,
	)
	return eris.Wrapf(err, "postgres: save summary for %s", summary.Ticker)
}

func (s *PostgresStore) GetSummary(ctx context.Context, companyID uuid.UUID) (*model.SignalSummary, error) {
	var sum model.SignalSummary
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT company_id, ticker, hiring_score, innovation_score, digital_score, leadership_score, composite_score, signal_count, last_updated
		 FROM summaries WHERE company_id = $1`,
		companyID.String(),
	).Scan(&id, &sum.Ticker, &sum.HiringScore, &sum.InnovationScore, &sum.DigitalScore,
		&sum.LeadershipScore, &sum.CompositeScore, &sum.SignalCount, &sum.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get summary for %s", companyID)
	}
	if sum.CompanyID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "postgres: parse summary company id %s", id)
	}
	return &sum, nil
}

func (s *PostgresStore) ListSummaries(ctx context.Context) ([]model.SignalSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_id, ticker, hiring_score, innovation_score, digital_score, leadership_score, composite_score, signal_count, last_updated
		 FROM summaries ORDER BY composite_score DESC NULLS LAST, ticker`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list summaries")
	}
	defer rows.Close()

	var summaries []model.SignalSummary
	for rows.Next() {
		var sum model.SignalSummary
		var id string
		if err := rows.Scan(&id, &sum.Ticker, &sum.HiringScore, &sum.InnovationScore,
			&sum.DigitalScore, &sum.LeadershipScore, &sum.CompositeScore,
			&sum.SignalCount, &sum.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "postgres: scan summary")
		}
		if sum.CompanyID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse summary company id %s", id)
		}
		summaries = append(summaries, sum)
	}
	return summaries, eris.Wrap(rows.Err(), "postgres: list summaries iterate")
}

// helpers

type pgxScannable interface {
	Scan(dest ...any) error
}

func scanDocumentPgx(row pgxScannable) (*model.ParsedDocument, error) {
	var doc model.ParsedDocument
	var category, format string
	var tablesJSON, sectionsJSON, errorsJSON []byte

	err := row.Scan(&doc.DocumentID, &doc.Ticker, &category, &doc.FilingDate,
		&format, &doc.FullText, &doc.WordCount, &tablesJSON, &sectionsJSON, &errorsJSON)
	if err != nil {
		return nil, err
	}
	doc.Category = model.FilingCategory(category)
	doc.SourceFormat = model.SourceFormat(format)

	if len(tablesJSON) > 0 {
		if err := json.Unmarshal(tablesJSON, &doc.Tables); err != nil {
			return nil, eris.Wrap(err, "unmarshal tables")
		}
	}
	if len(sectionsJSON) > 0 {
		if err := json.Unmarshal(sectionsJSON, &doc.Sections); err != nil {
			return nil, eris.Wrap(err, "unmarshal sections")
		}
	}
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &doc.ParseErrors); err != nil {
			return nil, eris.Wrap(err, "unmarshal parse errors")
		}
	}
	return &doc, nil
}
