// Package store persists companies, parsed filings, chunks, signals,
// and score summaries behind a backend-neutral interface.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/sells-group/orgair-cli/internal/model"
)

// DocumentFilter specifies criteria for listing parsed documents.
type DocumentFilter struct {
	Ticker   string               `json:"ticker,omitempty"`
	Category model.FilingCategory `json:"category,omitempty"`
	Limit    int                  `json:"limit,omitempty"`
}

// Store defines the persistence interface shared by both pipelines and
// the read-only HTTP facade.
type Store interface {
	// Companies
	UpsertCompany(ctx context.Context, c model.Company) error
	UpsertCompanies(ctx context.Context, companies []model.Company) (int, error)
	GetCompany(ctx context.Context, ticker string) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)

	// Documents and chunks
	SaveDocument(ctx context.Context, doc model.ParsedDocument) error
	GetDocument(ctx context.Context, documentID string) (*model.ParsedDocument, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.ParsedDocument, error)
	SaveChunks(ctx context.Context, chunks []model.Chunk) error
	CountChunks(ctx context.Context, documentID string) (int, error)

	// Signals
	SaveSignal(ctx context.Context, sig model.ExternalSignal) error
	ListSignals(ctx context.Context, companyID uuid.UUID) ([]model.ExternalSignal, error)

	// Summaries
	SaveSummary(ctx context.Context, summary model.SignalSummary) error
	GetSummary(ctx context.Context, companyID uuid.UUID) (*model.SignalSummary, error)
	ListSummaries(ctx context.Context) ([]model.SignalSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
