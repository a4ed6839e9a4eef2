package docpipe

import (
	"time"

	"github.com/sells-group/orgair-cli/internal/model"
)

// Stage names the document pipeline's strictly sequential phases.
type Stage string

const (
	StageInitialized  Stage = "initialized"
	StageDownloaded   Stage = "downloaded"
	StageParsed       Stage = "parsed"
	StageDeduplicated Stage = "deduplicated"
	StageChunked      Stage = "chunked"
	StagePersisted    Stage = "persisted"
)

// Terminal per-document outcomes recorded in the summary details.
const (
	StatusSuccess          = "success"
	StatusDuplicateSkipped = "duplicate_skipped"
	StatusParseFailed      = "parse_failed"
	StatusDownloadFailed   = "download_failed"
)

// Detail is one terminal document outcome. Details are append-only and
// never rewritten.
type Detail struct {
	Ticker     string `json:"ticker"`
	Category   string `json:"filing_category,omitempty"`
	Filename   string `json:"filename,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// StageError records a recovered per-item failure with enough context to
// retry the failing item.
type StageError struct {
	Stage   string `json:"stage"`
	Ticker  string `json:"ticker"`
	Message string `json:"message"`
}

// Summary is the run report. Invariant: AttemptedDownloads >=
// UniqueFilingsProcessed + SkippedDuplicates.
type Summary struct {
	AttemptedDownloads     int          `json:"attempted_downloads"`
	UniqueFilingsProcessed int          `json:"unique_filings_processed"`
	SkippedDuplicates      int          `json:"skipped_duplicates"`
	ParseFailures          int          `json:"parse_failures"`
	ChunksCreated          int          `json:"chunks_created"`
	Details                []Detail     `json:"details"`
	Errors                 []StageError `json:"errors"`
}

// State is the single mutable accumulator threaded through the pipeline
// stages. It is owned by one run and is not safe for concurrent
// mutation; stages integrate results into it one at a time.
type State struct {
	RunID       string
	Tickers     []string
	Categories  []model.FilingCategory
	AfterDate   time.Time
	FilingLimit int

	Stage        Stage
	Downloaded   []model.RawDocument
	Parsed       []model.ParsedDocument
	Deduplicated []model.ParsedDocument
	Chunks       []model.Chunk

	Summary     Summary
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewState creates a run state in the initialized stage.
func NewState(runID string, tickers []string, categories []model.FilingCategory, after time.Time, limit int) *State {
	return &State{
		RunID:       runID,
		Tickers:     tickers,
		Categories:  categories,
		AfterDate:   after,
		FilingLimit: limit,
		Stage:       StageInitialized,
		StartedAt:   time.Now().UTC(),
	}
}

func (s *State) addError(stage, ticker, message string) {
	s.Summary.Errors = append(s.Summary.Errors, StageError{
		Stage:   stage,
		Ticker:  ticker,
		Message: message,
	})
}

func (s *State) addDetail(d Detail) {
	s.Summary.Details = append(s.Summary.Details, d)
}
