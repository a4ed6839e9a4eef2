package model

import (
	"strings"
	"time"
)

// SourceFormat identifies the physical format a filing arrived in.
type SourceFormat string

const (
	// FormatMarkup covers HTML, HTML-ish full-submission text, and plain text.
	FormatMarkup SourceFormat = "structured-markup"
	// FormatPaged covers page-oriented binary documents (PDF).
	FormatPaged SourceFormat = "page-oriented"
)

// FilingCategory is a regulatory document type classification.
type FilingCategory string

const (
	FilingAnnualReport    FilingCategory = "10-K"
	FilingQuarterlyReport FilingCategory = "10-Q"
	FilingCurrentReport   FilingCategory = "8-K"
	FilingProxyStatement  FilingCategory = "DEF 14A"
)

// RawDocument is an unparsed filing payload with its provenance. It is
// created by the acquisition client and consumed exactly once by the parser.
type RawDocument struct {
	Ticker     string
	Category   FilingCategory
	FilingDate time.Time
	Filename   string
	Accession  string
	Payload    []byte
}

// ParsedTable is one tabular region extracted from a filing.
// Every row has exactly ColCount cells; extraction pads or truncates.
type ParsedTable struct {
	TableIndex int        `json:"table_index"`
	PageNumber int        `json:"page_number,omitempty"` // 0 = unknown (markup path)
	Headers    []string   `json:"headers"`
	Rows       [][]string `json:"rows"`
	RowCount   int        `json:"row_count"`
	ColCount   int        `json:"col_count"`
}

// ParsedDocument is the immutable output of the parser. A degraded parse
// still produces a ParsedDocument; ParseErrors carries what went wrong.
type ParsedDocument struct {
	DocumentID   string            `json:"document_id"`
	Ticker       string            `json:"ticker"`
	Category     FilingCategory    `json:"filing_category"`
	FilingDate   time.Time         `json:"filing_date"`
	SourceFormat SourceFormat      `json:"source_format"`
	FullText     string            `json:"full_text"`
	WordCount    int               `json:"word_count"`
	Tables       []ParsedTable     `json:"tables"`
	Sections     map[string]string `json:"sections"`
	ParseErrors  []string          `json:"parse_errors"`
}

// Degraded reports whether parsing exhausted its fallbacks.
func (d *ParsedDocument) Degraded() bool {
	return len(d.ParseErrors) > 0
}

// Chunk is one overlapping word window of a document's full text.
type Chunk struct {
	DocumentID      string `json:"document_id"`
	ChunkIndex      int    `json:"chunk_index"`
	Text            string `json:"text"`
	ApproxWordCount int    `json:"approx_word_count"`
}

// CountWords returns the whitespace-token count the parser and chunker agree on.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
