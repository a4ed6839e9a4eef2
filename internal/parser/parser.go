// Package parser turns raw filing payloads into ParsedDocuments:
// format detection, text extraction, table extraction, section
// extraction, and normalization.
package parser

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/dedup"
	"github.com/sells-group/orgair-cli/internal/model"
)

// Parser parses raw documents. Construct one per pipeline run and pass
// it in explicitly.
type Parser struct {
	paged *PagedExtractor
}

// New creates a Parser. pdfToTextPath may be empty to use the binary
// from PATH.
func New(pdfToTextPath string) *Parser {
	return &Parser{paged: NewPagedExtractor(pdfToTextPath)}
}

// Parse converts a raw document into a ParsedDocument. It never returns
// an error: when extraction fails after all fallbacks the result is an
// empty document whose ParseErrors records what went wrong, and the
// caller distinguishes that degraded outcome via Degraded().
func (p *Parser) Parse(ctx context.Context, raw model.RawDocument) model.ParsedDocument {
	doc := model.ParsedDocument{
		Ticker:     raw.Ticker,
		Category:   raw.Category,
		FilingDate: raw.FilingDate,
		Sections:   map[string]string{},
	}

	doc.SourceFormat = Detect(raw.Filename, raw.Payload)

	var (
		text   string
		tables []model.ParsedTable
		err    error
	)
	switch doc.SourceFormat {
	case model.FormatPaged:
		text, tables, err = p.paged.Extract(ctx, raw.Payload)
	default:
		text, tables, err = extractMarkup(raw.Payload)
	}
	if err != nil {
		doc.ParseErrors = append(doc.ParseErrors, err.Error())
		doc.DocumentID = dedup.Digest("")
		zap.L().Warn("parse failed",
			zap.String("ticker", raw.Ticker),
			zap.String("filename", raw.Filename),
			zap.Error(err))
		return doc
	}

	doc.FullText = Normalize(text)
	doc.WordCount = model.CountWords(doc.FullText)
	doc.Tables = tables
	doc.Sections = ExtractSections(doc.FullText)
	doc.DocumentID = dedup.Digest(doc.FullText)

	zap.L().Debug("parsed document",
		zap.String("ticker", raw.Ticker),
		zap.String("filename", raw.Filename),
		zap.String("format", string(doc.SourceFormat)),
		zap.Int("words", doc.WordCount),
		zap.Int("tables", len(doc.Tables)),
		zap.Int("sections", len(doc.Sections)))

	return doc
}
