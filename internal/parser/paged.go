package parser

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/model"
)

// PagedExtractor extracts text and tables from page-oriented documents
// using the pdftotext CLI tool.
type PagedExtractor struct {
	binPath string
}

// NewPagedExtractor creates a PagedExtractor. If binPath is empty,
// "pdftotext" is used.
func NewPagedExtractor(binPath string) *PagedExtractor {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PagedExtractor{binPath: binPath}
}

// Extract runs the layout-preserving extractor first so tabular regions
// survive, then falls back to raw text extraction. An error is returned
// only when both modes fail.
func (p *PagedExtractor) Extract(ctx context.Context, payload []byte) (string, []model.ParsedTable, error) {
	tmp, err := os.CreateTemp("", "orgair-*.pdf")
	if err != nil {
		return "", nil, eris.Wrap(err, "parser: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return "", nil, eris.Wrap(err, "parser: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return "", nil, eris.Wrap(err, "parser: close temp file")
	}

	text, layoutErr := p.run(ctx, "-layout", tmp.Name())
	if layoutErr == nil {
		return text, extractLayoutTables(text), nil
	}
	zap.L().Debug("layout extraction failed, retrying raw",
		zap.Error(layoutErr))

	text, rawErr := p.run(ctx, "-raw", tmp.Name())
	if rawErr == nil {
		return text, nil, nil
	}

	return "", nil, eris.Wrapf(rawErr, "parser: paged extraction failed (layout: %v)", layoutErr)
}

func (p *PagedExtractor) run(ctx context.Context, mode, path string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, mode, path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "parser: pdftotext %s failed: %s", mode, stderr.String())
	}
	return stdout.String(), nil
}

// Cells in layout output are separated by runs of two or more spaces.
var layoutCellGap = regexp.MustCompile(`\s{2,}`)

// extractLayoutTables scans layout-preserved text page by page for runs
// of lines that split into multiple columns. Two or more consecutive
// multi-column lines form a table; the first line is taken as headers.
func extractLayoutTables(text string) []model.ParsedTable {
	var tables []model.ParsedTable

	for pageIdx, page := range strings.Split(text, "\f") {
		var block [][]string
		flush := func() {
			if t, ok := buildLayoutTable(block, pageIdx+1); ok {
				tables = append(tables, t)
			}
			block = nil
		}

		for _, line := range strings.Split(page, "\n") {
			cells := splitLayoutRow(line)
			if len(cells) >= 2 {
				block = append(block, cells)
				continue
			}
			flush()
		}
		flush()
	}

	for i := range tables {
		tables[i].TableIndex = i
	}
	return tables
}

func splitLayoutRow(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var cells []string
	for _, c := range layoutCellGap.Split(line, -1) {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

func buildLayoutTable(block [][]string, page int) (model.ParsedTable, bool) {
	if len(block) < 2 {
		return model.ParsedTable{}, false
	}

	headers := block[0]
	rows := block[1:]

	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = fitRow(row, colCount)
	}

	return model.ParsedTable{
		PageNumber: page,
		Headers:    fitRow(headers, colCount),
		Rows:       out,
		RowCount:   len(out),
		ColCount:   colCount,
	}, true
}
