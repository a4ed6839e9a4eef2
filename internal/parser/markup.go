package parser

import (
	"bytes"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/sells-group/orgair-cli/internal/model"
)

// Element subtrees that carry no visible content.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"meta":     {},
	"link":     {},
	"head":     {},
	"noscript": {},
}

// extractMarkup parses an HTML or HTML-ish payload and returns visible
// text plus every table of at least two rows.
func extractMarkup(payload []byte) (string, []model.ParsedTable, error) {
	doc, err := html.Parse(bytes.NewReader(payload))
	if err != nil {
		return "", nil, eris.Wrap(err, "parser: parse markup")
	}

	var sb strings.Builder
	collectText(doc, &sb)

	var tables []model.ParsedTable
	collectTables(doc, &tables)
	for i := range tables {
		tables[i].TableIndex = i
	}

	return sb.String(), tables, nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		if _, skip := skippedElements[n.Data]; skip {
			return
		}
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteByte(' ')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func collectTables(n *html.Node, tables *[]model.ParsedTable) {
	if n.Type == html.ElementNode && n.Data == "table" {
		if t, ok := extractTable(n); ok {
			*tables = append(*tables, t)
		}
		// Nested tables inside this one are not extracted separately.
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTables(c, tables)
	}
}

// extractTable converts a table node. Rows whose cells are all empty are
// dropped. The table is kept only when at least two rows survive (one
// header plus one data row, or two data rows).
func extractTable(table *html.Node) (model.ParsedTable, bool) {
	var headers []string
	var rows [][]string

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells, isHeader := extractRow(n)
			if allEmpty(cells) {
				return
			}
			if isHeader && headers == nil {
				headers = cells
			} else {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)

	total := len(rows)
	if headers != nil {
		total++
	}
	if total < 2 {
		return model.ParsedTable{}, false
	}

	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	for i, row := range rows {
		rows[i] = fitRow(row, colCount)
	}
	if headers != nil {
		headers = fitRow(headers, colCount)
	}

	return model.ParsedTable{
		Headers:  headers,
		Rows:     rows,
		RowCount: len(rows),
		ColCount: colCount,
	}, true
}

// extractRow returns the row's cell texts and whether it is a header row
// (contains at least one th).
func extractRow(tr *html.Node) ([]string, bool) {
	var cells []string
	isHeader := false
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "th":
			isHeader = true
			cells = append(cells, cellText(c))
		case "td":
			cells = append(cells, cellText(c))
		}
	}
	return cells, isHeader
}

func cellText(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb)
	return strings.TrimSpace(sb.String())
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// fitRow pads or truncates a row to exactly width cells.
func fitRow(row []string, width int) []string {
	if len(row) > width {
		return row[:width]
	}
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
