// Package roster loads company rosters from CSV and XLSX files.
package roster

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/orgair-cli/internal/model"
)

// Load reads a roster file into companies, dispatching on extension.
// The first row must be a header naming at least ticker and name;
// sector and industry columns are optional.
func Load(path string) ([]model.Company, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, eris.Errorf("roster: unsupported file type %q", filepath.Ext(path))
	}
}

func loadCSV(path string) ([]model.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "roster: read %s", path)
		}
		rows = append(rows, record)
	}
	return fromRows(rows)
}

func loadXLSX(path string) ([]model.Company, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("roster: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return fromRows(rows)
}

// fromRows maps header-addressed rows to companies. Rows missing a
// ticker or name are skipped rather than failing the whole import.
func fromRows(rows [][]string) ([]model.Company, error) {
	if len(rows) == 0 {
		return nil, eris.New("roster: file is empty")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	tickerIdx, ok := cols["ticker"]
	if !ok {
		return nil, eris.New("roster: header is missing ticker column")
	}
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, eris.New("roster: header is missing name column")
	}

	cell := func(row []string, idx int, ok bool) string {
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	sectorIdx, hasSector := cols["sector"]
	industryIdx, hasIndustry := cols["industry"]

	var companies []model.Company
	for _, row := range rows[1:] {
		ticker := strings.ToUpper(cell(row, tickerIdx, true))
		name := cell(row, nameIdx, true)
		if ticker == "" || name == "" {
			continue
		}
		c := model.NewCompany(ticker, name)
		c.Sector = cell(row, sectorIdx, hasSector)
		c.Industry = cell(row, industryIdx, hasIndustry)
		companies = append(companies, c)
	}

	if len(companies) == 0 {
		return nil, eris.New("roster: no usable rows")
	}
	return companies, nil
}
