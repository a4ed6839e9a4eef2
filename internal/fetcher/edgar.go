package fetcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/model"
)

// EDGARClient downloads filings from the SEC archive. It implements the
// document pipeline's Downloader contract.
type EDGARClient struct {
	client *Client

	// Endpoints are exported so tests can point them at a local server.
	TickersURL     string
	SubmissionsURL string // takes a 10-digit CIK
	ArchivesURL    string // takes numeric CIK, accession, document

	mu   sync.Mutex
	ciks map[string]string
}

// NewEDGARClient creates an EDGARClient. The SEC requires a descriptive
// User-Agent with a contact address; pass it through client options.
func NewEDGARClient(client *Client) *EDGARClient {
	return &EDGARClient{
		client:         client,
		TickersURL:     "https://www.sec.gov/files/company_tickers.json",
		SubmissionsURL: "https://data.sec.gov/submissions/CIK%s.json",
		ArchivesURL:    "https://www.sec.gov/Archives/edgar/data/%s/%s/%s",
		ciks:           make(map[string]string),
	}
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
}

type submissionsIndex struct {
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// lookupCIK resolves a ticker to its zero-padded CIK, caching the full
// ticker table after the first call.
func (e *EDGARClient) lookupCIK(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(ticker)

	e.mu.Lock()
	cik, ok := e.ciks[ticker]
	e.mu.Unlock()
	if ok {
		return cik, nil
	}

	var table map[string]tickerEntry
	if err := e.client.GetJSON(ctx, e.TickersURL, nil, &table); err != nil {
		return "", eris.Wrap(err, "edgar: fetch ticker table")
	}

	e.mu.Lock()
	for _, entry := range table {
		e.ciks[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
	}
	cik, ok = e.ciks[ticker]
	e.mu.Unlock()

	if !ok {
		return "", eris.Errorf("edgar: unknown ticker %q", ticker)
	}
	return cik, nil
}

// Download fetches up to limit filings per category for ticker, newest
// first, filed after the given date. A category's failure is logged and
// skipped without aborting the other categories; an error is returned
// only when nothing at all could be fetched.
func (e *EDGARClient) Download(ctx context.Context, ticker string, categories []model.FilingCategory, after time.Time, limit int) ([]model.RawDocument, error) {
	cik, err := e.lookupCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}

	var index submissionsIndex
	url := fmt.Sprintf(e.SubmissionsURL, cik)
	if err := e.client.GetJSON(ctx, url, nil, &index); err != nil {
		return nil, eris.Wrapf(err, "edgar: fetch submissions for %s", ticker)
	}

	var docs []model.RawDocument
	var failures []error
	for _, category := range categories {
		catDocs, err := e.downloadCategory(ctx, ticker, cik, category, &index, after, limit)
		if err != nil {
			failures = append(failures, err)
			zap.L().Warn("filing category download failed",
				zap.String("ticker", ticker),
				zap.String("category", string(category)),
				zap.Error(err))
			continue
		}
		docs = append(docs, catDocs...)
	}

	if len(docs) == 0 && len(failures) > 0 {
		return nil, eris.Wrapf(failures[0], "edgar: all categories failed for %s", ticker)
	}
	return docs, nil
}

func (e *EDGARClient) downloadCategory(ctx context.Context, ticker, cik string, category model.FilingCategory, index *submissionsIndex, after time.Time, limit int) ([]model.RawDocument, error) {
	recent := index.Filings.Recent
	numericCIK := strings.TrimLeft(cik, "0")

	var docs []model.RawDocument
	for i := range recent.Form {
		if len(docs) >= limit && limit > 0 {
			break
		}
		if recent.Form[i] != string(category) {
			continue
		}
		filed, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil || (!after.IsZero() && filed.Before(after)) {
			continue
		}

		accession := recent.AccessionNumber[i]
		document := recent.PrimaryDocument[i]
		if document == "" {
			continue
		}

		url := fmt.Sprintf(e.ArchivesURL, numericCIK, strings.ReplaceAll(accession, "-", ""), document)
		payload, err := e.client.GetBytes(ctx, url, nil)
		if err != nil {
			return docs, eris.Wrapf(err, "edgar: download %s %s for %s", category, accession, ticker)
		}

		docs = append(docs, model.RawDocument{
			Ticker:     ticker,
			Category:   category,
			FilingDate: filed,
			Filename:   document,
			Accession:  accession,
			Payload:    payload,
		})
	}
	return docs, nil
}
