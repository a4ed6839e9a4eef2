package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orgair-cli/internal/model"
)

func newTestEDGAR(t *testing.T, handler http.Handler) (*EDGARClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	e := NewEDGARClient(NewClient(Options{MaxRetries: 1}))
	e.TickersURL = srv.URL + "/files/company_tickers.json"
	e.SubmissionsURL = srv.URL + "/submissions/CIK%s.json"
	e.ArchivesURL = srv.URL + "/Archives/edgar/data/%s/%s/%s"
	return e, srv
}

func TestEDGARDownloadFiltersByFormAndDate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"0":{"cik_str":18230,"ticker":"CAT"}}`)
	})
	mux.HandleFunc("/submissions/CIK0000018230.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"filings":{"recent":{
			"accessionNumber":["0000018230-24-000100","0000018230-23-000050","0000018230-20-000010"],
			"filingDate":["2024-02-15","2023-02-16","2020-02-19"],
			"form":["10-K","10-K","10-K"],
			"primaryDocument":["cat-2024.htm","cat-2023.htm","cat-2020.htm"]}}}`)
	})
	mux.HandleFunc("/Archives/edgar/data/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html>filing %s</html>", r.URL.Path)
	})

	e, _ := newTestEDGAR(t, mux)

	after := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	docs, err := e.Download(context.Background(), "cat", []model.FilingCategory{model.FilingAnnualReport}, after, 10)
	require.NoError(t, err)

	// The 2020 filing falls before the cutoff.
	require.Len(t, docs, 2)
	assert.Equal(t, "CAT", docs[0].Ticker)
	assert.Equal(t, model.FilingAnnualReport, docs[0].Category)
	assert.Equal(t, "cat-2024.htm", docs[0].Filename)
	assert.Equal(t, "0000018230-24-000100", docs[0].Accession)
	assert.Contains(t, string(docs[0].Payload), "18230/000001823024000100/cat-2024.htm")
}

func TestEDGARDownloadRespectsLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"0":{"cik_str":18230,"ticker":"CAT"}}`)
	})
	mux.HandleFunc("/submissions/CIK0000018230.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"filings":{"recent":{
			"accessionNumber":["a-1","a-2","a-3"],
			"filingDate":["2024-05-01","2024-02-01","2023-11-01"],
			"form":["10-Q","10-Q","10-Q"],
			"primaryDocument":["q1.htm","q2.htm","q3.htm"]}}}`)
	})
	mux.HandleFunc("/Archives/edgar/data/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>q</html>")
	})

	e, _ := newTestEDGAR(t, mux)

	docs, err := e.Download(context.Background(), "CAT", []model.FilingCategory{model.FilingQuarterlyReport}, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "q1.htm", docs[0].Filename)
	assert.Equal(t, "q2.htm", docs[1].Filename)
}

func TestEDGARUnknownTicker(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"0":{"cik_str":18230,"ticker":"CAT"}}`)
	})

	e, _ := newTestEDGAR(t, mux)

	_, err := e.Download(context.Background(), "NOPE", []model.FilingCategory{model.FilingAnnualReport}, time.Time{}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ticker")
}

func TestEDGARPartialCategoryFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"0":{"cik_str":18230,"ticker":"CAT"}}`)
	})
	mux.HandleFunc("/submissions/CIK0000018230.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"filings":{"recent":{
			"accessionNumber":["a-1","b-1"],
			"filingDate":["2024-05-01","2024-04-01"],
			"form":["10-K","8-K"],
			"primaryDocument":["annual.htm","event.htm"]}}}`)
	})
	mux.HandleFunc("/Archives/edgar/data/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "event.htm") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html>annual</html>")
	})

	e, _ := newTestEDGAR(t, mux)

	docs, err := e.Download(context.Background(), "CAT",
		[]model.FilingCategory{model.FilingAnnualReport, model.FilingCurrentReport}, time.Time{}, 5)
	require.NoError(t, err)

	// The failed 8-K category is skipped, the 10-K still comes back.
	require.Len(t, docs, 1)
	assert.Equal(t, model.FilingAnnualReport, docs[0].Category)
}
