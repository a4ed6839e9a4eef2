package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/model"
)

func TestPatentClientBuildsSearchQuery(t *testing.T) {
	var query, fields, sort, opts, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = q.Get("q")
		fields = q.Get("f")
		sort = q.Get("s")
		opts = q.Get("o")
		key = r.Header.Get("X-Api-Key")
		fmt.Fprint(w, `{"patents":[
			{"patent_id":"US111","patent_title":"Predictive maintenance with neural networks",
			 "patent_abstract":"A machine learning system.","patent_date":"2024-06-10","patent_type":"utility",
			 "assignees":[{"assignee_organization":"Caterpillar Inc."}],
			 "inventors":[{"inventor_first_name":"Ada","inventor_last_name":"Lovelace"}],
			 "cpc_current":[{"cpc_group_id":"G06N3/08"}]},
			{"patent_id":"US222","patent_title":"Track roller assembly","patent_date":"not-a-date"}
		]}`)
	}))
	defer srv.Close()

	client := NewPatentClient(config.PatentsConfig{
		BaseURL:      srv.URL + "/api/v1/patent/",
		APIKey:       "pv-key",
		YearsBack:    5,
		ResultsLimit: 100,
	})
	client.now = func() time.Time {
		return time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)
	}

	cat := model.NewCompany("CAT", "Caterpillar Inc.")
	patents, err := client.FetchPatents(context.Background(), cat)
	require.NoError(t, err)

	assert.Equal(t, "pv-key", key)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(query), &parsed))
	clauses, ok := parsed["_and"].([]any)
	require.True(t, ok)
	require.Len(t, clauses, 2)
	assert.Contains(t, query, `"assignees.assignee_organization":"Caterpillar Inc."`)
	assert.Contains(t, query, `"patent_date":"2020-08-25"`)

	assert.Contains(t, fields, "patent_abstract")
	assert.Contains(t, fields, "cpc_current.cpc_group_id")
	assert.Equal(t, `[{"patent_date":"desc"}]`, sort)
	assert.Equal(t, `{"size":100}`, opts)

	require.Len(t, patents, 2)
	assert.Equal(t, cat.ID, patents[0].CompanyID)
	assert.Equal(t, "US111", patents[0].PatentID)
	require.NotNil(t, patents[0].PatentDate)
	assert.Equal(t, "2024-06-10", patents[0].PatentDate.Format("2006-01-02"))
	assert.Equal(t, []string{"Caterpillar Inc."}, patents[0].Assignees)
	assert.Equal(t, []string{"Ada Lovelace"}, patents[0].Inventors)
	assert.Equal(t, []string{"G06N3/08"}, patents[0].CPCCodes)

	// Unparseable dates degrade to nil rather than failing the fetch.
	assert.Nil(t, patents[1].PatentDate)
}

func TestPatentClientCapsPageSize(t *testing.T) {
	var opts string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opts = r.URL.Query().Get("o")
		fmt.Fprint(w, `{"patents":[]}`)
	}))
	defer srv.Close()

	client := NewPatentClient(config.PatentsConfig{BaseURL: srv.URL, ResultsLimit: 5000, YearsBack: 5})
	patents, err := client.FetchPatents(context.Background(), model.NewCompany("CAT", "Caterpillar Inc."))
	require.NoError(t, err)
	assert.Empty(t, patents)
	assert.Equal(t, `{"size":1000}`, opts)
}
