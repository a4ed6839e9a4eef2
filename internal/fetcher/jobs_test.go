package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/model"
)

func TestJobClientPostFiltersByCompany(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_term")
		gotKey = r.Header.Get("X-Api-Key")
		fmt.Fprint(w, `{"jobs":[
			{"title":"ML Engineer","description":"pytorch","company":"Deere & Company","site":"indeed","date_posted":"2025-08-20"},
			{"title":"ML Engineer","description":"tensorflow","company":"John Deere Technologies","site":"indeed"},
			{"title":"Recruiter","description":"we staff for Deere","company":"Acme Staffing","site":"indeed"}
		]}`)
	}))
	defer srv.Close()

	client := NewJobClient(config.JobsConfig{
		BaseURL:      srv.URL + "/v1/jobs/search",
		APIKey:       "test-key",
		ResultsLimit: 50,
		HoursOld:     72,
	})

	de := model.NewCompany("DE", "Deere & Company")
	postings, err := client.FetchJobs(context.Background(), de)
	require.NoError(t, err)

	assert.Equal(t, "Deere & Company", gotQuery)
	assert.Equal(t, "test-key", gotKey)

	// The staffing agency posting mentions Deere only in the description.
	require.Len(t, postings, 2)
	assert.Equal(t, de.ID, postings[0].CompanyID)
	require.NotNil(t, postings[0].PostedDate)
	assert.Equal(t, "2025-08-20", postings[0].PostedDate.Format("2006-01-02"))
	assert.Nil(t, postings[1].PostedDate)
}

func TestJobClientEmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"jobs":[]}`)
	}))
	defer srv.Close()

	client := NewJobClient(config.JobsConfig{BaseURL: srv.URL})
	postings, err := client.FetchJobs(context.Background(), model.NewCompany("DE", "Deere & Company"))
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestCompanyNameMatches(t *testing.T) {
	cases := []struct {
		job    string
		target string
		want   bool
	}{
		{"Deere & Company", "Deere & Company", true},
		{"DEERE & COMPANY", "Deere & Company", true},
		{"John Deere", "Deere & Company", true},
		{"Deere", "Deere & Company", true},
		{"Caterpillar Inc.", "Caterpillar", true},
		{"Caterpillar Financial Services", "Caterpillar", true},
		{"Emerson Electric", "Caterpillar", false},
		{"", "Caterpillar", false},
		{"Caterpillar", "", false},
		{"Rockwell Automation Technologies", "Rockwell Automation", true},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, companyNameMatches(tc.job, tc.target),
			"companyNameMatches(%q, %q)", tc.job, tc.target)
	}
}

func TestNormalizeCompanyName(t *testing.T) {
	assert.Equal(t, "deere", normalizeCompanyName("Deere & Company"))
	assert.Equal(t, "caterpillar", normalizeCompanyName("Caterpillar Inc."))
	assert.Equal(t, "rockwell automation", normalizeCompanyName("Rockwell Automation Technologies"))
	assert.Equal(t, "emerson electric", normalizeCompanyName("  Emerson Electric Corp  "))
}
