package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/model"
)

// JobClient queries the job-board search service. It implements the
// signal pipeline's JobFetcher contract: an empty result set is a valid
// outcome, not an error.
type JobClient struct {
	client  *Client
	baseURL string
	apiKey  string
	limit   int
	hours   int
}

// NewJobClient creates a JobClient. The underlying HTTP client carries
// the mandatory minimum inter-request delay from config.
func NewJobClient(cfg config.JobsConfig) *JobClient {
	return &JobClient{
		client: NewClient(Options{
			MinDelay:     time.Duration(cfg.RequestDelay * float64(time.Second)),
			RateLimiters: DefaultRateLimiters(),
		}),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limit:   cfg.ResultsLimit,
		hours:   cfg.HoursOld,
	}
}

type jobSearchResponse struct {
	Jobs []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Company     string `json:"company"`
		Location    string `json:"location"`
		DatePosted  string `json:"date_posted"`
		Site        string `json:"site"`
		JobURL      string `json:"job_url"`
	} `json:"jobs"`
}

// FetchJobs searches for postings by company name and post-filters the
// results on the posting's own company field, so jobs that merely
// mention the company in a description are dropped.
func (j *JobClient) FetchJobs(ctx context.Context, company model.Company) ([]model.JobPosting, error) {
	q := url.Values{}
	q.Set("search_term", company.Name)
	q.Set("results_wanted", fmt.Sprintf("%d", j.limit))
	q.Set("hours_old", fmt.Sprintf("%d", j.hours))

	headers := map[string]string{}
	if j.apiKey != "" {
		headers["X-Api-Key"] = j.apiKey
	}

	var resp jobSearchResponse
	if err := j.client.GetJSON(ctx, j.baseURL+"?"+q.Encode(), headers, &resp); err != nil {
		return nil, eris.Wrapf(err, "jobs: search for %s", company.Name)
	}

	var postings []model.JobPosting
	filtered := 0
	for _, job := range resp.Jobs {
		if !companyNameMatches(job.Company, company.Name) {
			filtered++
			continue
		}
		posting := model.JobPosting{
			CompanyID:   company.ID,
			CompanyName: job.Company,
			Title:       job.Title,
			Description: job.Description,
			Location:    job.Location,
			Source:      job.Site,
			URL:         job.JobURL,
		}
		if t, err := time.Parse("2006-01-02", job.DatePosted); err == nil {
			posting.PostedDate = &t
		}
		postings = append(postings, posting)
	}

	zap.L().Debug("job search complete",
		zap.String("company", company.Name),
		zap.Int("raw", len(resp.Jobs)),
		zap.Int("kept", len(postings)),
		zap.Int("filtered", filtered))
	return postings, nil
}

var companySuffixes = []string{
	", inc.", ", inc", " inc.", " inc", ", llc", " llc",
	", ltd", " ltd", " corporation", " corp.", " corp",
	" technologies", " technology", " software", " systems",
	" & company", " & co.", " & co",
}

// normalizeCompanyName lowercases and strips common legal suffixes so
// "Deere & Company" and "Deere" compare equal.
func normalizeCompanyName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range companySuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimSpace(name)
}

// companyNameMatches reports whether a posting's company refers to the
// target company, tolerating suffix and containment variations.
func companyNameMatches(jobCompany, target string) bool {
	if jobCompany == "" || target == "" {
		return false
	}
	j := normalizeCompanyName(jobCompany)
	t := normalizeCompanyName(target)
	if j == "" || t == "" {
		return false
	}
	return j == t || strings.Contains(j, t) || strings.Contains(t, j)
}
