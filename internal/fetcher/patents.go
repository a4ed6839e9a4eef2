package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/model"
)

// PatentClient queries the PatentsView PatentSearch API. It implements
// the signal pipeline's PatentFetcher contract.
//
// API docs: https://search.patentsview.org/docs/
type PatentClient struct {
	client    *Client
	baseURL   string
	apiKey    string
	yearsBack int
	limit     int
	now       func() time.Time
}

// NewPatentClient creates a PatentClient. Requests without an API key
// are allowed but rate-limited harder by the service.
func NewPatentClient(cfg config.PatentsConfig) *PatentClient {
	return &PatentClient{
		client: NewClient(Options{
			MinDelay:     time.Duration(cfg.RequestDelay * float64(time.Second)),
			RateLimiters: DefaultRateLimiters(),
		}),
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		yearsBack: cfg.YearsBack,
		limit:     cfg.ResultsLimit,
		now:       time.Now,
	}
}

type patentSearchResponse struct {
	Patents []struct {
		PatentID       string `json:"patent_id"`
		PatentTitle    string `json:"patent_title"`
		PatentAbstract string `json:"patent_abstract"`
		PatentDate     string `json:"patent_date"`
		PatentType     string `json:"patent_type"`
		Assignees      []struct {
			Organization string `json:"assignee_organization"`
		} `json:"assignees"`
		Inventors []struct {
			FirstName string `json:"inventor_first_name"`
			LastName  string `json:"inventor_last_name"`
		} `json:"inventors"`
		CPCCurrent []struct {
			GroupID string `json:"cpc_group_id"`
		} `json:"cpc_current"`
	} `json:"patents"`
}

// FetchPatents searches patents assigned to the company over the
// configured lookback window, newest first.
func (p *PatentClient) FetchPatents(ctx context.Context, company model.Company) ([]model.Patent, error) {
	start := p.now().AddDate(-p.yearsBack, 0, 0).Format("2006-01-02")

	query := map[string]any{
		"_and": []any{
			map[string]any{"_contains": map[string]string{"assignees.assignee_organization": company.Name}},
			map[string]any{"_gte": map[string]string{"patent_date": start}},
		},
	}
	fields := []string{
		"patent_id",
		"patent_title",
		"patent_abstract",
		"patent_date",
		"patent_type",
		"assignees.assignee_organization",
		"inventors.inventor_first_name",
		"inventors.inventor_last_name",
		"cpc_current.cpc_group_id",
	}
	size := p.limit
	if size <= 0 || size > 1000 {
		size = 1000
	}

	params := url.Values{}
	params.Set("q", mustJSON(query))
	params.Set("f", mustJSON(fields))
	params.Set("s", mustJSON([]map[string]string{{"patent_date": "desc"}}))
	params.Set("o", mustJSON(map[string]int{"size": size}))

	headers := map[string]string{"Content-Type": "application/json"}
	if p.apiKey != "" {
		headers["X-Api-Key"] = p.apiKey
	}

	var resp patentSearchResponse
	if err := p.client.GetJSON(ctx, p.baseURL+"?"+params.Encode(), headers, &resp); err != nil {
		return nil, eris.Wrapf(err, "patents: search for %s", company.Name)
	}

	patents := make([]model.Patent, 0, len(resp.Patents))
	for _, raw := range resp.Patents {
		patent := model.Patent{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			PatentID:    raw.PatentID,
			Title:       raw.PatentTitle,
			Abstract:    raw.PatentAbstract,
			PatentType:  raw.PatentType,
		}
		if t, err := time.Parse("2006-01-02", raw.PatentDate); err == nil {
			patent.PatentDate = &t
		}
		for _, a := range raw.Assignees {
			if a.Organization != "" {
				patent.Assignees = append(patent.Assignees, a.Organization)
			}
		}
		for _, inv := range raw.Inventors {
			name := strings.TrimSpace(inv.FirstName + " " + inv.LastName)
			if name != "" {
				patent.Inventors = append(patent.Inventors, name)
			}
		}
		for _, c := range raw.CPCCurrent {
			if c.GroupID != "" {
				patent.CPCCodes = append(patent.CPCCodes, c.GroupID)
			}
		}
		patents = append(patents, patent)
	}

	zap.L().Debug("patent search complete",
		zap.String("company", company.Name),
		zap.Int("patents", len(patents)))
	return patents, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("fetcher: marshal query: %v", err))
	}
	return string(b)
}
