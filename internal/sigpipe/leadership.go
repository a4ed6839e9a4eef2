package sigpipe

import (
	"github.com/sells-group/orgair-cli/internal/keywords"
)

// Technology-executive titles looked for in proxy and annual-report
// sections.
var techExecTitles = []string{
	"chief data officer",
	"chief analytics officer",
	"chief ai officer",
	"chief technology officer",
	"chief digital officer",
	"chief information officer",
	"vp of data",
	"vp of ai",
	"vp of engineering",
	"head of data science",
	"head of ai",
	"head of ml",
}

// Compensation metrics tied to technology outcomes.
var techMetricTerms = []string{
	"digital transformation milestones",
	"technology modernization",
	"ai adoption",
	"automation targets",
	"data strategy objectives",
	"innovation metrics",
}

// Board-level technology oversight indicators.
var boardTechTerms = []string{
	"technology committee",
	"digital committee",
	"innovation committee",
	"cybersecurity expertise",
	"technology background",
	"former cto",
	"former chief technology officer",
}

// LeadershipBreakdown is the leadership score with its component terms.
type LeadershipBreakdown struct {
	ExecScore    float64  `json:"exec_score"`    // capped at 30
	KeywordScore float64  `json:"keyword_score"` // capped at 30
	MetricScore  float64  `json:"metric_score"`  // capped at 25
	BoardScore   float64  `json:"board_score"`   // capped at 15
	Total        float64  `json:"total"`
	ExecsFound   []string `json:"execs_found"`
	Metrics      []string `json:"metrics_found"`
	BoardSignals []string `json:"board_signals"`
	KeywordHits  int      `json:"keyword_hits"`
	Filings      int      `json:"filings_analyzed"`
}

// LeadershipAnalyzer scores executive and board technology signals from
// parsed filing sections.
type LeadershipAnalyzer struct {
	execs   *keywords.Matcher
	terms   *keywords.Matcher
	metrics *keywords.Matcher
	board   *keywords.Matcher
}

// NewLeadershipAnalyzer builds an analyzer using the leadership
// vocabulary plus the built-in title, metric, and board term lists.
func NewLeadershipAnalyzer(vocab *keywords.Vocabulary) *LeadershipAnalyzer {
	return &LeadershipAnalyzer{
		execs:   keywords.NewMatcher(techExecTitles),
		terms:   keywords.NewMatcher(vocab.LeadershipKeywords),
		metrics: keywords.NewMatcher(techMetricTerms),
		board:   keywords.NewMatcher(boardTechTerms),
	}
}

// Analyze scores the given filing sections (typically the
// executive_compensation and business sections of proxy statements).
// Components: exec titles min(30, hits*10), leadership keywords
// min(30, hits*3), tech-linked pay metrics min(25, hits*12.5), board
// indicators min(15, hits*7.5).
func (a *LeadershipAnalyzer) Analyze(sections []string) LeadershipBreakdown {
	b := LeadershipBreakdown{Filings: len(sections)}

	execSet := make(map[string]struct{})
	metricSet := make(map[string]struct{})
	boardSet := make(map[string]struct{})
	for _, text := range sections {
		for _, hit := range a.execs.Match(text) {
			execSet[hit] = struct{}{}
		}
		for _, hit := range a.metrics.Match(text) {
			metricSet[hit] = struct{}{}
		}
		for _, hit := range a.board.Match(text) {
			boardSet[hit] = struct{}{}
		}
		b.KeywordHits += a.terms.MatchCount(text)
	}
	b.ExecsFound = setToSlice(execSet, techExecTitles)
	b.Metrics = setToSlice(metricSet, techMetricTerms)
	b.BoardSignals = setToSlice(boardSet, boardTechTerms)

	b.ExecScore = capAt(float64(len(b.ExecsFound))*10, 30)
	b.KeywordScore = capAt(float64(b.KeywordHits)*3, 30)
	b.MetricScore = capAt(float64(len(b.Metrics))*12.5, 25)
	b.BoardScore = capAt(float64(len(b.BoardSignals))*7.5, 15)
	b.Total = clamp(b.ExecScore + b.KeywordScore + b.MetricScore + b.BoardScore)
	return b
}

// setToSlice returns the set's members in the order of the reference
// vocabulary, keeping output deterministic.
func setToSlice(set map[string]struct{}, order []string) []string {
	var out []string
	for _, term := range order {
		if _, ok := set[term]; ok {
			out = append(out, term)
		}
	}
	return out
}
