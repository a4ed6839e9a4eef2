package sigpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orgair-cli/internal/keywords"
)

func newTestAnalyzer(t *testing.T) *LeadershipAnalyzer {
	t.Helper()
	vocab, err := keywords.Load()
	require.NoError(t, err)
	return NewLeadershipAnalyzer(vocab)
}

func TestLeadershipAnalyze(t *testing.T) {
	a := newTestAnalyzer(t)

	sections := []string{
		"Our Chief Technology Officer leads the data platform. Compensation is tied to " +
			"digital transformation milestones and ai adoption across segments.",
		"The board established a technology committee. One director brings " +
			"cybersecurity expertise from prior roles.",
	}

	b := a.Analyze(sections)
	assert.Equal(t, 2, b.Filings)
	assert.Contains(t, b.ExecsFound, "chief technology officer")
	assert.InDelta(t, 10.0, b.ExecScore, 0.001)
	assert.ElementsMatch(t, []string{"digital transformation milestones", "ai adoption"}, b.Metrics)
	assert.InDelta(t, 25.0, b.MetricScore, 0.001) // min(25, 2*12.5)
	assert.ElementsMatch(t, []string{"technology committee", "cybersecurity expertise"}, b.BoardSignals)
	assert.InDelta(t, 15.0, b.BoardScore, 0.001) // min(15, 2*7.5)
	assert.Greater(t, b.KeywordScore, 0.0)
	assert.LessOrEqual(t, b.Total, 100.0)
}

func TestLeadershipAnalyzeEmptySections(t *testing.T) {
	a := newTestAnalyzer(t)
	b := a.Analyze(nil)
	assert.Zero(t, b.Total)
	assert.Empty(t, b.ExecsFound)
}

func TestLeadershipComponentCaps(t *testing.T) {
	a := newTestAnalyzer(t)

	text := "chief data officer chief analytics officer chief ai officer chief technology officer " +
		"digital transformation milestones technology modernization ai adoption " +
		"technology committee digital committee innovation committee former cto " +
		"machine learning machine learning machine learning"
	sections := []string{text, text, text}

	b := a.Analyze(sections)
	assert.InDelta(t, 30.0, b.ExecScore, 0.001)
	assert.InDelta(t, 25.0, b.MetricScore, 0.001)
	assert.InDelta(t, 15.0, b.BoardScore, 0.001)
	assert.InDelta(t, 30.0, b.KeywordScore, 0.001)
	assert.Equal(t, 100.0, b.Total)
}
