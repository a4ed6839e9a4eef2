package sigpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/keywords"
	"github.com/sells-group/orgair-cli/internal/model"
)

func testSignalsConfig() config.SignalsConfig {
	return config.SignalsConfig{
		JobRelevanceThreshold:    2,
		SparseRelevanceThreshold: 1,
		PatentRelevanceThreshold: 1,
		JobScorePerKeyword:       15.0,
		PatentScorePerKeyword:    20.0,
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	vocab, err := keywords.Load()
	require.NoError(t, err)
	return NewClassifier(vocab, testSignalsConfig())
}

func TestClassifyJobTwoTierThreshold(t *testing.T) {
	c := newTestClassifier(t)

	// Full description with two keywords: relevant.
	withDesc := c.ClassifyJob(model.JobPosting{
		Title:       "Software Engineer",
		Description: "Build machine learning models in PyTorch.",
	})
	assert.True(t, withDesc.IsRelevant)
	assert.Len(t, withDesc.MatchedKeywords, 2)

	// Description present but only one keyword: below threshold.
	oneKeyword := c.ClassifyJob(model.JobPosting{
		Title:       "Software Engineer",
		Description: "Maintain the pytorch serving cluster.",
	})
	assert.False(t, oneKeyword.IsRelevant)

	// Title-only with one keyword: the sparse threshold applies.
	titleOnly := c.ClassifyJob(model.JobPosting{
		Title: "Data Scientist, Commercial Lending",
	})
	require.Len(t, titleOnly.MatchedKeywords, 1)
	assert.True(t, titleOnly.IsRelevant)

	// No keywords is never relevant in either form.
	none := c.ClassifyJob(model.JobPosting{Title: "Accountant"})
	assert.False(t, none.IsRelevant)
	assert.Empty(t, none.MatchedKeywords)
	noneDesc := c.ClassifyJob(model.JobPosting{
		Title:       "Accountant",
		Description: "Prepare quarterly statements.",
	})
	assert.False(t, noneDesc.IsRelevant)
}

func TestClassifyJobScoreIsBoundedLinear(t *testing.T) {
	c := newTestClassifier(t)

	job := c.ClassifyJob(model.JobPosting{
		Title:       "ML Engineer",
		Description: "machine learning and deep learning with pytorch",
	})
	assert.InDelta(t, float64(len(job.MatchedKeywords))*15.0, job.RelevanceScore, 0.001)

	// Keyword-stuffed description saturates at 100.
	stuffed := c.ClassifyJob(model.JobPosting{
		Title: "AI Engineer",
		Description: "machine learning deep learning neural network nlp computer vision " +
			"reinforcement learning generative ai llm pytorch tensorflow",
	})
	assert.Equal(t, 100.0, stuffed.RelevanceScore)
}

func TestClassifyJobCollectsTechStackKeywords(t *testing.T) {
	c := newTestClassifier(t)

	job := c.ClassifyJob(model.JobPosting{
		Title:       "Data Engineer",
		Description: "Pipelines on databricks and snowflake, orchestrated with airflow.",
	})
	assert.Contains(t, job.TechStackKeywords, "databricks")
	assert.Contains(t, job.TechStackKeywords, "snowflake")
	assert.Contains(t, job.TechStackKeywords, "airflow")
}

func TestClassifyPatent(t *testing.T) {
	c := newTestClassifier(t)

	patent := c.ClassifyPatent(model.Patent{
		Title:    "System for automated decision making",
		Abstract: "A neural network processes sensor data.",
	})
	assert.True(t, patent.IsRelevant)
	assert.Contains(t, patent.MatchedKeywords, "automated decision")
	assert.Contains(t, patent.MatchedKeywords, "neural network")
	assert.InDelta(t, float64(len(patent.MatchedKeywords))*20.0, patent.RelevanceScore, 0.001)

	// Word-boundary matching: embedded terms do not count.
	unrelated := c.ClassifyPatent(model.Patent{
		Title:    "Hydraulic brain drainage valve",
		Abstract: "A mechanical valve assembly for fluid management.",
	})
	assert.False(t, unrelated.IsRelevant)
	assert.Empty(t, unrelated.MatchedKeywords)
}
