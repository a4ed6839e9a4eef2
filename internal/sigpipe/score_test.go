package sigpipe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/orgair-cli/internal/model"
)

func relevantJob(kws ...string) model.ClassifiedJob {
	return model.ClassifiedJob{
		Classification: model.Classification{
			MatchedKeywords: kws,
			IsRelevant:      true,
		},
	}
}

func irrelevantJob() model.ClassifiedJob {
	return model.ClassifiedJob{}
}

func TestScoreJobMarketDocumentedExample(t *testing.T) {
	// 10 jobs, 3 relevant, each matching the same 2 keywords.
	jobs := []model.ClassifiedJob{
		relevantJob("machine learning", "pytorch"),
		relevantJob("machine learning", "pytorch"),
		relevantJob("machine learning", "pytorch"),
	}
	for i := 0; i < 7; i++ {
		jobs = append(jobs, irrelevantJob())
	}

	b := ScoreJobMarket(jobs)
	assert.Equal(t, 10, b.TotalJobs)
	assert.Equal(t, 3, b.AIJobs)
	assert.InDelta(t, 15.0, b.Coverage, 0.001)  // 3/10 * 50
	assert.InDelta(t, 9.0, b.Volume, 0.001)     // min(30, 3*3)
	assert.InDelta(t, 4.0, b.Diversity, 0.001)  // min(20, 2 unique * 2)
	assert.InDelta(t, 28.0, b.Total, 0.001)

	// Reproducible from inputs alone.
	again := ScoreJobMarket(jobs)
	assert.Equal(t, b, again)
}

func TestScoreJobMarketClamp(t *testing.T) {
	var jobs []model.ClassifiedJob
	for i := 0; i < 50; i++ {
		jobs = append(jobs, relevantJob(fmt.Sprintf("kw%d", i), fmt.Sprintf("kw%d-b", i)))
	}

	b := ScoreJobMarket(jobs)
	assert.InDelta(t, 50.0, b.Coverage, 0.001)
	assert.InDelta(t, 30.0, b.Volume, 0.001)
	assert.InDelta(t, 20.0, b.Diversity, 0.001)
	assert.LessOrEqual(t, b.Total, 100.0)
	assert.GreaterOrEqual(t, b.Total, 0.0)
}

func TestScoreJobMarketEmpty(t *testing.T) {
	b := ScoreJobMarket(nil)
	assert.Zero(t, b.Total)
	assert.Zero(t, b.TotalJobs)
}

func classifiedPatent(date time.Time, relevant bool, kws ...string) model.ClassifiedPatent {
	p := model.ClassifiedPatent{
		Classification: model.Classification{
			MatchedKeywords: kws,
			IsRelevant:      relevant,
		},
	}
	if !date.IsZero() {
		p.PatentDate = &date
	}
	return p
}

func TestScorePatents(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, -6, 0)
	old := now.AddDate(-4, 0, 0)

	patents := []model.ClassifiedPatent{
		classifiedPatent(recent, true, "machine learning", "neural network"),
		classifiedPatent(old, true, "computer vision"),
		classifiedPatent(old, false),
		classifiedPatent(time.Time{}, false),
	}

	b := ScorePatents(patents, now)
	assert.Equal(t, 4, b.TotalPatents)
	assert.Equal(t, 2, b.AIPatents)
	assert.InDelta(t, 20.0, b.Coverage, 0.001) // 2/4 * 40
	assert.InDelta(t, 4.0, b.Volume, 0.001)    // min(30, 2*2)
	assert.InDelta(t, 10.0, b.Recency, 0.001)  // 1/2 * 20
	assert.InDelta(t, 3.0, b.Diversity, 0.001) // min(10, 3 unique)
	assert.InDelta(t, 37.0, b.Total, 0.001)
}

func TestScorePatentsClamp(t *testing.T) {
	now := time.Now().UTC()
	var patents []model.ClassifiedPatent
	for i := 0; i < 40; i++ {
		patents = append(patents, classifiedPatent(now.AddDate(0, -1, 0), true,
			fmt.Sprintf("kw%d", i), fmt.Sprintf("kw%d-b", i)))
	}

	b := ScorePatents(patents, now)
	assert.InDelta(t, 40.0, b.Coverage, 0.001)
	assert.InDelta(t, 30.0, b.Volume, 0.001)
	assert.InDelta(t, 20.0, b.Recency, 0.001)
	assert.InDelta(t, 10.0, b.Diversity, 0.001)
	assert.Equal(t, 100.0, b.Total)
}

func TestScoreTechStack(t *testing.T) {
	detections := []model.TechDetection{
		{Name: "pytorch", Category: "ml_framework", AIRelated: true, Confidence: 0.9},
		{Name: "tensorflow", Category: "ml_framework", AIRelated: true, Confidence: 0.9},
		{Name: "databricks", Category: "cloud_ml", AIRelated: true, Confidence: 0.7},
		{Name: "snowflake", Category: "data_platform", AIRelated: true, Confidence: 0.5},
	}

	b := ScoreTechStack(detections)
	assert.InDelta(t, 40.0, b.Volume, 0.001)    // min(50, 4*10)
	assert.InDelta(t, 37.5, b.Diversity, 0.001) // min(50, 3*12.5)
	assert.InDelta(t, 77.5, b.Total, 0.001)
	assert.Equal(t, []string{"ml_framework", "cloud_ml", "data_platform"}, b.Categories)
}

func TestScoreTechStackClamp(t *testing.T) {
	var detections []model.TechDetection
	for i := 0; i < 12; i++ {
		detections = append(detections, model.TechDetection{
			Name:      fmt.Sprintf("tool%d", i),
			Category:  fmt.Sprintf("cat%d", i),
			AIRelated: true,
		})
	}

	b := ScoreTechStack(detections)
	assert.InDelta(t, 50.0, b.Volume, 0.001)
	assert.InDelta(t, 50.0, b.Diversity, 0.001)
	assert.Equal(t, 100.0, b.Total)
}
