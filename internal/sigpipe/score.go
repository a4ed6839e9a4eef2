package sigpipe

import (
	"time"

	"github.com/sells-group/orgair-cli/internal/model"
)

// Every category score follows the same three-term shape: a coverage
// term, a volume term, and a diversity term, each independently capped,
// summed, and finally clamped to [0,100]. Constants differ per category.

// JobScoreBreakdown is the job-market score with its components.
type JobScoreBreakdown struct {
	Coverage  float64 `json:"coverage"`
	Volume    float64 `json:"volume"`
	Diversity float64 `json:"diversity"`
	Total     float64 `json:"total"`
	TotalJobs int     `json:"total_jobs"`
	AIJobs    int     `json:"ai_jobs"`
}

// ScoreJobMarket reduces a company's classified jobs to one score:
// coverage = aiJobs/totalJobs*50, volume = min(30, aiJobs*3),
// diversity = min(20, uniqueKeywords*2).
func ScoreJobMarket(jobs []model.ClassifiedJob) JobScoreBreakdown {
	b := JobScoreBreakdown{TotalJobs: len(jobs)}
	if len(jobs) == 0 {
		return b
	}

	unique := make(map[string]struct{})
	for _, j := range jobs {
		if !j.IsRelevant {
			continue
		}
		b.AIJobs++
		for _, kw := range j.MatchedKeywords {
			unique[kw] = struct{}{}
		}
	}

	b.Coverage = float64(b.AIJobs) / float64(b.TotalJobs) * 50
	b.Volume = capAt(float64(b.AIJobs)*3, 30)
	b.Diversity = capAt(float64(len(unique))*2, 20)
	b.Total = clamp(b.Coverage + b.Volume + b.Diversity)
	return b
}

// recencyWindow is how far back a patent still counts as recent.
const recencyWindow = 730 * 24 * time.Hour

// PatentScoreBreakdown is the patent portfolio score with components.
type PatentScoreBreakdown struct {
	Coverage     float64 `json:"coverage"`
	Volume       float64 `json:"volume"`
	Recency      float64 `json:"recency"`
	Diversity    float64 `json:"diversity"`
	Total        float64 `json:"total"`
	TotalPatents int     `json:"total_patents"`
	AIPatents    int     `json:"ai_patents"`
}

// ScorePatents reduces a company's classified patents to one score:
// coverage = aiPatents/total*40, volume = min(30, aiPatents*2),
// recency = recentAI/aiPatents*20 over the last two years,
// diversity = min(10, uniqueKeywords).
func ScorePatents(patents []model.ClassifiedPatent, now time.Time) PatentScoreBreakdown {
	b := PatentScoreBreakdown{TotalPatents: len(patents)}
	if len(patents) == 0 {
		return b
	}

	unique := make(map[string]struct{})
	recent := 0
	cutoff := now.Add(-recencyWindow)
	for _, p := range patents {
		if !p.IsRelevant {
			continue
		}
		b.AIPatents++
		for _, kw := range p.MatchedKeywords {
			unique[kw] = struct{}{}
		}
		if p.PatentDate != nil && p.PatentDate.After(cutoff) {
			recent++
		}
	}

	b.Coverage = float64(b.AIPatents) / float64(b.TotalPatents) * 40
	b.Volume = capAt(float64(b.AIPatents)*2, 30)
	if b.AIPatents > 0 {
		b.Recency = float64(recent) / float64(b.AIPatents) * 20
	}
	b.Diversity = capAt(float64(len(unique)), 10)
	b.Total = clamp(b.Coverage + b.Volume + b.Recency + b.Diversity)
	return b
}

// TechScoreBreakdown is the tech stack score with components.
type TechScoreBreakdown struct {
	Volume     float64  `json:"volume"`
	Diversity  float64  `json:"diversity"`
	Total      float64  `json:"total"`
	AITools    []string `json:"ai_tools"`
	Categories []string `json:"categories"`
}

// ScoreTechStack reduces detected technologies to one score:
// volume = min(50, aiTools*10), diversity = min(50, categories*12.5).
func ScoreTechStack(detections []model.TechDetection) TechScoreBreakdown {
	var b TechScoreBreakdown
	cats := make(map[string]struct{})
	for _, d := range detections {
		if !d.AIRelated {
			continue
		}
		b.AITools = append(b.AITools, d.Name)
		if _, ok := cats[d.Category]; !ok {
			cats[d.Category] = struct{}{}
			b.Categories = append(b.Categories, d.Category)
		}
	}

	b.Volume = capAt(float64(len(b.AITools))*10, 50)
	b.Diversity = capAt(float64(len(b.Categories))*12.5, 50)
	b.Total = clamp(b.Volume + b.Diversity)
	return b
}

func capAt(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
