package sigpipe

import (
	"time"

	"github.com/sells-group/orgair-cli/internal/model"
)

// BuildSummary reduces a company's stored signals to a summary with one
// score per category (the most recent signal wins) and recomputes the
// composite wholesale. The composite stays absent unless all four
// categories have a score.
func BuildSummary(company model.Company, signals []model.ExternalSignal) model.SignalSummary {
	summary := model.SignalSummary{
		CompanyID:   company.ID,
		Ticker:      company.Ticker,
		SignalCount: len(signals),
		LastUpdated: time.Now().UTC(),
	}

	latest := make(map[model.SignalCategory]model.ExternalSignal)
	for _, sig := range signals {
		if prev, ok := latest[sig.Category]; !ok || sig.SignalDate.After(prev.SignalDate) {
			latest[sig.Category] = sig
		}
	}

	if sig, ok := latest[model.CategoryTechnologyHiring]; ok {
		summary.HiringScore = &sig.Score
	}
	if sig, ok := latest[model.CategoryInnovationActivity]; ok {
		summary.InnovationScore = &sig.Score
	}
	if sig, ok := latest[model.CategoryDigitalPresence]; ok {
		summary.DigitalScore = &sig.Score
	}
	if sig, ok := latest[model.CategoryLeadershipSignals]; ok {
		summary.LeadershipScore = &sig.Score
	}

	summary.RecomputeComposite()
	return summary
}
