package sigpipe

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/orgair-cli/internal/model"
)

// StepError records a recovered per-company failure.
type StepError struct {
	Step      string `json:"step"`
	CompanyID string `json:"company_id"`
	Message   string `json:"message"`
}

// Summary is the signal run report.
type Summary struct {
	JobsCollected    int         `json:"jobs_collected"`
	PatentsCollected int         `json:"patents_collected"`
	AIJobs           int         `json:"ai_jobs"`
	AIPatents        int         `json:"ai_patents"`
	CompaniesScored  int         `json:"companies_scored"`
	Errors           []StepError `json:"errors"`
}

// State is the signal pipeline's mutable accumulator. Like the document
// pipeline state it is owned by one run; fetch results are integrated
// serially.
type State struct {
	RunID     string
	Companies []model.Company

	Jobs    []model.JobPosting
	Patents []model.Patent

	ClassifiedJobs    []model.ClassifiedJob
	ClassifiedPatents []model.ClassifiedPatent
	TechDetections    map[uuid.UUID][]model.TechDetection

	// Per-company fetch outcomes. Empty is a valid zero-evidence
	// result and is scored; Failed companies get no signal.
	JobOutcomes    map[uuid.UUID]model.FetchOutcome
	PatentOutcomes map[uuid.UUID]model.FetchOutcome

	JobScores    map[uuid.UUID]JobScoreBreakdown
	PatentScores map[uuid.UUID]PatentScoreBreakdown
	TechScores   map[uuid.UUID]TechScoreBreakdown

	Summary     Summary
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewState creates a signal run state for the given companies.
func NewState(runID string, companies []model.Company) *State {
	return &State{
		RunID:          runID,
		Companies:      companies,
		TechDetections: make(map[uuid.UUID][]model.TechDetection),
		JobOutcomes:    make(map[uuid.UUID]model.FetchOutcome),
		PatentOutcomes: make(map[uuid.UUID]model.FetchOutcome),
		JobScores:      make(map[uuid.UUID]JobScoreBreakdown),
		PatentScores:   make(map[uuid.UUID]PatentScoreBreakdown),
		TechScores:     make(map[uuid.UUID]TechScoreBreakdown),
		StartedAt:      time.Now().UTC(),
	}
}

func (s *State) addError(step string, companyID uuid.UUID, message string) {
	s.Summary.Errors = append(s.Summary.Errors, StepError{
		Step:      step,
		CompanyID: companyID.String(),
		Message:   message,
	})
}

func (s *State) jobsFor(companyID uuid.UUID) []model.ClassifiedJob {
	var out []model.ClassifiedJob
	for _, j := range s.ClassifiedJobs {
		if j.CompanyID == companyID {
			out = append(out, j)
		}
	}
	return out
}

func (s *State) patentsFor(companyID uuid.UUID) []model.ClassifiedPatent {
	var out []model.ClassifiedPatent
	for _, p := range s.ClassifiedPatents {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out
}
