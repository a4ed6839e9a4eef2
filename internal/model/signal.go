package model

import (
	"time"

	"github.com/google/uuid"
)

// SignalCategory identifies one scored evidence category.
type SignalCategory string

const (
	CategoryTechnologyHiring   SignalCategory = "technology_hiring"
	CategoryInnovationActivity SignalCategory = "innovation_activity"
	CategoryDigitalPresence    SignalCategory = "digital_presence"
	CategoryLeadershipSignals  SignalCategory = "leadership_signals"
)

// Composite weights per category. The composite is defined only when all
// four category scores are present.
const (
	WeightHiring     = 0.30
	WeightInnovation = 0.25
	WeightDigital    = 0.25
	WeightLeadership = 0.20
)

// JobPosting is an unclassified job record as fetched from the job board.
type JobPosting struct {
	CompanyID   uuid.UUID  `json:"company_id"`
	CompanyName string     `json:"company_name"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location,omitempty"`
	PostedDate  *time.Time `json:"posted_date,omitempty"`
	Source      string     `json:"source"`
	URL         string     `json:"url,omitempty"`
}

// Patent is an unclassified patent record as fetched from the patent API.
type Patent struct {
	CompanyID   uuid.UUID  `json:"company_id"`
	CompanyName string     `json:"company_name"`
	PatentID    string     `json:"patent_id"`
	Title       string     `json:"title"`
	Abstract    string     `json:"abstract"`
	PatentDate  *time.Time `json:"patent_date,omitempty"`
	PatentType  string     `json:"patent_type,omitempty"`
	Assignees   []string   `json:"assignees,omitempty"`
	Inventors   []string   `json:"inventors,omitempty"`
	CPCCodes    []string   `json:"cpc_codes,omitempty"`
}

// Classification is the output of a keyword classifier for one record.
type Classification struct {
	MatchedKeywords []string `json:"matched_keywords"`
	IsRelevant      bool     `json:"is_relevant"`
	RelevanceScore  float64  `json:"relevance_score"`
}

// ClassifiedJob pairs a job posting with its classification. It is only
// constructed by the classifier, never mutated afterwards.
type ClassifiedJob struct {
	JobPosting
	Classification
	TechStackKeywords []string `json:"techstack_keywords"`
}

// ClassifiedPatent pairs a patent with its classification.
type ClassifiedPatent struct {
	Patent
	Classification
}

// TechDetection is one technology spotted in company evidence text.
type TechDetection struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	AIRelated  bool    `json:"is_ai_related"`
	Confidence float64 `json:"confidence"`
}

// ExternalSignal is one scored signal observation for a company.
type ExternalSignal struct {
	ID            uuid.UUID      `json:"id"`
	CompanyID     uuid.UUID      `json:"company_id"`
	Category      SignalCategory `json:"category"`
	Source        string         `json:"source"`
	SignalDate    time.Time      `json:"signal_date"`
	RawValue      string         `json:"raw_value"`
	Score         float64        `json:"score"`
	EvidenceCount int            `json:"evidence_count"`
	Confidence    float64        `json:"confidence"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SignalSummary aggregates the category scores for one company.
// Nil pointers mean the category has not been scored; that is different
// from a true zero.
type SignalSummary struct {
	CompanyID       uuid.UUID `json:"company_id"`
	Ticker          string    `json:"ticker"`
	HiringScore     *float64  `json:"technology_hiring_score,omitempty"`
	InnovationScore *float64  `json:"innovation_activity_score,omitempty"`
	DigitalScore    *float64  `json:"digital_presence_score,omitempty"`
	LeadershipScore *float64  `json:"leadership_signals_score,omitempty"`
	CompositeScore  *float64  `json:"composite_score,omitempty"`
	SignalCount     int       `json:"signal_count"`
	LastUpdated     time.Time `json:"last_updated"`
}

// FetchOutcome distinguishes a source that returned nothing from a source
// that could not be reached. An empty result is evidence of absence and is
// scored; a failed fetch is not.
type FetchOutcome string

const (
	FetchOK     FetchOutcome = "ok"
	FetchEmpty  FetchOutcome = "empty"
	FetchFailed FetchOutcome = "failed"
)

// RecomputeComposite recalculates the weighted composite wholesale.
// The composite is set only when all four category scores are present;
// otherwise it is cleared.
func (s *SignalSummary) RecomputeComposite() {
	if s.HiringScore == nil || s.InnovationScore == nil ||
		s.DigitalScore == nil || s.LeadershipScore == nil {
		s.CompositeScore = nil
		return
	}
	c := WeightHiring**s.HiringScore +
		WeightInnovation**s.InnovationScore +
		WeightDigital**s.DigitalScore +
		WeightLeadership**s.LeadershipScore
	s.CompositeScore = &c
}
