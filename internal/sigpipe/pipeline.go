package sigpipe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/model"
)

// JobFetcher fetches job postings for one company. An empty slice with a
// nil error is a valid zero-evidence outcome, not a failure.
type JobFetcher interface {
	FetchJobs(ctx context.Context, company model.Company) ([]model.JobPosting, error)
}

// PatentFetcher fetches patents for one company, same outcome contract
// as JobFetcher.
type PatentFetcher interface {
	FetchPatents(ctx context.Context, company model.Company) ([]model.Patent, error)
}

// SignalStore persists signals and per-company summaries.
type SignalStore interface {
	SaveSignal(ctx context.Context, signal model.ExternalSignal) error
}

// ObjectStore archives raw signal evidence.
type ObjectStore interface {
	UploadJSON(v any, key string) (string, error)
}

// Options selects which signal sources a run collects.
type Options struct {
	Jobs    bool
	Patents bool
	Tech    bool
}

// Pipeline owns one signal run's collaborators.
type Pipeline struct {
	jobs       JobFetcher
	patents    PatentFetcher
	classifier *Classifier
	tech       *TechDetector
	store      SignalStore
	objstore   ObjectStore
}

// New creates a Pipeline. store and objstore may be nil for dry runs.
func New(jobs JobFetcher, patents PatentFetcher, cls *Classifier, tech *TechDetector, store SignalStore, objstore ObjectStore) *Pipeline {
	return &Pipeline{
		jobs:       jobs,
		patents:    patents,
		classifier: cls,
		tech:       tech,
		store:      store,
		objstore:   objstore,
	}
}

// Run collects, classifies, scores, and persists the selected signal
// sources. Per-company fetch failures are recorded and skipped; the run
// itself fails only on persistence-independent fatal errors.
func (p *Pipeline) Run(ctx context.Context, s *State, opts Options) error {
	if opts.Jobs {
		p.CollectJobs(ctx, s)
	}
	if opts.Patents {
		p.CollectPatents(ctx, s)
	}
	if opts.Tech {
		p.DetectTechStacks(s)
	}
	p.Score(s)
	if err := p.Persist(ctx, s); err != nil {
		return err
	}
	s.CompletedAt = time.Now().UTC()
	return nil
}

// CollectJobs fetches and classifies job postings company by company.
// Fetchers enforce the mandatory minimum inter-request delay, so
// companies are visited sequentially here.
func (p *Pipeline) CollectJobs(ctx context.Context, s *State) {
	for _, company := range s.Companies {
		postings, err := p.jobs.FetchJobs(ctx, company)
		if err != nil {
			s.JobOutcomes[company.ID] = model.FetchFailed
			s.addError("job_fetch", company.ID, err.Error())
			zap.L().Warn("job fetch failed",
				zap.String("ticker", company.Ticker), zap.Error(err))
			continue
		}
		if len(postings) == 0 {
			s.JobOutcomes[company.ID] = model.FetchEmpty
			continue
		}
		s.JobOutcomes[company.ID] = model.FetchOK
		s.Jobs = append(s.Jobs, postings...)
		s.Summary.JobsCollected += len(postings)

		for _, posting := range postings {
			classified := p.classifier.ClassifyJob(posting)
			if classified.IsRelevant {
				s.Summary.AIJobs++
			}
			s.ClassifiedJobs = append(s.ClassifiedJobs, classified)
		}
	}
	zap.L().Info("job collection complete",
		zap.String("run_id", s.RunID),
		zap.Int("jobs", s.Summary.JobsCollected),
		zap.Int("ai_jobs", s.Summary.AIJobs))
}

// CollectPatents fetches and classifies patents company by company.
func (p *Pipeline) CollectPatents(ctx context.Context, s *State) {
	for _, company := range s.Companies {
		patents, err := p.patents.FetchPatents(ctx, company)
		if err != nil {
			s.PatentOutcomes[company.ID] = model.FetchFailed
			s.addError("patent_fetch", company.ID, err.Error())
			zap.L().Warn("patent fetch failed",
				zap.String("ticker", company.Ticker), zap.Error(err))
			continue
		}
		if len(patents) == 0 {
			s.PatentOutcomes[company.ID] = model.FetchEmpty
			continue
		}
		s.PatentOutcomes[company.ID] = model.FetchOK
		s.Patents = append(s.Patents, patents...)
		s.Summary.PatentsCollected += len(patents)

		for _, patent := range patents {
			classified := p.classifier.ClassifyPatent(patent)
			if classified.IsRelevant {
				s.Summary.AIPatents++
			}
			s.ClassifiedPatents = append(s.ClassifiedPatents, classified)
		}
	}
	zap.L().Info("patent collection complete",
		zap.String("run_id", s.RunID),
		zap.Int("patents", s.Summary.PatentsCollected),
		zap.Int("ai_patents", s.Summary.AIPatents))
}

// DetectTechStacks derives technology detections from the already
// classified job postings of each company.
func (p *Pipeline) DetectTechStacks(s *State) {
	byCompany := make(map[uuid.UUID][]string)
	for _, job := range s.ClassifiedJobs {
		byCompany[job.CompanyID] = append(byCompany[job.CompanyID], job.Title+" "+job.Description)
	}
	for _, company := range s.Companies {
		texts := byCompany[company.ID]
		if len(texts) == 0 {
			continue
		}
		s.TechDetections[company.ID] = p.tech.DetectAll(texts)
	}
}

// Score reduces every company's evidence to category scores. Companies
// whose fetch failed are skipped: a failed fetch is not evidence of
// absence.
func (p *Pipeline) Score(s *State) {
	for _, company := range s.Companies {
		scored := false

		switch s.JobOutcomes[company.ID] {
		case model.FetchOK, model.FetchEmpty:
			s.JobScores[company.ID] = ScoreJobMarket(s.jobsFor(company.ID))
			scored = true
		}
		switch s.PatentOutcomes[company.ID] {
		case model.FetchOK, model.FetchEmpty:
			s.PatentScores[company.ID] = ScorePatents(s.patentsFor(company.ID), time.Now().UTC())
			scored = true
		}
		if dets, ok := s.TechDetections[company.ID]; ok {
			s.TechScores[company.ID] = ScoreTechStack(dets)
			scored = true
		}

		if scored {
			s.Summary.CompaniesScored++
		}
	}
}

// Persist writes one ExternalSignal per company and category and
// archives the raw evidence. Sink failures are recorded per company and
// never roll back completed scoring.
func (p *Pipeline) Persist(ctx context.Context, s *State) error {
	if p.store == nil && p.objstore == nil {
		return nil
	}
	now := time.Now().UTC()

	for _, company := range s.Companies {
		if b, ok := s.JobScores[company.ID]; ok {
			p.persistSignal(ctx, s, model.ExternalSignal{
				ID:            uuid.New(),
				CompanyID:     company.ID,
				Category:      model.CategoryTechnologyHiring,
				Source:        "job_postings",
				SignalDate:    now,
				RawValue:      fmt.Sprintf("Found %d AI roles out of %d total jobs", b.AIJobs, b.TotalJobs),
				Score:         b.Total,
				EvidenceCount: b.AIJobs,
				Confidence:    0.8,
				CreatedAt:     now,
			}, company.Ticker, "jobs", b)
		}
		if b, ok := s.PatentScores[company.ID]; ok {
			p.persistSignal(ctx, s, model.ExternalSignal{
				ID:            uuid.New(),
				CompanyID:     company.ID,
				Category:      model.CategoryInnovationActivity,
				Source:        "patentsview",
				SignalDate:    now,
				RawValue:      fmt.Sprintf("Found %d AI patents out of %d total patents", b.AIPatents, b.TotalPatents),
				Score:         b.Total,
				EvidenceCount: b.AIPatents,
				Confidence:    0.8,
				CreatedAt:     now,
			}, company.Ticker, "patents", b)
		}
		if b, ok := s.TechScores[company.ID]; ok {
			p.persistSignal(ctx, s, model.ExternalSignal{
				ID:            uuid.New(),
				CompanyID:     company.ID,
				Category:      model.CategoryDigitalPresence,
				Source:        "job_postings",
				SignalDate:    now,
				RawValue:      fmt.Sprintf("Found %d AI tools in tech stack", len(b.AITools)),
				Score:         b.Total,
				EvidenceCount: len(b.AITools),
				Confidence:    0.85,
				CreatedAt:     now,
			}, company.Ticker, "techstack", b)
		}
	}

	if p.objstore != nil {
		if _, err := p.objstore.UploadJSON(s.Summary, fmt.Sprintf("runs/sigpipe/%s.json", s.RunID)); err != nil {
			s.addError("persist", uuid.Nil, err.Error())
		}
	}
	return nil
}

func (p *Pipeline) persistSignal(ctx context.Context, s *State, sig model.ExternalSignal, ticker, kind string, breakdown any) {
	if p.store != nil {
		if err := p.store.SaveSignal(ctx, sig); err != nil {
			s.addError("persist", sig.CompanyID, err.Error())
		}
	}
	if p.objstore != nil {
		key := fmt.Sprintf("signals/%s/%s/%s.json", kind, ticker, s.RunID)
		if _, err := p.objstore.UploadJSON(breakdown, key); err != nil {
			s.addError("persist", sig.CompanyID, err.Error())
		}
	}
}
