package sigpipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orgair-cli/internal/keywords"
	"github.com/sells-group/orgair-cli/internal/model"
)

type fakeJobFetcher struct {
	jobs map[string][]model.JobPosting
	errs map[string]error
}

func (f *fakeJobFetcher) FetchJobs(_ context.Context, c model.Company) ([]model.JobPosting, error) {
	if err := f.errs[c.Ticker]; err != nil {
		return nil, err
	}
	return f.jobs[c.Ticker], nil
}

type fakePatentFetcher struct {
	patents map[string][]model.Patent
	errs    map[string]error
}

func (f *fakePatentFetcher) FetchPatents(_ context.Context, c model.Company) ([]model.Patent, error) {
	if err := f.errs[c.Ticker]; err != nil {
		return nil, err
	}
	return f.patents[c.Ticker], nil
}

type memSignalStore struct {
	signals []model.ExternalSignal
}

func (m *memSignalStore) SaveSignal(_ context.Context, sig model.ExternalSignal) error {
	m.signals = append(m.signals, sig)
	return nil
}

type memObjstore struct {
	keys []string
}

func (m *memObjstore) UploadJSON(_ any, key string) (string, error) {
	m.keys = append(m.keys, key)
	return key, nil
}

func aiJob(c model.Company, title, desc string) model.JobPosting {
	return model.JobPosting{
		CompanyID:   c.ID,
		CompanyName: c.Name,
		Title:       title,
		Description: desc,
		Source:      "linkedin",
	}
}

func TestPipelineRunDistinguishesEmptyFromFailed(t *testing.T) {
	vocab, err := keywords.Load()
	require.NoError(t, err)

	cat := model.NewCompany("CAT", "Caterpillar Inc.")
	de := model.NewCompany("DE", "Deere & Company")
	emr := model.NewCompany("EMR", "Emerson Electric")

	jobs := &fakeJobFetcher{
		jobs: map[string][]model.JobPosting{
			"CAT": {
				aiJob(cat, "ML Engineer", "Build machine learning models in pytorch."),
				aiJob(cat, "Mechanic", "Repair large engines."),
			},
			// DE returns nothing: a valid zero-evidence outcome.
		},
		errs: map[string]error{"EMR": errors.New("scraper timeout")},
	}
	store := &memSignalStore{}
	obj := &memObjstore{}
	p := New(jobs, &fakePatentFetcher{}, NewClassifier(vocab, testSignalsConfig()),
		NewTechDetector(vocab), store, obj)

	s := NewState("sig-run-1", []model.Company{cat, de, emr})
	require.NoError(t, p.Run(context.Background(), s, Options{Jobs: true, Tech: true}))

	assert.Equal(t, model.FetchOK, s.JobOutcomes[cat.ID])
	assert.Equal(t, model.FetchEmpty, s.JobOutcomes[de.ID])
	assert.Equal(t, model.FetchFailed, s.JobOutcomes[emr.ID])

	// CAT scored from evidence, DE scored at zero evidence.
	catScore, ok := s.JobScores[cat.ID]
	require.True(t, ok)
	assert.Equal(t, 1, catScore.AIJobs)
	assert.Greater(t, catScore.Total, 0.0)

	deScore, ok := s.JobScores[de.ID]
	require.True(t, ok)
	assert.Zero(t, deScore.Total)

	// EMR gets no score at all: failure is not evidence of absence.
	_, ok = s.JobScores[emr.ID]
	assert.False(t, ok)

	require.Len(t, s.Summary.Errors, 1)
	assert.Equal(t, "job_fetch", s.Summary.Errors[0].Step)

	// Signals persisted for scored companies only.
	var companies []string
	for _, sig := range store.signals {
		if sig.Category == model.CategoryTechnologyHiring {
			companies = append(companies, sig.CompanyID.String())
		}
	}
	assert.Contains(t, companies, cat.ID.String())
	assert.Contains(t, companies, de.ID.String())
	assert.NotContains(t, companies, emr.ID.String())

	assert.Contains(t, obj.keys, "signals/jobs/CAT/sig-run-1.json")
	assert.Contains(t, obj.keys, "runs/sigpipe/sig-run-1.json")
}

func TestPipelinePatentsFlow(t *testing.T) {
	vocab, err := keywords.Load()
	require.NoError(t, err)

	cat := model.NewCompany("CAT", "Caterpillar Inc.")
	patents := &fakePatentFetcher{patents: map[string][]model.Patent{
		"CAT": {
			{CompanyID: cat.ID, PatentID: "US1", Title: "Autonomous haulage with machine learning control"},
			{CompanyID: cat.ID, PatentID: "US2", Title: "Hydraulic pump seal"},
		},
	}}
	p := New(&fakeJobFetcher{}, patents, NewClassifier(vocab, testSignalsConfig()),
		NewTechDetector(vocab), nil, nil)

	s := NewState("sig-run-2", []model.Company{cat})
	require.NoError(t, p.Run(context.Background(), s, Options{Patents: true}))

	assert.Equal(t, 2, s.Summary.PatentsCollected)
	assert.Equal(t, 1, s.Summary.AIPatents)

	b, ok := s.PatentScores[cat.ID]
	require.True(t, ok)
	assert.Equal(t, 1, b.AIPatents)
	assert.InDelta(t, 20.0, b.Coverage, 0.001) // 1/2 * 40
}

func TestDetectTechStacksGroupsByCompany(t *testing.T) {
	vocab, err := keywords.Load()
	require.NoError(t, err)

	cat := model.NewCompany("CAT", "Caterpillar Inc.")
	de := model.NewCompany("DE", "Deere & Company")
	jobs := &fakeJobFetcher{jobs: map[string][]model.JobPosting{
		"CAT": {aiJob(cat, "ML Engineer", "Machine learning with pytorch on databricks.")},
		"DE":  {aiJob(de, "Analyst", "Dashboards in tableau.")},
	}}
	p := New(jobs, &fakePatentFetcher{}, NewClassifier(vocab, testSignalsConfig()),
		NewTechDetector(vocab), nil, nil)

	s := NewState("sig-run-3", []model.Company{cat, de})
	require.NoError(t, p.Run(context.Background(), s, Options{Jobs: true, Tech: true}))

	names := []string{}
	for _, d := range s.TechDetections[cat.ID] {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "pytorch")
	assert.Contains(t, names, "databricks")
	assert.Empty(t, s.TechDetections[de.ID])
}
