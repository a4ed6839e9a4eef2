package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orgair-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteCompanyRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	cat := model.NewCompany("CAT", "Caterpillar Inc.")
	cat.Sector = "Industrials"
	require.NoError(t, s.UpsertCompany(ctx, cat))

	got, err := s.GetCompany(ctx, "CAT")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cat.ID, got.ID)
	assert.Equal(t, "Caterpillar Inc.", got.Name)
	assert.Equal(t, "Industrials", got.Sector)

	missing, err := s.GetCompany(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteUpsertCompanyKeepsIDOnConflict(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first := model.NewCompany("CAT", "Caterpillar")
	require.NoError(t, s.UpsertCompany(ctx, first))

	// Re-importing the same ticker updates attributes, not identity.
	second := model.NewCompany("CAT", "Caterpillar Inc.")
	require.NoError(t, s.UpsertCompany(ctx, second))

	got, err := s.GetCompany(ctx, "CAT")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Caterpillar Inc.", got.Name)
}

func TestSQLiteUpsertCompaniesBulk(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	companies := []model.Company{
		model.NewCompany("CAT", "Caterpillar Inc."),
		model.NewCompany("DE", "Deere & Company"),
		model.NewCompany("EMR", "Emerson Electric"),
	}
	n, err := s.UpsertCompanies(ctx, companies)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	listed, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "CAT", listed[0].Ticker)
	assert.Equal(t, "DE", listed[1].Ticker)
}

func TestSQLiteDocumentRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	doc := model.ParsedDocument{
		DocumentID:   "abc123",
		Ticker:       "CAT",
		Category:     model.FilingAnnualReport,
		FilingDate:   time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		SourceFormat: model.FormatMarkup,
		FullText:     "Item 1. Business. We make machines.",
		WordCount:    6,
		Tables: []model.ParsedTable{
			{TableIndex: 0, Headers: []string{"Segment", "Revenue"}, Rows: [][]string{{"Energy", "10"}}, RowCount: 1, ColCount: 2},
		},
		Sections: map[string]string{"business": "We make machines."},
	}
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc.FullText, got.FullText)
	assert.Equal(t, doc.Sections, got.Sections)
	require.Len(t, got.Tables, 1)
	assert.Equal(t, []string{"Segment", "Revenue"}, got.Tables[0].Headers)

	missing, err := s.GetDocument(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteSaveDocumentIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	doc := model.ParsedDocument{
		DocumentID:   "dup",
		Ticker:       "CAT",
		Category:     model.FilingAnnualReport,
		FilingDate:   time.Now().UTC(),
		SourceFormat: model.FormatMarkup,
		FullText:     "text",
		WordCount:    1,
	}
	require.NoError(t, s.SaveDocument(ctx, doc))
	require.NoError(t, s.SaveDocument(ctx, doc))

	docs, err := s.ListDocuments(ctx, DocumentFilter{Ticker: "CAT"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSQLiteListDocumentsFiltersByCategory(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i, cat := range []model.FilingCategory{model.FilingAnnualReport, model.FilingProxyStatement} {
		require.NoError(t, s.SaveDocument(ctx, model.ParsedDocument{
			DocumentID:   string(rune('a' + i)),
			Ticker:       "CAT",
			Category:     cat,
			FilingDate:   time.Now().UTC(),
			SourceFormat: model.FormatMarkup,
			FullText:     "text",
			WordCount:    1,
		}))
	}

	proxies, err := s.ListDocuments(ctx, DocumentFilter{Ticker: "CAT", Category: model.FilingProxyStatement})
	require.NoError(t, err)
	require.Len(t, proxies, 1)
	assert.Equal(t, model.FilingProxyStatement, proxies[0].Category)
}

func TestSQLiteChunks(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, model.ParsedDocument{
		DocumentID: "doc1", Ticker: "CAT", Category: model.FilingAnnualReport,
		FilingDate: time.Now().UTC(), SourceFormat: model.FormatMarkup,
		FullText: "text", WordCount: 1,
	}))

	chunks := []model.Chunk{
		{DocumentID: "doc1", ChunkIndex: 0, Text: "first window", ApproxWordCount: 2},
		{DocumentID: "doc1", ChunkIndex: 1, Text: "second window", ApproxWordCount: 2},
	}
	require.NoError(t, s.SaveChunks(ctx, chunks))
	require.NoError(t, s.SaveChunks(ctx, nil))

	n, err := s.CountChunks(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteSignalsRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	companyID := uuid.New()
	sig := model.ExternalSignal{
		ID:            uuid.New(),
		CompanyID:     companyID,
		Category:      model.CategoryTechnologyHiring,
		Source:        "job_postings",
		SignalDate:    time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		RawValue:      "Found 3 AI roles out of 10 total jobs",
		Score:         28,
		EvidenceCount: 10,
		Confidence:    0.8,
		Metadata:      map[string]any{"ai_jobs": float64(3)},
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.SaveSignal(ctx, sig))

	signals, err := s.ListSignals(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, sig.ID, signals[0].ID)
	assert.Equal(t, model.CategoryTechnologyHiring, signals[0].Category)
	assert.Equal(t, 28.0, signals[0].Score)
	assert.Equal(t, float64(3), signals[0].Metadata["ai_jobs"])
}

func TestSQLiteSummaryUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	companyID := uuid.New()
	hiring := 80.0
	sum := model.SignalSummary{
		CompanyID:   companyID,
		Ticker:      "CAT",
		HiringScore: &hiring,
		SignalCount: 1,
		LastUpdated: time.Now().UTC(),
	}
	require.NoError(t, s.SaveSummary(ctx, sum))

	// Second save with more categories replaces the row wholesale.
	innovation, digital, leadership := 40.0, 70.0, 60.0
	sum.InnovationScore = &innovation
	sum.DigitalScore = &digital
	sum.LeadershipScore = &leadership
	sum.RecomputeComposite()
	sum.SignalCount = 4
	require.NoError(t, s.SaveSummary(ctx, sum))

	got, err := s.GetSummary(ctx, companyID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.CompositeScore)
	assert.InDelta(t, 63.5, *got.CompositeScore, 0.001)
	assert.Equal(t, 4, got.SignalCount)

	all, err := s.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteSummaryNilScoresSurviveRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	companyID := uuid.New()
	hiring := 50.0
	require.NoError(t, s.SaveSummary(ctx, model.SignalSummary{
		CompanyID:   companyID,
		Ticker:      "DE",
		HiringScore: &hiring,
		LastUpdated: time.Now().UTC(),
	}))

	got, err := s.GetSummary(ctx, companyID)
	require.NoError(t, err)
	require.NotNil(t, got.HiringScore)
	assert.Nil(t, got.InnovationScore)
	assert.Nil(t, got.CompositeScore)
}

func TestOpenSelectsDriver(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
