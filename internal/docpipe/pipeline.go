// Package docpipe orchestrates the document pipeline: download filings,
// parse them, skip duplicates, chunk the survivors, persist artifacts.
package docpipe

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/orgair-cli/internal/chunker"
	"github.com/sells-group/orgair-cli/internal/dedup"
	"github.com/sells-group/orgair-cli/internal/model"
	"github.com/sells-group/orgair-cli/internal/parser"
)

// ErrPrecondition marks a stage invoked before its predecessor produced
// output. It is fatal for the run, unlike recovered per-item errors.
var ErrPrecondition = eris.New("docpipe: stage precondition failed")

// Downloader acquires raw filings for one ticker. Partial failure per
// filing category must not abort the other categories.
type Downloader interface {
	Download(ctx context.Context, ticker string, categories []model.FilingCategory, after time.Time, limit int) ([]model.RawDocument, error)
}

// DocumentStore persists parsed documents and chunks.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc model.ParsedDocument) error
	SaveChunks(ctx context.Context, chunks []model.Chunk) error
}

// ObjectStore archives pipeline artifacts under content keys.
type ObjectStore interface {
	UploadJSON(v any, key string) (string, error)
}

// Pipeline owns one run's collaborators. Construct with New and pass
// every dependency explicitly.
type Pipeline struct {
	downloader Downloader
	parser     *parser.Parser
	registry   *dedup.Registry
	chunker    *chunker.Chunker
	store      DocumentStore
	objstore   ObjectStore
}

// New creates a Pipeline. store and objstore may be nil, in which case
// Persist only reports what it would have written.
func New(dl Downloader, p *parser.Parser, reg *dedup.Registry, ch *chunker.Chunker, store DocumentStore, objstore ObjectStore) *Pipeline {
	return &Pipeline{
		downloader: dl,
		parser:     p,
		registry:   reg,
		chunker:    ch,
		store:      store,
		objstore:   objstore,
	}
}

// Run executes all stages in order and returns the first fatal error.
func (p *Pipeline) Run(ctx context.Context, s *State) error {
	stages := []func(context.Context, *State) error{
		p.Download,
		p.Parse,
		p.Dedupe,
		p.Chunk,
		p.Persist,
	}
	for _, stage := range stages {
		if err := stage(ctx, s); err != nil {
			return err
		}
	}
	s.CompletedAt = time.Now().UTC()
	return nil
}

// Download fetches filings for every ticker. Ticker fetches run
// concurrently; results are integrated into the state serially under a
// mutex. A ticker's failure is recorded and the rest continue.
func (p *Pipeline) Download(ctx context.Context, s *State) error {
	if s.Stage != StageInitialized {
		return eris.Wrapf(ErrPrecondition, "download called in stage %q", s.Stage)
	}
	if len(s.Tickers) == 0 {
		return eris.Wrap(ErrPrecondition, "download requires at least one ticker")
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, ticker := range s.Tickers {
		ticker := ticker
		g.Go(func() error {
			docs, err := p.downloader.Download(gctx, ticker, s.Categories, s.AfterDate, s.FilingLimit)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.addError(string(StageDownloaded), ticker, err.Error())
				s.addDetail(Detail{
					Ticker: ticker,
					Status: StatusDownloadFailed,
					Error:  err.Error(),
				})
				return nil
			}
			s.Downloaded = append(s.Downloaded, docs...)
			s.Summary.AttemptedDownloads += len(docs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "docpipe: download stage")
	}

	s.Stage = StageDownloaded
	zap.L().Info("download stage complete",
		zap.String("run_id", s.RunID),
		zap.Int("filings", len(s.Downloaded)))
	return nil
}

// Parse converts every downloaded filing. A filing that yields no text
// after all parser fallbacks is recorded as parse_failed and dropped;
// the stage itself never fails on a bad document.
func (p *Pipeline) Parse(ctx context.Context, s *State) error {
	if s.Stage != StageDownloaded {
		return eris.Wrapf(ErrPrecondition, "parse called in stage %q", s.Stage)
	}
	if len(s.Downloaded) == 0 {
		return eris.Wrap(ErrPrecondition, "parse requires downloaded filings")
	}

	for _, raw := range s.Downloaded {
		doc := p.parser.Parse(ctx, raw)
		if doc.Degraded() && doc.FullText == "" {
			s.Summary.ParseFailures++
			msg := "no text extracted"
			if len(doc.ParseErrors) > 0 {
				msg = doc.ParseErrors[0]
			}
			s.addError(string(StageParsed), raw.Ticker, msg)
			s.addDetail(Detail{
				Ticker:   raw.Ticker,
				Category: string(raw.Category),
				Filename: raw.Filename,
				Status:   StatusParseFailed,
				Error:    msg,
			})
			continue
		}
		s.Parsed = append(s.Parsed, doc)
	}

	s.Stage = StageParsed
	zap.L().Info("parse stage complete",
		zap.String("run_id", s.RunID),
		zap.Int("parsed", len(s.Parsed)),
		zap.Int("failures", s.Summary.ParseFailures))
	return nil
}

// Dedupe drops documents whose content digest has been seen before and
// marks the survivors in the registry.
func (p *Pipeline) Dedupe(_ context.Context, s *State) error {
	if s.Stage != StageParsed {
		return eris.Wrapf(ErrPrecondition, "dedupe called in stage %q", s.Stage)
	}
	if len(s.Parsed) == 0 {
		return eris.Wrap(ErrPrecondition, "dedupe requires parsed documents")
	}

	for _, doc := range s.Parsed {
		if p.registry.IsDuplicate(doc.DocumentID) {
			s.Summary.SkippedDuplicates++
			s.addDetail(Detail{
				Ticker:     doc.Ticker,
				Category:   string(doc.Category),
				DocumentID: doc.DocumentID,
				Status:     StatusDuplicateSkipped,
			})
			continue
		}
		if err := p.registry.MarkSeen(doc.DocumentID); err != nil {
			s.addError(string(StageDeduplicated), doc.Ticker, err.Error())
			continue
		}
		s.Deduplicated = append(s.Deduplicated, doc)
		s.Summary.UniqueFilingsProcessed++
		s.addDetail(Detail{
			Ticker:     doc.Ticker,
			Category:   string(doc.Category),
			DocumentID: doc.DocumentID,
			Status:     StatusSuccess,
		})
	}

	s.Stage = StageDeduplicated
	zap.L().Info("dedupe stage complete",
		zap.String("run_id", s.RunID),
		zap.Int("unique", s.Summary.UniqueFilingsProcessed),
		zap.Int("duplicates", s.Summary.SkippedDuplicates))
	return nil
}

// Chunk windows every deduplicated document's text.
func (p *Pipeline) Chunk(_ context.Context, s *State) error {
	if s.Stage != StageDeduplicated {
		return eris.Wrapf(ErrPrecondition, "chunk called in stage %q", s.Stage)
	}
	if len(s.Deduplicated) == 0 {
		return eris.Wrap(ErrPrecondition, "chunk requires deduplicated documents")
	}

	for _, doc := range s.Deduplicated {
		chunks := p.chunker.ChunkDocument(doc)
		s.Chunks = append(s.Chunks, chunks...)
		s.Summary.ChunksCreated += len(chunks)
	}

	s.Stage = StageChunked
	zap.L().Info("chunk stage complete",
		zap.String("run_id", s.RunID),
		zap.Int("chunks", s.Summary.ChunksCreated))
	return nil
}
