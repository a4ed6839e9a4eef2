package docpipe

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Persist writes documents and chunks to the store and archives parsed
// artifacts in the object store. Sink failures are reported in the run
// summary but already-completed stages are never rolled back.
func (p *Pipeline) Persist(ctx context.Context, s *State) error {
	if s.Stage != StageChunked {
		return eris.Wrapf(ErrPrecondition, "persist called in stage %q", s.Stage)
	}

	byDoc := make(map[string]int)
	for _, c := range s.Chunks {
		byDoc[c.DocumentID]++
	}

	for _, doc := range s.Deduplicated {
		if p.store != nil {
			if err := p.store.SaveDocument(ctx, doc); err != nil {
				s.addError(string(StagePersisted), doc.Ticker, err.Error())
				continue
			}
		}
		if p.objstore != nil {
			key := documentKey(doc.Ticker, doc.DocumentID)
			if _, err := p.objstore.UploadJSON(doc, key); err != nil {
				s.addError(string(StagePersisted), doc.Ticker, err.Error())
			}
		}
	}

	if p.store != nil && len(s.Chunks) > 0 {
		if err := p.store.SaveChunks(ctx, s.Chunks); err != nil {
			s.addError(string(StagePersisted), "", err.Error())
		}
	}
	if p.objstore != nil {
		if _, err := p.objstore.UploadJSON(s.Summary, summaryKey(s.RunID)); err != nil {
			s.addError(string(StagePersisted), "", err.Error())
		}
	}

	s.Stage = StagePersisted
	zap.L().Info("persist stage complete",
		zap.String("run_id", s.RunID),
		zap.Int("documents", len(s.Deduplicated)),
		zap.Int("chunk_sets", len(byDoc)))
	return nil
}

// Object store keys follow {category}/{ticker}/{identifier}; downstream
// readers depend on this layout.
func documentKey(ticker, documentID string) string {
	return fmt.Sprintf("parsed/%s/%s.json", ticker, documentID)
}

func summaryKey(runID string) string {
	return fmt.Sprintf("runs/docpipe/%s.json", runID)
}
