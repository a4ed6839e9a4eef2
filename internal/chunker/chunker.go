// Package chunker splits normalized document text into overlapping,
// bounded-size word windows for downstream retrieval use.
package chunker

import (
	"strings"

	"github.com/sells-group/orgair-cli/internal/model"
)

// Chunker produces word-aligned overlapping windows. Size is the window
// width in words; Overlap is how many words consecutive windows share.
type Chunker struct {
	Size    int
	Overlap int
}

// New creates a Chunker. A non-positive size falls back to 750 words
// with 50 words of overlap.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 750
		overlap = 50
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Chunk splits text into windows of Size words, each advancing by
// Size-Overlap words. Empty text yields an empty slice. When Overlap is
// at least Size the advance clamps to one word, so chunking always
// terminates.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.Size - c.Overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + c.Size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ChunkDocument chunks a parsed document's full text into model.Chunk
// values with contiguous indexes.
func (c *Chunker) ChunkDocument(doc model.ParsedDocument) []model.Chunk {
	texts := c.Chunk(doc.FullText)
	chunks := make([]model.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, model.Chunk{
			DocumentID:      doc.DocumentID,
			ChunkIndex:      i,
			Text:            text,
			ApproxWordCount: model.CountWords(text),
		})
	}
	return chunks
}
