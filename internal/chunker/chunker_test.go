package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/orgair-cli/internal/model"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunkEmptyText(t *testing.T) {
	c := New(750, 50)
	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("  \n\t "))
}

func TestChunkCoverage(t *testing.T) {
	c := New(750, 50)
	text := makeWords(2000)

	chunks := c.Chunk(text)
	require.Len(t, chunks, 3)

	// Every word appears in some chunk.
	covered := map[string]bool{}
	for _, chunk := range chunks {
		for _, w := range strings.Fields(chunk) {
			covered[w] = true
		}
	}
	assert.Len(t, covered, 2000)

	// Word-aligned boundaries: chunk content is a contiguous word run.
	assert.True(t, strings.HasPrefix(chunks[0], "w0 "))
	assert.True(t, strings.HasPrefix(chunks[1], "w700 "))
	assert.True(t, strings.HasPrefix(chunks[2], "w1400 "))
	assert.True(t, strings.HasSuffix(chunks[2], " w1999"))
}

func TestChunkOverlapSharedWords(t *testing.T) {
	c := New(10, 3)
	chunks := c.Chunk(makeWords(20))
	require.GreaterOrEqual(t, len(chunks), 2)

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	assert.Equal(t, first[len(first)-3:], second[:3])
}

func TestMoreOverlapMeansMoreChunks(t *testing.T) {
	text := makeWords(2000)
	low := New(750, 50).Chunk(text)
	high := New(750, 300).Chunk(text)
	assert.Greater(t, len(high), len(low))
}

func TestChunkTerminatesWhenOverlapExceedsSize(t *testing.T) {
	text := makeWords(40)
	for _, overlap := range []int{10, 11, 100} {
		c := New(10, overlap)
		chunks := c.Chunk(text)
		// Advance clamps to one word, so there is one chunk per word.
		assert.Len(t, chunks, 40, "overlap=%d", overlap)
	}
}

func TestChunkDocument(t *testing.T) {
	c := New(5, 1)
	doc := model.ParsedDocument{
		DocumentID: "abc123",
		FullText:   makeWords(12),
	}

	chunks := c.ChunkDocument(doc)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, "abc123", chunk.DocumentID)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, model.CountWords(chunk.Text), chunk.ApproxWordCount)
	}
}
