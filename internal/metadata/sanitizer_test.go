package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

func TestFlatten_MultiplePagesBecomeDelimitedString(t *testing.T) {
	c := domain.Chunk{
		ID:       "doc.pdf#0",
		SourceID: "doc.pdf",
		Index:    0,
		Text:     "alpha beta",
		Pages:    []int{1, 2, 3},
	}

	m := Flatten(c)
	assert.Equal(t, "1,2,3", m["page_numbers"], "page list must be a scalar, never nested")
	assert.Equal(t, "doc.pdf", m["source_id"])
	assert.Equal(t, 0, m["chunk_index"])
	assert.Equal(t, 10, m["char_count"])
	assert.Equal(t, 2, m["word_count"])
}

func TestFlatten_SinglePageStaysScalar(t *testing.T) {
	m := Flatten(domain.Chunk{SourceID: "d.pdf", Text: "x", Pages: []int{7}})
	assert.Equal(t, 7, m["page_numbers"])
}

func TestFlatten_NoPagesOmitsKey(t *testing.T) {
	m := Flatten(domain.Chunk{SourceID: "d.pdf", Text: "x"})
	_, ok := m["page_numbers"]
	assert.False(t, ok, "unknown pages are omitted, not stored as null")
}

func TestFlatten_Flags(t *testing.T) {
	m := Flatten(domain.Chunk{SourceID: "d.pdf", Text: "x", Oversized: true, Overlap: "tail"})
	assert.Equal(t, true, m["oversized"])
	assert.Equal(t, true, m["has_overlap"])

	m = Flatten(domain.Chunk{SourceID: "d.pdf", Text: "x"})
	_, ok := m["oversized"]
	assert.False(t, ok)
	_, ok = m["has_overlap"]
	assert.False(t, ok)
}

func TestFlatten_Deterministic(t *testing.T) {
	c := domain.Chunk{SourceID: "d.pdf", Index: 4, Text: "same chunk", Pages: []int{2, 5}}
	require.Equal(t, Flatten(c), Flatten(c))
}

func TestFilterScalars(t *testing.T) {
	in := map[string]any{
		"filename":  "a.pdf",
		"page":      3,
		"score":     0.5,
		"flag":      true,
		"languages": []string{"eng"},
		"coords":    map[string]any{"x": 1},
		"missing":   nil,
	}

	out := FilterScalars(in)
	assert.Equal(t, map[string]any{
		"filename": "a.pdf",
		"page":     3,
		"score":    0.5,
		"flag":     true,
	}, out)
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "2,1,9", JoinPages([]int{2, 1, 9}))
	assert.Equal(t, "", JoinPages(nil))
}
