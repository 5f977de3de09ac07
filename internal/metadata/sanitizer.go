// Package metadata projects chunk provenance into the flat, scalar-valued
// form the vector store accepts. The store rejects nested or mixed-type
// metadata values, so sanitisation happens exactly once, at ingestion.
package metadata

import (
	"strconv"
	"strings"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

// Flatten builds the storage-compatible metadata map for a chunk.
// The result is deterministic: the same chunk always flattens to the same map.
func Flatten(c domain.Chunk) map[string]any {
	m := map[string]any{
		"source_id":   c.SourceID,
		"chunk_index": c.Index,
		"char_count":  c.CharCount(),
		"word_count":  len(strings.Fields(c.Text)),
	}

	switch len(c.Pages) {
	case 0:
		// Unknown provenance: omit rather than store a null-ambiguous value.
	case 1:
		m["page_numbers"] = c.Pages[0]
	default:
		m["page_numbers"] = JoinPages(c.Pages)
	}

	if c.Oversized {
		m["oversized"] = true
	}
	if c.Overlap != "" {
		m["has_overlap"] = true
	}

	return m
}

// JoinPages renders a page list as a comma-delimited scalar string.
func JoinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// FilterScalars returns a copy of m holding only primitive values
// (string, bool, integer, float). Nested maps, slices, and nils are dropped.
func FilterScalars(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64:
			out[k] = v
		}
	}
	return out
}
