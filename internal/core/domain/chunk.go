package domain

import "fmt"

// Chunk is a contiguous merged run of elements. Chunks are the retrieval
// unit: they are created in one pass over the element stream, immutable once
// emitted, and recreated wholesale when the pipeline reruns.
type Chunk struct {
	// ID is the stable identifier derived from (SourceID, Index).
	// Re-running the pipeline on unchanged input reproduces identical IDs.
	ID string

	// SourceID identifies the originating document.
	SourceID string

	// Index is the chunk's emission order within its source document.
	Index int

	// Text is the constituent elements' text joined in order.
	Text string

	// Pages holds the contributing page numbers in arrival order.
	// Input order is authoritative; non-monotonic pages are recorded as-is.
	Pages []int

	// Overlap is the leading fragment copied from the tail of the previous
	// chunk. Set only for chunks created by a hard size-driven split, never
	// across a Title boundary.
	Overlap string

	// Oversized marks a chunk built from a single element whose length alone
	// exceeds the configured ceiling. Such chunks are emitted verbatim; this
	// is the one allowed exception to the size invariant.
	Oversized bool
}

// ChunkID derives the stable chunk identifier for a source and emission index.
func ChunkID(sourceID string, index int) string {
	return fmt.Sprintf("%s#%d", sourceID, index)
}

// CharCount returns len(Text). Except for Oversized chunks it never exceeds
// the chunker's MaxCharacters.
func (c Chunk) CharCount() int {
	return len(c.Text)
}

// IndexEntry is the persisted unit in the vector store.
type IndexEntry struct {
	// ID equals the chunk ID. Upsert by this ID replaces, never duplicates.
	ID string

	// Document is the chunk text used both for embedding and for the
	// answering model's context window.
	Document string

	// Embedding is the fixed-length vector produced from Document.
	Embedding []float32

	// Metadata is the chunk's sanitised metadata: flat, scalar-valued only.
	Metadata map[string]any
}

// IndexManifest records the embedding space an index was built with.
// Build and query must use the identical model; the manifest makes a
// mismatch detectable instead of silently degrading results.
type IndexManifest struct {
	// EmbeddingModel is the collaborator model name (e.g. "text-embedding-3-small").
	EmbeddingModel string

	// Dimensions is the vector length.
	Dimensions int
}
