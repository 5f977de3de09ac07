package driven

import (
	"context"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

// VectorIndex is the persisted, queryable similarity index over chunk entries.
// Backed by SQLite; entries are keyed by stable chunk IDs.
//
// Upserts must be atomic per entry: a failed write never leaves a half-written
// row behind. Search calls are read-only and safe to run concurrently.
type VectorIndex interface {
	// Upsert inserts or replaces one entry by its ID.
	Upsert(ctx context.Context, entry domain.IndexEntry) error

	// Search returns the k entries nearest to the query vector, ordered by
	// descending similarity with ties broken by ascending entry ID.
	// Fewer than k results are returned only when the index holds fewer
	// than k entries.
	Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error)

	// Count returns the number of persisted entries.
	Count(ctx context.Context) (int, error)

	// Manifest returns the embedding-space identity recorded at creation.
	Manifest(ctx context.Context) (*domain.IndexManifest, error)

	// WriteManifest records the embedding-space identity. Called once when
	// the index is created; overwriting with a different model is refused
	// by the services layer, not here.
	WriteManifest(ctx context.Context, m domain.IndexManifest) error

	// Close releases resources.
	Close() error
}
