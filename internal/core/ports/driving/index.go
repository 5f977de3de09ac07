package driving

import "context"

// IndexManager exposes the persisted index lifecycle to the driving
// adapters: attach for querying, report size, release.
type IndexManager interface {
	// Open attaches to the persisted index without rebuilding. Returns
	// domain.ErrIndexNotFound when no build has run and
	// domain.ErrModelMismatch when the configured embedding model differs
	// from the one the index was built with.
	Open(ctx context.Context) error

	// Count returns the number of indexed chunks. Requires a prior Open.
	Count(ctx context.Context) (int, error)

	// Close releases the handle taken by Open.
	Close() error
}
