package driving

import (
	"context"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

// CorpusBuilder runs the ingestion pipeline once over a document corpus:
// partition, adapt, chunk, sanitise, embed, upsert.
type CorpusBuilder interface {
	// Build ingests every document under corpusDir and rebuilds the index.
	// Returns domain.ErrNoDocuments when the directory holds no files and
	// domain.ErrBuildInProgress when another build owns the index lock.
	// Per-entry embedding failures are recorded in the report, not fatal.
	Build(ctx context.Context, corpusDir string) (*domain.BuildReport, error)
}
