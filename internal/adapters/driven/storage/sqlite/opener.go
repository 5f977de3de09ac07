package sqlite

import (
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Opener implements the interface.
var _ driven.VectorIndexOpener = (*Opener)(nil)

// Opener constructs SQLite-backed vector indexes.
type Opener struct{}

// Create opens the index at dataDir, creating it if absent.
func (Opener) Create(dataDir string) (driven.VectorIndex, error) {
	return NewStore(dataDir)
}

// Open re-attaches to an existing index without recomputation.
func (Opener) Open(dataDir string) (driven.VectorIndex, error) {
	return OpenStore(dataDir)
}
