package driven

// VectorIndexOpener creates or re-attaches to a persisted vector index at a
// directory. Keeping construction behind a port lets the services layer own
// the create-if-absent versus reopen-without-rebuild semantics without
// depending on the storage engine.
type VectorIndexOpener interface {
	// Create opens the index at dataDir, creating it if absent.
	Create(dataDir string) (VectorIndex, error)

	// Open re-attaches to an existing index without recomputation.
	// Returns domain.ErrIndexNotFound when nothing is persisted at dataDir.
	Open(dataDir string) (VectorIndex, error)
}
