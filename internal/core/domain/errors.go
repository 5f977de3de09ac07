package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidChunkConfig indicates malformed chunking parameters.
	// Rejected eagerly before any element is processed.
	ErrInvalidChunkConfig = errors.New("invalid chunking configuration")

	// ErrMalformedRecord indicates the partition output for a document is
	// not a well-formed record sequence. Fatal for that document; the
	// corpus-level caller decides whether to skip or abort.
	ErrMalformedRecord = errors.New("malformed partition record")

	// ErrNoDocuments indicates the corpus directory holds no ingestable files.
	ErrNoDocuments = errors.New("no documents found")

	// ErrIndexNotFound indicates a query was attempted before any build
	// persisted an index at the configured location.
	ErrIndexNotFound = errors.New("index not found")

	// ErrModelMismatch indicates the configured embedding model differs from
	// the one recorded in the index manifest. Mixing embedding spaces is a
	// correctness bug, not a quality issue.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrBuildInProgress indicates another build holds the index write lock.
	// The persisted index is a single-writer resource.
	ErrBuildInProgress = errors.New("build already in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the completion service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
