// Package domain defines the core business entities for docquery.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Element: A typed, positioned unit of parsed document content
//   - Chunk: A merged, size-bounded run of elements used as the retrieval unit
//   - IndexEntry: A persisted (id, vector, text, metadata) tuple
//   - Answer: A generated answer with source citations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
