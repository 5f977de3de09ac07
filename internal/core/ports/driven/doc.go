// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// These ports are implemented by adapters under internal/adapters/driven and
// consumed by the core services. The external collaborators of the pipeline
// (partition API, embedding API, completion API, persisted vector index) are
// specified here only at their interface boundary.
package driven
