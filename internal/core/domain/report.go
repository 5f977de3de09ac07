package domain

// SkippedEntry records one entry that could not be indexed during a build.
// Skips are explicit per-entry results, never silently absorbed.
type SkippedEntry struct {
	// ID is the entry (chunk) that failed.
	ID string

	// Err is the cause, retained for retry or skip decisions by the caller.
	Err error
}

// BuildReport summarises one build run over a document corpus.
type BuildReport struct {
	// RunID uniquely identifies the build run.
	RunID string

	// Documents is the number of corpus documents partitioned successfully.
	Documents int

	// SkippedDocuments lists documents whose partition output was unusable.
	SkippedDocuments []SkippedEntry

	// Chunks is the number of chunks produced by the chunker.
	Chunks int

	// Indexed is the number of entries upserted into the index.
	Indexed int

	// Skipped lists entries dropped after embedding retries were exhausted.
	Skipped []SkippedEntry
}

// PartitionStrategy selects how the partition collaborator extracts content.
type PartitionStrategy string

const (
	// StrategyAuto lets the service pick per document.
	StrategyAuto PartitionStrategy = "auto"

	// StrategyFast uses text-layer extraction only.
	StrategyFast PartitionStrategy = "fast"

	// StrategyHiRes uses vision-assisted layout analysis for scans and slides.
	StrategyHiRes PartitionStrategy = "hi_res"
)

// Valid reports whether the strategy is one the partition service accepts.
func (s PartitionStrategy) Valid() bool {
	switch s {
	case StrategyAuto, StrategyFast, StrategyHiRes:
		return true
	default:
		return false
	}
}
