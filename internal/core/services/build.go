package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/archivist-labs/docquery-cli/internal/chunker"
	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driven"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driving"
	"github.com/archivist-labs/docquery-cli/internal/elements"
	"github.com/archivist-labs/docquery-cli/internal/logger"
	"github.com/archivist-labs/docquery-cli/internal/metadata"
)

// Ensure BuildService implements the interface.
var _ driving.CorpusBuilder = (*BuildService)(nil)

// DefaultPartitionWorkers bounds the partition fan-out across documents.
// Parsing is the only stage worth parallelising: chunking is CPU-light and
// order-sensitive, so it stays sequential within each document.
const DefaultPartitionWorkers = 8

// BuildService runs the ingestion pipeline over a document corpus:
// partition each document, adapt the records into elements, chunk, sanitise
// metadata, and hand the entries to the index service.
type BuildService struct {
	parser   driven.PartitionService
	chunker  *chunker.Chunker
	index    *IndexService
	strategy domain.PartitionStrategy
	workers  int
}

// NewBuildService creates a build service. workers <= 0 selects the default
// partition fan-out.
func NewBuildService(
	parser driven.PartitionService,
	ch *chunker.Chunker,
	index *IndexService,
	strategy domain.PartitionStrategy,
	workers int,
) (*BuildService, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("unknown partition strategy %q", strategy)
	}
	if workers <= 0 {
		workers = DefaultPartitionWorkers
	}
	return &BuildService{
		parser:   parser,
		chunker:  ch,
		index:    index,
		strategy: strategy,
		workers:  workers,
	}, nil
}

// docResult is one document's pipeline output.
type docResult struct {
	source  string
	entries []domain.IndexEntry
	chunks  int
	err     error
}

// Build ingests every document under corpusDir and rebuilds the index.
func (s *BuildService) Build(ctx context.Context, corpusDir string) (*domain.BuildReport, error) {
	files, err := listDocuments(corpusDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrNoDocuments, corpusDir)
	}

	logger.Section("Corpus Build")
	logger.Info("Partitioning %d documents with strategy %q", len(files), s.strategy)

	results := s.partitionAll(ctx, files)

	// Per-document pipeline order is deterministic; fixing the document
	// order keeps the whole build reproducible regardless of worker timing.
	sort.Slice(results, func(i, j int) bool { return results[i].source < results[j].source })

	report := &domain.BuildReport{RunID: uuid.NewString()}
	var entries []domain.IndexEntry
	for _, res := range results {
		if res.err != nil {
			logger.Warn("Skipping document %s: %v", res.source, res.err)
			report.SkippedDocuments = append(report.SkippedDocuments,
				domain.SkippedEntry{ID: res.source, Err: res.err})
			continue
		}
		report.Documents++
		report.Chunks += res.chunks
		entries = append(entries, res.entries...)
	}

	if len(entries) == 0 && report.Documents == 0 {
		return report, fmt.Errorf("%w: every document in %s failed to partition",
			domain.ErrNoDocuments, corpusDir)
	}

	indexed, skipped, err := s.index.Build(ctx, entries)
	report.Indexed = indexed
	report.Skipped = skipped
	if err != nil {
		return report, err
	}
	return report, nil
}

// partitionAll fans the per-document pipeline out over a bounded worker pool.
func (s *BuildService) partitionAll(ctx context.Context, files []string) []docResult {
	jobs := make(chan string)
	out := make(chan docResult)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				out <- s.processDocument(ctx, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]docResult, 0, len(files))
	for res := range out {
		results = append(results, res)
	}
	return results
}

// processDocument runs partition, adaptation, chunking, and sanitisation for
// one document. Failures here are fatal for the document only; the corpus
// loop decides to skip, never the pipeline itself.
func (s *BuildService) processDocument(ctx context.Context, path string) docResult {
	source := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return docResult{source: source, err: fmt.Errorf("opening document: %w", err)}
	}
	defer f.Close()

	raws, err := s.parser.Partition(ctx, source, f, s.strategy)
	if err != nil {
		return docResult{source: source, err: fmt.Errorf("partitioning: %w", err)}
	}

	els, err := elements.FromRaw(source, raws)
	if err != nil {
		return docResult{source: source, err: err}
	}

	chunks := s.chunker.Chunk(els)
	logger.Debug("Document %s: %d elements, %d chunks", source, len(els), len(chunks))

	entries := make([]domain.IndexEntry, 0, len(chunks))
	for _, ch := range chunks {
		entries = append(entries, domain.IndexEntry{
			ID:       ch.ID,
			Document: ch.Text,
			Metadata: metadata.Flatten(ch),
		})
	}

	return docResult{source: source, entries: entries, chunks: len(chunks)}
}

// listDocuments returns the ingestable files directly under dir,
// skipping subdirectories and hidden files.
func listDocuments(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}

	var files []string
	for _, d := range dirents {
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, d.Name()))
	}
	sort.Strings(files)
	return files, nil
}
