package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driven"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driving"
	"github.com/archivist-labs/docquery-cli/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexManager = (*IndexService)(nil)

// lockFileName guards the index directory against concurrent builds.
const lockFileName = "build.lock"

// Embedding retry policy for transient collaborator failures.
const (
	embedAttempts       = 3
	embedInitialBackoff = 500 * time.Millisecond
)

// IndexService owns creation, persistence, idempotent rebuilding, and
// nearest-neighbour query of the chunk embedding index.
//
// The persisted index is a single-writer resource: Build takes a lock file
// in the index directory, while queries run read-only against an opened
// handle and may proceed concurrently.
type IndexService struct {
	opener   driven.VectorIndexOpener
	embedder driven.EmbeddingService
	dataDir  string

	// index is the opened read handle, set by Open.
	index driven.VectorIndex
}

// NewIndexService creates an index service rooted at dataDir.
func NewIndexService(opener driven.VectorIndexOpener, embedder driven.EmbeddingService, dataDir string) *IndexService {
	return &IndexService{
		opener:   opener,
		embedder: embedder,
		dataDir:  dataDir,
	}
}

// Build embeds and upserts the given entries into the persisted index,
// creating it if absent. Rebuilding with the same entries is idempotent:
// upserts are keyed by entry id, so the entry count does not grow.
//
// A transient embedding failure is retried with backoff; when retries
// exhaust (or the collaborator returns an unusable vector) the entry is
// skipped and recorded, and the build continues. Storage failures abort.
func (s *IndexService) Build(ctx context.Context, entries []domain.IndexEntry) (indexed int, skipped []domain.SkippedEntry, err error) {
	if s.embedder == nil {
		return 0, nil, domain.ErrEmbeddingUnavailable
	}

	unlock, err := s.acquireLock()
	if err != nil {
		return 0, nil, err
	}
	defer unlock()

	idx, err := s.opener.Create(s.dataDir)
	if err != nil {
		return 0, nil, fmt.Errorf("creating index at %s: %w", s.dataDir, err)
	}
	defer idx.Close()

	if err := s.checkManifest(ctx, idx, true); err != nil {
		return 0, nil, err
	}

	logger.Section("Index Build")
	logger.Debug("Embedding model: %s (%d dimensions)", s.embedder.ModelName(), s.embedder.Dimensions())

	for _, entry := range entries {
		embedding, embedErr := s.embedWithRetry(ctx, entry.Document)
		if embedErr != nil {
			logger.Warn("Skipping entry %s: %v", entry.ID, embedErr)
			skipped = append(skipped, domain.SkippedEntry{ID: entry.ID, Err: embedErr})
			continue
		}

		entry.Embedding = embedding
		if err := idx.Upsert(ctx, entry); err != nil {
			// Committed entries stay committed; the failed one was never
			// half-written because upserts are atomic per entry.
			return indexed, skipped, fmt.Errorf("persisting entry %s: %w", entry.ID, err)
		}
		indexed++
	}

	logger.Info("Indexed %d entries, skipped %d", indexed, len(skipped))
	return indexed, skipped, nil
}

// Open re-attaches to the persisted index for querying, without rebuilding.
// Fails with domain.ErrIndexNotFound when no build has run, and with
// domain.ErrModelMismatch when the configured embedding model differs from
// the one the index was built with.
func (s *IndexService) Open(ctx context.Context) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	idx, err := s.opener.Open(s.dataDir)
	if err != nil {
		return err
	}

	if err := s.checkManifest(ctx, idx, false); err != nil {
		idx.Close()
		return err
	}

	s.index = idx
	return nil
}

// Close releases the query handle opened by Open.
func (s *IndexService) Close() error {
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

// Query embeds the question with the build-time collaborator and returns the
// k nearest entries, best first. Requires a prior Open.
func (s *IndexService) Query(ctx context.Context, question string, k int) ([]domain.Hit, error) {
	if s.index == nil {
		return nil, fmt.Errorf("index not opened: %w", domain.ErrIndexNotFound)
	}
	if k <= 0 {
		return nil, fmt.Errorf("query k must be a positive integer, got %d", k)
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := s.index.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	logger.Debug("Query returned %d hits (k=%d)", len(hits), k)
	return hits, nil
}

// Count returns the number of entries in the opened index.
func (s *IndexService) Count(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, fmt.Errorf("index not opened: %w", domain.ErrIndexNotFound)
	}
	return s.index.Count(ctx)
}

// checkManifest verifies the index was built with the configured embedding
// model, writing the manifest first on a fresh index when write is set.
func (s *IndexService) checkManifest(ctx context.Context, idx driven.VectorIndex, write bool) error {
	manifest, err := idx.Manifest(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if !write {
			return fmt.Errorf("index has no manifest: %w", domain.ErrModelMismatch)
		}
		return idx.WriteManifest(ctx, domain.IndexManifest{
			EmbeddingModel: s.embedder.ModelName(),
			Dimensions:     s.embedder.Dimensions(),
		})
	case err != nil:
		return fmt.Errorf("reading index manifest: %w", err)
	}

	if manifest.EmbeddingModel != s.embedder.ModelName() {
		return fmt.Errorf("index built with %q but %q configured: %w",
			manifest.EmbeddingModel, s.embedder.ModelName(), domain.ErrModelMismatch)
	}
	return nil
}

// embedWithRetry calls the embedding collaborator with bounded retries and
// exponential backoff, validating the returned vector.
func (s *IndexService) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	backoff := embedInitialBackoff

	var lastErr error
	for attempt := 1; attempt <= embedAttempts; attempt++ {
		embedding, err := s.embedder.Embed(ctx, text)
		if err == nil {
			if len(embedding) == 0 {
				return nil, errors.New("embedding collaborator returned an empty vector")
			}
			if want := s.embedder.Dimensions(); want > 0 && len(embedding) != want {
				return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(embedding), want)
			}
			return embedding, nil
		}

		lastErr = err
		if attempt == embedAttempts {
			break
		}
		logger.Debug("Embedding attempt %d/%d failed, retrying in %s: %v",
			attempt, embedAttempts, backoff, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", embedAttempts, lastErr)
}

// acquireLock takes the single-writer build lock for the index directory.
func (s *IndexService) acquireLock() (func(), error) {
	if err := os.MkdirAll(s.dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	path := filepath.Join(s.dataDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: lock file %s exists", domain.ErrBuildInProgress, path)
		}
		return nil, fmt.Errorf("creating build lock: %w", err)
	}

	// Record the owning run for diagnosing stale locks.
	fmt.Fprintln(f, uuid.NewString())
	f.Close()

	return func() {
		if err := os.Remove(path); err != nil {
			logger.Warn("Removing build lock: %v", err)
		}
	}, nil
}
