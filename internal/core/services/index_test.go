package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

func newTestIndexService(t *testing.T) (*IndexService, *fakeEmbedder, *memoryOpener) {
	t.Helper()
	embedder := newFakeEmbedder()
	opener := &memoryOpener{index: newMemoryIndex()}
	svc := NewIndexService(opener, embedder, t.TempDir())
	return svc, embedder, opener
}

func testEntries() []domain.IndexEntry {
	return []domain.IndexEntry{
		{ID: "guide.pdf#0", Document: "The quick brown fox", Metadata: map[string]any{"source_id": "guide.pdf"}},
		{ID: "guide.pdf#1", Document: "jumps over the lazy dog", Metadata: map[string]any{"source_id": "guide.pdf"}},
		{ID: "notes.txt#0", Document: "An unrelated grocery list", Metadata: map[string]any{"source_id": "notes.txt"}},
	}
}

func TestIndexService_BuildAndCount(t *testing.T) {
	svc, _, _ := newTestIndexService(t)
	ctx := context.Background()

	indexed, skipped, err := svc.Build(ctx, testEntries())
	require.NoError(t, err)
	assert.Equal(t, 3, indexed)
	assert.Empty(t, skipped)

	require.NoError(t, svc.Open(ctx))
	defer svc.Close()

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIndexService_BuildIdempotent(t *testing.T) {
	svc, _, opener := newTestIndexService(t)
	ctx := context.Background()

	_, _, err := svc.Build(ctx, testEntries())
	require.NoError(t, err)
	first, err := opener.index.Count(ctx)
	require.NoError(t, err)

	// An unchanged corpus must not grow the index: upserts are keyed by id.
	indexed, skipped, err := svc.Build(ctx, testEntries())
	require.NoError(t, err)
	assert.Equal(t, 3, indexed)
	assert.Empty(t, skipped)

	second, err := opener.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIndexService_BuildSkipsUnusableEmbedding(t *testing.T) {
	svc, embedder, _ := newTestIndexService(t)
	embedder.emptyFor["jumps over the lazy dog"] = true

	indexed, skipped, err := svc.Build(context.Background(), testEntries())
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)
	require.Len(t, skipped, 1)
	assert.Equal(t, "guide.pdf#1", skipped[0].ID)
	assert.Error(t, skipped[0].Err)
}

func TestIndexService_BuildRetriesTransientFailure(t *testing.T) {
	svc, embedder, _ := newTestIndexService(t)
	embedder.failuresLeft = 1

	indexed, skipped, err := svc.Build(context.Background(), testEntries()[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)
	assert.Empty(t, skipped)
	assert.GreaterOrEqual(t, embedder.calls, 2)
}

func TestIndexService_BuildLockContention(t *testing.T) {
	svc, _, _ := newTestIndexService(t)

	// Simulate another build in flight.
	lockPath := filepath.Join(svc.dataDir, lockFileName)
	require.NoError(t, os.MkdirAll(svc.dataDir, 0700))
	require.NoError(t, os.WriteFile(lockPath, []byte("other-run\n"), 0600))

	_, _, err := svc.Build(context.Background(), testEntries())
	require.ErrorIs(t, err, domain.ErrBuildInProgress)

	// Releasing the stale lock lets the build through.
	require.NoError(t, os.Remove(lockPath))
	_, _, err = svc.Build(context.Background(), testEntries())
	require.NoError(t, err)
}

func TestIndexService_BuildReleasesLock(t *testing.T) {
	svc, _, _ := newTestIndexService(t)

	_, _, err := svc.Build(context.Background(), testEntries())
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(svc.dataDir, lockFileName))
	assert.True(t, os.IsNotExist(statErr), "lock file must be removed after a build")
}

func TestIndexService_BuildNilEmbedder(t *testing.T) {
	opener := &memoryOpener{index: newMemoryIndex()}
	svc := NewIndexService(opener, nil, t.TempDir())

	_, _, err := svc.Build(context.Background(), testEntries())
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIndexService_OpenMissingIndex(t *testing.T) {
	embedder := newFakeEmbedder()
	opener := &memoryOpener{index: newMemoryIndex(), missing: true}
	svc := NewIndexService(opener, embedder, t.TempDir())

	err := svc.Open(context.Background())
	require.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestIndexService_OpenModelMismatch(t *testing.T) {
	svc, embedder, _ := newTestIndexService(t)
	ctx := context.Background()

	_, _, err := svc.Build(ctx, testEntries())
	require.NoError(t, err)

	embedder.model = "different-embed-002"
	err = svc.Open(ctx)
	require.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestIndexService_QueryRequiresOpen(t *testing.T) {
	svc, _, _ := newTestIndexService(t)

	_, err := svc.Query(context.Background(), "anything", 3)
	require.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestIndexService_Query(t *testing.T) {
	svc, _, _ := newTestIndexService(t)
	ctx := context.Background()

	_, _, err := svc.Build(ctx, testEntries())
	require.NoError(t, err)
	require.NoError(t, svc.Open(ctx))
	defer svc.Close()

	// Identical text embeds identically, so its own entry scores highest.
	hits, err := svc.Query(ctx, "The quick brown fox", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "guide.pdf#0", hits[0].Entry.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)

	_, err = svc.Query(ctx, "anything", 0)
	require.Error(t, err)
}
