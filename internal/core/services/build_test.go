package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/docquery-cli/internal/chunker"
	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

func newTestBuildService(t *testing.T, parser *fakeParser) (*BuildService, *memoryOpener) {
	t.Helper()

	ch, err := chunker.New(chunker.DefaultConfig())
	require.NoError(t, err)

	opener := &memoryOpener{index: newMemoryIndex()}
	index := NewIndexService(opener, newFakeEmbedder(), t.TempDir())

	svc, err := NewBuildService(parser, ch, index, domain.StrategyAuto, 2)
	require.NoError(t, err)
	return svc, opener
}

func writeCorpus(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("raw document bytes"), 0600))
	}
	return dir
}

func TestNewBuildService_InvalidStrategy(t *testing.T) {
	ch, err := chunker.New(chunker.DefaultConfig())
	require.NoError(t, err)

	_, err = NewBuildService(&fakeParser{}, ch, nil, domain.PartitionStrategy("ocr"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr")
}

func TestBuildService_EmptyCorpus(t *testing.T) {
	svc, _ := newTestBuildService(t, &fakeParser{})

	_, err := svc.Build(context.Background(), t.TempDir())
	require.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestBuildService_SkipsHiddenFilesAndDirectories(t *testing.T) {
	parser := &fakeParser{records: map[string][]domain.RawElement{}}
	svc, _ := newTestBuildService(t, parser)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.pdf"), []byte("x"), 0600))

	// Nothing ingestable remains once directories and hidden files are skipped.
	_, err := svc.Build(context.Background(), dir)
	require.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestBuildService_ReportCounts(t *testing.T) {
	parser := &fakeParser{
		records: map[string][]domain.RawElement{
			"guide.pdf": {
				{Type: "Title", Text: "Installation"},
				{Type: "NarrativeText", Text: "Download the release archive and unpack it."},
			},
			"notes.txt": {
				{Type: "NarrativeText", Text: "Remember to rotate the credentials."},
			},
		},
		err: map[string]error{
			"broken.pdf": errors.New("unsupported encoding"),
		},
	}
	svc, opener := newTestBuildService(t, parser)
	dir := writeCorpus(t, "guide.pdf", "notes.txt", "broken.pdf")

	report, err := svc.Build(context.Background(), dir)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Documents)
	require.Len(t, report.SkippedDocuments, 1)
	assert.Equal(t, "broken.pdf", report.SkippedDocuments[0].ID)
	assert.Equal(t, 2, report.Chunks)
	assert.Equal(t, 2, report.Indexed)
	assert.Empty(t, report.Skipped)

	count, err := opener.index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBuildService_AllDocumentsFail(t *testing.T) {
	parser := &fakeParser{
		err: map[string]error{
			"a.pdf": errors.New("boom"),
			"b.pdf": errors.New("boom"),
		},
	}
	svc, _ := newTestBuildService(t, parser)
	dir := writeCorpus(t, "a.pdf", "b.pdf")

	report, err := svc.Build(context.Background(), dir)
	require.ErrorIs(t, err, domain.ErrNoDocuments)
	require.NotNil(t, report)
	assert.Len(t, report.SkippedDocuments, 2)
}

func TestBuildService_EntriesCarrySanitisedMetadata(t *testing.T) {
	parser := &fakeParser{
		records: map[string][]domain.RawElement{
			"guide.pdf": {
				{Type: "Title", Text: "Overview", Metadata: map[string]any{"page_number": float64(1)}},
				{Type: "NarrativeText", Text: "This is the overview section.", Metadata: map[string]any{"page_number": float64(1)}},
			},
		},
	}
	svc, opener := newTestBuildService(t, parser)
	dir := writeCorpus(t, "guide.pdf")

	_, err := svc.Build(context.Background(), dir)
	require.NoError(t, err)

	hits, err := opener.index.Search(context.Background(), []float32{1, 1, 1, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "guide.pdf#0", hits[0].Entry.ID)
	assert.Equal(t, "guide.pdf", hits[0].Entry.Metadata["source_id"])
	assert.Equal(t, 1, hits[0].Entry.Metadata["page_numbers"])
}
