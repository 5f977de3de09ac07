package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driven"
)

// fakeEmbedder produces deterministic 4-dimensional vectors derived from the
// text, so identical text always embeds identically.
type fakeEmbedder struct {
	model string

	// failFor marks texts whose embedding always fails.
	failFor map[string]error

	// emptyFor marks texts for which a zero-length vector is returned.
	emptyFor map[string]bool

	// failuresLeft makes the first n calls fail, then succeed.
	mu           sync.Mutex
	failuresLeft int
	calls        int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		model:    "fake-embed-001",
		failFor:  map[string]error{},
		emptyFor: map[string]bool{},
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		f.mu.Unlock()
		return nil, errors.New("transient embedding failure")
	}
	f.mu.Unlock()

	if err, ok := f.failFor[text]; ok {
		return nil, err
	}
	if f.emptyFor[text] {
		return []float32{}, nil
	}

	var vowels, consonants, spaces float32
	for _, r := range text {
		switch {
		case strings.ContainsRune("aeiouAEIOU", r):
			vowels++
		case r == ' ':
			spaces++
		default:
			consonants++
		}
	}
	return []float32{float32(len(text)), vowels, consonants, spaces}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return 4 }
func (f *fakeEmbedder) ModelName() string          { return f.model }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// memoryIndex is an in-memory driven.VectorIndex for tests.
type memoryIndex struct {
	mu       sync.RWMutex
	entries  map[string]domain.IndexEntry
	manifest *domain.IndexManifest
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{entries: map[string]domain.IndexEntry{}}
}

func (m *memoryIndex) Upsert(_ context.Context, entry domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *memoryIndex) Search(_ context.Context, query []float32, k int) ([]domain.Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]domain.Hit, 0, len(m.entries))
	for _, e := range m.entries {
		hits = append(hits, domain.Hit{Entry: e, Score: cosine(query, e.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Entry.ID < hits[j].Entry.ID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *memoryIndex) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *memoryIndex) Manifest(context.Context) (*domain.IndexManifest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.manifest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.manifest
	return &cp, nil
}

func (m *memoryIndex) WriteManifest(_ context.Context, manifest domain.IndexManifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifest = &manifest
	return nil
}

func (m *memoryIndex) Close() error { return nil }

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// memoryOpener hands out a shared memoryIndex so rebuilds and reopens see
// the same persisted state.
type memoryOpener struct {
	index *memoryIndex

	// missing simulates a location with no prior index.
	missing bool
}

func (o *memoryOpener) Create(string) (driven.VectorIndex, error) {
	o.missing = false
	return o.index, nil
}

func (o *memoryOpener) Open(string) (driven.VectorIndex, error) {
	if o.missing {
		return nil, domain.ErrIndexNotFound
	}
	return o.index, nil
}

// fakeParser returns canned records per filename.
type fakeParser struct {
	records map[string][]domain.RawElement
	err     map[string]error
}

func (p *fakeParser) Partition(_ context.Context, filename string, r io.Reader, _ domain.PartitionStrategy) ([]domain.RawElement, error) {
	// Consume the upload as the real adapter would.
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	if err, ok := p.err[filename]; ok {
		return nil, err
	}
	recs, ok := p.records[filename]
	if !ok {
		return nil, fmt.Errorf("no canned records for %s", filename)
	}
	return recs, nil
}

func (p *fakeParser) Ping(context.Context) error { return nil }

// fakeLLM echoes a fixed answer and records the prompt it was given.
type fakeLLM struct {
	answer string
	prompt string
	err    error
}

func (l *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.prompt = prompt
	if l.err != nil {
		return "", l.err
	}
	return l.answer, nil
}

func (l *fakeLLM) ModelName() string          { return "fake-llm" }
func (l *fakeLLM) Ping(context.Context) error { return nil }
func (l *fakeLLM) Close() error               { return nil }
