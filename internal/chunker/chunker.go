// Package chunker groups ordered document elements into retrieval-sized
// chunks. Boundaries preferentially align with section titles; a soft size
// target and a hard ceiling keep chunks near the configured size, and hard
// splits carry a small text overlap for context continuity.
package chunker

import (
	"fmt"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

// Separator joins the text of consecutive elements within a chunk.
const Separator = "\n"

// Default chunking parameters, tuned for dense financial and government
// documents where sections run long and headings are reliable.
const (
	DefaultMaxCharacters          = 1000
	DefaultNewAfterNChars         = 800
	DefaultCombineTextUnderNChars = 200
	DefaultOverlapChars           = 50
)

// Config holds the chunking parameters. All fields are required; Validate
// rejects malformed values before any element is processed.
type Config struct {
	// MaxCharacters is the hard ceiling per chunk. Only a single element
	// longer than this produces a bigger (oversized) chunk.
	MaxCharacters int

	// NewAfterNChars is the soft target: a buffer reaching this size closes
	// even without a title boundary.
	NewAfterNChars int

	// CombineTextUnderNChars lets a section smaller than this merge forward
	// across the next title instead of becoming a fragment chunk.
	CombineTextUnderNChars int

	// OverlapChars is the length of trailing text copied into the next
	// chunk when a hard size-driven split occurs. Never applied across a
	// title boundary.
	OverlapChars int
}

// DefaultConfig returns the default chunking parameters.
func DefaultConfig() Config {
	return Config{
		MaxCharacters:          DefaultMaxCharacters,
		NewAfterNChars:         DefaultNewAfterNChars,
		CombineTextUnderNChars: DefaultCombineTextUnderNChars,
		OverlapChars:           DefaultOverlapChars,
	}
}

// Validate checks the configuration eagerly, before processing begins.
func (c Config) Validate() error {
	switch {
	case c.MaxCharacters <= 0:
		return fmt.Errorf("%w: max_characters must be > 0, got %d",
			domain.ErrInvalidChunkConfig, c.MaxCharacters)
	case c.NewAfterNChars <= 0:
		return fmt.Errorf("%w: new_after_n_chars must be > 0, got %d",
			domain.ErrInvalidChunkConfig, c.NewAfterNChars)
	case c.NewAfterNChars > c.MaxCharacters:
		return fmt.Errorf("%w: new_after_n_chars (%d) exceeds max_characters (%d)",
			domain.ErrInvalidChunkConfig, c.NewAfterNChars, c.MaxCharacters)
	case c.CombineTextUnderNChars < 0:
		return fmt.Errorf("%w: combine_text_under_n_chars must be >= 0, got %d",
			domain.ErrInvalidChunkConfig, c.CombineTextUnderNChars)
	case c.OverlapChars < 0:
		return fmt.Errorf("%w: overlap_chars must be >= 0, got %d",
			domain.ErrInvalidChunkConfig, c.OverlapChars)
	case c.OverlapChars >= c.MaxCharacters:
		// An overlap as large as the ceiling would re-fill every split
		// chunk with its own tail and the stream would never drain.
		return fmt.Errorf("%w: overlap_chars (%d) must be smaller than max_characters (%d)",
			domain.ErrInvalidChunkConfig, c.OverlapChars, c.MaxCharacters)
	}
	return nil
}

// Chunker performs the single-pass title-bounded grouping.
type Chunker struct {
	cfg Config
}

// New creates a chunker, validating the configuration first.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// buffer is the chunk under construction. The chunker is a state machine
// with two states: empty buffer and accumulating buffer.
type buffer struct {
	sourceID  string
	text      string
	pages     []int
	pageSeen  map[int]bool
	overlap   string
	oversized bool
}

func (b *buffer) empty() bool {
	return b.text == ""
}

func (b *buffer) reset() {
	*b = buffer{}
}

// addPage records a contributing page number in arrival order.
// Non-monotonic pages are accepted as-is; input order is authoritative.
func (b *buffer) addPage(p *int) {
	if p == nil {
		return
	}
	if b.pageSeen == nil {
		b.pageSeen = make(map[int]bool)
	}
	if !b.pageSeen[*p] {
		b.pageSeen[*p] = true
		b.pages = append(b.pages, *p)
	}
}

// append joins element text into the buffer with the separator.
func (b *buffer) append(el domain.Element) {
	if b.empty() {
		b.sourceID = el.SourceID
		b.text = el.Text
	} else {
		b.text += Separator + el.Text
	}
	b.addPage(el.PageNumber)
}

// Chunk consumes the ordered element stream and emits chunks in order.
// It is a pure forward fold: no backtracking, no shared state across calls.
// Chunk IDs are assigned by emission order within each source document, so
// chunking unchanged input reproduces identical IDs.
func (c *Chunker) Chunk(elements []domain.Element) []domain.Chunk {
	var (
		out []domain.Chunk
		buf buffer
		seq = make(map[string]int)
	)

	emit := func() {
		if buf.empty() {
			return
		}
		idx := seq[buf.sourceID]
		seq[buf.sourceID]++
		out = append(out, domain.Chunk{
			ID:        domain.ChunkID(buf.sourceID, idx),
			SourceID:  buf.sourceID,
			Index:     idx,
			Text:      buf.text,
			Pages:     buf.pages,
			Overlap:   buf.overlap,
			Oversized: buf.oversized,
		})
		buf.reset()
	}

	for _, el := range elements {
		if el.IsEmpty() {
			continue
		}

		// Chunks never span source documents.
		if !buf.empty() && el.SourceID != buf.sourceID {
			emit()
		}

		// A title is a hard semantic boundary, except that a completed
		// section still under the combine threshold merges forward with
		// the new section instead of becoming a fragment chunk.
		if el.Kind == domain.KindTitle && !buf.empty() &&
			len(buf.text) >= c.cfg.CombineTextUnderNChars {
			emit()
		}

		// An element whose length alone exceeds the ceiling is unsplittable:
		// it becomes its own chunk, verbatim, with no overlap.
		if len(el.Text) > c.cfg.MaxCharacters {
			emit()
			buf.append(el)
			buf.oversized = true
			emit()
			continue
		}

		buf.append(el)

		// Hard ceiling: split at the character level, carrying the tail of
		// the closing chunk into the next buffer as overlap. Looped because
		// the remainder plus overlap can still exceed the ceiling.
		for len(buf.text) > c.cfg.MaxCharacters {
			head := buf.text[:c.cfg.MaxCharacters]
			tail := buf.text[c.cfg.MaxCharacters:]

			overlap := head
			if c.cfg.OverlapChars < len(head) {
				overlap = head[len(head)-c.cfg.OverlapChars:]
			}

			carriedPages := append([]int(nil), buf.pages...)
			carriedSource := buf.sourceID

			buf.text = head
			emit()

			buf.sourceID = carriedSource
			buf.text = overlap + tail
			buf.overlap = overlap
			for _, p := range carriedPages {
				page := p
				buf.addPage(&page)
			}
		}

		// Soft boundary: close proactively once the target size is reached,
		// even without a title.
		if len(buf.text) >= c.cfg.NewAfterNChars {
			emit()
		}
	}

	emit()
	return out
}
