// Package elements normalises the partition service's heterogeneous record
// output into the uniform ordered element stream the chunker consumes.
package elements

import (
	"fmt"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

// FromRaw converts partition records into elements, preserving record order.
//
// Records with empty or whitespace-only text are dropped. Native type tags
// outside the four handled kinds map to KindOther. A missing metadata field
// is treated as unknown rather than fatal; only a record sequence that is not
// well formed at all yields domain.ErrMalformedRecord.
func FromRaw(sourceID string, raws []domain.RawElement) ([]domain.Element, error) {
	if raws == nil {
		return nil, fmt.Errorf("%w: %s: partition returned no record sequence",
			domain.ErrMalformedRecord, sourceID)
	}

	out := make([]domain.Element, 0, len(raws))
	for _, raw := range raws {
		e := domain.Element{
			Kind:       domain.ParseElementKind(raw.Type),
			Text:       raw.Text,
			SourceID:   sourceID,
			PageNumber: pageNumber(raw.Metadata),
		}
		if e.IsEmpty() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// pageNumber extracts a positive page number from record metadata.
// JSON decoding yields float64; other integral types are accepted too.
func pageNumber(meta map[string]any) *int {
	if meta == nil {
		return nil
	}
	v, ok := meta["page_number"]
	if !ok {
		return nil
	}

	var page int
	switch n := v.(type) {
	case float64:
		page = int(n)
	case int:
		page = n
	case int64:
		page = int(n)
	default:
		return nil
	}

	if page <= 0 {
		return nil
	}
	return &page
}
