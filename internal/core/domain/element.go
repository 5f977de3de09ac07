package domain

import "strings"

// ElementKind classifies a parsed document element.
type ElementKind int

const (
	// KindOther is any element type the partition service emits that has
	// no dedicated handling (UncategorizedText, CompositeElement, images, ...).
	KindOther ElementKind = iota

	// KindTitle is a section heading. Titles are hard chunk boundaries.
	KindTitle

	// KindNarrativeText is ordinary paragraph prose.
	KindNarrativeText

	// KindTable is tabular content rendered as text.
	KindTable

	// KindListItem is a single bullet or numbered list entry.
	KindListItem
)

// String returns the partition-service spelling of the kind.
func (k ElementKind) String() string {
	switch k {
	case KindTitle:
		return "Title"
	case KindNarrativeText:
		return "NarrativeText"
	case KindTable:
		return "Table"
	case KindListItem:
		return "ListItem"
	default:
		return "Other"
	}
}

// ParseElementKind maps a partition-service type tag to an ElementKind.
// Unrecognised tags map to KindOther.
func ParseElementKind(tag string) ElementKind {
	switch tag {
	case "Title":
		return KindTitle
	case "NarrativeText":
		return KindNarrativeText
	case "Table":
		return KindTable
	case "ListItem":
		return KindListItem
	default:
		return KindOther
	}
}

// Element is one parsed unit of a source document.
// Elements are totally ordered by their position in the original document
// stream; that order is the only continuity signal the chunker uses.
type Element struct {
	// Kind classifies the element.
	Kind ElementKind

	// Text is the element's textual content.
	Text string

	// SourceID identifies the originating document (typically the filename).
	SourceID string

	// PageNumber is the 1-based page the element was found on.
	// Nil when the page is unknown.
	PageNumber *int
}

// IsEmpty reports whether the element carries no usable text.
func (e Element) IsEmpty() bool {
	return strings.TrimSpace(e.Text) == ""
}
