package domain

// RawElement is one record of the partition service's structured output,
// before adaptation into an Element. The record shape varies with document
// type, so metadata stays an opaque key-value map here.
type RawElement struct {
	// Type is the partition service's native type tag ("Title",
	// "NarrativeText", "UncategorizedText", ...).
	Type string

	// Text is the extracted textual content. May be empty for non-text
	// elements; such records are dropped during adaptation.
	Text string

	// Metadata carries the record's remaining fields (filename, filetype,
	// page_number, coordinates, ...). A missing field is "unknown", not
	// an error.
	Metadata map[string]any
}
