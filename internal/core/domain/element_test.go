package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseElementKind(t *testing.T) {
	tests := []struct {
		tag  string
		want ElementKind
	}{
		{"Title", KindTitle},
		{"NarrativeText", KindNarrativeText},
		{"Table", KindTable},
		{"ListItem", KindListItem},
		{"UncategorizedText", KindOther},
		{"CompositeElement", KindOther},
		{"Image", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseElementKind(tt.tag))
		})
	}
}

func TestElementKind_String(t *testing.T) {
	assert.Equal(t, "Title", KindTitle.String())
	assert.Equal(t, "NarrativeText", KindNarrativeText.String())
	assert.Equal(t, "Table", KindTable.String())
	assert.Equal(t, "ListItem", KindListItem.String())
	assert.Equal(t, "Other", KindOther.String())
}

func TestElement_IsEmpty(t *testing.T) {
	assert.True(t, Element{Text: ""}.IsEmpty())
	assert.True(t, Element{Text: "   \n\t"}.IsEmpty())
	assert.False(t, Element{Text: "x"}.IsEmpty())
}
