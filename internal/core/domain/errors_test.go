package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidChunkConfig", ErrInvalidChunkConfig},
		{"ErrMalformedRecord", ErrMalformedRecord},
		{"ErrNoDocuments", ErrNoDocuments},
		{"ErrIndexNotFound", ErrIndexNotFound},
		{"ErrModelMismatch", ErrModelMismatch},
		{"ErrBuildInProgress", ErrBuildInProgress},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("opening index at %q: %w", "/tmp/idx", ErrIndexNotFound)
	assert.True(t, errors.Is(wrapped, ErrIndexNotFound))
	assert.False(t, errors.Is(wrapped, ErrModelMismatch))
}
