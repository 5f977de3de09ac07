package driving

import (
	"context"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

// QuestionAnswerer answers natural-language questions against the built index.
type QuestionAnswerer interface {
	// Ask retrieves the k most relevant chunks for the question, feeds them
	// to the completion collaborator, and returns the answer with citations.
	Ask(ctx context.Context, question string, k int) (*domain.Answer, error)
}
