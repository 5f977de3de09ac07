package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driven"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driving"
	"github.com/archivist-labs/docquery-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.QuestionAnswerer = (*AnswerService)(nil)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// snippetLength bounds the citation preview.
const snippetLength = 100

// answerPrompt instructs the completion model to answer strictly from the
// retrieved context and to admit ignorance rather than invent.
const answerPrompt = `
You are an assistant for answering questions using provided context.
You are given the extracted parts of documents and a question. Provide a conversational answer.
If you don't know the answer, just say "I do not know." Don't make up an answer.

Question: %s
Context: %s

Answer:`

// Generation settings: low temperature for factual answers.
const (
	answerTemperature = 0.2
	answerMaxTokens   = 1000
)

// AnswerService retrieves the most relevant chunks for a question and
// composes an answer with source attribution via the completion collaborator.
type AnswerService struct {
	index    *IndexService
	llm      driven.LLMService
	defaultK int
}

// NewAnswerService creates an answer service over an opened index.
func NewAnswerService(index *IndexService, llm driven.LLMService) *AnswerService {
	return NewAnswerServiceWithTopK(index, llm, DefaultTopK)
}

// NewAnswerServiceWithTopK creates an answer service with a configured
// retrieval width, used when no explicit k is passed to Ask.
func NewAnswerServiceWithTopK(index *IndexService, llm driven.LLMService, topK int) *AnswerService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &AnswerService{index: index, llm: llm, defaultK: topK}
}

// Ask answers one question from the top-k retrieved chunks.
func (s *AnswerService) Ask(ctx context.Context, question string, k int) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}
	if k <= 0 {
		k = s.defaultK
	}

	logger.Section("Question")
	logger.Debug("Question: %q (k=%d)", question, k)

	hits, err := s.index.Query(ctx, question, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &domain.Answer{Text: "I do not know."}, nil
	}

	contexts := make([]string, len(hits))
	for i, hit := range hits {
		contexts[i] = hit.Entry.Document
	}

	prompt := fmt.Sprintf(answerPrompt, question, strings.Join(contexts, "\n\n"))
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	answer := &domain.Answer{
		Text:      strings.TrimSpace(text),
		Citations: make([]domain.Citation, len(hits)),
	}
	for i, hit := range hits {
		answer.Citations[i] = domain.Citation{
			SourceID: metadataString(hit.Entry.Metadata, "source_id"),
			Pages:    metadataString(hit.Entry.Metadata, "page_numbers"),
			Snippet:  snippet(hit.Entry.Document),
			Score:    hit.Score,
		}
	}
	return answer, nil
}

// metadataString renders a sanitised metadata value as a display string.
// Sanitised values are scalars, but numbers may arrive as float64 after the
// store's JSON round trip.
func metadataString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return fmt.Sprintf("%d", int(n))
	case int:
		return fmt.Sprintf("%d", n)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// snippet returns a short preview of chunk text for citation display.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= snippetLength {
		return text
	}
	return text[:snippetLength] + "..."
}
