package domain

// Citation attributes part of an answer to an indexed chunk.
type Citation struct {
	// SourceID is the originating document.
	SourceID string

	// Pages is the contributing page list as recorded at chunking time
	// ("3" or "3,4"); empty when unknown.
	Pages string

	// Snippet is a short preview of the cited chunk text.
	Snippet string

	// Score is the retrieval similarity score for the cited chunk.
	Score float64
}

// Answer is the assembled response to one question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Citations lists the retrieved chunks that were fed to the model,
	// best match first.
	Citations []Citation
}

// Hit is one nearest-neighbour result from the vector index.
type Hit struct {
	// Entry is the matched index entry.
	Entry IndexEntry

	// Score is the cosine similarity to the query, higher is better.
	Score float64
}
