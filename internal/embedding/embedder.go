// Package embedding maps text to fixed-dimension vectors.
package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
// Vectors from every call share one embedding space and are comparable by
// cosine similarity; query-time vectors must rank against vectors persisted
// at ingestion time.
type Embedder interface {
	// Embed returns a vector for the given text. Blank text yields a nil
	// vector without error.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedMany returns one vector per input, in input order; the output
	// length always equals the input length. Blank inputs and items the
	// backend could not embed come back as nil vectors, they never shrink
	// the sequence. Callers rely on the positional correspondence to their
	// chunk slice.
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension reports the vector size, 0 until the first successful embed.
	Dimension() int
}
