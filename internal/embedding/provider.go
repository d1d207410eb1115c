// Package embedding turns batches of text into fixed-dimension vectors through
// interchangeable backends (OpenAI, Gemini, Ollama) with optional caching.
package embedding

import (
	"context"
)

// Provider embeds an ordered batch of texts.
//
// EmbedBatch never panics across the boundary: the returned Result either holds
// exactly one vector per input text, in input order, or a failure.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) Result
	// Model returns the embedding model name.
	Model() string
	// Dimensions returns the vector length, or 0 when unknown.
	Dimensions() int
}

// Result is the outcome of one EmbedBatch call.
type Result struct {
	Vectors [][]float32
	Err     error
}

// Success wraps vectors in a successful Result.
func Success(vectors [][]float32) Result {
	return Result{Vectors: vectors}
}

// Failure wraps an error in a failed Result.
func Failure(err error) Result {
	return Result{Err: err}
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// checkCount turns a vector batch of the wrong length into a count-mismatch failure.
func checkCount(provider string, want int, vectors [][]float32) Result {
	if len(vectors) != want {
		return Failure(countMismatch(provider, want, len(vectors)))
	}
	return Success(vectors)
}

// knownDimensions maps common model names to their vector length.
var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"text-embedding-004":     768,
	"embedding-001":          768,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
}

// DimensionsFor returns the vector length for a known model, or 0.
func DimensionsFor(model string) int {
	return knownDimensions[model]
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, texts []string) Result

// EmbedBatch implements Provider.
func (f ProviderFunc) EmbedBatch(ctx context.Context, texts []string) Result { return f(ctx, texts) }

// Model implements Provider.
func (f ProviderFunc) Model() string { return "func" }

// Dimensions implements Provider.
func (f ProviderFunc) Dimensions() int { return 0 }
