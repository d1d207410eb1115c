package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the default Gemini embedding model.
const DefaultGeminiModel = "text-embedding-004"

const providerGemini = "gemini"

// GeminiProvider embeds text with the Gemini batch embedding API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, missingCredentials(providerGemini, "GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// Model implements Provider.
func (p *GeminiProvider) Model() string { return p.model }

// Dimensions implements Provider.
func (p *GeminiProvider) Dimensions() int { return DimensionsFor(p.model) }

// EmbedBatch implements Provider.
func (p *GeminiProvider) EmbedBatch(ctx context.Context, texts []string) Result {
	if len(texts) == 0 {
		return Success([][]float32{})
	}

	em := p.client.EmbeddingModel(p.model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return Failure(transportError(providerGemini, err))
	}
	if resp == nil {
		return Failure(malformed(providerGemini, "empty response", nil))
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return Failure(malformed(providerGemini, "empty embedding", nil))
		}
		vectors = append(vectors, e.Values)
	}
	return checkCount(providerGemini, len(texts), vectors)
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
