package embedding

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the default OpenAI embedding model.
const DefaultOpenAIModel = "text-embedding-3-small"

const providerOpenAI = "openai"

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// AzureEndpoint switches the client to an Azure OpenAI deployment.
	AzureEndpoint   string
	AzureAPIVersion string

	// MaxRetries overrides the client's retry count when positive; negative disables retries.
	MaxRetries int
}

// OpenAIProvider embeds text through the OpenAI (or Azure OpenAI) embeddings API.
type OpenAIProvider struct {
	client openai.Client
	model  string
	hasKey bool
}

// NewOpenAIProvider creates an OpenAI-backed provider. A missing API key is not an
// error here; every EmbedBatch call then fails with ErrMissingCredentials.
func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	var clientOpts []option.RequestOption
	if opts.AzureEndpoint != "" {
		clientOpts = append(clientOpts,
			azure.WithEndpoint(opts.AzureEndpoint, opts.AzureAPIVersion),
			azure.WithAPIKey(opts.APIKey),
		)
	} else {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
		if opts.BaseURL != "" {
			clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
		}
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}
	switch {
	case opts.MaxRetries > 0:
		clientOpts = append(clientOpts, option.WithMaxRetries(opts.MaxRetries))
	case opts.MaxRetries < 0:
		clientOpts = append(clientOpts, option.WithMaxRetries(0))
	}

	return &OpenAIProvider{
		client: openai.NewClient(clientOpts...),
		model:  model,
		hasKey: opts.APIKey != "",
	}
}

// Model implements Provider.
func (p *OpenAIProvider) Model() string { return p.model }

// Dimensions implements Provider.
func (p *OpenAIProvider) Dimensions() int { return DimensionsFor(p.model) }

// EmbedBatch implements Provider.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) Result {
	if !p.hasKey {
		return Failure(missingCredentials(providerOpenAI, "OPENAI_API_KEY is not set"))
	}
	if len(texts) == 0 {
		return Success([][]float32{})
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return Failure(&ProviderError{Provider: providerOpenAI, Kind: ErrMissingCredentials, Message: "request rejected", Cause: err})
		}
		return Failure(transportError(providerOpenAI, err))
	}

	if len(resp.Data) != len(texts) {
		return Failure(countMismatch(providerOpenAI, len(texts), len(resp.Data)))
	}

	// Items carry their input index; place them by it rather than trusting response order.
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(vectors) || vectors[idx] != nil {
			return Failure(malformed(providerOpenAI, "invalid or duplicate embedding index", nil))
		}
		if len(item.Embedding) == 0 {
			return Failure(malformed(providerOpenAI, "empty embedding", nil))
		}
		vectors[idx] = toFloat32(item.Embedding)
	}
	return Success(vectors)
}
