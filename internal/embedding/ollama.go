package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama defaults.
const (
	DefaultOllamaModel   = "nomic-embed-text"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

const providerOllama = "ollama"

// OllamaProvider embeds text with a local Ollama server.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider creates an Ollama-backed provider.
func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Model implements Provider.
func (p *OllamaProvider) Model() string { return p.model }

// Dimensions implements Provider.
func (p *OllamaProvider) Dimensions() int { return DimensionsFor(p.model) }

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedBatch implements Provider.
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) Result {
	if len(texts) == 0 {
		return Success([][]float32{})
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Input: texts})
	if err != nil {
		return Failure(malformed(providerOllama, "encode request", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return Failure(transportError(providerOllama, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Failure(transportError(providerOllama, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Failure(transportError(providerOllama, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Failure(malformed(providerOllama, "decode response", err))
	}
	for _, v := range out.Embeddings {
		if len(v) == 0 {
			return Failure(malformed(providerOllama, "empty embedding", nil))
		}
	}
	return checkCount(providerOllama, len(texts), out.Embeddings)
}
