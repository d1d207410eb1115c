package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Backend runs a single web search query.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// googleMaxResults is the per-request ceiling of the Custom Search API.
const googleMaxResults = 10

// GoogleBackend queries Google Programmable Search (customsearch/v1).
type GoogleBackend struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleBackend creates a backend for the search engine cx.
func NewGoogleBackend(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleBackend, error) {
	if apiKey == "" || cx == "" {
		return nil, &RequestError{Field: "credentials", Message: "require both an API key and a search engine ID"}
	}
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleBackend{svc: svc, cx: cx}, nil
}

// Name implements Backend.
func (b *GoogleBackend) Name() string { return "google" }

// Search implements Backend.
func (b *GoogleBackend) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > googleMaxResults {
		limit = googleMaxResults
	}
	resp, err := b.svc.Cse.List().Cx(b.cx).Q(query).Num(int64(limit)).Hl("en").Context(ctx).Do()
	if err != nil {
		status := 0
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			status = gerr.Code
		}
		return nil, &BackendError{Backend: b.Name(), StatusCode: status, Message: "request failed", Cause: err}
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:       item.Title,
			URL:         item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
			Type:        Classify(item.Title, item.Link),
		})
	}
	return results, nil
}

// Perplexity request limits.
const (
	perplexityMaxResults = 20
	perplexityMaxQueries = 5
	perplexityPageTokens = 1024
)

// PerplexityBackend queries the Perplexity Search API (POST /search).
type PerplexityBackend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPerplexityBackend creates a backend. An empty baseURL uses the public API.
func NewPerplexityBackend(apiKey, baseURL string, timeout time.Duration) (*PerplexityBackend, error) {
	if apiKey == "" {
		return nil, &RequestError{Field: "credentials", Message: "require a Perplexity API key"}
	}
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PerplexityBackend{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Backend.
func (b *PerplexityBackend) Name() string { return "perplexity" }

type perplexityRequest struct {
	Query            any `json:"query"`
	MaxResults       int `json:"max_results"`
	MaxTokensPerPage int `json:"max_tokens_per_page"`
}

type perplexityResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// Search implements Backend.
func (b *PerplexityBackend) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	return b.SearchMany(ctx, []string{query}, limit)
}

// SearchMany sends up to five queries in one request.
func (b *PerplexityBackend) SearchMany(ctx context.Context, queries []string, limit int) ([]SearchResult, error) {
	if err := validatePerplexity(queries, limit); err != nil {
		return nil, err
	}

	var query any = queries
	if len(queries) == 1 {
		query = strings.TrimSpace(queries[0])
	}
	body, err := json.Marshal(perplexityRequest{Query: query, MaxResults: limit, MaxTokensPerPage: perplexityPageTokens})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &BackendError{Backend: b.Name(), StatusCode: resp.StatusCode, Message: "rate limit exceeded: " + string(raw)}
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &BackendError{Backend: b.Name(), StatusCode: resp.StatusCode, Message: "bad request: " + string(raw)}
	case resp.StatusCode >= 500:
		return nil, &BackendError{Backend: b.Name(), StatusCode: resp.StatusCode, Message: "server error: " + string(raw)}
	case resp.StatusCode >= 300:
		return nil, &BackendError{Backend: b.Name(), StatusCode: resp.StatusCode, Message: "unexpected status"}
	}

	var parsed perplexityResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &BackendError{Backend: b.Name(), StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     r.Snippet,
			DisplayLink: Domain(r.URL),
			Type:        Classify(r.Title, r.URL),
		})
	}
	return results, nil
}

func validatePerplexity(queries []string, limit int) error {
	if len(queries) == 0 {
		return &RequestError{Field: "query", Message: "must not be empty"}
	}
	if len(queries) > perplexityMaxQueries {
		return &RequestError{Field: "query", Message: fmt.Sprintf("supports up to %d items", perplexityMaxQueries)}
	}
	for _, q := range queries {
		if strings.TrimSpace(q) == "" {
			return &RequestError{Field: "query", Message: "each query must be a non-empty string"}
		}
	}
	if limit < 1 || limit > perplexityMaxResults {
		return &RequestError{Field: "max_results", Message: fmt.Sprintf("must be between 1 and %d", perplexityMaxResults)}
	}
	return nil
}
