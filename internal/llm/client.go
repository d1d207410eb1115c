package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Prompt is a system instruction plus the user turn.
type Prompt struct {
	System string
	User   string
}

// Client generates JSON documents from prompts.
type Client interface {
	GenerateJSON(ctx context.Context, p Prompt, tier ModelTier) (string, error)
	Close() error
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a Gemini client. A nil config uses DefaultConfig.
func NewGeminiClient(ctx context.Context, cfg *Config, apiKey string, opts ...option.ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &Error{Message: "API key is required"}
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, &Error{Message: "failed to create Gemini client", Cause: err}
	}
	return &GeminiClient{client: client, config: cfg}, nil
}

// GenerateJSON runs p in JSON response mode and strips any code fence.
func (c *GeminiClient) GenerateJSON(ctx context.Context, p Prompt, tier ModelTier) (string, error) {
	name := c.config.GetModel(tier)
	if name == "" {
		return "", &Error{Message: "no model configured for tier " + string(tier)}
	}

	model := c.client.GenerativeModel(name)
	model.SetTemperature(c.config.Temperature)
	model.ResponseMIMEType = "application/json"
	if p.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(p.System))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", &Error{Model: name, Message: "generation failed", Cause: err}
	}

	text, err := responseText(resp)
	if err != nil {
		return "", &Error{Model: name, Message: "unusable response", Cause: err}
	}
	return CleanJSONBlock(text), nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &Error{Message: "no candidates in response"}
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &Error{Message: "no content in response"}
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", &Error{Message: "no text parts in response"}
	}
	return b.String(), nil
}
