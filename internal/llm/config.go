// Package llm wraps the Gemini models used to draft persona sets.
package llm

import "github.com/jonathan/persona-engine/internal/config"

// ModelTier selects a model by capability rather than by name.
type ModelTier string

const (
	// TierStandard handles routine structured output.
	TierStandard ModelTier = "standard"
	// TierAdvanced handles larger persona batches and long source context.
	TierAdvanced ModelTier = "advanced"
)

// DefaultTemperature leaves room for variety between personas in one batch.
const DefaultTemperature float32 = 0.7

// Config maps tiers to Gemini model names.
type Config struct {
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the built-in Gemini models.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// FromSettings builds a Config from the process configuration. Empty model
// names keep their defaults.
func FromSettings(s config.LLMConfig) *Config {
	c := DefaultConfig()
	if s.StandardModel != "" {
		c.Models[TierStandard] = s.StandardModel
	}
	if s.AdvancedModel != "" {
		c.Models[TierAdvanced] = s.AdvancedModel
	}
	return c
}

// GetModel returns the model for tier, falling back to the standard tier.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierStandard]
}

// WithModel returns a copy of c with tier mapped to model.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{Models: make(map[ModelTier]string, len(c.Models)+1), Temperature: c.Temperature}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}

// TierFor picks the model tier for a generation request of n personas.
func TierFor(n int) ModelTier {
	if n > 5 {
		return TierAdvanced
	}
	return TierStandard
}
