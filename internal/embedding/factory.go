package embedding

import (
	"context"
	"fmt"

	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
)

// NewFromConfig builds the configured provider, wrapped with instrumentation and,
// when a cache backend is configured, with caching. The returned cleanup func
// releases clients and is never nil.
func NewFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Manager) (Provider, func(), error) {
	if log == nil {
		log = logger.Nop()
	}
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	ec := cfg.Embedding
	var base Provider
	switch ec.Provider {
	case "openai", "":
		base = NewOpenAIProvider(OpenAIOptions{
			APIKey:          ec.APIKey,
			Model:           ec.Model,
			BaseURL:         ec.BaseURL,
			Timeout:         ec.Timeout,
			AzureEndpoint:   ec.AzureEndpoint,
			AzureAPIVersion: ec.AzureAPIVersion,
		})
	case "gemini":
		model := ec.Model
		if model == DefaultOpenAIModel {
			model = DefaultGeminiModel
		}
		gp, err := NewGeminiProvider(ctx, ec.APIKey, model)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, gp.Close)
		base = gp
	case "ollama":
		model := ec.Model
		if model == DefaultOpenAIModel {
			model = DefaultOllamaModel
		}
		base = NewOllamaProvider(ec.BaseURL, model, ec.Timeout)
	default:
		return nil, cleanup, fmt.Errorf("%w: unknown embedding provider %q", config.ErrInvalidConfig, ec.Provider)
	}

	var p Provider = NewInstrumentedProvider(base, ec.Provider, log.Named("embedding"), m)

	switch cfg.Cache.Backend {
	case "memory":
		p = NewCachedProvider(p, NewMemoryCache(), log.Named("embedding-cache"), m)
	case "redis":
		rc, err := NewRedisCacheFromURL(cfg.Cache.RedisURL, cfg.Cache.Prefix, cfg.Cache.TTL)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, rc.Close)
		p = NewCachedProvider(p, rc, log.Named("embedding-cache"), m)
	}

	log.Info(ctx, "embedding provider ready",
		logger.String("provider", ec.Provider),
		logger.String("model", p.Model()),
		logger.String("cache", cfg.Cache.Backend),
	)
	return p, cleanup, nil
}
