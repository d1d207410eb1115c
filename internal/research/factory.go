package research

import (
	"context"
	"fmt"

	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
)

// NewFromConfig builds a Service for the configured backend.
func NewFromConfig(ctx context.Context, cfg config.SearchConfig, log logger.Logger, m *metrics.Manager) (*Service, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case "", "google":
		backend, err = NewGoogleBackend(ctx, cfg.GoogleAPIKey, cfg.GoogleCX)
	case "perplexity":
		backend, err = NewPerplexityBackend(cfg.PerplexityAPIKey, cfg.PerplexityBaseURL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return NewService(backend,
		WithLimits(Limits{
			Official:    cfg.MaxOfficialResults,
			News:        cfg.MaxNewsResults,
			CaseStudies: cfg.MaxCaseStudyResults,
			PerDomain:   cfg.MaxPerDomain,
		}),
		WithLogger(log),
		WithMetrics(m),
	), nil
}
