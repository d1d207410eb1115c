package embedding

import (
	"context"
	"time"

	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
)

// InstrumentedProvider logs and records metrics for every batch sent to the wrapped provider.
type InstrumentedProvider struct {
	next    Provider
	name    string
	log     logger.Logger
	metrics *metrics.Manager
}

// NewInstrumentedProvider wraps next. name labels the metrics (e.g. "openai").
func NewInstrumentedProvider(next Provider, name string, log logger.Logger, m *metrics.Manager) *InstrumentedProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &InstrumentedProvider{next: next, name: name, log: log, metrics: m}
}

// Model implements Provider.
func (p *InstrumentedProvider) Model() string { return p.next.Model() }

// Dimensions implements Provider.
func (p *InstrumentedProvider) Dimensions() int { return p.next.Dimensions() }

// EmbedBatch implements Provider.
func (p *InstrumentedProvider) EmbedBatch(ctx context.Context, texts []string) Result {
	start := time.Now()
	res := p.next.EmbedBatch(ctx, texts)
	elapsed := time.Since(start)

	p.metrics.RecordEmbedding(p.name, len(texts), elapsed, res.Err)
	if res.OK() {
		p.log.Debug(ctx, "embedded batch",
			logger.String("provider", p.name),
			logger.String("model", p.next.Model()),
			logger.Int("texts", len(texts)),
			logger.Any("elapsed", elapsed),
		)
	} else {
		p.log.Error(ctx, "embedding batch failed",
			logger.String("provider", p.name),
			logger.Int("texts", len(texts)),
			logger.Err(res.Err),
		)
	}
	return res
}
