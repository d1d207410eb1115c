// Package evaluation scores the diversity and quality of a buyer-persona batch.
//
// Six metric groups are computed independently (semantic, industry, geographic,
// size, tier and completeness) and combined into a weighted overall score with
// recommendations. Only the semantic metric calls out to an embedding provider,
// and its failure never aborts the other metrics.
package evaluation

import (
	"context"
	"sync"

	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/embedding"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
	"github.com/jonathan/persona-engine/internal/persona"
)

// Evaluator evaluates persona batches. It holds no per-call state and is safe for concurrent use.
type Evaluator struct {
	provider embedding.Provider
	log      logger.Logger
	metrics  *metrics.Manager
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Evaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// New creates an evaluator using provider for semantic diversity.
func New(provider embedding.Provider, opts ...Option) *Evaluator {
	e := &Evaluator{
		provider: provider,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	defaultOnce      sync.Once
	defaultEvaluator *Evaluator
	defaultErr       error
)

// Default returns a process-wide evaluator built from the environment configuration
// on first use. Prefer New with an explicit provider.
func Default() (*Evaluator, error) {
	defaultOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			defaultErr = err
			return
		}
		log := logger.Named("evaluation")
		provider, _, err := embedding.NewFromConfig(context.Background(), cfg, log, nil)
		if err != nil {
			defaultErr = err
			return
		}
		defaultEvaluator = New(provider, WithLogger(log))
	})
	return defaultEvaluator, defaultErr
}

// Provider returns the embedding provider used for semantic diversity.
func (e *Evaluator) Provider() embedding.Provider {
	return e.provider
}

// EvaluatePersonas computes every metric for the batch. Batches smaller than
// MinPersonas return an *InputError and nothing else is computed.
func (e *Evaluator) EvaluatePersonas(ctx context.Context, personas []persona.Record) (*Result, error) {
	if len(personas) < MinPersonas {
		e.metrics.RecordEvaluationRejected()
		return nil, &InputError{PersonaCount: len(personas)}
	}

	e.log.Info(ctx, "evaluating personas", logger.Int("count", len(personas)))
	persona.CheckAll(ctx, e.log, personas)

	semantic := CalculateSemanticDiversity(ctx, e.provider, personas)
	if semantic.Failed() {
		e.log.Error(ctx, "semantic diversity unavailable", logger.String("error", semantic.Error))
	} else {
		e.log.Info(ctx, "semantic diversity",
			logger.Float64("avg_distance", *semantic.AverageCosineDistance),
			logger.Float64("min_distance", *semantic.MinCosineDistance),
			logger.Float64("diversity_score", *semantic.DiversityScore),
		)
	}

	industry := CalculateIndustryDiversity(personas)
	geographic := CalculateGeographicDiversity(personas)
	size := CalculateSizeDiversity(personas)
	tier := CalculateTierDistribution(personas)
	completeness := CalculateCompleteness(personas)

	result := &Result{
		PersonaCount:        len(personas),
		OverallScore:        CalculateOverallScore(semantic, industry, geographic, size, tier, completeness),
		SemanticDiversity:   semantic,
		IndustryDiversity:   industry,
		GeographicDiversity: geographic,
		SizeDiversity:       size,
		TierDistribution:    tier,
		Completeness:        completeness,
		Recommendations:     GenerateRecommendations(semantic, industry, geographic, tier),
	}

	e.metrics.RecordEvaluation(result.OverallScore, semantic.Failed())
	e.log.Info(ctx, "evaluation complete",
		logger.Float64("overall_score", result.OverallScore),
		logger.Int("recommendations", len(result.Recommendations)),
	)
	return result, nil
}
