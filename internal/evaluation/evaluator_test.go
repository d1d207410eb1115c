package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-engine/internal/embedding"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
	"github.com/jonathan/persona-engine/internal/persona"
)

// fixedProvider returns preset vectors in order and records every batch.
type fixedProvider struct {
	mu      sync.Mutex
	vectors [][]float32
	err     error
	batches [][]string
}

func (p *fixedProvider) Model() string   { return "fixed" }
func (p *fixedProvider) Dimensions() int { return 0 }

func (p *fixedProvider) EmbedBatch(_ context.Context, texts []string) embedding.Result {
	p.mu.Lock()
	p.batches = append(p.batches, texts)
	p.mu.Unlock()
	if p.err != nil {
		return embedding.Failure(p.err)
	}
	return embedding.Success(p.vectors)
}

// axisVectors returns n mutually orthogonal unit vectors.
func axisVectors(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, n)
		v[i] = 1
		out[i] = v
	}
	return out
}

func sameVectors(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{1, 1, 0}
	}
	return out
}

func complete(name, tier, industry, location, size string) persona.Map {
	return persona.Map{
		"persona_name":        name,
		"tier":                tier,
		"job_titles":          []any{"CTO", "VP Engineering"},
		"excluded_job_titles": []any{"Intern"},
		"industry":            industry,
		"company_size_range":  size,
		"company_type":        "Enterprise",
		"location":            location,
		"description":         "A segment of " + name,
	}
}

func records(ms ...persona.Map) []persona.Record {
	out := make([]persona.Record, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

func TestEvaluatePersonas_MinimumBatchSize(t *testing.T) {
	provider := &fixedProvider{vectors: axisVectors(2)}
	m := metrics.NewManager()
	e := New(provider, WithMetrics(m))

	tests := []struct {
		name  string
		input []persona.Record
		count int
	}{
		{name: "empty", input: nil, count: 0},
		{name: "single", input: records(complete("a", "tier_1", "SaaS", "US", "1-50")), count: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.EvaluatePersonas(context.Background(), tt.input)
			assert.Nil(t, result)
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.count, inputErr.PersonaCount)
			assert.Equal(t, "need at least 2 personas for evaluation", err.Error())
		})
	}
	assert.Empty(t, provider.batches, "provider must not be called for rejected batches")

	t.Run("two personas succeed", func(t *testing.T) {
		result, err := e.EvaluatePersonas(context.Background(), records(
			complete("a", "tier_1", "SaaS", "US", "1-50"),
			complete("b", "tier_2", "FinTech", "UK", "50-200"),
		))
		require.NoError(t, err)
		assert.Equal(t, 2, result.PersonaCount)
	})
}

func TestEvaluatePersonas_SingleBatchCall(t *testing.T) {
	provider := &fixedProvider{vectors: axisVectors(4)}
	e := New(provider)

	personas := records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_1", "SaaS", "UK", "50-200"),
		complete("c", "tier_2", "FinTech", "DE", "200-1000"),
		complete("d", "tier_3", "HealthTech", "FR", "1000+"),
	)
	_, err := e.EvaluatePersonas(context.Background(), personas)
	require.NoError(t, err)

	require.Len(t, provider.batches, 1)
	require.Len(t, provider.batches[0], 4)
	for i, p := range personas {
		assert.Equal(t, persona.RenderText(p), provider.batches[0][i], "text %d must align with persona %d", i, i)
	}
}

func TestEvaluatePersonas_Determinism(t *testing.T) {
	personas := records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_2", "SaaS", "UK", "50-200"),
		complete("c", "tier_2", "FinTech", "US", "200-1000"),
	)
	vectors := [][]float32{{1, 0.2, 0}, {0.3, 1, 0.1}, {0, 0.4, 1}}

	e := New(&fixedProvider{vectors: vectors})
	first, err := e.EvaluatePersonas(context.Background(), personas)
	require.NoError(t, err)
	second, err := e.EvaluatePersonas(context.Background(), personas)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestEvaluatePersonas_Bounds(t *testing.T) {
	vectorSets := map[string][][]float32{
		"orthogonal": axisVectors(5),
		"identical":  sameVectors(5),
		"opposite":   {{1, 0}, {-1, 0}, {1, 0}, {-1, 0}, {1, 0}},
		"zero norm":  {{0, 0}, {1, 0}, {0, 1}, {0, 0}, {1, 1}},
	}
	personas := records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_2", "SaaS", "UK", "50-200"),
		persona.Map{"persona_name": "c"},
		persona.Map{},
		complete("e", "tier_3", "FinTech", "US", "1-50"),
	)

	for name, vectors := range vectorSets {
		t.Run(name, func(t *testing.T) {
			result, err := New(&fixedProvider{vectors: vectors}).EvaluatePersonas(context.Background(), personas)
			require.NoError(t, err)

			inUnit := func(label string, v float64) {
				assert.GreaterOrEqual(t, v, 0.0, label)
				assert.LessOrEqual(t, v, 1.0, label)
			}
			require.False(t, result.SemanticDiversity.Failed())
			inUnit("semantic", *result.SemanticDiversity.DiversityScore)
			inUnit("industry", result.IndustryDiversity.IndustryDiversityScore)
			inUnit("geographic", result.GeographicDiversity.GeographicDiversityScore)
			inUnit("size", result.SizeDiversity.SizeDiversityScore)
			inUnit("overall", result.OverallScore)
			for _, s := range result.Completeness.CompletenessScores {
				inUnit("completeness", s)
			}
		})
	}
}

func TestEvaluatePersonas_ProviderFailureIsolation(t *testing.T) {
	provider := &fixedProvider{err: errors.New("connection refused")}
	m := metrics.NewManager()
	e := New(provider, WithMetrics(m))

	personas := records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_2", "FinTech", "UK", "50-200"),
		complete("c", "tier_3", "HealthTech", "DE", "200-1000"),
	)
	result, err := e.EvaluatePersonas(context.Background(), personas)
	require.NoError(t, err)

	sem := result.SemanticDiversity
	assert.True(t, sem.Failed())
	assert.Contains(t, sem.Error, "connection refused")
	assert.Nil(t, sem.DiversityScore)
	assert.Nil(t, sem.AverageCosineSimilarity)
	assert.Nil(t, sem.AverageCosineDistance)
	assert.Nil(t, sem.MinCosineDistance)
	assert.Nil(t, sem.MaxCosineSimilarity)
	assert.Empty(t, sem.PairwiseDistances)

	assert.Equal(t, 3, result.IndustryDiversity.UniqueIndustries)
	assert.Equal(t, 3, result.GeographicDiversity.UniqueLocations)
	assert.Equal(t, 3, result.SizeDiversity.UniqueSizeRanges)
	assert.NotEmpty(t, result.TierDistribution.Counts)
	assert.Len(t, result.Completeness.CompletenessScores, 3)

	// semantic contributes 0: 1*0.2 + 1*0.15 + 1*0.1 + 0.5*0.1 + 1*0.05
	assert.InDelta(t, 0.55, result.OverallScore, 1e-9)
	assert.Equal(t, RecommendSemantic, result.Recommendations[0])

	// the JSON shape keeps nulls for the numeric fields
	raw, err := json.Marshal(sem)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"diversity_score":null`)
	assert.Contains(t, string(raw), `"error":"failed to generate embeddings`)
}

func TestEvaluatePersonas_WrongVectorCount(t *testing.T) {
	e := New(&fixedProvider{vectors: axisVectors(2)})
	result, err := e.EvaluatePersonas(context.Background(), records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_2", "FinTech", "UK", "50-200"),
		complete("c", "tier_3", "HealthTech", "DE", "200-1000"),
	))
	require.NoError(t, err)
	assert.True(t, result.SemanticDiversity.Failed())
	assert.Contains(t, result.SemanticDiversity.Error, "expected 3 vectors, got 2")
}

func TestEvaluatePersonas_DimensionMismatch(t *testing.T) {
	e := New(&fixedProvider{vectors: [][]float32{{1, 0}, {1, 0, 0}}})
	result, err := e.EvaluatePersonas(context.Background(), records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_2", "FinTech", "UK", "50-200"),
	))
	require.NoError(t, err)
	assert.True(t, result.SemanticDiversity.Failed())
	assert.Contains(t, result.SemanticDiversity.Error, "dimension")
}

func TestEvaluatePersonas_NilProvider(t *testing.T) {
	result, err := New(nil).EvaluatePersonas(context.Background(), records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_2", "FinTech", "UK", "50-200"),
	))
	require.NoError(t, err)
	assert.True(t, result.SemanticDiversity.Failed())
}

func TestEvaluatePersonas_RecommendationOrdering(t *testing.T) {
	// identical vectors → semantic score 0; tiers all tier_1 → unbalanced
	personas := records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_1", "FinTech", "UK", "50-200"),
		complete("c", "tier_1", "HealthTech", "DE", "200-1000"),
	)
	result, err := New(&fixedProvider{vectors: sameVectors(3)}).EvaluatePersonas(context.Background(), personas)
	require.NoError(t, err)

	assert.Equal(t, []string{RecommendSemantic, RecommendTier}, result.Recommendations)
}

func TestEvaluatePersonas_AllGood(t *testing.T) {
	tiers := []string{"tier_1", "tier_1", "tier_2", "tier_2", "tier_3"}
	industries := []string{"SaaS", "FinTech", "HealthTech", "Retail", "Energy"}
	locations := []string{"US", "UK", "DE", "FR", "JP"}
	var personas []persona.Record
	for i := range tiers {
		personas = append(personas, complete(fmt.Sprintf("p%d", i), tiers[i], industries[i], locations[i], "1-50"))
	}
	// opposite pairs push the mean distance above 1 → score above 0.5
	vectors := [][]float32{{1, 0}, {-1, 0}, {1, 0}, {-1, 0}, {0, 1}}

	result, err := New(&fixedProvider{vectors: vectors}).EvaluatePersonas(context.Background(), personas)
	require.NoError(t, err)
	require.GreaterOrEqual(t, *result.SemanticDiversity.DiversityScore, 0.5)
	assert.True(t, result.TierDistribution.IsBalanced)
	assert.Equal(t, []string{RecommendAllGood}, result.Recommendations)
}

func TestEvaluatePersonas_LogsAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.SetLevelString("info"))
	m := metrics.NewManager()
	e := New(&fixedProvider{vectors: axisVectors(2)}, WithLogger(logger.New(&buf)), WithMetrics(m))

	_, err := e.EvaluatePersonas(context.Background(), records(persona.Map{}, persona.Map{}))
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "evaluating personas")
	assert.Contains(t, out, "persona data quality")
	assert.Contains(t, out, "evaluation complete")
}

func TestEvaluatePersonas_Concurrent(t *testing.T) {
	e := New(&fixedProvider{vectors: axisVectors(3)})
	personas := records(
		complete("a", "tier_1", "SaaS", "US", "1-50"),
		complete("b", "tier_2", "FinTech", "UK", "50-200"),
		complete("c", "tier_3", "HealthTech", "DE", "200-1000"),
	)

	var wg sync.WaitGroup
	scores := make([]float64, 8)
	for i := range scores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := e.EvaluatePersonas(context.Background(), personas)
			if err == nil {
				scores[i] = r.OverallScore
			}
		}(i)
	}
	wg.Wait()
	for _, s := range scores[1:] {
		assert.Equal(t, scores[0], s)
	}
	assert.False(t, math.IsNaN(scores[0]))
}
