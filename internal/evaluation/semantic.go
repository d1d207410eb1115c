package evaluation

import (
	"context"
	"fmt"
	"math"

	"github.com/jonathan/persona-engine/internal/embedding"
	"github.com/jonathan/persona-engine/internal/persona"
)

// Interpretation strings for the semantic diversity score.
const (
	InterpretExcellent = "Excellent diversity - personas cover distinct market segments"
	InterpretGood      = "Good diversity - personas have meaningful differences"
	InterpretModerate  = "Moderate diversity - some personas may be too similar"
	InterpretLow       = "Low diversity - personas are too similar, consider generating more distinct segments"
)

// CalculateSemanticDiversity renders every persona, embeds all texts in one
// provider call and summarises the pairwise cosine distances.
// Provider failures and unusable vectors are reported in the Error field.
func CalculateSemanticDiversity(ctx context.Context, provider embedding.Provider, personas []persona.Record) SemanticDiversity {
	if len(personas) < MinPersonas {
		return semanticError(fmt.Sprintf("need at least %d personas for semantic diversity, got %d", MinPersonas, len(personas)))
	}
	if provider == nil {
		return semanticError("no embedding provider configured")
	}

	texts := persona.RenderAll(personas)
	res := provider.EmbedBatch(ctx, texts)
	if !res.OK() {
		return semanticError(fmt.Sprintf("failed to generate embeddings: %v", res.Err))
	}
	if len(res.Vectors) != len(personas) {
		return semanticError(fmt.Sprintf("failed to generate embeddings: expected %d vectors, got %d", len(personas), len(res.Vectors)))
	}
	if err := checkVectors(res.Vectors); err != nil {
		return semanticError(err.Error())
	}

	return SemanticFromVectors(res.Vectors)
}

// SemanticFromVectors computes the semantic metric from precomputed vectors.
// Only the strict upper triangle (i<j) is used, giving n(n-1)/2 pairs.
func SemanticFromVectors(vectors [][]float32) SemanticDiversity {
	n := len(vectors)
	if n < MinPersonas {
		return semanticError(fmt.Sprintf("need at least %d vectors, got %d", MinPersonas, n))
	}

	pairs := n * (n - 1) / 2
	similarities := make([]float64, 0, pairs)
	distances := make([]float64, 0, pairs)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := CosineSimilarity(vectors[i], vectors[j])
			similarities = append(similarities, sim)
			distances = append(distances, 1-sim)
		}
	}

	avgSim := mean(similarities)
	avgDist := mean(distances)
	minDist := minOf(distances)
	maxSim := maxOf(similarities)
	stdDist := stdDev(distances, avgDist)
	score := avgDist / 2

	return SemanticDiversity{
		AverageCosineSimilarity: &avgSim,
		AverageCosineDistance:   &avgDist,
		MinCosineDistance:       &minDist,
		MaxCosineSimilarity:     &maxSim,
		StdCosineDistance:       &stdDist,
		DiversityScore:          &score,
		PairwiseDistances:       distances,
		Interpretation:          InterpretDiversityScore(score),
	}
}

// InterpretDiversityScore buckets a diversity score at 0.7, 0.5 and 0.3.
func InterpretDiversityScore(score float64) string {
	switch {
	case score >= 0.7:
		return InterpretExcellent
	case score >= 0.5:
		return InterpretGood
	case score >= 0.3:
		return InterpretModerate
	default:
		return InterpretLow
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, clamped to [-1, 1].
// A zero-norm vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}

func checkVectors(vectors [][]float32) error {
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("unusable embeddings: vector 0 is empty")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("unusable embeddings: vector %d has dimension %d, expected %d", i, len(v), dim)
		}
		for _, f := range v {
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				return fmt.Errorf("unusable embeddings: vector %d contains non-finite values", i)
			}
		}
	}
	return nil
}

func semanticError(msg string) SemanticDiversity {
	return SemanticDiversity{Error: msg}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the population standard deviation around m.
func stdDev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}
