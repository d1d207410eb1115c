package evaluation

import "fmt"

// Weights of each metric in the overall score. They sum to 1.
const (
	semanticWeight     = 0.40
	industryWeight     = 0.20
	geographicWeight   = 0.15
	sizeWeight         = 0.10
	tierWeight         = 0.10
	completenessWeight = 0.05
)

// Tier contributions: an unbalanced distribution is penalised, never zeroed.
const (
	tierBalancedScore   = 1.0
	tierUnbalancedScore = 0.5
)

// Recommendation thresholds.
const (
	semanticThreshold   = 0.5
	industryThreshold   = 0.8
	geographicThreshold = 0.6
)

// Recommendation strings without parameters.
const (
	RecommendSemantic = "Low semantic diversity: Generate personas with more distinct characteristics " +
		"(different industries, geographies, or company sizes)"
	RecommendTier = "Tier distribution is not balanced. Aim for: tier_1 (30-40%), " +
		"tier_2 (40-50%), tier_3 (10-20%)"
	RecommendAllGood = "All metrics look good! Personas are well-diversified."
)

// CalculateOverallScore combines the metrics with fixed weights.
// A failed semantic metric contributes 0.
func CalculateOverallScore(
	semantic SemanticDiversity,
	industry IndustryDiversity,
	geographic GeographicDiversity,
	size SizeDiversity,
	tier TierDistribution,
	completeness Completeness,
) float64 {
	tierScore := tierUnbalancedScore
	if tier.IsBalanced {
		tierScore = tierBalancedScore
	}

	return semantic.Score()*semanticWeight +
		industry.IndustryDiversityScore*industryWeight +
		geographic.GeographicDiversityScore*geographicWeight +
		size.SizeDiversityScore*sizeWeight +
		tierScore*tierWeight +
		completeness.AverageCompleteness*completenessWeight
}

// GenerateRecommendations returns action items in fixed rule order:
// semantic, industry, geographic, tier. It is never empty.
func GenerateRecommendations(
	semantic SemanticDiversity,
	industry IndustryDiversity,
	geographic GeographicDiversity,
	tier TierDistribution,
) []string {
	var recs []string

	if semantic.Score() < semanticThreshold {
		recs = append(recs, RecommendSemantic)
	}
	if industry.IndustryDiversityScore < industryThreshold {
		recs = append(recs, fmt.Sprintf(
			"Only %d unique industries for %d personas. Consider diversifying industries.",
			industry.UniqueIndustries, industry.TotalPersonas))
	}
	if geographic.GeographicDiversityScore < geographicThreshold {
		recs = append(recs, fmt.Sprintf(
			"Limited geographic diversity: %d unique locations. Consider adding personas from different regions.",
			geographic.UniqueLocations))
	}
	if !tier.IsBalanced {
		recs = append(recs, RecommendTier)
	}

	if len(recs) == 0 {
		recs = append(recs, RecommendAllGood)
	}
	return recs
}
