package evaluation

// Result is the full evaluation of one persona batch.
type Result struct {
	PersonaCount        int                 `json:"persona_count"`
	OverallScore        float64             `json:"overall_score"`
	SemanticDiversity   SemanticDiversity   `json:"semantic_diversity"`
	IndustryDiversity   IndustryDiversity   `json:"industry_diversity"`
	GeographicDiversity GeographicDiversity `json:"geographic_diversity"`
	SizeDiversity       SizeDiversity       `json:"size_diversity"`
	TierDistribution    TierDistribution    `json:"tier_distribution"`
	Completeness        Completeness        `json:"completeness"`
	Recommendations     []string            `json:"recommendations"`
}

// SemanticDiversity measures how far apart personas are in embedding space.
// When Error is set every numeric field is nil.
type SemanticDiversity struct {
	AverageCosineSimilarity *float64  `json:"average_cosine_similarity"`
	AverageCosineDistance   *float64  `json:"average_cosine_distance"`
	MinCosineDistance       *float64  `json:"min_cosine_distance"`
	MaxCosineSimilarity     *float64  `json:"max_cosine_similarity"`
	StdCosineDistance       *float64  `json:"std_cosine_distance"`
	DiversityScore          *float64  `json:"diversity_score"`
	PairwiseDistances       []float64 `json:"pairwise_distances,omitempty"`
	Interpretation          string    `json:"interpretation,omitempty"`
	Error                   string    `json:"error,omitempty"`
}

// Failed reports whether the metric could not be computed.
func (s SemanticDiversity) Failed() bool {
	return s.Error != ""
}

// Score returns the diversity score, or 0 when the metric failed.
func (s SemanticDiversity) Score() float64 {
	if s.DiversityScore == nil {
		return 0
	}
	return *s.DiversityScore
}

// IndustryDiversity measures variety of the industry field.
type IndustryDiversity struct {
	UniqueIndustries       int            `json:"unique_industries"`
	TotalPersonas          int            `json:"total_personas"`
	IndustryDiversityScore float64        `json:"industry_diversity_score"`
	IndustryDistribution   map[string]int `json:"industry_distribution"`
	Recommendation         string         `json:"recommendation"`
}

// GeographicDiversity measures variety of the location field.
type GeographicDiversity struct {
	UniqueLocations          int            `json:"unique_locations"`
	TotalPersonas            int            `json:"total_personas"`
	GeographicDiversityScore float64        `json:"geographic_diversity_score"`
	LocationDistribution     map[string]int `json:"location_distribution"`
}

// SizeDiversity measures variety of the company size range field.
type SizeDiversity struct {
	UniqueSizeRanges   int            `json:"unique_size_ranges"`
	TotalPersonas      int            `json:"total_personas"`
	SizeDiversityScore float64        `json:"size_diversity_score"`
	SizeDistribution   map[string]int `json:"size_distribution"`
}

// TierDistribution reports tier counts and whether they match the target allocation.
type TierDistribution struct {
	Counts         map[string]int     `json:"tier_distribution"`
	Percentages    map[string]float64 `json:"tier_percentages"`
	IsBalanced     bool               `json:"is_balanced"`
	Recommendation string             `json:"recommendation"`
}

// Completeness reports the share of required fields present per persona.
type Completeness struct {
	AverageCompleteness float64   `json:"average_completeness"`
	CompletenessScores  []float64 `json:"completeness_scores"`
	AllComplete         bool      `json:"all_complete"`
}
