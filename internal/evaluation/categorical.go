package evaluation

import "github.com/jonathan/persona-engine/internal/persona"

// UnknownCategory stands in for a missing industry, location or size range.
const UnknownCategory = "Unknown"

// Industry recommendation strings.
const (
	IndustryRecommendUnique = "Aim for unique industries per persona"
	IndustryRecommendGood   = "Good industry diversity"
)

type categoryStats struct {
	unique       int
	total        int
	score        float64
	distribution map[string]int
}

// countCategories groups personas by field, with missing values counted as UnknownCategory.
func countCategories(personas []persona.Record, field string) categoryStats {
	dist := make(map[string]int)
	for _, p := range personas {
		dist[persona.Category(p, field, UnknownCategory)]++
	}
	stats := categoryStats{
		unique:       len(dist),
		total:        len(personas),
		distribution: dist,
	}
	if stats.total > 0 {
		stats.score = float64(stats.unique) / float64(stats.total)
	}
	return stats
}

// CalculateIndustryDiversity scores variety of the industry field.
func CalculateIndustryDiversity(personas []persona.Record) IndustryDiversity {
	s := countCategories(personas, persona.FieldIndustry)
	rec := IndustryRecommendGood
	if s.unique < s.total {
		rec = IndustryRecommendUnique
	}
	return IndustryDiversity{
		UniqueIndustries:       s.unique,
		TotalPersonas:          s.total,
		IndustryDiversityScore: s.score,
		IndustryDistribution:   s.distribution,
		Recommendation:         rec,
	}
}

// CalculateGeographicDiversity scores variety of the location field.
func CalculateGeographicDiversity(personas []persona.Record) GeographicDiversity {
	s := countCategories(personas, persona.FieldLocation)
	return GeographicDiversity{
		UniqueLocations:          s.unique,
		TotalPersonas:            s.total,
		GeographicDiversityScore: s.score,
		LocationDistribution:     s.distribution,
	}
}

// CalculateSizeDiversity scores variety of the company size range field.
func CalculateSizeDiversity(personas []persona.Record) SizeDiversity {
	s := countCategories(personas, persona.FieldCompanySizeRange)
	return SizeDiversity{
		UniqueSizeRanges:   s.unique,
		TotalPersonas:      s.total,
		SizeDiversityScore: s.score,
		SizeDistribution:   s.distribution,
	}
}

// CalculateCompleteness scores the share of persona.RequiredFields present in each persona.
func CalculateCompleteness(personas []persona.Record) Completeness {
	scores := make([]float64, len(personas))
	all := true
	for i, p := range personas {
		present := 0
		for _, field := range persona.RequiredFields {
			if persona.Present(p, field) {
				present++
			}
		}
		scores[i] = float64(present) / float64(len(persona.RequiredFields))
		if present != len(persona.RequiredFields) {
			all = false
		}
	}
	return Completeness{
		AverageCompleteness: mean(scores),
		CompletenessScores:  scores,
		AllComplete:         all,
	}
}
