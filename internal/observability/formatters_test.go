package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/generation"
	"github.com/jonathan/persona-engine/internal/persona"
	"github.com/jonathan/persona-engine/internal/research"
)

func score(v float64) *float64 { return &v }

func TestPrintEvaluation(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEvaluation(&evaluation.Result{
		PersonaCount: 5,
		OverallScore: 0.72,
		SemanticDiversity: evaluation.SemanticDiversity{
			DiversityScore: score(0.41),
			Interpretation: "High diversity",
		},
		IndustryDiversity: evaluation.IndustryDiversity{UniqueIndustries: 3, IndustryDiversityScore: 0.6},
		TierDistribution: evaluation.TierDistribution{
			Counts:     map[string]int{"tier_2": 2, "tier_1": 1, "tier_3": 2},
			IsBalanced: true,
		},
		Completeness:    evaluation.Completeness{AverageCompleteness: 1},
		Recommendations: []string{"Personas show good diversity across all dimensions."},
	})
	out := buf.String()

	assert.Contains(t, out, "PERSONA EVALUATION")
	assert.Contains(t, out, "0.72")
	assert.Contains(t, out, "0.41 (High diversity)")
	assert.Contains(t, out, "balanced (tier_1=1, tier_2=2, tier_3=2)")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "good diversity")
}

func TestPrintEvaluation_SemanticFailure(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintEvaluation(&evaluation.Result{
		PersonaCount:      2,
		SemanticDiversity: evaluation.SemanticDiversity{Error: "provider down"},
	})

	assert.Contains(t, buf.String(), "unavailable (provider down)")
	assert.Contains(t, buf.String(), "unbalanced")
}

func TestPrintPersonas(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	warnings := make([]persona.Warning, 7)
	for i := range warnings {
		warnings[i] = persona.Warning{Index: i, Field: "job_titles", Message: "fewer than 10 job titles"}
	}
	p.PrintPersonas(&generation.Result{
		CompanyName: "Acme",
		TierTargets: map[string]int{"tier_1": 1, "tier_2": 2, "tier_3": 2},
		Personas: []persona.Persona{
			{Name: "Platform Lead", Tier: "tier_1", JobTitles: []string{"CTO", "VP Engineering"}, Industry: "SaaS"},
		},
		Warnings:  warnings,
		EvalError: "embedding failed",
	})
	out := buf.String()

	assert.Contains(t, out, "GENERATED PERSONAS")
	assert.Contains(t, out, "#1  Platform Lead [tier_1]")
	assert.Contains(t, out, "CTO, VP Engineering")
	assert.Contains(t, out, "Warnings (7)")
	assert.Contains(t, out, "... and 2 more")
	assert.Contains(t, out, "failed: embedding failed")
}

func TestPrintCompanySearch(t *testing.T) {
	var buf bytes.Buffer
	site := "https://acme.com"
	NewPrinter(&buf).PrintCompanySearch(&research.CompanySearch{
		CompanyName:     "Acme",
		OfficialWebsite: &site,
		NewsArticles:    []research.SearchResult{{Title: "Acme raises Series B"}},
		TotalResults:    2,
	})
	out := buf.String()

	assert.Contains(t, out, "COMPANY SEARCH")
	assert.Contains(t, out, "https://acme.com")
	assert.Contains(t, out, "Acme raises Series B")
	assert.NotContains(t, out, "Case studies")
}

func TestPrinter_NilInputs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEvaluation(nil)
	p.PrintPersonas(nil)
	p.PrintPersonas(&generation.Result{})
	p.PrintCompanySearch(nil)

	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("TITLE", strings.Repeat("é", 200))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestFormatCounts(t *testing.T) {
	assert.Equal(t, "a=1, b=2", FormatCounts(map[string]int{"b": 2, "a": 1}))
	assert.Equal(t, "", FormatCounts(nil))
}
