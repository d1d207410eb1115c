// Package observability provides formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/generation"
	"github.com/jonathan/persona-engine/internal/research"
)

const (
	// boxWidth is the width of printed boxes
	boxWidth = 64
	// maxItemsToShow caps list output
	maxItemsToShow = 5
)

// Printer writes boxed, human-readable summaries.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer that writes to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

//nolint:errcheck // terminal output; nothing to recover
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// pad right-pads s to n runes; %-*s pads by bytes.
func pad(s string, n int) string {
	if k := utf8.RuneCountInString(s); k < n {
		return s + strings.Repeat(" ", n-k)
	}
	return s
}

// PrintEvaluation outputs the scores and recommendations of an evaluation.
func (p *Printer) PrintEvaluation(r *evaluation.Result) {
	if r == nil {
		return
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "Personas:             %d\n", r.PersonaCount)
	fmt.Fprintf(&sb, "Overall score:        %.2f\n\n", r.OverallScore)

	sem := r.SemanticDiversity
	if sem.Failed() {
		fmt.Fprintf(&sb, "Semantic diversity:   unavailable (%s)\n", sem.Error)
	} else {
		fmt.Fprintf(&sb, "Semantic diversity:   %.2f (%s)\n", sem.Score(), sem.Interpretation)
	}
	fmt.Fprintf(&sb, "Industry diversity:   %.2f (%d unique)\n",
		r.IndustryDiversity.IndustryDiversityScore, r.IndustryDiversity.UniqueIndustries)
	fmt.Fprintf(&sb, "Geographic diversity: %.2f (%d unique)\n",
		r.GeographicDiversity.GeographicDiversityScore, r.GeographicDiversity.UniqueLocations)
	fmt.Fprintf(&sb, "Size diversity:       %.2f (%d unique)\n",
		r.SizeDiversity.SizeDiversityScore, r.SizeDiversity.UniqueSizeRanges)

	balance := "unbalanced"
	if r.TierDistribution.IsBalanced {
		balance = "balanced"
	}
	fmt.Fprintf(&sb, "Tiers:                %s (%s)\n", balance, FormatCounts(r.TierDistribution.Counts))
	fmt.Fprintf(&sb, "Completeness:         %.0f%%\n", r.Completeness.AverageCompleteness*100)

	if len(r.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "  • %s\n", rec)
		}
	}
	p.printBox("PERSONA EVALUATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPersonas outputs the generated personas grouped by position, with any
// data quality warnings.
func (p *Printer) PrintPersonas(r *generation.Result) {
	if r == nil || len(r.Personas) == 0 {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", r.CompanyName)
	fmt.Fprintf(&sb, "Targets: %s\n\n", FormatCounts(r.TierTargets))

	for i, ps := range r.Personas {
		fmt.Fprintf(&sb, "#%d  %s [%s]\n", i+1, ps.Name, ps.Tier)
		if len(ps.JobTitles) > 0 {
			fmt.Fprintf(&sb, "    Titles:   %s\n", strings.Join(ps.JobTitles, ", "))
		}
		fmt.Fprintf(&sb, "    Industry: %s\n", ps.Industry)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "\nWarnings (%d):\n", len(r.Warnings))
		count := min(len(r.Warnings), maxItemsToShow)
		for _, w := range r.Warnings[:count] {
			fmt.Fprintf(&sb, "  • %s\n", w.String())
		}
		if len(r.Warnings) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(r.Warnings)-maxItemsToShow)
		}
	}
	p.printBox("GENERATED PERSONAS", strings.TrimSuffix(sb.String(), "\n"))

	if r.Evaluation != nil {
		p.PrintEvaluation(r.Evaluation)
	} else if r.EvalError != "" {
		p.printBox("PERSONA EVALUATION", "failed: "+r.EvalError)
	}
}

// PrintCompanySearch outputs the official site and the top news and case studies.
func (p *Printer) PrintCompanySearch(s *research.CompanySearch) {
	if s == nil {
		return
	}
	var sb strings.Builder
	site := "not found"
	if s.OfficialWebsite != nil {
		site = *s.OfficialWebsite
	}
	fmt.Fprintf(&sb, "Company:  %s\n", s.CompanyName)
	fmt.Fprintf(&sb, "Website:  %s\n", site)
	fmt.Fprintf(&sb, "Results:  %d\n", s.TotalResults)

	writeResults(&sb, "News", s.NewsArticles)
	writeResults(&sb, "Case studies", s.CaseStudies)
	p.printBox("COMPANY SEARCH", strings.TrimSuffix(sb.String(), "\n"))
}

func writeResults(sb *strings.Builder, label string, results []research.SearchResult) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", label)
	count := min(len(results), maxItemsToShow)
	for _, r := range results[:count] {
		fmt.Fprintf(sb, "  • %s\n", r.Title)
	}
	if len(results) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(results)-maxItemsToShow)
	}
}

// FormatCounts renders a count map as "k=v" pairs in key order.
func FormatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
