// Package research finds public material about a company: its official site,
// recent news and customer case studies.
package research

import "time"

// ResultType classifies a search hit.
type ResultType string

const (
	TypeCaseStudy         ResultType = "case_study"
	TypeNews              ResultType = "news"
	TypePotentialOfficial ResultType = "potential_official"
	TypeOther             ResultType = "other"
)

// SearchResult is one normalised hit from a search backend.
type SearchResult struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Snippet     string     `json:"snippet"`
	DisplayLink string     `json:"display_link,omitempty"`
	Type        ResultType `json:"type"`
}

// CompanySearch is the grouped outcome of a company search.
type CompanySearch struct {
	CompanyName     string         `json:"company_name"`
	OfficialWebsite *string        `json:"official_website"`
	NewsArticles    []SearchResult `json:"news_articles"`
	CaseStudies     []SearchResult `json:"case_studies"`
	TotalResults    int            `json:"total_results"`
	SearchTimestamp time.Time      `json:"search_timestamp"`
}

// Options selects the optional result groups.
type Options struct {
	IncludeNews        bool
	IncludeCaseStudies bool
}

// Limits caps how many results each group keeps.
type Limits struct {
	Official    int
	News        int
	CaseStudies int
	// PerDomain caps results from a single domain within a group.
	PerDomain int
}

// DefaultLimits returns the standard caps.
func DefaultLimits() Limits {
	return Limits{Official: 2, News: 10, CaseStudies: 10, PerDomain: 3}
}
