package research

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
)

// maxConcurrentQueries bounds in-flight backend requests per company search.
const maxConcurrentQueries = 4

// Service runs grouped company searches against a Backend.
type Service struct {
	backend Backend
	limits  Limits
	log     logger.Logger
	metrics *metrics.Manager
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLimits overrides DefaultLimits. Non-positive fields keep their default.
func WithLimits(l Limits) ServiceOption {
	return func(s *Service) {
		if l.Official > 0 {
			s.limits.Official = l.Official
		}
		if l.News > 0 {
			s.limits.News = l.News
		}
		if l.CaseStudies > 0 {
			s.limits.CaseStudies = l.CaseStudies
		}
		if l.PerDomain > 0 {
			s.limits.PerDomain = l.PerDomain
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records backend outcomes.
func WithMetrics(m *metrics.Manager) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service around backend.
func NewService(backend Backend, opts ...ServiceOption) *Service {
	s := &Service{
		backend: backend,
		limits:  DefaultLimits(),
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type group int

const (
	groupOfficial group = iota
	groupNews
	groupCaseStudies
	groupCount
)

type query struct {
	group group
	text  string
}

// queries returns the keyword list for each requested group, in priority order.
func queries(name string, year int, opts Options) []query {
	lower := strings.ToLower(name)
	qs := []query{
		{groupOfficial, lower},
		{groupOfficial, lower + " official website"},
	}
	if opts.IncludeNews {
		y := strconv.Itoa(year)
		qs = append(qs,
			query{groupNews, lower + " news " + y},
			query{groupNews, lower + " latest news"},
			query{groupNews, lower + " press release"},
		)
	}
	if opts.IncludeCaseStudies {
		qs = append(qs,
			query{groupCaseStudies, lower + " case study"},
			query{groupCaseStudies, lower + " customer success story"},
			query{groupCaseStudies, lower + " use case"},
		)
	}
	return qs
}

// SearchCompany finds the official website, news and case studies for a
// company. Backend failures only empty the affected keyword's results.
func (s *Service) SearchCompany(ctx context.Context, companyName string, opts Options) (*CompanySearch, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, &RequestError{Field: "company_name", Message: "is required"}
	}

	now := s.now().UTC()
	qs := queries(companyName, now.Year(), opts)
	raw := make([][]SearchResult, len(qs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQueries)
	for i, q := range qs {
		g.Go(func() error {
			results, err := s.backend.Search(gctx, q.text, s.groupLimit(q.group))
			s.metrics.RecordSearch(s.backend.Name(), err)
			if err != nil {
				s.log.Warn(gctx, "search keyword failed",
					logger.String("backend", s.backend.Name()),
					logger.String("query", q.text),
					logger.Err(err))
				return nil
			}
			raw[i] = results
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var grouped [groupCount][]SearchResult
	seen := make(map[string]bool)
	for i, q := range qs {
		grouped[q.group] = append(grouped[q.group], raw[i]...)
	}
	for gi := range grouped {
		grouped[gi] = s.filter(grouped[gi], seen, s.groupLimit(group(gi)))
	}

	out := &CompanySearch{
		CompanyName:     companyName,
		OfficialWebsite: officialWebsite(companyName, grouped[groupOfficial]),
		NewsArticles:    nonNil(grouped[groupNews]),
		CaseStudies:     nonNil(grouped[groupCaseStudies]),
		SearchTimestamp: now,
	}
	out.TotalResults = len(grouped[groupOfficial]) + len(out.NewsArticles) + len(out.CaseStudies)

	s.log.Info(ctx, "company search completed",
		logger.String("company", companyName),
		logger.Bool("official_found", out.OfficialWebsite != nil),
		logger.Int("news", len(out.NewsArticles)),
		logger.Int("case_studies", len(out.CaseStudies)))
	return out, nil
}

func (s *Service) groupLimit(g group) int {
	switch g {
	case groupOfficial:
		return s.limits.Official
	case groupNews:
		return s.limits.News
	default:
		return s.limits.CaseStudies
	}
}

// filter drops social and already-seen URLs, then applies the per-domain and group caps.
func (s *Service) filter(results []SearchResult, seen map[string]bool, limit int) []SearchResult {
	perDomain := make(map[string]int)
	var kept []SearchResult
	for _, r := range results {
		if len(kept) >= limit {
			break
		}
		if IsSocial(r.URL) {
			continue
		}
		key := CanonicalURL(r.URL)
		if key == "" || seen[key] {
			continue
		}
		domain := Domain(r.URL)
		if s.limits.PerDomain > 0 && perDomain[domain] >= s.limits.PerDomain {
			continue
		}
		seen[key] = true
		perDomain[domain]++
		if r.Type == "" {
			r.Type = Classify(r.Title, r.URL)
		}
		kept = append(kept, r)
	}
	return kept
}

// officialWebsite prefers a potential_official hit, then a domain containing
// the company slug, then the first result.
func officialWebsite(companyName string, results []SearchResult) *string {
	if len(results) == 0 {
		return nil
	}
	for _, r := range results {
		if r.Type == TypePotentialOfficial {
			return &r.URL
		}
	}
	slug := companySlug(companyName)
	for _, r := range results {
		if slug != "" && strings.Contains(Domain(r.URL), slug) {
			return &r.URL
		}
	}
	first := results[0].URL
	return &first
}

func nonNil(results []SearchResult) []SearchResult {
	if results == nil {
		return []SearchResult{}
	}
	return results
}
