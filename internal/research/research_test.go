package research

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and www", "HTTPS://WWW.Acme.COM/About", "https://acme.com/About"},
		{"default https port", "https://acme.com:443/a", "https://acme.com/a"},
		{"default http port", "http://acme.com:80/a", "http://acme.com/a"},
		{"custom port kept", "https://acme.com:8443/a", "https://acme.com:8443/a"},
		{"fragment dropped", "https://acme.com/a#section", "https://acme.com/a"},
		{"tracking dropped", "https://acme.com/a?utm_source=x&gclid=1&id=7", "https://acme.com/a?id=7"},
		{"query sorted", "https://acme.com/a?b=2&a=1", "https://acme.com/a?a=1&b=2"},
		{"trailing slash trimmed", "https://acme.com/blog/", "https://acme.com/blog"},
		{"root kept", "https://acme.com/", "https://acme.com/"},
		{"empty path becomes root", "https://acme.com", "https://acme.com/"},
		{"relative returned as is", "  not a url ", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURL(tt.in))
		})
	}
}

func TestCanonicalURL_DedupesVariants(t *testing.T) {
	a := CanonicalURL("https://www.acme.com/news/?utm_campaign=q3")
	b := CanonicalURL("https://acme.com/news#top")
	assert.Equal(t, a, b)
}

func TestDomainHelpers(t *testing.T) {
	assert.Equal(t, "acme.com", Domain("https://www.acme.com/x"))
	assert.Equal(t, "acme.com", Domain("acme.com/x"))
	assert.Equal(t, "", Domain(""))

	assert.True(t, IsFromCompanyDomain("https://blog.acme.com/post", []string{"acme.com"}))
	assert.True(t, IsFromCompanyDomain("https://acme.com", []string{"ACME.com"}))
	assert.False(t, IsFromCompanyDomain("https://notacme.com", []string{"acme.com"}))
}

func TestIsSocial(t *testing.T) {
	assert.True(t, IsSocial("https://www.linkedin.com/company/acme"))
	assert.True(t, IsSocial("https://twitter.com/acme"))
	assert.False(t, IsSocial("https://www.linkedin.com/pulse/acme-story"))
	assert.False(t, IsSocial("https://acme.com"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		title string
		url   string
		want  ResultType
	}{
		{"Acme Case Study", "https://vendor.com/x", TypeCaseStudy},
		{"Story", "https://vendor.com/case-study/acme", TypeCaseStudy},
		{"Acme raises", "https://technews.example.org/acme", TypeNews},
		{"Acme", "https://acme.com/", TypePotentialOfficial},
		{"Acme", "https://acme.org", TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.title, tt.url))
		})
	}
}

// fakeBackend returns canned results per query and records calls.
type fakeBackend struct {
	mu      sync.Mutex
	results map[string][]SearchResult
	fail    map[string]bool
	calls   []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Search(_ context.Context, query string, _ int) ([]SearchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()
	if f.fail[query] {
		return nil, &BackendError{Backend: "fake", StatusCode: 500, Message: "boom"}
	}
	return f.results[query], nil
}

func hit(title, url string) SearchResult {
	return SearchResult{Title: title, URL: url, Type: Classify(title, url)}
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestSearchCompany_GroupsAndOfficialSite(t *testing.T) {
	backend := &fakeBackend{results: map[string][]SearchResult{
		"acme corp": {
			hit("Acme on LinkedIn", "https://linkedin.com/company/acme"),
			hit("Acme Corp", "https://www.acmecorp.com/"),
		},
		"acme corp official website": {hit("Acme Corp home", "https://acmecorp.com")},
		"acme corp news 2026":        {hit("Acme raises", "https://news.example.com/acme")},
		"acme corp latest news":      {hit("Acme raises", "https://news.example.com/acme?utm_source=feed")},
		"acme corp press release":    {hit("PR", "https://press.example.com/acme")},
		"acme corp case study":       {hit("Acme case study", "https://vendor.io/case-study/acme")},
	}}
	svc := NewService(backend, WithClock(fixedClock))

	got, err := svc.SearchCompany(context.Background(), "Acme Corp", Options{IncludeNews: true, IncludeCaseStudies: true})
	require.NoError(t, err)

	require.NotNil(t, got.OfficialWebsite)
	assert.Equal(t, "https://www.acmecorp.com/", *got.OfficialWebsite)
	assert.Len(t, got.NewsArticles, 2, "duplicate news URL must be dropped")
	assert.Len(t, got.CaseStudies, 1)
	assert.Equal(t, 4, got.TotalResults)
	assert.Equal(t, fixedClock(), got.SearchTimestamp)
	assert.Contains(t, backend.calls, "acme corp news 2026")
}

func TestSearchCompany_OptionalGroupsSkipped(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend)

	got, err := svc.SearchCompany(context.Background(), "Acme", Options{})
	require.NoError(t, err)
	assert.Nil(t, got.OfficialWebsite)
	assert.Empty(t, got.NewsArticles)
	assert.NotNil(t, got.NewsArticles)
	assert.Len(t, backend.calls, 2)
}

func TestSearchCompany_FailingKeywordIsolated(t *testing.T) {
	backend := &fakeBackend{
		results: map[string][]SearchResult{
			"acme official website": {hit("Acme", "https://acme.org")},
			"acme latest news":      {hit("Acme news", "https://example.com/news/acme")},
		},
		fail: map[string]bool{"acme": true, "acme press release": true},
	}
	svc := NewService(backend, WithClock(fixedClock))

	got, err := svc.SearchCompany(context.Background(), "Acme", Options{IncludeNews: true})
	require.NoError(t, err)
	require.NotNil(t, got.OfficialWebsite)
	assert.Equal(t, "https://acme.org", *got.OfficialWebsite, "slug match used when nothing looks official")
	assert.Len(t, got.NewsArticles, 1)
}

func TestSearchCompany_Caps(t *testing.T) {
	var many []SearchResult
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		many = append(many, hit("Post "+p, "https://blog.example.com/news/"+p))
	}
	many = append(many, hit("Other", "https://other.example.net/news/x"))

	backend := &fakeBackend{results: map[string][]SearchResult{"acme latest news": many}}
	svc := NewService(backend, WithLimits(Limits{News: 3, PerDomain: 2}))

	got, err := svc.SearchCompany(context.Background(), "Acme", Options{IncludeNews: true})
	require.NoError(t, err)
	require.Len(t, got.NewsArticles, 3)
	assert.Equal(t, "https://other.example.net/news/x", got.NewsArticles[2].URL)
}

func TestSearchCompany_RequiresName(t *testing.T) {
	svc := NewService(&fakeBackend{})
	_, err := svc.SearchCompany(context.Background(), "  ", Options{})
	var reqErr *RequestError
	assert.True(t, errors.As(err, &reqErr))
}

func TestOfficialWebsite_FirstResultFallback(t *testing.T) {
	got := officialWebsite("Acme", []SearchResult{hit("Wiki", "https://wiki.example.org/Acme")})
	require.NotNil(t, got)
	assert.Equal(t, "https://wiki.example.org/Acme", *got)
	assert.Nil(t, officialWebsite("Acme", nil))
}

func TestPerplexityBackend(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"results":[{"title":"Acme case study","url":"https://vendor.io/case-study/acme","snippet":"s"},{"title":"x","url":""}]}`))
	}))
	defer srv.Close()

	b, err := NewPerplexityBackend("key", srv.URL+"/", time.Second)
	require.NoError(t, err)

	results, err := b.Search(context.Background(), "acme case study", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TypeCaseStudy, results[0].Type)
	assert.Equal(t, "vendor.io", results[0].DisplayLink)
	assert.Equal(t, "acme case study", gotBody["query"])
	assert.EqualValues(t, 5, gotBody["max_results"])
	assert.EqualValues(t, 1024, gotBody["max_tokens_per_page"])
}

func TestPerplexityBackend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"rate limited", http.StatusTooManyRequests, "rate limit exceeded"},
		{"bad request", http.StatusBadRequest, "bad request"},
		{"server error", http.StatusBadGateway, "server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			b, err := NewPerplexityBackend("key", srv.URL, time.Second)
			require.NoError(t, err)
			_, err = b.Search(context.Background(), "acme", 3)

			var be *BackendError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.status, be.StatusCode)
			assert.Contains(t, be.Error(), tt.want)
		})
	}
}

func TestPerplexityBackend_Validation(t *testing.T) {
	b, err := NewPerplexityBackend("key", "http://127.0.0.1:1", time.Second)
	require.NoError(t, err)

	tests := []struct {
		name    string
		queries []string
		limit   int
	}{
		{"no queries", nil, 5},
		{"blank query", []string{" "}, 5},
		{"too many queries", []string{"a", "b", "c", "d", "e", "f"}, 5},
		{"limit zero", []string{"a"}, 0},
		{"limit too high", []string{"a"}, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.SearchMany(context.Background(), tt.queries, tt.limit)
			var reqErr *RequestError
			assert.True(t, errors.As(err, &reqErr))
		})
	}

	_, err = NewPerplexityBackend("", "", 0)
	assert.Error(t, err)
}

func TestGoogleBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme news", r.URL.Query().Get("q"))
		assert.Equal(t, "engine", r.URL.Query().Get("cx"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"Acme news","link":"https://example.com/news/acme","snippet":"s","displayLink":"example.com"}]}`))
	}))
	defer srv.Close()

	b, err := NewGoogleBackend(context.Background(), "key", "engine", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	results, err := b.Search(context.Background(), "acme news", 25)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TypeNews, results[0].Type)
	assert.Equal(t, "example.com", results[0].DisplayLink)
}

func TestGoogleBackend_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota"}}`))
	}))
	defer srv.Close()

	b, err := NewGoogleBackend(context.Background(), "key", "engine", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = b.Search(context.Background(), "acme", 3)
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusForbidden, be.StatusCode)
	assert.True(t, strings.HasPrefix(be.Error(), "google search (403)"))

	_, err = NewGoogleBackend(context.Background(), "", "engine")
	assert.Error(t, err)
}
