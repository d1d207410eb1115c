package research

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are dropped by CanonicalURL. Keys ending in "_" are prefixes.
var trackingParams = []string{"utm_", "gclid", "fbclid", "mc_cid", "mc_eid", "ref", "ref_src", "igshid", "msclkid"}

// CanonicalURL normalises rawURL for deduplication: lowercase scheme and host,
// no "www.", no default port, no fragment, no tracking parameters, sorted
// query and no trailing slash except on the root path. Unparseable input is
// returned trimmed.
func CanonicalURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	query := u.Query()
	for key := range query {
		if isTrackingParam(key) {
			query.Del(key)
		}
	}
	u.RawQuery = encodeSorted(query)

	if u.Path != "/" {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	for _, p := range trackingParams {
		if strings.HasSuffix(p, "_") && strings.HasPrefix(key, p) {
			return true
		}
		if key == p {
			return true
		}
	}
	return false
}

// encodeSorted encodes values by key, keeping each key's value order.
func encodeSorted(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Domain returns the lowercase host of rawURL without "www.". A missing
// scheme is assumed to be https.
func Domain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// IsFromCompanyDomain reports whether rawURL is on one of the company domains
// or a subdomain of one.
func IsFromCompanyDomain(rawURL string, companyDomains []string) bool {
	host := Domain(rawURL)
	if host == "" {
		return false
	}
	for _, d := range companyDomains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// socialPatterns are excluded from company search results.
var socialPatterns = []string{
	"facebook.com", "twitter.com", "linkedin.com/company",
	"youtube.com", "reddit.com", "instagram.com",
}

// IsSocial reports whether rawURL points at a social network profile or feed.
func IsSocial(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range socialPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Classify labels a hit from its title and URL.
func Classify(title, rawURL string) ResultType {
	title = strings.ToLower(title)
	lower := strings.ToLower(rawURL)

	switch {
	case strings.Contains(title, "case study") || strings.Contains(lower, "case-study"):
		return TypeCaseStudy
	case strings.Contains(lower, "news") || strings.Contains(lower, "press") || strings.Contains(lower, "blog"):
		return TypeNews
	case strings.Contains(lower, ".com/") || strings.Contains(lower, ".io/") || strings.Contains(lower, ".ai/"):
		return TypePotentialOfficial
	default:
		return TypeOther
	}
}

// companySlug lowercases name and removes spaces and commas.
func companySlug(name string) string {
	return strings.NewReplacer(" ", "", ",", "").Replace(strings.ToLower(name))
}
