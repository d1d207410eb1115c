package fetch

import (
	"net/url"
	"strings"
)

// Site is a publishing platform with known page structure.
type Site string

const (
	SiteMedium    Site = "medium"
	SiteSubstack  Site = "substack"
	SiteHubSpot   Site = "hubspot"
	SiteWordPress Site = "wordpress"
	SiteGeneric   Site = "generic"
)

// DetectSite identifies the publishing platform hosting rawURL.
func DetectSite(rawURL string) Site {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return SiteGeneric
	}
	host := strings.ToLower(parsed.Hostname())
	path := strings.ToLower(parsed.Path)

	switch {
	case host == "medium.com" || strings.HasSuffix(host, ".medium.com"):
		return SiteMedium
	case strings.HasSuffix(host, ".substack.com"):
		return SiteSubstack
	case strings.Contains(host, "hubspot") || strings.HasSuffix(host, ".hs-sites.com"):
		return SiteHubSpot
	case strings.HasSuffix(host, ".wordpress.com") || strings.Contains(path, "/wp-content/"):
		return SiteWordPress
	default:
		return SiteGeneric
	}
}

// ContentSelectors returns main-content selectors for the site, most specific first.
func (s Site) ContentSelectors() []string {
	generic := []string{
		"main",
		"article",
		"[role='main']",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
	switch s {
	case SiteMedium:
		return append([]string{"article section", "article"}, generic...)
	case SiteSubstack:
		return append([]string{".available-content", ".post-content"}, generic...)
	case SiteHubSpot:
		return append([]string{".blog-post__body", ".post-body", ".hs_cos_wrapper_type_rich_text"}, generic...)
	case SiteWordPress:
		return append([]string{".entry-content", ".post-content"}, generic...)
	default:
		return generic
	}
}

// NoiseSelectors returns site-specific elements to drop before extraction.
func (s Site) NoiseSelectors() []string {
	switch s {
	case SiteMedium:
		return []string{".pw-multi-vote-icon", ".speechify-ignore", "[data-testid='headerSocialIcons']"}
	case SiteSubstack:
		return []string{".subscribe-widget", ".post-footer", ".comments-section"}
	case SiteHubSpot:
		return []string{".blog-post__author", ".hs-cta-wrapper", ".blog-related-posts"}
	case SiteWordPress:
		return []string{".sharedaddy", ".jp-relatedposts", "#comments", ".widget-area"}
	default:
		return nil
	}
}
