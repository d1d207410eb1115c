package ingestion

import (
	"regexp"
	"strings"
)

var (
	mdImage     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLink      = regexp.MustCompile(`\[([^\]]+)\]\((?:https?://|mailto:)[^)]+\)`)
	mdRefLink   = regexp.MustCompile(`\[([^\]]+)\]\[[^\]]+\]`)
	mdRefDef    = regexp.MustCompile(`(?m)^\s*\[[^\]]+\]:\s+\S+.*$`)
	autoLink    = regexp.MustCompile(`<https?://[^>]+>`)
	bareURL     = regexp.MustCompile(`(?i)\bhttps?://[^\s)>\]]+`)
	emptyParens = regexp.MustCompile(`\(\s*\)`)
	hSpaceRuns  = regexp.MustCompile(`[ \t]{2,}`)
	anchorTag   = regexp.MustCompile(`(?is)<a\b[^>]*>(.*?)</a>`)
)

// StripLinks removes links from markdown-like text and keeps the anchor text.
// Images keep their alt text, reference definitions and autolinks are dropped,
// and bare URLs are dropped when removeBareURLs is set.
func StripLinks(text string, removeBareURLs bool) string {
	if text == "" {
		return ""
	}
	s := mdImage.ReplaceAllString(text, "$1")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdRefLink.ReplaceAllString(s, "$1")
	s = mdRefDef.ReplaceAllString(s, "")
	s = autoLink.ReplaceAllString(s, "")
	if removeBareURLs {
		s = bareURL.ReplaceAllString(s, "")
	}
	s = emptyParens.ReplaceAllString(s, "")
	s = hSpaceRuns.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// StripHTMLLinks replaces every <a> element with its inner content.
func StripHTMLLinks(html string) string {
	if html == "" {
		return ""
	}
	return anchorTag.ReplaceAllString(html, "$1")
}
