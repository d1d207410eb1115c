package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only whitespace", "   \n  \n  ", ""},
		{"headings keep marker, lose indent", "  # Title\n## Subtitle\nContent", "# Title\n## Subtitle\nContent"},
		{"bullets keep indent", "- Item 1\n  * Nested   item", "- Item 1\n  * Nested   item"},
		{"inner whitespace collapsed", "Line    with \t multiple    spaces", "Line with multiple spaces"},
		{"blank runs collapsed", "Line 1\n\n\n\n\nLine 2", "Line 1\n\nLine 2"},
		{"line endings", "Line 1\r\nLine 2\rLine 3", "Line 1\nLine 2\nLine 3"},
		{"leading indent kept", "Intro\n    Indented   line", "Intro\n    Indented line"},
		{"unicode kept", "Acme  🚀  spéciàl", "Acme 🚀 spéciàl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestCleanText_Deterministic(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	assert.Equal(t, CleanText(input), CleanText(input))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "héll", Preview("héllo", 4))
	assert.Equal(t, "hi", Preview("hi", 10))
}

func TestStripLinks(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		removeRaw bool
		want      string
	}{
		{"empty", "", true, ""},
		{"inline link and image", "See [docs](https://x.com/a) and ![logo](img.png)", true, "See docs and logo"},
		{"mailto", "Email [sales](mailto:sales@acme.com) today", true, "Email sales today"},
		{"reference link and definition", "Read [guide][1]\n\n[1]: https://x.com/guide", true, "Read guide"},
		{"autolink", "Visit <https://acme.com> today", true, "Visit today"},
		{"bare url removed", "Go to https://acme.com/x now", true, "Go to now"},
		{"bare url kept", "Go to https://acme.com/x now", false, "Go to https://acme.com/x now"},
		{"empty parens tidied", "Our site (https://acme.com) is new", true, "Our site is new"},
		{"relative link untouched", "[home](/index.html)", true, "[home](/index.html)"},
		{"blank lines collapsed", "a\n\n\n\nb", true, "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripLinks(tt.input, tt.removeRaw))
		})
	}
}

func TestStripHTMLLinks(t *testing.T) {
	assert.Equal(t, "", StripHTMLLinks(""))
	assert.Equal(t, `<p>Hi there</p>`, StripHTMLLinks(`<p>Hi <a href="x">there</a></p>`))
	assert.Equal(t, "\nCase study", StripHTMLLinks("<A HREF='y' class=\"c\">\nCase study</A>"))
	assert.Equal(t, "one and two", StripHTMLLinks(`<a href="1">one</a> and <a href="2">two</a>`))
}
