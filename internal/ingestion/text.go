// Package ingestion turns uploaded CRM exports, PDFs and scraped pages into
// cleaned, chunked source text for persona generation.
package ingestion

import (
	"regexp"
	"strings"
)

var (
	innerSpace  = regexp.MustCompile(`\s+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	bulletMarks = []string{"- ", "* ", "• ", "· "}
)

// CleanText normalizes line endings and whitespace while keeping markdown
// headings, bullet indentation and paragraph breaks. At most one blank line
// separates paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	out := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := strings.Repeat(" ", len(line)-len(trimmed))
	if isBullet(trimmed) {
		return indent + trimmed
	}
	return indent + innerSpace.ReplaceAllString(trimmed, " ")
}

func isBullet(trimmed string) bool {
	for _, mark := range bulletMarks {
		if strings.HasPrefix(trimmed, mark) {
			return true
		}
	}
	return false
}

// Preview returns the first n runes of text.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
