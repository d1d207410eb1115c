package persona

import "strings"

// maxRenderedRoles caps how many job titles go into the rendered text.
const maxRenderedRoles = 5

// RenderText converts a persona into the labelled text block used for embedding.
// Missing fields render as empty labelled lines so every persona yields exactly one
// non-empty block. The description is never truncated.
func RenderText(r Record) string {
	parts := []string{
		"Persona: " + String(r, FieldName),
		"Industry: " + String(r, FieldIndustry),
		"Location: " + String(r, FieldLocation),
		"Company Size: " + String(r, FieldCompanySizeRange),
		"Company Type: " + String(r, FieldCompanyType),
	}

	if titles := Strings(r, FieldJobTitles); len(titles) > 0 {
		if len(titles) > maxRenderedRoles {
			titles = titles[:maxRenderedRoles]
		}
		parts = append(parts, "Target Roles: "+strings.Join(titles, ", "))
	}

	parts = append(parts, "Description: "+String(r, FieldDescription))
	return strings.Join(parts, "\n")
}

// RenderAll renders every record, preserving order.
func RenderAll(records []Record) []string {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = RenderText(r)
	}
	return texts
}
