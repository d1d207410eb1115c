// Package schemas embeds the JSON Schemas for persona sets and evaluation results.
package schemas

import "embed"

// Schema file names.
const (
	PersonaSet       = "persona_set.schema.json"
	EvaluationResult = "evaluation_result.schema.json"
)

//go:embed *.schema.json
var FS embed.FS
