package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	ClearCache()

	tmpl, err := Get(PersonasFile, "generate")
	require.NoError(t, err)
	assert.Contains(t, tmpl, "{{.CompanyName}}")

	_, err = Get("nonexistent.json", "generate")
	assert.ErrorContains(t, err, "failed to read prompt file")

	_, err = Get(PersonasFile, "nonexistent")
	assert.ErrorContains(t, err, "not found")
}

func TestMustGet(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() { MustGet("nonexistent.json", "x") })
	assert.NotPanics(t, func() { assert.NotEmpty(t, MustGet(PersonasFile, "system")) })
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data map[string]string
		want string
	}{
		{"all values", "Hi {{.Name}} at {{.Company}}", map[string]string{"Name": "Ana", "Company": "Acme"}, "Hi Ana at Acme"},
		{"repeated", "{{.A}}-{{.A}}", map[string]string{"A": "x"}, "x-x"},
		{"missing left in place", "Hi {{.Name}}", nil, "Hi {{.Name}}"},
		{"value containing placeholder syntax", "{{.A}}", map[string]string{"A": "{{.B}}", "B": "no"}, "{{.B}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.tmpl, tt.data))
		})
	}
}

func TestMissing(t *testing.T) {
	got := Missing("{{.B}} {{.A}} {{.B}} {{.C}}", map[string]string{"C": ""})
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestRender_PersonaPrompt(t *testing.T) {
	ClearCache()

	_, err := Render(PersonasFile, "generate", map[string]string{"CompanyName": "Acme"})
	assert.ErrorContains(t, err, "missing values for Context, Count, TierTargets")

	out, err := Render(PersonasFile, "generate", map[string]string{
		"CompanyName": "Acme",
		"Context":     "Acme sells robots.",
		"Count":       "5",
		"TierTargets": "tier_1: 2, tier_2: 2, tier_3: 1",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "exactly 5 buyer personas")
	assert.NotContains(t, out, "{{.")
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(PersonasFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"generate", "no-context", "system"}, keys)
}
