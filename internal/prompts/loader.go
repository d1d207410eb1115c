// Package prompts holds the embedded prompt templates for persona generation.
// Each JSON file maps prompt keys to templates with {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var files embed.FS

// PersonasFile holds the persona generation prompts.
const PersonasFile = "personas.json"

var (
	mu     sync.RWMutex
	loaded = make(map[string]map[string]string)
)

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

// Get returns the template stored under key in file.
func Get(file, key string) (string, error) {
	set, err := load(file)
	if err != nil {
		return "", err
	}
	tmpl, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return tmpl, nil
}

// MustGet is Get for prompts that must exist at startup.
func MustGet(file, key string) string {
	tmpl, err := Get(file, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Format substitutes data into tmpl. Placeholders without a value are left in place.
func Format(tmpl string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := data[name]; ok {
			return v
		}
		return m
	})
}

// Render loads a template and formats it, failing when a placeholder has no value.
func Render(file, key string, data map[string]string) (string, error) {
	tmpl, err := Get(file, key)
	if err != nil {
		return "", err
	}
	if missing := Missing(tmpl, data); len(missing) > 0 {
		return "", fmt.Errorf("prompt %s/%s: missing values for %s", file, key, strings.Join(missing, ", "))
	}
	return Format(tmpl, data), nil
}

// Missing lists the placeholders in tmpl that data does not supply, sorted.
func Missing(tmpl string, data map[string]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		name := m[1]
		if _, ok := data[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// List returns the keys of file, sorted.
func List(file string) ([]string, error) {
	set, err := load(file)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ClearCache drops parsed files.
func ClearCache() {
	mu.Lock()
	loaded = make(map[string]map[string]string)
	mu.Unlock()
}

func load(file string) (map[string]string, error) {
	mu.RLock()
	set, ok := loaded[file]
	mu.RUnlock()
	if ok {
		return set, nil
	}

	data, err := files.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", file, err)
	}
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", file, err)
	}

	mu.Lock()
	loaded[file] = set
	mu.Unlock()
	return set, nil
}
