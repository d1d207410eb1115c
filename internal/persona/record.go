// Package persona defines buyer-persona records and the helpers that read them uniformly,
// whether they arrive as typed structs or as decoded JSON objects.
package persona

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names shared by every persona representation.
const (
	FieldName              = "persona_name"
	FieldTier              = "tier"
	FieldJobTitles         = "job_titles"
	FieldExcludedJobTitles = "excluded_job_titles"
	FieldIndustry          = "industry"
	FieldCompanySizeRange  = "company_size_range"
	FieldCompanyType       = "company_type"
	FieldLocation          = "location"
	FieldDescription       = "description"
)

// RequiredFields lists the nine fields a complete persona carries, in completeness order.
var RequiredFields = []string{
	FieldName,
	FieldTier,
	FieldJobTitles,
	FieldExcludedJobTitles,
	FieldIndustry,
	FieldCompanySizeRange,
	FieldCompanyType,
	FieldLocation,
	FieldDescription,
}

// Record is anything that can look up persona fields by name.
// A missing field reports ok=false and is treated the same as a null value.
type Record interface {
	Field(name string) (any, bool)
}

// Persona is the typed persona record produced by generation.
type Persona struct {
	Name              string   `json:"persona_name" validate:"required"`
	Tier              string   `json:"tier" validate:"required"`
	JobTitles         []string `json:"job_titles" validate:"required,min=1,dive,required"`
	ExcludedJobTitles []string `json:"excluded_job_titles,omitempty"`
	Industry          string   `json:"industry" validate:"required"`
	CompanySizeRange  string   `json:"company_size_range,omitempty"`
	CompanyType       string   `json:"company_type,omitempty"`
	Location          string   `json:"location,omitempty"`
	Description       string   `json:"description" validate:"required"`
}

// Field implements Record.
func (p *Persona) Field(name string) (any, bool) {
	switch name {
	case FieldName:
		return p.Name, true
	case FieldTier:
		return p.Tier, true
	case FieldJobTitles:
		return p.JobTitles, true
	case FieldExcludedJobTitles:
		return p.ExcludedJobTitles, true
	case FieldIndustry:
		return p.Industry, true
	case FieldCompanySizeRange:
		return p.CompanySizeRange, true
	case FieldCompanyType:
		return p.CompanyType, true
	case FieldLocation:
		return p.Location, true
	case FieldDescription:
		return p.Description, true
	}
	return nil, false
}

// Validate checks the structural requirements of a generated persona.
func (p *Persona) Validate() error {
	return validator.New().Struct(p)
}

// Map adapts a decoded JSON object to Record.
type Map map[string]any

// Field implements Record.
func (m Map) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Present reports whether the named field holds a truthy value: not null,
// not an empty string or collection, not a zero number and not false.
func Present(r Record, name string) bool {
	v, ok := r.Field(name)
	if !ok || v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// String returns the named field as text. Missing and null fields yield "".
func String(r Record, name string) string {
	v, ok := r.Field(name)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Strings returns the named field as a list of strings. It accepts []string,
// []any (as decoded from JSON) and a lone non-empty string.
func Strings(r Record, name string) []string {
	v, ok := r.Field(name)
	if !ok || v == nil {
		return nil
	}
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	case string:
		if strings.TrimSpace(vals) == "" {
			return nil
		}
		return []string{vals}
	}
	return nil
}

// Category returns the field value for grouping, substituting fallback for missing or empty values.
func Category(r Record, name, fallback string) string {
	if s := String(r, name); s != "" {
		return s
	}
	return fallback
}
