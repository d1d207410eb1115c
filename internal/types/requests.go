// Package types holds the request and response bodies of the HTTP API.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// Generation bounds.
const (
	MinGenerateCount     = 3
	MaxGenerateCount     = 7
	DefaultGenerateCount = 5
)

// EvaluateRequest is the body of POST /personas/evaluate. Personas holds
// either an array or an object with a "personas" array.
type EvaluateRequest struct {
	Personas    json.RawMessage `json:"personas" validate:"required"`
	CompanyName string          `json:"company_name,omitempty" validate:"max=200"`
}

// GenerateRequest is the body of POST /personas/generate.
type GenerateRequest struct {
	CompanyName   string      `json:"company_name" validate:"required,max=200"`
	GenerateCount int         `json:"generate_count" validate:"min=3,max=7"`
	Context       string      `json:"context,omitempty" validate:"max=50000"`
	SourceIDs     []uuid.UUID `json:"source_ids,omitempty" validate:"max=20"`
	Evaluate      bool        `json:"evaluate,omitempty"`
}

// ScrapeRequest is the body of POST /scrape.
type ScrapeRequest struct {
	URL         string `json:"url" validate:"required,http_url"`
	UseBrowser  bool   `json:"use_browser,omitempty"`
	CompanyName string `json:"company_name,omitempty" validate:"max=200"`
}

// CompanySearchRequest is the body of POST /search/company.
type CompanySearchRequest struct {
	CompanyName        string `json:"company_name" validate:"required,max=200"`
	IncludeNews        *bool  `json:"include_news,omitempty"`
	IncludeCaseStudies *bool  `json:"include_case_studies,omitempty"`
}

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
}

// TokenResponse is returned by POST /auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UploadResponse wraps the result of a file upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Warning string `json:"warning,omitempty"`
}

// Normalize fills defaults before validation.
func (r *GenerateRequest) Normalize() {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	if r.GenerateCount == 0 {
		r.GenerateCount = DefaultGenerateCount
	}
}

// Normalize trims the company name.
func (r *CompanySearchRequest) Normalize() {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
}

// News reports whether news results were requested. Unset means yes.
func (r *CompanySearchRequest) News() bool {
	return r.IncludeNews == nil || *r.IncludeNews
}

// CaseStudies reports whether case studies were requested. Unset means yes.
func (r *CompanySearchRequest) CaseStudies() bool {
	return r.IncludeCaseStudies == nil || *r.IncludeCaseStudies
}

// Validate checks an EvaluateRequest.
func (r *EvaluateRequest) Validate() error { return check(r) }

// Validate checks a GenerateRequest.
func (r *GenerateRequest) Validate() error { return check(r) }

// Validate checks a ScrapeRequest.
func (r *ScrapeRequest) Validate() error { return check(r) }

// Validate checks a CompanySearchRequest.
func (r *CompanySearchRequest) Validate() error { return check(r) }

// Validate checks a TokenRequest.
func (r *TokenRequest) Validate() error { return check(r) }

// FieldError describes one rejected request field.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

// RequestError collects the field errors of one request.
type RequestError struct {
	Fields []FieldError
}

func (e *RequestError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = describe(f)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func describe(f FieldError) string {
	switch f.Rule {
	case "required":
		return f.Field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", f.Field, f.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", f.Field, f.Param)
	case "http_url":
		return f.Field + " must be an http(s) URL"
	default:
		return fmt.Sprintf("%s failed %s", f.Field, f.Rule)
	}
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &RequestError{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{Field: jsonName(v, fe.StructField()), Rule: fe.Tag(), Param: fe.Param()}
	}
	return out
}
