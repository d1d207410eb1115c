package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/persona-engine/internal/embedding"
	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/fetch"
	"github.com/jonathan/persona-engine/internal/generation"
	"github.com/jonathan/persona-engine/internal/ingestion"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/persona"
	"github.com/jonathan/persona-engine/internal/research"
	"github.com/jonathan/persona-engine/internal/types"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &ErrValidation{Field: "id", Message: "bad"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("handler: %w", &ErrValidation{Field: "id"}), http.StatusBadRequest},
		{"too few personas", &evaluation.InputError{PersonaCount: 1}, http.StatusBadRequest},
		{"csv parse", &ingestion.ParseError{Message: "empty"}, http.StatusBadRequest},
		{"persona decode", &persona.DecodeError{Message: "not an array"}, http.StatusBadRequest},
		{"request dto", &types.RequestError{}, http.StatusBadRequest},
		{"search request", &research.RequestError{Message: "empty name"}, http.StatusBadRequest},
		{"generation input", &generation.Error{Stage: "context", Message: "no source text"}, http.StatusBadRequest},
		{"credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"not found", &ErrNotFound{Resource: "source", ID: "x"}, http.StatusNotFound},
		{"too large", &ErrPayloadTooLarge{Limit: 20 << 20}, http.StatusRequestEntityTooLarge},
		{"pdf extraction", &ingestion.ExtractError{Message: "pdftotext failed"}, http.StatusUnprocessableEntity},
		{"unavailable", &ErrUnavailable{Feature: "search"}, http.StatusServiceUnavailable},
		{"embedding provider", &embedding.ProviderError{Provider: "openai", Message: "timeout"}, http.StatusBadGateway},
		{"model", &llm.Error{Model: "gemini-2.5-flash", Message: "blocked"}, http.StatusBadGateway},
		{"generation upstream", &generation.Error{Stage: "llm", Message: "failed", Cause: errors.New("x")}, http.StatusBadGateway},
		{"search backend", &research.BackendError{Backend: "google", Message: "quota"}, http.StatusBadGateway},
		{"page fetch", &fetch.Error{URL: "https://example.com", StatusCode: 404, Message: "not found"}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "file too large: limit is 20 MB", (&ErrPayloadTooLarge{Limit: 20 << 20}).Error())
	assert.Equal(t, "source not found: abc", (&ErrNotFound{Resource: "source", ID: "abc"}).Error())
	assert.Equal(t, "company search is not configured", (&ErrUnavailable{Feature: "company search"}).Error())
}
