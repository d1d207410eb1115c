package server

import (
	"errors"
	"fmt"
	"net/http"

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

// ErrValidation indicates a rejected request field.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrPayloadTooLarge indicates an upload over the size limit.
type ErrPayloadTooLarge struct {
	Limit int64
}

func (e *ErrPayloadTooLarge) Error() string {
	return fmt.Sprintf("file too large: limit is %d MB", e.Limit/(1024*1024))
}

// ErrUnavailable indicates a feature whose backing service is not configured.
type ErrUnavailable struct {
	Feature string
}

func (e *ErrUnavailable) Error() string {
	return e.Feature + " is not configured"
}

// ErrInvalidCredentials indicates a failed token request.
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid client credentials"
}

// HTTPStatus maps an error to its response status.
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		notFound     *ErrNotFound
		tooLarge     *ErrPayloadTooLarge
		unavailable  *ErrUnavailable
		credentials  *ErrInvalidCredentials
		input        *evaluation.InputError
		parse        *ingestion.ParseError
		extract      *ingestion.ExtractError
		decode       *persona.DecodeError
		request      *types.RequestError
		searchReq    *research.RequestError
		provider     *embedding.ProviderError
		model        *llm.Error
		gen          *generation.Error
		searchRemote *research.BackendError
		page         *fetch.Error
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &input), errors.As(err, &parse),
		errors.As(err, &decode), errors.As(err, &request), errors.As(err, &searchReq):
		return http.StatusBadRequest
	case errors.As(err, &credentials):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &extract):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &gen) && gen.Cause == nil && (gen.Stage == "context" || gen.Stage == "prompt"):
		return http.StatusBadRequest
	case errors.As(err, &provider), errors.As(err, &model), errors.As(err, &gen),
		errors.As(err, &searchRemote), errors.As(err, &page):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
