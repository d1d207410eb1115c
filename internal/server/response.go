package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/persona-engine/internal/logger"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 10 << 20

func (s *Server) jsonResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn(r.Context(), "failed to encode response", logger.Err(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.jsonResponse(w, r, status, map[string]string{"error": message})
}

// fail maps err to a status and writes it. Server errors are logged with
// their cause and reported to the client without internals.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request error",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Err(err))
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	s.errorResponse(w, r, status, msg)
}

// decodeJSON reads a JSON body into v, rejecting unknown trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &ErrPayloadTooLarge{Limit: maxJSONBody}
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &ErrValidation{Field: "body", Message: "unexpected data after JSON object"}
	}
	return nil
}
