package server

import (
	"net/http"

	"github.com/jonathan/persona-engine/internal/generation"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/persona"
	"github.com/jonathan/persona-engine/internal/types"
)

// handleEvaluate scores a submitted persona set.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req types.EvaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	records, err := persona.Decode(req.Personas)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.deps.Evaluator.EvaluatePersonas(r.Context(), records)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info(r.Context(), "personas evaluated",
		logger.String("company", req.CompanyName),
		logger.Int("personas", len(records)),
		logger.Float64("overall_score", result.OverallScore))
	s.jsonResponse(w, r, http.StatusOK, result)
}

// handleGenerate produces a persona set for a company.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generator == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "persona generation"})
		return
	}
	var req types.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.deps.Generator.Generate(r.Context(), generation.Request{
		CompanyName: req.CompanyName,
		Count:       req.GenerateCount,
		Context:     req.Context,
		SourceIDs:   req.SourceIDs,
		Evaluate:    req.Evaluate,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, r, http.StatusOK, result)
}
