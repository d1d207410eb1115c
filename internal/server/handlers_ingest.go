package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jonathan/persona-engine/internal/ingestion"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/research"
	"github.com/jonathan/persona-engine/internal/types"
)

// multipartOverhead is allowed on top of the file limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// readUpload reads the "file" part of a multipart form. It enforces the
// extension and size limit and returns a warning for large files.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, ext string) (ingestion.Upload, string, error) {
	limit := s.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ingestion.Upload{}, "", &ErrPayloadTooLarge{Limit: limit}
		}
		return ingestion.Upload{}, "", &ErrValidation{Field: "file", Message: "invalid multipart form: " + err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return ingestion.Upload{}, "", &ErrValidation{Field: "file", Message: "file is required"}
	}
	defer func() { _ = file.Close() }()

	if !strings.EqualFold(filepath.Ext(header.Filename), ext) {
		return ingestion.Upload{}, "", &ErrValidation{Field: "file", Message: fmt.Sprintf("only %s files are supported", ext)}
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return ingestion.Upload{}, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return ingestion.Upload{}, "", &ErrPayloadTooLarge{Limit: limit}
	}
	if len(data) == 0 {
		return ingestion.Upload{}, "", &ErrValidation{Field: "file", Message: "file is empty"}
	}

	var warning string
	if warn := s.cfg.Server.WarnUploadBytes; warn > 0 && int64(len(data)) > warn {
		warning = fmt.Sprintf("Large file detected (%.1fMB). Processing completed successfully.",
			float64(len(data))/(1024*1024))
	}
	return ingestion.Upload{
		CompanyName: strings.TrimSpace(r.FormValue("company_name")),
		FileName:    filepath.Base(header.Filename),
		Data:        data,
	}, warning, nil
}

// handleCRMParse parses and stores a CRM CSV export.
func (s *Server) handleCRMParse(w http.ResponseWriter, r *http.Request) {
	up, warning, err := s.readUpload(w, r, ".csv")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.deps.Ingester.IngestCRM(r.Context(), up)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info(r.Context(), "crm file ingested",
		logger.String("file", up.FileName),
		logger.Int("bytes", len(up.Data)),
		logger.Bool("duplicate", result.Duplicate))
	s.jsonResponse(w, r, http.StatusOK, types.UploadResponse{Success: true, Data: result, Warning: warning})
}

// handlePDFProcess extracts and stores a PDF.
func (s *Server) handlePDFProcess(w http.ResponseWriter, r *http.Request) {
	up, warning, err := s.readUpload(w, r, ".pdf")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.deps.Ingester.IngestPDF(r.Context(), up)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info(r.Context(), "pdf ingested",
		logger.String("file", up.FileName),
		logger.Int("pages", result.PageCount))
	s.jsonResponse(w, r, http.StatusOK, types.UploadResponse{Success: true, Data: result, Warning: warning})
}

// handleScrape fetches, cleans and stores a web page.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req types.ScrapeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.deps.Ingester.IngestURL(r.Context(), req.CompanyName, req.URL, req.UseBrowser || s.cfg.Fetch.UseBrowser)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, r, http.StatusOK, types.UploadResponse{Success: true, Data: result})
}

// handleCompanySearch finds a company's site, news and case studies.
func (s *Server) handleCompanySearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Searcher == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "company search"})
		return
	}
	var req types.CompanySearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.deps.Searcher.SearchCompany(r.Context(), req.CompanyName, research.Options{
		IncludeNews:        req.News(),
		IncludeCaseStudies: req.CaseStudies(),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, r, http.StatusOK, result)
}
