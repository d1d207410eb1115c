package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/db"
	"github.com/jonathan/persona-engine/internal/logger"
)

// sources returns the store, or writes 503 when persistence is disabled.
func (s *Server) sources(w http.ResponseWriter, r *http.Request) (SourceStore, bool) {
	if s.deps.Sources == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "source storage"})
		return nil, false
	}
	return s.deps.Sources, true
}

func sourceID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "invalid source id: " + raw}
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ErrValidation{Field: name, Message: "must be a non-negative integer"}
	}
	return n, nil
}

// handleListSources lists stored sources, newest first.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	store, ok := s.sources(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := db.SourceListOptions{
		SourceType:  db.SourceType(q.Get("source_type")),
		CompanyName: q.Get("company_name"),
	}
	switch opts.SourceType {
	case "", db.SourceTypeFile, db.SourceTypeWebsite:
	default:
		s.fail(w, r, &ErrValidation{Field: "source_type", Message: "must be file or website"})
		return
	}
	var err error
	if opts.Limit, err = queryInt(r, "limit"); err != nil {
		s.fail(w, r, err)
		return
	}
	if opts.Offset, err = queryInt(r, "offset"); err != nil {
		s.fail(w, r, err)
		return
	}

	list, err := store.ListSources(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []db.DataSource{}
	}
	s.jsonResponse(w, r, http.StatusOK, map[string]any{
		"sources": list,
		"count":   len(list),
	})
}

// lookup resolves the {id} path value to an existing source.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (SourceStore, *db.DataSource, bool) {
	store, ok := s.sources(w, r)
	if !ok {
		return nil, nil, false
	}
	id, err := sourceID(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	src, err := store.GetSource(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	if src == nil {
		s.fail(w, r, &ErrNotFound{Resource: "source", ID: id.String()})
		return nil, nil, false
	}
	return store, src, true
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	_, src, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, r, http.StatusOK, src)
}

func (s *Server) handleGetSourceChunks(w http.ResponseWriter, r *http.Request) {
	store, src, ok := s.lookup(w, r)
	if !ok {
		return
	}
	chunks, err := store.GetChunks(r.Context(), src.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if chunks == nil {
		chunks = []db.SourceChunk{}
	}
	s.jsonResponse(w, r, http.StatusOK, map[string]any{
		"source_id": src.ID,
		"chunks":    chunks,
		"count":     len(chunks),
	})
}

// handleDeleteSource removes a source, its chunks and its archived original.
func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	store, src, ok := s.lookup(w, r)
	if !ok {
		return
	}
	deleted, err := store.DeleteSource(r.Context(), src.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !deleted {
		s.fail(w, r, &ErrNotFound{Resource: "source", ID: src.ID.String()})
		return
	}
	if s.deps.Archive != nil && src.StorageKey != nil {
		if err := s.deps.Archive.Delete(r.Context(), *src.StorageKey); err != nil {
			s.log.Warn(r.Context(), "failed to delete archived original",
				logger.String("source_id", src.ID.String()),
				logger.String("key", *src.StorageKey),
				logger.Err(err))
		}
	}
	s.jsonResponse(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}
