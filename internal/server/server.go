// Package server provides the HTTP API for persona evaluation, generation,
// source ingestion and company search.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/db"
	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/generation"
	"github.com/jonathan/persona-engine/internal/ingestion"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
	"github.com/jonathan/persona-engine/internal/persona"
	"github.com/jonathan/persona-engine/internal/research"
	"github.com/jonathan/persona-engine/internal/server/middleware"
	"github.com/jonathan/persona-engine/internal/server/ratelimit"
	"github.com/jonathan/persona-engine/internal/storage"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 30 * time.Second

// Evaluator scores a persona set.
type Evaluator interface {
	EvaluatePersonas(ctx context.Context, personas []persona.Record) (*evaluation.Result, error)
}

// Generator produces a persona set with a language model.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// Searcher looks up public material about a company.
type Searcher interface {
	SearchCompany(ctx context.Context, companyName string, opts research.Options) (*research.CompanySearch, error)
}

// Ingester turns uploads and pages into stored sources.
type Ingester interface {
	IngestCRM(ctx context.Context, up ingestion.Upload) (*ingestion.CRMIngested, error)
	IngestPDF(ctx context.Context, up ingestion.Upload) (*ingestion.PDFIngested, error)
	IngestURL(ctx context.Context, companyName, rawURL string, useBrowser bool) (*ingestion.PageIngested, error)
}

// SourceStore reads and deletes stored sources.
type SourceStore interface {
	Ping(ctx context.Context) error
	ListSources(ctx context.Context, opts db.SourceListOptions) ([]db.DataSource, error)
	GetSource(ctx context.Context, id uuid.UUID) (*db.DataSource, error)
	GetChunks(ctx context.Context, sourceID uuid.UUID) ([]db.SourceChunk, error)
	DeleteSource(ctx context.Context, id uuid.UUID) (bool, error)
}

// Deps are the services behind the routes. Evaluator and Ingester are
// required; a nil optional dependency makes its routes answer 503.
type Deps struct {
	Evaluator Evaluator
	Generator Generator
	Searcher  Searcher
	Ingester  Ingester
	Sources   SourceStore
	Archive   storage.Store
	Metrics   *metrics.Manager
	Log       logger.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg        *config.Config
	deps       Deps
	log        logger.Logger
	limiter    *ratelimit.Limiter
	tokens     *TokenService
	auth       *AuthHandler
	handler    http.Handler
	httpServer *http.Server
}

// New wires the routes and middleware. Authentication is enabled when a JWT
// secret is configured.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Evaluator == nil {
		return nil, errors.New("server: evaluator is required")
	}
	if deps.Ingester == nil {
		return nil, errors.New("server: ingester is required")
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		log:     log.Named("server"),
		limiter: ratelimit.NewLimiter(ratelimit.FromSettings(cfg.RateLimit)),
	}

	if cfg.AuthEnabled() {
		jwtCfg, err := config.NewJWTConfig(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT config: %w", err)
		}
		secrets, err := config.NewSecretConfig(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create secret config: %w", err)
		}
		s.tokens = NewTokenService(jwtCfg)
		s.auth = NewAuthHandler(cfg.Auth, secrets, s.tokens)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}
	if s.auth != nil {
		mux.HandleFunc("POST /auth/token", s.auth.IssueToken)
	}

	mux.HandleFunc("POST /personas/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /personas/generate", s.handleGenerate)

	mux.HandleFunc("POST /api/v1/crm/parse", s.handleCRMParse)
	mux.HandleFunc("POST /pdf/process", s.handlePDFProcess)
	mux.HandleFunc("POST /scrape", s.handleScrape)
	mux.HandleFunc("POST /search/company", s.handleCompanySearch)

	mux.HandleFunc("GET /sources", s.handleListSources)
	mux.HandleFunc("GET /sources/{id}", s.handleGetSource)
	mux.HandleFunc("GET /sources/{id}/chunks", s.handleGetSourceChunks)
	mux.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource)

	var h http.Handler = mux
	if s.tokens != nil {
		h = middleware.BearerAuth(s.tokens, "/health", "/metrics", "/auth/token")(h)
	}
	h = s.withRateLimit(h)
	h = middleware.CORS(h)
	h = middleware.Observe(s.log, deps.Metrics)(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "server starting", logger.String("addr", s.httpServer.Addr),
			logger.Bool("auth", s.tokens != nil))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info(context.Background(), "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info(context.Background(), "server stopped")
	return nil
}

// Close releases the rate limiter without serving.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.limiter.Allow(clientAddr(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr is the remote IP, or RemoteAddr when it has no port.
func clientAddr(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	body := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		body["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		body["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	s.log.Warn(r.Context(), "rate limit exceeded",
		logger.String("client", clientAddr(r)),
		logger.String("path", r.URL.Path),
		logger.Int("limit", info.Limit))
	s.jsonResponse(w, r, http.StatusTooManyRequests, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":     "ok",
		"auth":       s.tokens != nil,
		"generation": s.deps.Generator != nil,
		"search":     s.deps.Searcher != nil,
		"archive":    s.deps.Archive != nil,
	}
	if s.deps.Sources == nil {
		status["database"] = "disabled"
	} else if err := s.deps.Sources.Ping(r.Context()); err != nil {
		s.log.Warn(r.Context(), "database ping failed", logger.Err(err))
		status["database"] = "unavailable"
		status["status"] = "degraded"
	} else {
		status["database"] = "ok"
	}
	s.jsonResponse(w, r, http.StatusOK, status)
}
