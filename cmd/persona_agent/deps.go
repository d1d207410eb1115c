package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/config"
	"github.com/jonathan/persona-engine/internal/db"
	"github.com/jonathan/persona-engine/internal/embedding"
	"github.com/jonathan/persona-engine/internal/evaluation"
	"github.com/jonathan/persona-engine/internal/fetch"
	"github.com/jonathan/persona-engine/internal/generation"
	"github.com/jonathan/persona-engine/internal/ingestion"
	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
	"github.com/jonathan/persona-engine/internal/research"
	"github.com/jonathan/persona-engine/internal/storage"
)

// services builds the components a command needs from configuration and
// releases them on close.
type services struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Manager

	db      *db.DB
	closers []func()
}

func setup(cmd *cobra.Command) (*services, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(config.FileEnvVar)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return &services{
		cfg:     cfg,
		log:     logger.New(cmd.ErrOrStderr()),
		metrics: metrics.NewManager(),
	}, nil
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *services) evaluator(ctx context.Context) (*evaluation.Evaluator, error) {
	provider, cleanup, err := embedding.NewFromConfig(ctx, s.cfg, s.log, s.metrics)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	s.closers = append(s.closers, cleanup)
	return evaluation.New(provider,
		evaluation.WithLogger(s.log.Named("evaluation")),
		evaluation.WithMetrics(s.metrics),
	), nil
}

// database connects and migrates once. It returns nil when no URL is configured.
func (s *services) database(ctx context.Context) (*db.DB, error) {
	if s.db != nil || s.cfg.Database.URL == "" {
		return s.db, nil
	}
	database, err := db.Connect(ctx, s.cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	s.db = database
	s.closers = append(s.closers, database.Close)
	return database, nil
}

// archive returns nil when no bucket is configured.
func (s *services) archive(ctx context.Context) (storage.Store, error) {
	store, err := storage.NewFromConfig(ctx, s.cfg.Storage)
	if err != nil || store == nil {
		return nil, err
	}
	return store, nil
}

func (s *services) chunker() *ingestion.Chunker {
	return &ingestion.Chunker{
		ChunkSize:    s.cfg.Chunking.ChunkSize,
		Overlap:      s.cfg.Chunking.Overlap,
		MinChunkSize: s.cfg.Chunking.MinChunkSize,
	}
}

func (s *services) pipeline(ctx context.Context) (*ingestion.Pipeline, error) {
	opts := fetch.DefaultOptions()
	if s.cfg.Fetch.Timeout > 0 {
		opts.Timeout = s.cfg.Fetch.Timeout
	}
	pipelineOpts := []ingestion.PipelineOption{
		ingestion.WithChunker(s.chunker()),
		ingestion.WithScraper(fetch.NewScraper(opts, fetch.NewChromeRenderer(), s.log.Named("fetch"))),
		ingestion.WithPipelineLogger(s.log.Named("ingestion")),
		ingestion.WithPipelineMetrics(s.metrics),
	}

	database, err := s.database(ctx)
	if err != nil {
		return nil, err
	}
	if database != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithStore(database))
	}
	archive, err := s.archive(ctx)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithArchive(archive))
	}
	return ingestion.NewPipeline(pipelineOpts...), nil
}

// generator requires an LLM API key. ev may be nil.
func (s *services) generator(ctx context.Context, ev *evaluation.Evaluator) (*generation.Generator, error) {
	client, err := llm.NewGeminiClient(ctx, llm.FromSettings(s.cfg.LLM), s.cfg.LLM.APIKey)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = client.Close() })

	opts := []generation.Option{
		generation.WithLogger(s.log.Named("generation")),
		generation.WithMetrics(s.metrics),
	}
	if ev != nil {
		opts = append(opts, generation.WithEvaluator(ev))
	}
	database, err := s.database(ctx)
	if err != nil {
		return nil, err
	}
	if database != nil {
		opts = append(opts, generation.WithChunkSource(database))
	}
	return generation.New(client, opts...), nil
}

func (s *services) searcher(ctx context.Context) (*research.Service, error) {
	return research.NewFromConfig(ctx, s.cfg.Search, s.log.Named("research"), s.metrics)
}
