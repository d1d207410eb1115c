package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API. Persona generation needs an LLM API key and company search
needs search credentials; without them those routes answer 503. Source storage
is enabled when a database URL is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := setup(cmd)
	if err != nil {
		return err
	}
	defer svc.close()
	if servePort > 0 {
		svc.cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ev, err := svc.evaluator(ctx)
	if err != nil {
		return err
	}
	pipeline, err := svc.pipeline(ctx)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	deps := server.Deps{
		Evaluator: ev,
		Ingester:  pipeline,
		Metrics:   svc.metrics,
		Log:       svc.log,
	}

	database, err := svc.database(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		deps.Sources = database
	}
	if deps.Archive, err = svc.archive(ctx); err != nil {
		return err
	}

	if gen, err := svc.generator(ctx, ev); err != nil {
		svc.log.Warn(ctx, "persona generation disabled", logger.Err(err))
	} else {
		deps.Generator = gen
	}
	if search, err := svc.searcher(ctx); err != nil {
		svc.log.Warn(ctx, "company search disabled", logger.Err(err))
	} else {
		deps.Searcher = search
	}

	srv, err := server.New(svc.cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run(ctx)
}
