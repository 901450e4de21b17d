package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dubbing-orchestrator/internal/config"
	"dubbing-orchestrator/internal/infra/adapters/stages"
	"dubbing-orchestrator/internal/infra/api"
	"dubbing-orchestrator/internal/infra/logging"
	"dubbing-orchestrator/internal/infra/metrics"
	"dubbing-orchestrator/internal/infra/sched"
	"dubbing-orchestrator/internal/infra/worker"
	"dubbing-orchestrator/internal/usecase"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the pipeline workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Debug)
	metrics.SetBuildInfo(version, commit)
	logger.Info().Str("env", cfg.Env).Str("version", version).Msg("starting dubbing orchestrator")
	defer logger.Info().Msg("dubbing orchestrator stopped")

	for _, dir := range []string{cfg.DataDir, cfg.SamplesDir, cfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := buildBackends(ctx, cfg, logging.Component(logger, "backends"))
	if err != nil {
		return err
	}
	defer b.Close()

	// pipelines run on their own context so a signal lets in-flight jobs finish
	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()
	pool := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, logger)
	pool.Start(poolCtx)

	pipeline := usecase.NewPipelineUseCase(b.jobs, stages.Placeholders(), b.media, b.locker,
		usecase.PipelineOptions{TempDir: cfg.TempDir, LockTTL: cfg.Pipeline.LockTTL},
		logging.Component(logger, "pipeline"))
	jobs := usecase.NewJobUseCase(b.jobs, b.media, pool, pipeline,
		usecase.Languages{Input: cfg.SupportedInputLanguages, Output: cfg.SupportedOutputLanguages},
		logging.Component(logger, "jobs"))

	auth := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if !auth.Enabled() {
		logger.Warn().Msg("auth.jwt_secret not set; job API is unauthenticated")
	}
	srv := api.NewHTTPServer(cfg.HTTP, api.NewRouter(cfg, jobs, auth, logging.Component(logger, "http")))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("prefix", cfg.APIV1Prefix).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if sw, ok := b.media.(sched.Sweeper); ok {
		sweeper := sched.NewUploadSweeper(cfg.Storage.SweepInterval, cfg.Storage.StagedTTL, sw, logger)
		g.Go(func() error { return sweeper.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	})
	err = g.Wait()

	pool.Stop()
	return err
}
