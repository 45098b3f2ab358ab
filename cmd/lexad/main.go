package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/lexakit/lexa/internal/auth"
	"github.com/lexakit/lexa/internal/common"
	"github.com/lexakit/lexa/internal/export"
	"github.com/lexakit/lexa/internal/extraction"
	"github.com/lexakit/lexa/internal/jobs"
	"github.com/lexakit/lexa/internal/llm"
	"github.com/lexakit/lexa/internal/llm/edge"
	"github.com/lexakit/lexa/internal/llm/engine"
	"github.com/lexakit/lexa/internal/llm/gemini"
	"github.com/lexakit/lexa/internal/llm/ollama"
	"github.com/lexakit/lexa/internal/llm/openai"
	"github.com/lexakit/lexa/internal/provider"
	"github.com/lexakit/lexa/internal/server"
	"github.com/lexakit/lexa/internal/upload"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server.fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	exporter, err := export.NewService(cfg.Uploads.OutputsDir, logger)
	if err != nil {
		return err
	}

	uploader, err := upload.NewHandler(
		cfg.Uploads.UploadsDir,
		cfg.Uploads.MaxFileSizeBytes(),
		cfg.Uploads.AllowedExtensions,
		logger,
	)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}
	invoker := extraction.NewBackendInvoker(
		engine.New(logger),
		map[provider.Tag]llm.Completer{
			provider.OpenAI: openai.NewClient(logger),
			provider.Gemini: gemini.NewClient(httpClient, logger),
			provider.Ollama: ollama.NewClient(httpClient, logger),
		},
		edge.NewClient(cfg.Providers.EdgeBaseURL, cfg.Providers.EdgeAccountID, httpClient, logger),
		cfg.Providers.Timeout,
		logger,
	)
	svc := extraction.NewService(cfg, invoker, logger)

	// Persist artifacts before the job flips to completed so the download
	// endpoint never races the writer.
	runJob := func(ctx context.Context, jobID uuid.UUID, req *extraction.Request, progress func(float64)) ([]extraction.Record, error) {
		records, err := svc.Run(ctx, req, progress)
		if err != nil {
			return nil, err
		}
		if err := exporter.SaveResults(jobID, records); err != nil {
			return nil, err
		}
		return records, nil
	}

	tracker := jobs.NewTracker(store, runJob, logger,
		[]jobs.QueueOption{
			jobs.WithWorkers(cfg.Jobs.Workers),
			jobs.WithQueueSize(cfg.Jobs.QueueSize),
			jobs.WithJobTimeout(cfg.Jobs.Timeout),
		},
		jobs.WithRetention(cfg.Jobs.Retention),
		jobs.WithSweepHook(func(id uuid.UUID) { exporter.Delete(id) }),
	)
	tracker.StartSweeper(ctx, time.Hour)

	users := auth.NewUserStore()
	if err := users.Seed(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, auth.RoleAdmin, "user"); err != nil {
		return err
	}

	issuer, err := auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg, tracker, exporter, uploader, users, issuer, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server.shutdown_error", "error", err)
	}
	tracker.Shutdown(shutdownCtx)
	logger.Info("server.stopped")
	return nil
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (jobs.Store, error) {
	dsn := cfg.Jobs.StoreDSN
	switch {
	case dsn == "":
		return jobs.NewMemoryStore(), nil
	case len(dsn) > 7 && dsn[:7] == "sqlite:":
		return jobs.OpenSQLite(ctx, dsn[7:])
	default:
		return jobs.OpenPostgres(ctx, dsn, logger)
	}
}
