package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aistats/gateway/internal/codec"
	"github.com/aistats/gateway/internal/codec/anthropicmsg"
	"github.com/aistats/gateway/internal/codec/openaichat"
	"github.com/aistats/gateway/internal/codec/responsesapi"
	"github.com/aistats/gateway/internal/config"
	"github.com/aistats/gateway/internal/core/domain"
	"github.com/aistats/gateway/internal/core/ports"
	"github.com/aistats/gateway/internal/metrics"
	"github.com/aistats/gateway/internal/pipeline"
	"github.com/aistats/gateway/internal/registry"
	"github.com/aistats/gateway/internal/server"
	"github.com/aistats/gateway/internal/storage"
	"github.com/aistats/gateway/internal/storage/memory"
	"github.com/aistats/gateway/internal/storage/sqlite"
	"github.com/aistats/gateway/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("GW_CONFIG"), "path to yaml config file")
	flag.Parse()

	// Missing .env is fine; explicit env always wins.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	shutdownTracer, err := telemetry.InitTracer("gateway", logger)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracer(ctx)
	}()

	audit, err := openAuditStore(cfg.Audit)
	if err != nil {
		return err
	}
	defer audit.Close()

	reg := registry.New(cfg.Models, logger)
	if *configPath != "" {
		if err := reg.Watch(*configPath); err != nil {
			return err
		}
	}

	codecs, err := codec.NewRegistry(openaichat.New(), responsesapi.New(), anthropicmsg.New())
	if err != nil {
		return err
	}

	m := metrics.New()
	runner := pipeline.NewRunner(pipeline.Options{
		Registry: reg,
		Codecs:   codecs,
		Executor: unconfiguredExecutor{},
		Audit:    audit,
		Metrics:  m,
		Logger:   logger,
		Debug:    cfg.Debug.Verbose,
	})

	srv := server.New(cfg.Server.Port, cfg.Server.RequestTimeout, runner, m, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", srv.Port),
		Handler: srv.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", srv.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func openAuditStore(cfg config.AuditConfig) (storage.AuditStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.New(0), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "gateway-audit.db"
		}
		return sqlite.New(path)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// unconfiguredExecutor stands in until an upstream transport is wired. Every
// request is rejected with a provider-attributed 502 so the routing surface
// stays fully exercisable.
type unconfiguredExecutor struct{}

func (unconfiguredExecutor) Execute(_ context.Context, in ports.ExecuteInput) (*ports.ExecuteResult, error) {
	return &ports.ExecuteResult{
		Err: &domain.ErrorResponse{
			Status:      http.StatusBadGateway,
			Code:        domain.ErrCodePipelineExecution,
			Description: fmt.Sprintf("no upstream transport configured for provider %q", in.Provider.ProviderID),
			RequestID:   in.RequestID,
		},
	}, nil
}
