// This file orchestrates the logo variants service, serving the HTTP API and,
// when NATS is configured, the JetStream worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/logo-variants-service/internal/analysis"
	"github.com/book-expert/logo-variants-service/internal/bgremoval"
	"github.com/book-expert/logo-variants-service/internal/config"
	"github.com/book-expert/logo-variants-service/internal/pipeline"
	"github.com/book-expert/logo-variants-service/internal/server"
	"github.com/book-expert/logo-variants-service/internal/worker"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// main is the entry point of the application.
func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runErr := run(ctx)
	if runErr != nil {
		log.Printf("Fatal application error: %v", runErr)
		stop()
		os.Exit(1)
	}

	log.Println("Application shut down gracefully.")
}

// run initializes all components and serves until ctx is canceled.
func run(ctx context.Context) error {
	cfg, appLogger, setupErr := setupConfigAndLogger()
	if setupErr != nil {
		return setupErr
	}
	defer func() {
		if closeErr := appLogger.Close(); closeErr != nil {
			log.Printf("Warning: failed to close app logger: %v", closeErr)
		}
	}()

	provider := server.LazyService(func() (*pipeline.Service, error) {
		return newPipeline(cfg, appLogger)
	})

	errs := make(chan error, 2)

	if cfg.NATS.URL != "" {
		go func() {
			errs <- runWorker(ctx, cfg, provider, appLogger)
		}()
	} else {
		appLogger.Info("NATS URL not configured; JetStream worker disabled.")
	}

	gin.SetMode(gin.ReleaseMode)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(server.NewHandler(provider, cfg.Limits.MaxUploadBytes, appLogger)),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		appLogger.Info("HTTP server listening on %s", cfg.Server.Addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("HTTP server shutdown: %v", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	return nil
}

// setupConfigAndLogger loads configuration and sets up the main application logger.
func setupConfigAndLogger() (*config.Config, *logger.Logger, error) {
	tempLogger, tempLoggerErr := logger.New(os.TempDir(), "logo-service-bootstrap.log")
	if tempLoggerErr != nil {
		return nil, nil, fmt.Errorf("failed to create bootstrap logger: %w", tempLoggerErr)
	}
	defer func() {
		if closeErr := tempLogger.Close(); closeErr != nil {
			log.Printf("Warning: failed to close temp logger: %v", closeErr)
		}
	}()

	cfg, _, loadErr := config.Load(tempLogger)
	if loadErr != nil {
		return nil, nil, loadErr
	}

	appLogger, loggerErr := logger.New(cfg.Paths.BaseLogsDir, "logo-service.log")
	if loggerErr != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", loggerErr)
	}

	return cfg, appLogger, nil
}

// newPipeline builds the shared pipeline around the HTTP background remover.
func newPipeline(cfg *config.Config, appLogger *logger.Logger) (*pipeline.Service, error) {
	method, methodErr := analysis.ParsePaletteMethod(cfg.Analysis.PaletteMethod)
	if methodErr != nil {
		return nil, fmt.Errorf("invalid analysis.palette_method: %w", methodErr)
	}

	if cfg.Remover.APIKey == "" {
		appLogger.Warn("Background removal API key is not set; requests will fail.")
	}

	remover := bgremoval.NewClient(bgremoval.Options{
		HTTPClient: nil,
		Endpoint:   cfg.Remover.Endpoint,
		APIKey:     cfg.Remover.APIKey,
		Timeout:    cfg.Remover.Timeout.Duration,
	})

	return pipeline.NewService(&pipeline.Options{
		Remover:       remover,
		MaxPixels:     cfg.Limits.MaxPixels,
		PaletteSize:   cfg.Analysis.PaletteSize,
		PaletteMethod: method,
	}, appLogger)
}

// runWorker connects to NATS and consumes logo submissions until ctx ends.
func runWorker(
	ctx context.Context,
	cfg *config.Config,
	provider server.ServiceProvider,
	appLogger *logger.Logger,
) error {
	service, serviceErr := provider()
	if serviceErr != nil {
		return serviceErr
	}

	natsConnection, connErr := nats.Connect(cfg.NATS.URL)
	if connErr != nil {
		return fmt.Errorf("failed to connect to NATS: %w", connErr)
	}
	defer natsConnection.Close()

	appLogger.Info("Connected to NATS server at %s", natsConnection.ConnectedUrl())

	jetStream, jsErr := jetstream.New(natsConnection)
	if jsErr != nil {
		return fmt.Errorf("failed to create JetStream context: %w", jsErr)
	}

	logoWorker, workerErr := worker.New(ctx, jetStream, cfg.NATS, service, appLogger)
	if workerErr != nil {
		return workerErr
	}

	return logoWorker.Run(ctx)
}
