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

	"go.uber.org/zap"

	"docflow/internal/auth"
	"docflow/internal/config"
	"docflow/internal/handler"
	"docflow/internal/logging"
	"docflow/internal/processor"
	"docflow/internal/router"
	"docflow/internal/service"
	"docflow/internal/store"
	"docflow/internal/workflow"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence backend
	backend, err := store.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	defer func() { _ = backend.Close() }()

	// Processing API client
	client := processor.NewClient(&cfg.Processor, processor.WithLogger(logger.Named("processor")))

	// Per-user workflow sessions
	machine := workflow.Machine{SoftResetOnBack: cfg.Workflow.SoftResetOnBack}
	sessions := workflow.NewRegistry(func(ownerID string) *workflow.Session {
		return workflow.NewSession(ownerID, workflow.SessionConfig{
			Machine:    machine,
			Processor:  client,
			Store:      backend.Store,
			ResetDelay: cfg.Workflow.ResetDelay,
			Logger:     logger.Named("workflow"),
		})
	}, logger.Named("sessions"))
	defer sessions.CloseAll()

	if cfg.Workflow.SessionMaxAge > 0 {
		interval := cfg.Workflow.SessionMaxAge / 2
		if interval < time.Minute {
			interval = time.Minute
		}
		go sessions.StartJanitor(ctx, interval, cfg.Workflow.SessionMaxAge)
	}

	// Services and handlers
	authSvc := auth.NewService(&cfg.JWT)
	workflowSvc := service.NewWorkflowService(sessions, &cfg.Workflow, logger.Named("service"))

	authH := handler.NewAuthHandler(workflowSvc, logger)
	workflowH := handler.NewWorkflowHandler(workflowSvc, logger)
	healthH := handler.NewHealthHandler(readinessChecks(backend))

	r := router.Setup(cfg, logger.Named("http"), authSvc, authH, workflowH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("store", backend.Name),
			zap.String("processor", cfg.Processor.Endpoint))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// readinessChecks returns the dependency probes for /readyz.
func readinessChecks(backend *store.Backend) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{}
	if p, ok := backend.Store.(interface{ Ping(context.Context) error }); ok {
		checks[backend.Name] = p.Ping
	}
	return checks
}
