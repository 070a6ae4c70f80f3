package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"finboard/internal/cache"
	"finboard/internal/cli"
	"finboard/internal/core"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/store"
)

const initialLoadTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := cli.ShutdownContext()
	defer stop()

	backend := cli.InitBackend(ctx, logger, cfg)

	st := store.New(store.WithConflictTTL(cfg.ConflictErrorTTL), store.WithLogger(logger))
	defer st.Close()

	categories := cache.NewLRUCache[[]core.Category](4, cfg.CategoryCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(categories)
	cacheManager.StartCleanup(5 * time.Minute)
	defer cacheManager.Stop()

	publisher := cli.NewPublisher(logger, cfg)
	defer publisher.Close()

	opts := services.Options{
		Backend:    backend,
		Store:      st,
		Categories: categories,
		Publisher:  publisher,
		Logger:     logger,
	}
	if snaps := cli.OpenSnapshot(logger, cfg.SnapshotDBPath); snaps != nil {
		defer snaps.Close()
		opts.Snapshots = snaps
	}
	svc := services.NewFinanceService(opts)

	// the API serves while the first load runs; /readyz reports when it is done
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, initialLoadTimeout)
		defer cancel()
		if err := svc.Load(loadCtx); err != nil {
			logger.Warn("Initial load failed", log.FieldError, err.Error())
		}
	}()

	srv := apphttp.NewServer(cfg.Addr(), svc, logger)
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting finboard server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully")
}
