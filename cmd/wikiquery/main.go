package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikiquery/internal/config"
	logpkg "github.com/kailas-cloud/wikiquery/internal/logger"
	"github.com/kailas-cloud/wikiquery/internal/metrics"
	chiTransport "github.com/kailas-cloud/wikiquery/internal/transport/chi"
	queryuc "github.com/kailas-cloud/wikiquery/internal/usecase/query"
	"github.com/kailas-cloud/wikiquery/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, logpkg.Options{Level: cfg.Logging.Level, Component: "api"})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting wikiquery API server",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend", cfg.Backend.Driver),
		zap.Bool("breaker", cfg.Breaker.Enabled),
	)

	ctx := context.Background()
	b, err := buildBackends(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up backends", zap.Error(err))
	}
	defer b.close()

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterQueryMetrics()

	querySvc := queryuc.New(b.text, b.graph, b.corpus).
		WithLimits(queryuc.Limits{
			Workers:             cfg.Query.Workers,
			Timeout:             cfg.Query.QueryTimeout(),
			BackendTimeout:      cfg.Query.BackendTimeout(),
			IdentityInlineLimit: cfg.Query.IdentityInlineLimit,
		}).
		WithObserver(metrics.QueryObserver{})

	server := chiTransport.NewServer(querySvc, b.health, logger).
		WithPagination(cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, logger, cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
