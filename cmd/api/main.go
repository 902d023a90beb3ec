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

	"github.com/gevorg96/universe-labs/internal/app"
	"github.com/gevorg96/universe-labs/internal/clock"
	"github.com/gevorg96/universe-labs/internal/config"
	"github.com/gevorg96/universe-labs/internal/logging"
	"github.com/gevorg96/universe-labs/internal/metrics"
	"github.com/gevorg96/universe-labs/internal/storage/postgres"
	transporthttp "github.com/gevorg96/universe-labs/internal/transport/http"
	"github.com/gevorg96/universe-labs/migrations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	bootstrapLogger := logging.New(slog.LevelInfo)
	cfg := config.Load(bootstrapLogger)
	logger := logging.New(cfg.LogLevel)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.Open(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect to db", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Apply(startupCtx, db.Pool()); err != nil {
		logger.Error("apply migrations", "err", err)
		os.Exit(1)
	}

	orderSvc := app.NewOrderService(db, clock.NewSystem())
	m := metrics.NewServerMetrics(prometheus.DefaultRegisterer)
	router := transporthttp.NewRouter(orderSvc, logger, m)

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
	}).Handler(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", "port", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "err", err)
	}
	logger.Info("server stopped")
}
