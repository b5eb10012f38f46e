package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/shared/config"
	"github.com/radieske/bull-run-boost/internal/shared/logger"
	"github.com/radieske/bull-run-boost/internal/shared/metrics"
	"github.com/radieske/bull-run-boost/internal/simulator"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "race-simulator"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewSimulator(prometheus.DefaultRegisterer)
	sim := simulator.NewServer(log, cfg.SimulatorSeed, float64(cfg.StartBalance))
	sim.OnConnect = m.Connections.Inc
	sim.OnDisconnect = m.Connections.Dec
	sim.OnMessage = func(t string) { m.Messages.WithLabelValues(t).Inc() }

	r := chi.NewRouter()
	r.Get("/ws", sim.HandleWS)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort)

	go func() {
		log.Info("race simulator running",
			zap.String("addr", srv.Addr),
			zap.String("metrics", metricsSrv.Addr),
			zap.Int64("seed", sim.Seed),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("public server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
