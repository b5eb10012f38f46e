package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/shared/config"
	"github.com/radieske/bull-run-boost/internal/shared/logger"
	"github.com/radieske/bull-run-boost/internal/shared/metrics"
)

func rp(to string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, fmt.Errorf("upstream %q: %w", to, err)
	}
	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", u.Host), zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}
	return p, nil
}

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "api-gateway"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	raceProxy, err := rp(cfg.RaceClientURL, log)
	if err != nil {
		log.Fatal("race-client upstream", zap.Error(err))
	}
	auditProxy, err := rp(cfg.AuditURL, log)
	if err != nil {
		log.Fatal("audit upstream", zap.Error(err))
	}

	mux := http.NewServeMux()

	// corrida (ex.: /api/race/v1/race -> race-client, inclusive /ws)
	mux.Handle("/api/race/", http.StripPrefix("/api/race", raceProxy))

	// histórico auditado (ex.: /api/audit/v1/players/{id}/settlements -> audit-worker)
	mux.Handle("/api/audit/", http.StripPrefix("/api/audit", auditProxy))

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: withCORS(mux)}
	go func() {
		log.Info("api-gateway listening",
			zap.String("addr", srv.Addr),
			zap.String("race_client", cfg.RaceClientURL),
			zap.String("audit", cfg.AuditURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("gateway failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("api-gateway stopped")
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
