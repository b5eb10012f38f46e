package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/audit"
	"github.com/radieske/bull-run-boost/internal/shared/cache"
	"github.com/radieske/bull-run-boost/internal/shared/config"
	"github.com/radieske/bull-run-boost/internal/shared/db"
	"github.com/radieske/bull-run-boost/internal/shared/kafka"
	"github.com/radieske/bull-run-boost/internal/shared/logger"
	"github.com/radieske/bull-run-boost/internal/shared/metrics"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "audit-worker"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres + schema
	pctx, pcancel := context.WithTimeout(ctx, 10*time.Second)
	pg, err := db.ConnectPostgres(pctx, cfg.PostgresDSN)
	if err == nil {
		err = db.Migrate(pctx, pg)
	}
	pcancel()
	if err != nil {
		log.Fatal("postgres setup", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	// Kafka: consumer group do audit-worker + DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRaceSettled, cfg.AuditGroupID)
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceSettledDLQ)
	defer dlq.Close()

	// Redis é só cache da leitura; sem ele a API consulta direto o Postgres
	var (
		rdb       *redis.Client
		histCache *audit.Cache
	)
	rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("redis unavailable, serving history without cache", zap.Error(err))
	} else {
		defer rdb.Close()
		histCache = audit.NewCache(rdb, 30*time.Second)
		log.Info("redis connected")
	}

	repo := audit.NewPostgresRepo(pg)
	m := metrics.NewAudit(prometheus.DefaultRegisterer)
	proc := &audit.Processor{
		Log:         log,
		Reader:      reader,
		Repo:        repo,
		DLQ:         dlq,
		OnConsumed:  func() { m.Consumed.Inc() },
		OnPersist:   func() { m.Persist.Inc() },
		OnDuplicate: m.Duplicates.Inc,
		OnError:     func(stage string) { m.Errors.WithLabelValues(stage).Inc() },
	}
	if histCache != nil {
		proc.OnAfterPersist = func(ctx context.Context, e events.RaceSettled) {
			if err := histCache.Invalidate(ctx, e.PlayerID); err != nil {
				log.Warn("cache invalidate failed", zap.String("player_id", e.PlayerID), zap.Error(err))
			}
		}
	}

	checks := []metrics.Check{{Name: "postgres", Fn: pg.PingContext}}
	if rdb != nil {
		checks = append(checks, metrics.Check{Name: "redis", Fn: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, checks...)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	api := &audit.API{Repo: repo, Cache: histCache, Log: log}
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	go func() {
		log.Info("audit api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("audit api failed", zap.Error(err))
			cancel()
		}
	}()

	log.Info("audit-worker started",
		zap.String("topic", cfg.TopicRaceSettled),
		zap.String("group", cfg.AuditGroupID),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("audit-worker stopped")
}
