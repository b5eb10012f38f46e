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
	"github.com/radieske/bull-run-boost/internal/gamesocket"
	"github.com/radieske/bull-run-boost/internal/notify"
	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/internal/session"
	"github.com/radieske/bull-run-boost/internal/shared/cache"
	"github.com/radieske/bull-run-boost/internal/shared/config"
	"github.com/radieske/bull-run-boost/internal/shared/kafka"
	"github.com/radieske/bull-run-boost/internal/shared/logger"
	"github.com/radieske/bull-run-boost/internal/shared/metrics"
	"github.com/radieske/bull-run-boost/internal/uibridge"
	"github.com/radieske/bull-run-boost/internal/wallet"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "race-client"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting service", zap.String("player_id", cfg.PlayerID), zap.String("game_ws", cfg.GameWSURL))

	m := metrics.NewRace(prometheus.DefaultRegisterer)
	hub := uibridge.NewHub(func(*http.Request) bool { return true }, log)

	// Redis guarda o saldo e distribui os avisos; sem ele, roda em memória
	var (
		store wallet.Store
		sinks = notify.Fanout{notify.LogSink{Log: log}}
		rdb   *redis.Client
	)
	rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("redis unavailable, using in-memory wallet", zap.Error(err))
		store = wallet.NewMemStore(cfg.StartBalance)
		sinks = append(sinks, hub)
	} else {
		defer rdb.Close()
		log.Info("redis connected")
		store = wallet.NewRedisStore(rdb, cfg.PlayerID, cfg.StartBalance)
		sinks = append(sinks, notify.NewRedisSink(rdb, cfg.RedisNotifyChannel))
		uibridge.StartRedisSubscriber(ctx, rdb, cfg.RedisNotifyChannel, hub, log)
	}

	// Kafka: cada liquidação vai para a auditoria
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceSettled)
	defer writer.Close()
	publisher := audit.NewKafkaPublisher(writer, log)
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicRaceSettled))

	client := &gamesocket.Client{
		URL:        cfg.GameWSURL,
		Log:        log,
		OnSent:     func(t string) { m.SocketOut.WithLabelValues(t).Inc() },
		OnReceived: func(t string) { m.SocketIn.WithLabelValues(t).Inc() },
	}

	sess := session.New(session.Config{
		Log:        log,
		PlayerID:   cfg.PlayerID,
		Wallet:     store,
		Notify:     sinks,
		Out:        client,
		Audit:      publisher,
		ResetDelay: cfg.ResetDelay,
		OnStarted: func(rs race.RaceStart) {
			m.Started.Inc()
			m.Burned.Add(float64(rs.BurnAmount))
		},
		OnSettled: func(st race.Settlement) {
			outcome := "loss"
			if st.IsWin {
				outcome = "win"
			}
			m.Settled.WithLabelValues(outcome).Inc()
			m.Winnings.Add(float64(st.Winnings))
		},
		OnRejected: func(reason string) { m.Rejections.WithLabelValues(reason).Inc() },
	})
	client.Handler = sess

	go func() {
		if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("session stopped", zap.Error(err))
		}
	}()
	go client.Start(ctx)

	checks := []metrics.Check{{Name: "game socket", Fn: client.Health}}
	if rdb != nil {
		checks = append(checks, metrics.Check{Name: "redis", Fn: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, checks...)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	api := &uibridge.API{Race: sess, Hub: hub, Log: log}
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	go func() {
		log.Info("race-client listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
