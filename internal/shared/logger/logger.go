package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New monta o logger zap do binário. Em "local" usa a config de desenvolvimento.
// LOG_LEVEL (debug|info|warn|error) sobrescreve o nível padrão.
func New(serviceName string, env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	if lvl, ok := os.LookupEnv("LOG_LEVEL"); ok {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(lvl)); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(l)
		}
	}

	// sempre garantir que serviço e env entrem como campos padrão
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
}

// ForPlayer devolve um logger filho com o jogador da sessão
func ForPlayer(l *zap.Logger, playerID string) *zap.Logger {
	return l.With(zap.String("player_id", playerID))
}
