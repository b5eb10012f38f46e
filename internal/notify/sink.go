package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Sink recebe avisos para a camada de apresentação
type Sink interface {
	Notify(ctx context.Context, n events.Notification) error
}

// SinkFunc adapta uma função a Sink
type SinkFunc func(ctx context.Context, n events.Notification) error

func (f SinkFunc) Notify(ctx context.Context, n events.Notification) error { return f(ctx, n) }

// LogSink registra cada aviso no log estruturado
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Notify(_ context.Context, n events.Notification) error {
	fields := []zap.Field{zap.String("kind", n.Kind), zap.String("message", n.Message)}
	switch n.Level {
	case LevelError:
		s.Log.Warn("notification", fields...)
	case LevelWarning, LevelInfo, LevelSuccess:
		s.Log.Info("notification", fields...)
	default:
		s.Log.Debug("notification", fields...)
	}
	return nil
}

// Fanout entrega para todos os sinks, mesmo quando um deles falha
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, n events.Notification) error {
	var errs []error
	for _, s := range f {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
