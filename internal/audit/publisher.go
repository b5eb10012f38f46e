package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

// MessageWriter é o subconjunto de *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher envia cada liquidação do cliente para o tópico de auditoria
type KafkaPublisher struct {
	Writer MessageWriter
	Log    *zap.Logger
}

func NewKafkaPublisher(w MessageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Log: log}
}

// PublishSettled usa o player id como chave: as liquidações de um jogador
// ficam na mesma partição, em ordem
func (p *KafkaPublisher) PublishSettled(ctx context.Context, e events.RaceSettled) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.PlayerID),
		Value: b,
		Time:  e.SettledAt,
	}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish race settled: %w", err)
	}
	p.Log.Debug("published race settled",
		zap.String("settlement_id", e.SettlementID),
		zap.String("winner", e.Winner),
		zap.Int64("winnings", e.Winnings),
	)
	return nil
}
