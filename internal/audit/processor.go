package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

var ErrInvalidSettlement = errors.New("invalid settlement")

// MessageReader é o subconjunto de *kafka.Reader usado pelo processor.
// Fetch + Commit: o offset só avança depois de gravar no banco.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Repo persiste liquidações; reentregas não duplicam linhas
type Repo interface {
	InsertSettlement(ctx context.Context, e events.RaceSettled) (bool, error)
}

// Processor consome "race_settled", valida e persiste no Postgres.
// Mensagens que não decodificam vão para a DLQ.
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Repo   Repo
	DLQ    MessageWriter // opcional

	RetryDelay time.Duration // padrão 500ms

	OnConsumed  func()       // métricas
	OnPersist   func()       // métricas
	OnDuplicate func()       // métricas
	OnError     func(string) // métricas por fase

	// chamado depois de gravar uma liquidação nova (ex.: invalidar cache)
	OnAfterPersist func(ctx context.Context, e events.RaceSettled)
}

// Run inicia o loop principal de consumo
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.fail("read")
			if !p.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("message not processed", zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}

		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
			p.fail("commit")
		}
	}
}

// handle devolve erro só quando a mensagem não deve ser commitada
func (p *Processor) handle(ctx context.Context, m kafka.Message) error {
	ev, err := Decode(m.Value)
	if err != nil {
		p.fail("decode")
		return p.deadLetter(ctx, m, err)
	}

	// banco fora do ar: tenta de novo a mesma mensagem
	for {
		inserted, err := p.Repo.InsertSettlement(ctx, ev)
		if err == nil {
			if inserted {
				if p.OnPersist != nil {
					p.OnPersist()
				}
				if p.OnAfterPersist != nil {
					p.OnAfterPersist(ctx, ev)
				}
				p.Log.Info("settlement stored",
					zap.String("settlement_id", ev.SettlementID),
					zap.String("player_id", ev.PlayerID),
					zap.String("winner", ev.Winner),
					zap.Bool("is_win", ev.IsWin),
				)
			} else if p.OnDuplicate != nil {
				p.OnDuplicate()
			}
			return nil
		}

		p.Log.Warn("db insert failed", zap.String("settlement_id", ev.SettlementID), zap.Error(err))
		p.fail("db_insert")
		if !p.sleep(ctx) {
			return ctx.Err()
		}
	}
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error) error {
	if p.DLQ == nil {
		p.Log.Warn("dropping invalid message", zap.Int64("offset", m.Offset), zap.Error(cause))
		return nil
	}
	dl := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers,
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "source_offset", Value: []byte(fmt.Sprintf("%d", m.Offset))},
		),
	}
	if err := p.DLQ.WriteMessages(ctx, dl); err != nil {
		p.fail("dlq")
		return fmt.Errorf("dead letter: %w", err)
	}
	p.Log.Warn("message sent to dlq", zap.Int64("offset", m.Offset), zap.Error(cause))
	return nil
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Processor) sleep(ctx context.Context) bool {
	d := p.RetryDelay
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// Decode valida o evento de liquidação recebido do tópico
func Decode(b []byte) (events.RaceSettled, error) {
	var ev events.RaceSettled
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrInvalidSettlement, err)
	}
	if _, err := uuid.Parse(ev.SettlementID); err != nil {
		return ev, fmt.Errorf("%w: settlement_id %q", ErrInvalidSettlement, ev.SettlementID)
	}
	if ev.PlayerID == "" {
		return ev, fmt.Errorf("%w: missing player_id", ErrInvalidSettlement)
	}
	if _, err := race.ParseSuit(ev.Winner); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrInvalidSettlement, err)
	}
	if ev.TotalBet < 0 || ev.Winnings < 0 || ev.BurnAmount < 0 {
		return ev, fmt.Errorf("%w: negative amount", ErrInvalidSettlement)
	}
	return ev, nil
}
