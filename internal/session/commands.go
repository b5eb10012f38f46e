package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/notify"
	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
	"github.com/radieske/bull-run-boost/pkg/contracts/topics"
)

// Comandos vindos da camada de apresentação. Cada um roda dentro do loop.

func (s *Session) PlaceBet(ctx context.Context, suit race.Suit, amount int64) (View, error) {
	v, err := s.do(ctx, func(ctx context.Context) (any, error) {
		if s.pending != nil {
			return nil, s.rejected(ctx, race.Reject("placeBet", race.ErrBetWhileRacing))
		}
		if err := s.engine.PlaceBet(suit, amount); err != nil {
			return nil, s.rejected(ctx, err)
		}
		return s.view(ctx), nil
	})
	return asView(v), err
}

func (s *Session) CycleBet(ctx context.Context, suit race.Suit) (View, error) {
	v, err := s.do(ctx, func(ctx context.Context) (any, error) {
		if s.pending != nil {
			return nil, s.rejected(ctx, race.Reject("cycleBet", race.ErrBetWhileRacing))
		}
		if _, err := s.engine.CycleBet(suit); err != nil {
			return nil, s.rejected(ctx, err)
		}
		return s.view(ctx), nil
	})
	return asView(v), err
}

// StartRace valida as apostas contra o saldo e pede a largada ao servidor.
// O engine só muda para RACING quando chega o "race-started"; se o servidor
// recusar, as apostas continuam abertas.
func (s *Session) StartRace(ctx context.Context) (race.RaceStart, error) {
	v, err := s.do(ctx, func(ctx context.Context) (any, error) {
		if s.pending != nil {
			return nil, s.rejected(ctx, race.Reject("startRace", race.ErrRaceInProgress))
		}
		bal, err := s.cfg.Wallet.Balance(ctx)
		if err != nil {
			return nil, fmt.Errorf("read balance: %w", err)
		}
		preview, err := s.engine.CanStart(bal)
		if err != nil {
			return nil, s.rejected(ctx, err)
		}

		msg := events.StartRace{
			Hearts:   preview.Bets[race.Hearts],
			Diamonds: preview.Bets[race.Diamonds],
			Clubs:    preview.Bets[race.Clubs],
			Spades:   preview.Bets[race.Spades],
		}
		if err := s.send(topics.StartRace, msg); err != nil {
			s.notify(ctx, notify.LevelError, "connection", "Connection lost. Please try again.", nil)
			return nil, err
		}
		s.pending = &pendingStart{balance: bal, preview: preview}
		return preview, nil
	})
	if err != nil {
		return race.RaceStart{}, err
	}
	return v.(race.RaceStart), nil
}

// DrawCard pede a próxima carta; o progresso chega depois no "card-drawn"
func (s *Session) DrawCard(ctx context.Context) error {
	_, err := s.do(ctx, func(ctx context.Context) (any, error) {
		if s.engine.Status() != race.StatusRacing {
			return nil, s.rejected(ctx, race.Reject("drawCard", race.ErrNoRace))
		}
		if err := s.send(topics.DrawCard, struct{}{}); err != nil {
			s.notify(ctx, notify.LevelError, "connection", "Connection lost. Please try again.", nil)
			return nil, err
		}
		return nil, nil
	})
	return err
}

// ClaimBonus pede o bônus da sessão; o servidor decide se ainda está disponível
func (s *Session) ClaimBonus(ctx context.Context) error {
	_, err := s.do(ctx, func(ctx context.Context) (any, error) {
		return nil, s.send(topics.ClaimBonus, struct{}{})
	})
	return err
}

// ResetToBetting volta às apostas antes do fim do tempo de exibição
func (s *Session) ResetToBetting(ctx context.Context) (View, error) {
	v, err := s.do(ctx, func(ctx context.Context) (any, error) {
		if err := s.engine.ResetToBetting(); err != nil {
			return nil, s.rejected(ctx, err)
		}
		s.round++
		return s.view(ctx), nil
	})
	return asView(v), err
}

func (s *Session) Snapshot(ctx context.Context) (View, error) {
	v, err := s.do(ctx, func(ctx context.Context) (any, error) {
		return s.view(ctx), nil
	})
	return asView(v), err
}

func (s *Session) History(ctx context.Context) ([]race.Outcome, error) {
	v, err := s.do(ctx, func(ctx context.Context) (any, error) {
		return s.engine.History(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]race.Outcome), nil
}

func (s *Session) send(msgType string, v any) error {
	if err := s.cfg.Out.Send(msgType, v); err != nil {
		s.log.Warn("send failed", zap.String("type", msgType), zap.Error(err))
		return fmt.Errorf("send %s: %w", msgType, err)
	}
	return nil
}

func asView(v any) View {
	if v == nil {
		return View{}
	}
	return v.(View)
}
