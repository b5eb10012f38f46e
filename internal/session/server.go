package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/deck"
	"github.com/radieske/bull-run-boost/internal/notify"
	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/internal/wallet"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
	"github.com/radieske/bull-run-boost/pkg/contracts/topics"
)

// HandleMessage enfileira uma mensagem do servidor. Chamado pelo leitor do
// socket em sequência, o que preserva a ordem de chegada.
func (s *Session) HandleMessage(ctx context.Context, env events.Envelope) error {
	return s.post(ctx, func(ctx context.Context) (any, error) {
		if s.cfg.OnMessage != nil {
			s.cfg.OnMessage(env.Type)
		}
		if err := s.dispatch(ctx, env); err != nil {
			s.log.Warn("server message not applied", zap.String("type", env.Type), zap.Error(err))
		}
		return nil, nil
	})
}

// Disconnected descarta uma largada ainda não confirmada: o servidor perde o
// estado da corrida junto com a conexão. Com a corrida em andamento só avisa;
// o engine não tem como abortar.
func (s *Session) Disconnected(ctx context.Context) error {
	return s.post(ctx, func(ctx context.Context) (any, error) {
		if s.pending != nil {
			s.pending = nil
			s.notify(ctx, notify.LevelWarning, "connection", "Connection lost before the race started.", nil)
		}
		if s.engine.Status() == race.StatusRacing {
			s.log.Warn("connection lost during race")
			s.notify(ctx, notify.LevelWarning, "connection",
				"Connection lost during the race. Restart the game to keep playing.", nil)
		}
		return nil, nil
	})
}

func (s *Session) dispatch(ctx context.Context, env events.Envelope) error {
	switch env.Type {
	case topics.RaceStarted:
		var m events.RaceStarted
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return s.onRaceStarted(ctx, m)
	case topics.CardDrawn:
		var m events.CardDrawn
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return s.onCardDrawn(ctx, m)
	case topics.RaceFinished:
		var m events.RaceFinished
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return s.onRaceFinished(ctx, m)
	case topics.BonusClaimed:
		var m events.BonusClaimed
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return s.onBonusClaimed(ctx, m)
	case topics.ErrorMessage:
		var m events.ErrorMessage
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return fmt.Errorf("decode %s: %w", env.Type, err)
		}
		s.onServerError(ctx, m)
		return nil
	default:
		s.log.Debug("ignored server message", zap.String("type", env.Type))
		return nil
	}
}

func (s *Session) onRaceStarted(ctx context.Context, m events.RaceStarted) error {
	if s.pending == nil {
		s.log.Warn("race-started without a pending start")
		return nil
	}
	p := s.pending
	s.pending = nil
	s.engine.SetOdds(s.oddsTable(m.Odds))

	rs, err := s.engine.StartRace(p.balance)
	if err != nil {
		return s.rejected(ctx, err)
	}
	s.lastStart = rs

	// o servidor já descontou o total; sem snapshot, desconta localmente
	if m.Player != nil {
		s.setBalance(ctx, m.Player.CattleBalance)
	} else if _, err := s.cfg.Wallet.Add(ctx, -rs.TotalBet); err != nil {
		s.log.Warn("balance debit failed", zap.Int64("amount", rs.TotalBet), zap.Error(err))
	}

	if s.cfg.OnStarted != nil {
		s.cfg.OnStarted(rs)
	}
	s.log.Info("race started", zap.Int64("total_bet", rs.TotalBet), zap.Int64("burn", rs.BurnAmount))
	s.notify(ctx, notify.LevelSuccess, topics.RaceStarted,
		fmt.Sprintf("Race started! %d $CATTLE burned. Draw cards to see which horse will win!", rs.BurnAmount), rs)
	return nil
}

func (s *Session) onCardDrawn(ctx context.Context, m events.CardDrawn) error {
	card, err := deck.FromWire(m.Card)
	if err != nil {
		return err
	}
	progress, err := progressTable(m.Progress)
	if err != nil {
		return err
	}

	winner, done, err := s.engine.DrawCard(race.Draw{Card: card, Progress: progress})
	if err != nil {
		return s.rejected(ctx, err)
	}
	if len(m.Odds) > 0 {
		s.engine.SetOdds(s.oddsTable(m.Odds))
	}

	if done {
		s.log.Debug("winner candidate", zap.String("suit", string(winner)))
	}
	s.notify(ctx, notify.LevelInfo, topics.CardDrawn, card.Rank+card.Suit.Symbol(), s.engine.Snapshot())
	return nil
}

func (s *Session) onRaceFinished(ctx context.Context, m events.RaceFinished) error {
	winner, err := race.ParseSuit(m.Winner)
	if err != nil {
		return err
	}
	st, err := s.engine.FinishRace(winner)
	if err != nil {
		return s.rejected(ctx, err)
	}

	if m.Player != nil {
		s.setBalance(ctx, m.Player.CattleBalance)
	} else if st.Winnings > 0 {
		if _, err := s.cfg.Wallet.Add(ctx, st.Winnings); err != nil {
			s.log.Warn("balance credit failed", zap.Int64("amount", st.Winnings), zap.Error(err))
		}
	}
	if wallet.FromServer(m.Winnings) != st.Winnings {
		s.log.Debug("server winnings differ",
			zap.Float64("server", m.Winnings), zap.Int64("local", st.Winnings))
	}

	s.publishSettled(ctx, st)
	if s.cfg.OnSettled != nil {
		s.cfg.OnSettled(st)
	}

	if st.IsWin {
		s.notify(ctx, notify.LevelSuccess, topics.RaceFinished,
			fmt.Sprintf("%s won! You win %d $CATTLE!", st.Winner.Title(), st.Winnings), st)
	} else {
		s.notify(ctx, notify.LevelWarning, topics.RaceFinished,
			fmt.Sprintf("%s won. You didn't bet on the winner.", st.Winner.Title()), st)
	}

	s.scheduleReset()
	return nil
}

func (s *Session) onBonusClaimed(ctx context.Context, m events.BonusClaimed) error {
	if m.Player != nil {
		s.setBalance(ctx, m.Player.CattleBalance)
	} else if _, err := s.cfg.Wallet.Add(ctx, wallet.FromServer(m.Amount)); err != nil {
		s.log.Warn("bonus credit failed", zap.Error(err))
	}
	s.notify(ctx, notify.LevelSuccess, topics.BonusClaimed,
		fmt.Sprintf("Bonus claimed! +%d $CATTLE added to your balance.", wallet.FromServer(m.Amount)), nil)
	return nil
}

// onServerError: uma recusa do servidor enquanto a largada está pendente
// cancela a largada; as apostas continuam abertas
func (s *Session) onServerError(ctx context.Context, m events.ErrorMessage) {
	if s.pending != nil {
		s.pending = nil
		if s.cfg.OnRejected != nil {
			s.cfg.OnRejected("server")
		}
	}
	s.notify(ctx, notify.LevelError, topics.ErrorMessage, m.Message, nil)
}

func (s *Session) publishSettled(ctx context.Context, st race.Settlement) {
	if s.cfg.Audit == nil {
		return
	}
	snap := s.engine.Snapshot()
	ev := events.RaceSettled{
		SettlementID: uuid.NewString(),
		PlayerID:     s.cfg.PlayerID,
		Winner:       string(st.Winner),
		IsWin:        st.IsWin,
		Bets:         make(map[string]int64, len(snap.Bets)),
		TotalBet:     snap.TotalBet,
		BurnAmount:   s.lastStart.BurnAmount,
		Odds:         make(map[string]float64, len(snap.Odds)),
		Winnings:     st.Winnings,
		SettledAt:    s.cfg.Now().UTC(),
	}
	for k, v := range snap.Bets {
		ev.Bets[string(k)] = v
	}
	for k, v := range snap.Odds {
		ev.Odds[string(k)] = v
	}

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.cfg.Audit.PublishSettled(pctx, ev); err != nil {
		s.log.Warn("audit publish failed", zap.String("settlement_id", ev.SettlementID), zap.Error(err))
	}
}

// scheduleReset devolve a sessão às apostas depois do tempo de exibição.
// O número da rodada evita que um timer antigo resete uma corrida nova.
func (s *Session) scheduleReset() {
	if s.cfg.ResetDelay < 0 {
		return
	}
	s.round++
	round := s.round
	time.AfterFunc(s.cfg.ResetDelay, func() {
		_ = s.post(context.Background(), func(ctx context.Context) (any, error) {
			if round != s.round || s.engine.Status() != race.StatusFinished {
				return nil, nil
			}
			if err := s.engine.ResetToBetting(); err != nil {
				s.log.Warn("auto reset failed", zap.Error(err))
				return nil, nil
			}
			s.notify(ctx, notify.LevelInfo, "betting-open", "Place your bets!", nil)
			return nil, nil
		})
	})
}

func (s *Session) setBalance(ctx context.Context, v float64) {
	if err := s.cfg.Wallet.Set(ctx, wallet.FromServer(v)); err != nil {
		s.log.Warn("balance snapshot failed", zap.Error(err))
	}
}

// oddsTable ignora chaves que não são naipes: a largada já aconteceu no
// servidor e não pode ser descartada por causa de um campo extra
func (s *Session) oddsTable(in map[string]float64) map[race.Suit]float64 {
	out := make(map[race.Suit]float64, len(in))
	for k, v := range in {
		suit, err := race.ParseSuit(k)
		if err != nil {
			s.log.Debug("odds entry ignored", zap.String("key", k))
			continue
		}
		out[suit] = v
	}
	return out
}

// progressTable converte o snapshot do servidor ("hearts" ou "♥") para naipes.
// Ao contrário das odds, um naipe desconhecido invalida o snapshot inteiro.
func progressTable(in map[string]float64) (map[race.Suit]float64, error) {
	out := make(map[race.Suit]float64, len(in))
	for k, v := range in {
		s, err := race.ParseSuit(k)
		if err != nil {
			return nil, err
		}
		out[s] = v
	}
	return out, nil
}
