package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

// PostgresRepo persiste as liquidações na tabela race_settlements
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// InsertSettlement grava a liquidação. Reentregas do mesmo settlement_id são
// ignoradas; o retorno indica se a linha foi inserida agora.
func (r *PostgresRepo) InsertSettlement(ctx context.Context, e events.RaceSettled) (bool, error) {
	bets, err := json.Marshal(e.Bets)
	if err != nil {
		return false, err
	}
	odds, err := json.Marshal(e.Odds)
	if err != nil {
		return false, err
	}

	const q = `
		INSERT INTO race_settlements
		  (settlement_id, player_id, winner, is_win, bets, total_bet, burn_amount, odds, winnings, settled_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (settlement_id) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, q,
		e.SettlementID, e.PlayerID, e.Winner, e.IsWin,
		bets, e.TotalBet, e.BurnAmount, odds, e.Winnings, e.SettledAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert settlement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecentByPlayer lista as últimas liquidações do jogador, mais recente primeiro
func (r *PostgresRepo) RecentByPlayer(ctx context.Context, playerID string, limit int) ([]events.RaceSettled, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT settlement_id, player_id, winner, is_win, bets, total_bet, burn_amount, odds, winnings, settled_at
		FROM race_settlements
		WHERE player_id = $1
		ORDER BY settled_at DESC
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, q, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query settlements: %w", err)
	}
	defer rows.Close()

	out := make([]events.RaceSettled, 0, limit)
	for rows.Next() {
		var (
			e          events.RaceSettled
			bets, odds []byte
		)
		if err := rows.Scan(&e.SettlementID, &e.PlayerID, &e.Winner, &e.IsWin,
			&bets, &e.TotalBet, &e.BurnAmount, &odds, &e.Winnings, &e.SettledAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(bets, &e.Bets); err != nil {
			return nil, fmt.Errorf("decode bets: %w", err)
		}
		if err := json.Unmarshal(odds, &e.Odds); err != nil {
			return nil, fmt.Errorf("decode odds: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
