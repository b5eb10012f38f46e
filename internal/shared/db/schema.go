package db

import (
	"context"
	"database/sql"
	"fmt"
)

// statements são idempotentes; rodam a cada subida do audit-worker
var statements = []string{
	`CREATE TABLE IF NOT EXISTS race_settlements (
		settlement_id UUID PRIMARY KEY,
		player_id     TEXT        NOT NULL,
		winner        TEXT        NOT NULL,
		is_win        BOOLEAN     NOT NULL,
		bets          JSONB       NOT NULL,
		total_bet     BIGINT      NOT NULL,
		burn_amount   BIGINT      NOT NULL,
		odds          JSONB       NOT NULL,
		winnings      BIGINT      NOT NULL,
		settled_at    TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS race_settlements_player_idx
		ON race_settlements (player_id, settled_at DESC)`,
}

// Migrate cria as tabelas de auditoria se ainda não existirem
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
