package events

import "time"

// RaceSettled é publicado no tópico "race_settled" a cada liquidação do cliente
type RaceSettled struct {
	SettlementID string             `json:"settlement_id"`
	PlayerID     string             `json:"player_id"`
	Winner       string             `json:"winner"`
	IsWin        bool               `json:"is_win"`
	Bets         map[string]int64   `json:"bets"`
	TotalBet     int64              `json:"total_bet"`
	BurnAmount   int64              `json:"burn_amount"`
	Odds         map[string]float64 `json:"odds"`
	Winnings     int64              `json:"winnings"`
	SettledAt    time.Time          `json:"settled_at"`
}

// Notification é o aviso exibido pela camada de apresentação
type Notification struct {
	Level   string    `json:"level"` // info | success | warning | error
	Kind    string    `json:"kind"`  // ex: "race-finished", "rejected"
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
	Ts      time.Time `json:"ts"`
}
