package events

// Card é a carta no formato do servidor: suit é o símbolo ("♥")
type Card struct {
	Rank  string `json:"rank"`
	Suit  string `json:"suit"`
	Color string `json:"color,omitempty"`
}

// Player é o recorte do estado do jogador que acompanha as respostas.
// O saldo pode vir fracionado do servidor.
type Player struct {
	ID            string  `json:"id,omitempty"`
	Name          string  `json:"name,omitempty"`
	CattleBalance float64 `json:"cattleBalance"`
}

// StartRace é enviado pelo cliente com as apostas por naipe
type StartRace struct {
	Hearts   int64 `json:"hearts"`
	Diamonds int64 `json:"diamonds"`
	Clubs    int64 `json:"clubs"`
	Spades   int64 `json:"spades"`
}

// RaceStarted confirma a largada
type RaceStarted struct {
	Bets           map[string]int64   `json:"bets"`
	Odds           map[string]float64 `json:"odds"`
	Progress       map[string]float64 `json:"progress"`
	RemainingCards map[string]int     `json:"remainingCards,omitempty"`
	BurnAmount     float64            `json:"burnAmount"`
	Player         *Player            `json:"player,omitempty"`
}

// CardDrawn traz a carta e o snapshot autoritativo de progresso
type CardDrawn struct {
	Card           Card               `json:"card"`
	Progress       map[string]float64 `json:"progress"`
	RemainingCards map[string]int     `json:"remainingCards,omitempty"`
	Odds           map[string]float64 `json:"odds,omitempty"`
	Winner         string             `json:"winner,omitempty"`
}

// RaceFinished anuncia o vencedor e o prêmio calculado pelo servidor
type RaceFinished struct {
	Winner   string  `json:"winner"`
	Bet      float64 `json:"bet"`
	Odds     float64 `json:"odds"`
	Winnings float64 `json:"winnings"`
	Message  string  `json:"message,omitempty"`
	Player   *Player `json:"player,omitempty"`
}

type BonusClaimed struct {
	Amount float64 `json:"amount"`
	Player *Player `json:"player,omitempty"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}
