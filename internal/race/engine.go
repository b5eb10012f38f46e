package race

import (
	"fmt"
	"maps"
)

// Status governa quais operações são legais
type Status string

const (
	StatusBetting  Status = "betting"
	StatusRacing   Status = "racing"
	StatusFinished Status = "finished"
)

// BurnFeeRate é a fração do total apostado retirada de circulação na largada
const BurnFeeRate = 0.10

const finishLine = 100.0

// Card é a carta já decodificada recebida do servidor
type Card struct {
	Rank string
	Suit Suit
}

// Draw junta a carta sorteada ao snapshot de progresso enviado pelo servidor.
// O progresso é autoritativo: o engine substitui o seu pelo snapshot.
type Draw struct {
	Card     Card
	Progress map[Suit]float64
}

// RaceStart é o resultado de StartRace, consumido por quem debita o saldo
type RaceStart struct {
	Bets       map[Suit]int64 `json:"bets"`
	TotalBet   int64          `json:"totalBet"`
	BurnAmount int64          `json:"burnAmount"`
}

// Settlement é o resultado de FinishRace, consumido por quem credita o saldo
type Settlement struct {
	Winner   Suit    `json:"winner"`
	IsWin    bool    `json:"isWin"`
	Winnings int64   `json:"winnings"`
	Bet      int64   `json:"bet"`
	Odds     float64 `json:"odds"`
}

// State é uma cópia somente leitura do estado do engine
type State struct {
	Status      Status           `json:"status"`
	Bets        map[Suit]int64   `json:"bets"`
	TotalBet    int64            `json:"totalBet"`
	Progress    map[Suit]float64 `json:"progress"`
	Odds        map[Suit]float64 `json:"odds"`
	Winner      Suit             `json:"winner,omitempty"`
	BurnFeeRate float64          `json:"burnFeeRate"`
	History     []Outcome        `json:"history"`
}

// Engine mantém apostas, progresso e status de uma sessão de corrida.
// Não é seguro para uso concorrente: o dono (session) serializa as chamadas.
type Engine struct {
	status   Status
	bets     map[Suit]int64
	totalBet int64
	progress map[Suit]float64
	odds     map[Suit]float64
	winner   Suit
	history  *History
}

func NewEngine() *Engine {
	e := &Engine{
		status:   StatusBetting,
		bets:     make(map[Suit]int64, len(Suits)),
		progress: make(map[Suit]float64, len(Suits)),
		odds:     FlatOdds(),
		history:  NewHistory(HistoryCapacity),
	}
	e.clearRound()
	return e
}

func (e *Engine) Status() Status { return e.status }

func (e *Engine) TotalBet() int64 { return e.totalBet }

// PlaceBet define a aposta de um naipe. Só valores de BetCycle são aceitos.
func (e *Engine) PlaceBet(suit Suit, amount int64) error {
	if e.status != StatusBetting {
		return reject("placeBet", ErrBetWhileRacing, "")
	}
	if !suit.Valid() {
		return reject("placeBet", ErrUnknownSuit, string(suit))
	}
	if !AllowedBet(amount) {
		return reject("placeBet", ErrBetNotAllowed, fmt.Sprintf("%d", amount))
	}
	e.bets[suit] = amount
	e.recomputeTotal()
	return nil
}

// CycleBet avança a aposta do naipe para o próximo valor do ciclo
func (e *Engine) CycleBet(suit Suit) (int64, error) {
	if e.status != StatusBetting {
		return 0, reject("cycleBet", ErrBetWhileRacing, "")
	}
	if !suit.Valid() {
		return 0, reject("cycleBet", ErrUnknownSuit, string(suit))
	}
	next := NextBet(e.bets[suit])
	e.bets[suit] = next
	e.recomputeTotal()
	return next, nil
}

// CanStart verifica as pré-condições da largada sem alterar o estado e
// devolve a prévia (total e queima) que StartRace produziria
func (e *Engine) CanStart(balance int64) (RaceStart, error) {
	if e.status != StatusBetting {
		return RaceStart{}, reject("startRace", ErrRaceInProgress, "")
	}
	if e.totalBet <= 0 {
		return RaceStart{}, reject("startRace", ErrNoBet, "")
	}
	if e.totalBet > balance {
		return RaceStart{}, reject("startRace", ErrInsufficientBalance,
			fmt.Sprintf("bet %d, balance %d", e.totalBet, balance))
	}
	return RaceStart{
		Bets:       maps.Clone(e.bets),
		TotalBet:   e.totalBet,
		BurnAmount: floorAmount(float64(e.totalBet) * BurnFeeRate),
	}, nil
}

// StartRace trava as apostas e calcula a taxa de queima.
// O saldo é só lido; debitar é responsabilidade de quem chama.
func (e *Engine) StartRace(balance int64) (RaceStart, error) {
	rs, err := e.CanStart(balance)
	if err != nil {
		return RaceStart{}, err
	}

	e.status = StatusRacing
	for _, s := range Suits {
		e.progress[s] = 0
	}
	return rs, nil
}

// DrawCard aplica o snapshot de progresso que acompanha a carta e devolve o
// candidato a vencedor, se algum naipe chegou a 100. Não encerra a corrida:
// a liquidação acontece em FinishRace.
func (e *Engine) DrawCard(d Draw) (Suit, bool, error) {
	if e.status != StatusRacing {
		return "", false, reject("drawCard", ErrNoRace, "")
	}
	if !d.Card.Suit.Valid() {
		return "", false, reject("drawCard", ErrUnknownSuit, string(d.Card.Suit))
	}
	for s, p := range d.Progress {
		if !s.Valid() {
			return "", false, reject("drawCard", ErrInvalidProgress, "suit "+string(s))
		}
		if p < 0 || p > finishLine {
			return "", false, reject("drawCard", ErrInvalidProgress, fmt.Sprintf("%s=%g", s, p))
		}
	}

	for _, s := range Suits {
		e.progress[s] = d.Progress[s]
	}

	for _, s := range Suits {
		if e.progress[s] >= finishLine {
			return s, true, nil
		}
	}
	return "", false, nil
}

// FinishRace liquida a corrida: define o vencedor, calcula o prêmio e
// registra o resultado no histórico. Não mexe no saldo.
func (e *Engine) FinishRace(winner Suit) (Settlement, error) {
	if e.status != StatusRacing {
		return Settlement{}, reject("finishRace", ErrNoRaceToFinish, "")
	}
	if !winner.Valid() {
		return Settlement{}, reject("finishRace", ErrUnknownSuit, string(winner))
	}

	bet := e.bets[winner]
	odds := e.odds[winner]
	st := Settlement{
		Winner: winner,
		IsWin:  bet > 0,
		Bet:    bet,
		Odds:   odds,
	}
	if st.IsWin {
		st.Winnings = floorAmount(float64(bet) * odds)
	}

	e.status = StatusFinished
	e.winner = winner
	e.history.Push(Outcome{Winner: winner, Won: st.IsWin})
	return st, nil
}

// ResetToBetting volta ao estado de apostas. O histórico é preservado.
func (e *Engine) ResetToBetting() error {
	if e.status != StatusFinished {
		return reject("resetToBetting", ErrRaceNotFinished, string(e.status))
	}
	e.status = StatusBetting
	e.clearRound()
	return nil
}

// SetOdds substitui a tabela de odds pelo snapshot do servidor.
// Entradas ausentes ou não positivas voltam ao valor padrão.
func (e *Engine) SetOdds(snapshot map[Suit]float64) {
	for _, s := range Suits {
		if v, ok := snapshot[s]; ok && v > 0 {
			e.odds[s] = v
			continue
		}
		e.odds[s] = DefaultOdds
	}
}

func (e *Engine) History() []Outcome { return e.history.Items() }

func (e *Engine) Snapshot() State {
	return State{
		Status:      e.status,
		Bets:        maps.Clone(e.bets),
		TotalBet:    e.totalBet,
		Progress:    maps.Clone(e.progress),
		Odds:        maps.Clone(e.odds),
		Winner:      e.winner,
		BurnFeeRate: BurnFeeRate,
		History:     e.history.Items(),
	}
}

func (e *Engine) clearRound() {
	for _, s := range Suits {
		e.bets[s] = 0
		e.progress[s] = 0
	}
	e.totalBet = 0
	e.winner = ""
}

func (e *Engine) recomputeTotal() {
	var total int64
	for _, s := range Suits {
		total += e.bets[s]
	}
	e.totalBet = total
}
