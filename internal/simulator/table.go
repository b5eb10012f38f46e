package simulator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/radieske/bull-run-boost/internal/deck"
	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

// Refusal é uma recusa enviada ao cliente como "error-message"; o texto é
// exibido ao jogador
type Refusal string

func (r Refusal) Error() string { return string(r) }

const (
	ErrNoBet          Refusal = "You must place at least one bet to start the race!"
	ErrNotEnough      Refusal = "Not enough $CATTLE for your total bet!"
	ErrRaceActive     Refusal = "Race already in progress!"
	ErrRaceNotActive  Refusal = "Race not active. Please start a new race first!"
	ErrDeckEmpty      Refusal = "No cards left in the deck!"
	ErrBonusClaimed   Refusal = "You already claimed your bonus for this session!"
	ErrInvalidBetSize Refusal = "Bets must be zero or positive!"
)

const (
	StartBalance = 100.0
	BonusAmount  = 50.0
	ProgressStep = 15.0
	BurnRate     = 0.10
)

// Table é o estado autoritativo de uma conexão: saldo, baralho e corrida.
// Não é seguro para uso concorrente; cada conexão tem a sua goroutine.
type Table struct {
	rng    *rand.Rand
	player events.Player

	bonusClaimed bool
	racing       bool
	deck         *deck.Deck
	bets         map[race.Suit]int64
	progress     map[race.Suit]float64
}

func NewTable(id string, balance float64, rng *rand.Rand) *Table {
	return &Table{
		rng:      rng,
		player:   events.Player{ID: id, Name: "Cowboy", CattleBalance: balance},
		bets:     make(map[race.Suit]int64, len(race.Suits)),
		progress: make(map[race.Suit]float64, len(race.Suits)),
	}
}

func (t *Table) Balance() float64 { return t.player.CattleBalance }

func (t *Table) Racing() bool { return t.racing }

// StartRace debita o total apostado, embaralha um baralho novo e zera o progresso
func (t *Table) StartRace(req events.StartRace) (events.RaceStarted, error) {
	if t.racing {
		return events.RaceStarted{}, ErrRaceActive
	}
	bets := map[race.Suit]int64{
		race.Hearts:   req.Hearts,
		race.Diamonds: req.Diamonds,
		race.Clubs:    req.Clubs,
		race.Spades:   req.Spades,
	}
	var total int64
	for _, v := range bets {
		if v < 0 {
			return events.RaceStarted{}, ErrInvalidBetSize
		}
		total += v
	}
	if total <= 0 {
		return events.RaceStarted{}, ErrNoBet
	}
	if float64(total) > t.player.CattleBalance {
		return events.RaceStarted{}, ErrNotEnough
	}

	t.deck = deck.New()
	t.deck.Shuffle(t.rng)
	t.bets = bets
	for _, s := range race.Suits {
		t.progress[s] = 0
	}
	t.racing = true
	t.player.CattleBalance -= float64(total)

	player := t.player
	return events.RaceStarted{
		Bets:           wireInts(bets),
		Odds:           wireFloats(race.OddsFromRemaining(t.deck.Remaining())),
		Progress:       wireFloats(t.progress),
		RemainingCards: wireCounts(t.deck.Remaining()),
		BurnAmount:     float64(total) * BurnRate,
		Player:         &player,
	}, nil
}

// DrawCard tira uma carta e avança o naipe dela. Quando algum naipe cruza a
// linha de chegada, devolve também o resultado e volta para as apostas.
func (t *Table) DrawCard() (events.CardDrawn, *events.RaceFinished, error) {
	if !t.racing {
		return events.CardDrawn{}, nil, ErrRaceNotActive
	}
	card, err := t.deck.Draw()
	if err != nil {
		return events.CardDrawn{}, nil, ErrDeckEmpty
	}
	t.progress[card.Suit] = math.Min(100, t.progress[card.Suit]+ProgressStep)

	odds := race.OddsFromRemaining(t.deck.Remaining())
	drawn := events.CardDrawn{
		Card:           deck.ToWire(card),
		Progress:       wireFloats(t.progress),
		RemainingCards: wireCounts(t.deck.Remaining()),
		Odds:           wireFloats(odds),
	}

	var winner race.Suit
	for _, s := range race.Suits {
		if t.progress[s] >= 100 {
			winner = s
			break
		}
	}
	if winner == "" {
		return drawn, nil, nil
	}
	drawn.Winner = string(winner)

	bet := t.bets[winner]
	fin := &events.RaceFinished{Winner: string(winner), Odds: odds[winner]}
	if bet > 0 {
		// mesmo arredondamento do cliente: tokens inteiros
		fin.Bet = float64(bet)
		fin.Winnings = math.Floor(float64(bet)*odds[winner] + 1e-9)
		t.player.CattleBalance += fin.Winnings
		fin.Message = winner.Title() + " won! You win " + formatTokens(fin.Winnings) + " $CATTLE!"
	} else {
		fin.Message = winner.Title() + " won! You didn't bet on the winner."
	}
	t.racing = false
	player := t.player
	fin.Player = &player
	return drawn, fin, nil
}

// ClaimBonus credita o bônus uma única vez por conexão
func (t *Table) ClaimBonus() (events.BonusClaimed, error) {
	if t.bonusClaimed {
		return events.BonusClaimed{}, ErrBonusClaimed
	}
	t.bonusClaimed = true
	t.player.CattleBalance += BonusAmount
	player := t.player
	return events.BonusClaimed{Amount: BonusAmount, Player: &player}, nil
}

func wireInts(in map[race.Suit]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func wireFloats(in map[race.Suit]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func wireCounts(in map[race.Suit]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func formatTokens(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
