package deck

import (
	"errors"
	"math/rand"

	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

var ErrEmpty = errors.New("no cards left in the deck")

// Ranks em ordem crescente, 13 por naipe
var Ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// Deck é um baralho de 52 cartas; o topo é o fim do slice
type Deck struct {
	cards []race.Card
}

// New cria um baralho completo, ainda não embaralhado
func New() *Deck {
	cards := make([]race.Card, 0, len(Ranks)*len(race.Suits))
	for _, s := range race.Suits {
		for _, r := range Ranks {
			cards = append(cards, race.Card{Rank: r, Suit: s})
		}
	}
	return &Deck{cards: cards}
}

// Shuffle embaralha com Fisher-Yates usando o gerador injetado
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw retira a carta do topo
func (d *Deck) Draw() (race.Card, error) {
	if len(d.cards) == 0 {
		return race.Card{}, ErrEmpty
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, nil
}

func (d *Deck) Len() int { return len(d.cards) }

// Remaining conta as cartas restantes por naipe
func (d *Deck) Remaining() map[race.Suit]int {
	out := make(map[race.Suit]int, len(race.Suits))
	for _, s := range race.Suits {
		out[s] = 0
	}
	for _, c := range d.cards {
		out[c.Suit]++
	}
	return out
}

// ToWire converte para o formato do socket (símbolo + cor)
func ToWire(c race.Card) events.Card {
	return events.Card{Rank: c.Rank, Suit: c.Suit.Symbol(), Color: c.Suit.Color()}
}

// FromWire decodifica a carta recebida do servidor; aceita símbolo ou nome
func FromWire(c events.Card) (race.Card, error) {
	s, err := race.ParseSuit(c.Suit)
	if err != nil {
		return race.Card{}, err
	}
	return race.Card{Rank: c.Rank, Suit: s}, nil
}
