package race

import (
	"fmt"
	"strings"
)

// Suit identifica uma das quatro raias da corrida (naipe da carta)
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lista as raias na ordem usada para desempate e exibição
var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

var symbols = map[Suit]string{
	Hearts:   "♥",
	Diamonds: "♦",
	Clubs:    "♣",
	Spades:   "♠",
}

// ParseSuit aceita o nome ("hearts") ou o símbolo ("♥") do naipe
func ParseSuit(s string) (Suit, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, suit := range Suits {
		if v == string(suit) || v == symbols[suit] {
			return suit, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSuit, s)
}

func (s Suit) Valid() bool {
	_, ok := symbols[s]
	return ok
}

func (s Suit) Symbol() string { return symbols[s] }

// Color segue o baralho: copas/ouros vermelhos, paus/espadas pretos
func (s Suit) Color() string {
	if s == Hearts || s == Diamonds {
		return "red"
	}
	return "black"
}

// Title devolve o nome capitalizado, usado nas mensagens de resultado
func (s Suit) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
