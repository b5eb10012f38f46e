package race

import "math"

const (
	// DefaultOdds é o multiplicador de um baralho completo (4 naipes equiprováveis)
	DefaultOdds = 4.0

	minOdds = 1.0
	maxOdds = 10.0
)

// FlatOdds devolve a tabela padrão, usada até o servidor mandar um snapshot
func FlatOdds() map[Suit]float64 {
	out := make(map[Suit]float64, len(Suits))
	for _, s := range Suits {
		out[s] = DefaultOdds
	}
	return out
}

// OddsFromRemaining calcula as odds a partir das cartas restantes por naipe.
// Arredonda para uma casa decimal e limita ao intervalo [1, 10].
func OddsFromRemaining(remaining map[Suit]int) map[Suit]float64 {
	total := 0
	for _, s := range Suits {
		total += remaining[s]
	}
	if total == 0 {
		return FlatOdds()
	}

	out := make(map[Suit]float64, len(Suits))
	for _, s := range Suits {
		left := remaining[s]
		if left < 1 {
			left = 1
		}
		o := DefaultOdds * float64(total) / float64(left*4)
		o = math.Round(o*10) / 10
		out[s] = math.Min(maxOdds, math.Max(minOdds, o))
	}
	return out
}
