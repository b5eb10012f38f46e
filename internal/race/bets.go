package race

import "math"

// BetCycle é a única política de aposta aceita: valores discretos, ciclados pela UI
var BetCycle = []int64{0, 5, 10, 20, 50}

// AllowedBet informa se o valor pertence ao ciclo de apostas
func AllowedBet(amount int64) bool {
	for _, v := range BetCycle {
		if v == amount {
			return true
		}
	}
	return false
}

// NextBet devolve o próximo valor do ciclo; depois do maior volta para zero
func NextBet(current int64) int64 {
	for _, v := range BetCycle {
		if v > current {
			return v
		}
	}
	return BetCycle[0]
}

// floorAmount arredonda para baixo tolerando o erro de ponto flutuante
// (ex: 10 * 2.3 = 22.999999999999996)
func floorAmount(x float64) int64 {
	return int64(math.Floor(x + 1e-9))
}
