package race

// HistoryCapacity é o número de resultados mantidos para exibição
const HistoryCapacity = 10

// Outcome é um resultado passado: quem venceu e se o jogador ganhou
type Outcome struct {
	Winner Suit `json:"winner"`
	Won    bool `json:"won"`
}

// History guarda os últimos resultados em ordem de inserção (buffer circular).
// Apenas exibição; não é estado autoritativo.
type History struct {
	items []Outcome
	start int
	size  int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = HistoryCapacity
	}
	return &History{items: make([]Outcome, capacity)}
}

// Push adiciona um resultado, descartando o mais antigo quando cheio
func (h *History) Push(o Outcome) {
	c := len(h.items)
	if h.size < c {
		h.items[(h.start+h.size)%c] = o
		h.size++
		return
	}
	h.items[h.start] = o
	h.start = (h.start + 1) % c
}

func (h *History) Len() int { return h.size }

// Items devolve uma cópia, do mais antigo para o mais recente
func (h *History) Items() []Outcome {
	out := make([]Outcome, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.items[(h.start+i)%len(h.items)]
	}
	return out
}
