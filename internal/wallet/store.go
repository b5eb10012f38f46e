package wallet

import (
	"context"
	"errors"
	"math"
	"sync"
)

var ErrNegativeBalance = errors.New("balance would become negative")

// Store é a fonte do saldo do jogador. O servidor é autoritativo:
// Set grava o snapshot recebido, Add aplica ajustes otimistas locais.
type Store interface {
	Balance(ctx context.Context) (int64, error)
	Set(ctx context.Context, balance int64) error
	Add(ctx context.Context, delta int64) (int64, error)
}

// FromServer converte o saldo (possivelmente fracionado) enviado pelo servidor
func FromServer(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(math.Floor(v + 1e-9))
}

// MemStore guarda o saldo em memória; usado em testes e execução offline
type MemStore struct {
	mu      sync.Mutex
	balance int64
}

func NewMemStore(initial int64) *MemStore { return &MemStore{balance: initial} }

func (m *MemStore) Balance(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, nil
}

func (m *MemStore) Set(_ context.Context, balance int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = balance
	return nil
}

func (m *MemStore) Add(_ context.Context, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance+delta < 0 {
		return m.balance, ErrNegativeBalance
	}
	m.balance += delta
	return m.balance, nil
}
