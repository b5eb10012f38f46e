package wallet

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStore_InitialBalanceUntilSnapshot(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, "cowboy", 100)

	bal, err := s.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)
	assert.False(t, mr.Exists("player:cowboy:balance"))

	require.NoError(t, s.Set(ctx, 42))
	bal, err = s.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal)

	v, err := mr.Get("player:cowboy:balance")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestRedisStore_AddRefusesNegativeBalance(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, "cowboy", 100)

	// sem chave, o delta parte do saldo inicial
	bal, err := s.Add(ctx, -30)
	require.NoError(t, err)
	assert.Equal(t, int64(70), bal)

	bal, err = s.Add(ctx, -80)
	assert.ErrorIs(t, err, ErrNegativeBalance)
	assert.Equal(t, int64(70), bal)

	v, err := mr.Get("player:cowboy:balance")
	require.NoError(t, err)
	assert.Equal(t, "70", v)

	bal, err = s.Add(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(110), bal)
}

func TestRedisStore_PlayersAreIsolated(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	a := NewRedisStore(rdb, "cowboy", 100)
	b := NewRedisStore(rdb, "kid", 100)

	_, err := a.Add(ctx, -50)
	require.NoError(t, err)
	bal, err := b.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, "cowboy", 100)
	mr.Close()

	_, err := s.Balance(context.Background())
	assert.Error(t, err)
	_, err = s.Add(context.Background(), 5)
	assert.Error(t, err)
}
