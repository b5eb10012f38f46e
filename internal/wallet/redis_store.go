package wallet

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// addScript aplica o delta só se o saldo resultante não ficar negativo
var addScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or ARGV[2])
local nxt = cur + tonumber(ARGV[1])
if nxt < 0 then
  return {0, cur}
end
redis.call("SET", KEYS[1], nxt)
return {1, nxt}
`)

// RedisStore mantém o último saldo conhecido do jogador em "player:{id}:balance".
// Sem snapshot ainda, vale o saldo inicial da config.
type RedisStore struct {
	R        *redis.Client
	PlayerID string
	Initial  int64
}

func NewRedisStore(r *redis.Client, playerID string, initial int64) *RedisStore {
	return &RedisStore{R: r, PlayerID: playerID, Initial: initial}
}

func (s *RedisStore) key() string { return "player:" + s.PlayerID + ":balance" }

func (s *RedisStore) Balance(ctx context.Context) (int64, error) {
	v, err := s.R.Get(ctx, s.key()).Int64()
	if err == redis.Nil {
		return s.Initial, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, balance int64) error {
	if err := s.R.Set(ctx, s.key(), balance, 0).Err(); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (s *RedisStore) Add(ctx context.Context, delta int64) (int64, error) {
	res, err := addScript.Run(ctx, s.R, []string{s.key()}, delta, s.Initial).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("add balance: %w", err)
	}
	if res[0] == 0 {
		return res[1], ErrNegativeBalance
	}
	return res[1], nil
}
