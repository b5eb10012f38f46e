package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

// Cache guarda no Redis a última consulta de liquidações por jogador
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewCache(r *redis.Client, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

func keyPlayer(playerID string, limit int) string {
	return "settlements:player:" + playerID + ":" + strconv.Itoa(limit)
}

func (c *Cache) Get(ctx context.Context, playerID string, limit int) ([]events.RaceSettled, bool, error) {
	b, err := c.R.Get(ctx, keyPlayer(playerID, limit)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []events.RaceSettled
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *Cache) Set(ctx context.Context, playerID string, limit int, v []events.RaceSettled) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyPlayer(playerID, limit), b, c.TTL).Err()
}

// Invalidate descarta as consultas em cache do jogador (qualquer limite)
func (c *Cache) Invalidate(ctx context.Context, playerID string) error {
	iter := c.R.Scan(ctx, 0, "settlements:player:"+playerID+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.R.Del(ctx, keys...).Err()
}
