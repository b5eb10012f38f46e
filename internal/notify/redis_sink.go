package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

// RedisSink publica os avisos no canal Pub/Sub lido pelo hub da UI
type RedisSink struct {
	r       *redis.Client
	channel string
}

func NewRedisSink(r *redis.Client, channel string) *RedisSink {
	return &RedisSink{r: r, channel: channel}
}

func (s *RedisSink) Notify(ctx context.Context, n events.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := s.r.Publish(ctx, s.channel, b).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
