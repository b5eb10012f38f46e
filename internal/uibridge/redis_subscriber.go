package uibridge

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber escuta o canal de avisos e repassa cada mensagem ao hub.
// Payloads que não são JSON são descartados.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg == nil {
					continue
				}
				if !json.Valid([]byte(msg.Payload)) {
					log.Warn("notification subscriber: invalid payload", zap.String("channel", msg.Channel))
					continue
				}
				hub.Broadcast([]byte(msg.Payload))
			}
		}
	}()
}
