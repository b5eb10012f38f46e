package uibridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/notify"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

// uma conexão que não lê não pode segurar quem publica
func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	stuck := &client{send: make(chan []byte, 1)}
	hub.register(stuck)

	done := make(chan struct{})
	go func() {
		hub.Broadcast([]byte(`{"n":1}`))
		hub.Broadcast([]byte(`{"n":2}`))
		hub.Broadcast([]byte(`{"n":3}`))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full queue")
	}
	assert.Equal(t, int64(2), hub.Dropped())
	assert.Equal(t, `{"n":1}`, string(<-stuck.send))

	hub.unregister(stuck)
	assert.Equal(t, 0, hub.Len())
	hub.Broadcast([]byte(`{"n":4}`))
}

// sessão -> RedisSink -> canal -> subscriber -> hub -> navegador
func TestRedisNotifications_ReachBrowser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	StartRedisSubscriber(ctx, rdb, "race_notifications", hub, zap.NewNop())
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("race_notifications")["race_notifications"] == 1
	}, time.Second, 5*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	// payload que não é JSON fica no caminho
	mr.Publish("race_notifications", "not json")

	sink := notify.NewRedisSink(rdb, "race_notifications")
	require.NoError(t, sink.Notify(ctx, events.Notification{
		Level: notify.LevelSuccess, Kind: "race-finished", Message: "Clubs won! You win 30 $CATTLE!",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var n events.Notification
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, "Clubs won! You win 30 $CATTLE!", n.Message)
	assert.Equal(t, notify.LevelSuccess, n.Level)
	assert.Equal(t, "race-finished", n.Kind)
}
