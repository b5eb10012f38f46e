package gamesocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

var ErrNotConnected = errors.New("game socket not connected")

// Handler recebe as mensagens do servidor na ordem em que chegam
type Handler interface {
	HandleMessage(ctx context.Context, env events.Envelope) error
	Disconnected(ctx context.Context) error
}

// Client mantém a conexão com o servidor do jogo e reconecta quando ela cai.
// Send pode ser chamado de qualquer goroutine.
type Client struct {
	URL            string
	Log            *zap.Logger
	Handler        Handler
	ReconnectDelay time.Duration // padrão 3s
	Header         http.Header   // opcional (ex.: Authorization)

	OnSent     func(msgType string) // métricas
	OnReceived func(msgType string)

	mu   sync.Mutex // protege conn e serializa escritas
	conn *websocket.Conn
}

// Start inicia o loop de conexão e escuta. Retorna quando o contexto é cancelado.
func (c *Client) Start(ctx context.Context) {
	delay := c.ReconnectDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}
	for {
		if ctx.Err() != nil {
			c.Log.Info("context canceled, stopping game socket")
			return
		}
		if err := c.connectAndListen(ctx); err != nil {
			c.Log.Warn("game socket closed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping game socket")
			return
		case <-time.After(delay):
		}
	}
}

// connectAndListen abre a conexão e entrega cada envelope ao handler
func (c *Client) connectAndListen(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.URL, c.Header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.URL, err)
	}
	c.setConn(conn)
	c.Log.Info("connected to game server", zap.String("url", c.URL))

	// ReadMessage não observa o contexto; fechar a conexão destrava a leitura
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	defer func() {
		c.setConn(nil)
		_ = conn.Close()
		if err := c.Handler.Disconnected(context.WithoutCancel(ctx)); err != nil {
			c.Log.Debug("disconnect not delivered", zap.Error(err))
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		var env events.Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
			c.Log.Warn("invalid message", zap.ByteString("raw", message), zap.Error(err))
			continue
		}
		if c.OnReceived != nil {
			c.OnReceived(env.Type)
		}
		if err := c.Handler.HandleMessage(ctx, env); err != nil {
			return fmt.Errorf("handle %s: %w", env.Type, err)
		}
	}
}

// Send serializa a mensagem no envelope {type, data} e escreve no socket
func (c *Client) Send(msgType string, v any) error {
	b, err := events.Encode(msgType, v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	if c.OnSent != nil {
		c.OnSent(msgType)
	}
	return nil
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Health serve de check para o /healthz
func (c *Client) Health(context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}
