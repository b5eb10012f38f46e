package uibridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

// sendBuffer é quantos avisos uma conexão lenta pode acumular antes de perder os próximos
const sendBuffer = 32

// client é uma conexão da UI com a sua fila de saída; só writeLoop escreve em conn
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub mantém as conexões da camada de apresentação e repassa os avisos
// da sessão para todas elas. Broadcast só enfileira: quem chama (o loop da
// sessão) nunca espera pela rede.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}

	dropped atomic.Int64
}

// NewHub cria o hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		clients:  make(map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão; o cliente só envia ping
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go h.writeLoop(c)
	defer h.unregister(c)

	pong, _ := json.Marshal(map[string]string{"type": "pong"})
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			h.enqueue(c, pong)
		}
	}
}

// writeLoop esvazia a fila da conexão; termina quando a fila é fechada
func (h *Hub) writeLoop(c *client) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			_ = c.conn.Close() // destrava o ReadJSON do HandleWS
			for range c.send {
			}
			return
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister remove e fecha a fila sob o lock de escrita, então nenhum
// Broadcast concorrente envia para um canal fechado
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped conta as mensagens descartadas por filas cheias
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Broadcast enfileira o payload já serializado para todas as conexões
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.enqueue(c, payload)
	}
}

// enqueue nunca bloqueia; com a fila cheia o aviso é descartado.
// Chamado com h.mu (leitura) ou pelo próprio HandleWS, antes do unregister.
func (h *Hub) enqueue(c *client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.dropped.Add(1)
		h.log.Debug("ws client queue full, notification dropped")
	}
}

// Notify faz do hub um notify.Sink quando não há Redis no caminho
func (h *Hub) Notify(_ context.Context, n events.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	h.Broadcast(b)
	return nil
}
