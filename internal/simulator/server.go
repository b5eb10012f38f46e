package simulator

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
	"github.com/radieske/bull-run-boost/pkg/contracts/topics"
)

// Server atende o socket do jogo para execução local do cliente.
// Cada conexão ganha uma Table própria, descartada na desconexão.
type Server struct {
	Log          *zap.Logger
	Seed         int64   // 0 = aleatório
	StartBalance float64 // padrão 100

	OnConnect    func()
	OnDisconnect func()
	OnMessage    func(msgType string)

	upgrader websocket.Upgrader
	conns    atomic.Int64

	seedMu sync.Mutex
	seeds  *rand.Rand
}

func NewServer(log *zap.Logger, seed int64, startBalance float64) *Server {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if startBalance <= 0 {
		startBalance = StartBalance
	}
	return &Server{
		Log:          log,
		Seed:         seed,
		StartBalance: startBalance,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		seeds: rand.New(rand.NewSource(seed)),
	}
}

// Connections devolve o número de clientes conectados
func (s *Server) Connections() int64 { return s.conns.Load() }

// HandleWS lê as mensagens do cliente e responde na mesma goroutine;
// só ela escreve na conexão
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	table := NewTable(id, s.StartBalance, s.newRand())
	log := s.Log.With(zap.String("client_id", id))

	s.conns.Add(1)
	if s.OnConnect != nil {
		s.OnConnect()
	}
	log.Info("ws client connected")
	defer func() {
		s.conns.Add(-1)
		if s.OnDisconnect != nil {
			s.OnDisconnect()
		}
		log.Info("ws client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn("invalid message", zap.Error(err))
			continue
		}
		if s.OnMessage != nil {
			s.OnMessage(env.Type)
		}

		for _, out := range s.dispatch(table, env) {
			b, err := events.Encode(out.typ, out.v)
			if err != nil {
				log.Error("encode failed", zap.String("type", out.typ), zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Warn("ws write failed", zap.Error(err))
				return
			}
		}
	}
}

type reply struct {
	typ string
	v   any
}

// dispatch aplica a mensagem na mesa e monta as respostas em ordem
func (s *Server) dispatch(t *Table, env events.Envelope) []reply {
	switch env.Type {
	case topics.StartRace:
		var req events.StartRace
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return refuse(ErrNoBet)
			}
		}
		started, err := t.StartRace(req)
		if err != nil {
			return refuse(err)
		}
		return []reply{{topics.RaceStarted, started}}

	case topics.DrawCard:
		drawn, fin, err := t.DrawCard()
		if err != nil {
			return refuse(err)
		}
		out := []reply{{topics.CardDrawn, drawn}}
		if fin != nil {
			out = append(out, reply{topics.RaceFinished, fin})
		}
		return out

	case topics.ClaimBonus:
		b, err := t.ClaimBonus()
		if err != nil {
			return refuse(err)
		}
		return []reply{{topics.BonusClaimed, b}}

	default:
		s.Log.Debug("unknown message", zap.String("type", env.Type))
		return nil
	}
}

func refuse(err error) []reply {
	var r Refusal
	msg := "An error occurred during the race. Please try again."
	if errors.As(err, &r) {
		msg = r.Error()
	}
	return []reply{{topics.ErrorMessage, events.ErrorMessage{Message: msg}}}
}

// newRand deriva um gerador por conexão; com seed fixa a sequência de
// baralhos é reproduzível
func (s *Server) newRand() *rand.Rand {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return rand.New(rand.NewSource(s.seeds.Int63()))
}
