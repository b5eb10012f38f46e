package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/notify"
	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/internal/shared/logger"
	"github.com/radieske/bull-run-boost/internal/wallet"
	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

var ErrClosed = errors.New("session closed")

// Outbound envia mensagens ao servidor do jogo (implementado pelo gamesocket)
type Outbound interface {
	Send(msgType string, v any) error
}

// SettlementPublisher registra cada liquidação para auditoria
type SettlementPublisher interface {
	PublishSettled(ctx context.Context, e events.RaceSettled) error
}

// Config reúne as dependências explícitas da sessão
type Config struct {
	Log        *zap.Logger
	PlayerID   string
	Wallet     wallet.Store
	Notify     notify.Sink
	Out        Outbound
	Audit      SettlementPublisher // opcional
	ResetDelay time.Duration       // < 0 desliga o retorno automático às apostas
	Now        func() time.Time

	OnStarted  func(rs race.RaceStart) // métricas
	OnSettled  func(st race.Settlement)
	OnRejected func(reason string)
	OnMessage  func(msgType string)
}

// View é o que a camada de apresentação enxerga da sessão
type View struct {
	race.State
	Balance       int64 `json:"balance"`
	AwaitingStart bool  `json:"awaitingStart"`
}

// pendingStart guarda a largada pedida ao servidor e ainda não confirmada
type pendingStart struct {
	balance int64
	preview race.RaceStart
}

type request struct {
	apply func(ctx context.Context) (any, error)
	reply chan result // nil para mensagens do servidor
}

type result struct {
	v   any
	err error
}

// Session é a dona do engine de corrida de um jogador. Todas as entradas
// (comandos da UI, mensagens do servidor, timers) passam pelo mesmo canal e
// são aplicadas uma de cada vez, na ordem de chegada.
type Session struct {
	cfg    Config
	log    *zap.Logger
	engine *race.Engine

	inbox chan request
	done  chan struct{}

	pending   *pendingStart
	lastStart race.RaceStart
	round     int
}

func New(cfg Config) *Session {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Notify == nil {
		cfg.Notify = notify.LogSink{Log: cfg.Log}
	}
	return &Session{
		cfg:    cfg,
		log:    logger.ForPlayer(cfg.Log, cfg.PlayerID),
		engine: race.NewEngine(),
		inbox:  make(chan request, 64),
		done:   make(chan struct{}),
	}
}

// Run processa a fila até o contexto ser cancelado
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.inbox:
			v, err := req.apply(ctx)
			if req.reply != nil {
				req.reply <- result{v: v, err: err}
			}
		}
	}
}

// do enfileira fn e espera o resultado
func (s *Session) do(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	req := request{apply: fn, reply: make(chan result, 1)}
	select {
	case s.inbox <- req:
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.v, res.err
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// post enfileira fn sem esperar; bloqueia só até a fila aceitar
func (s *Session) post(ctx context.Context, fn func(ctx context.Context) (any, error)) error {
	select {
	case s.inbox <- request{apply: fn}:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rejected registra e avisa uma pré-condição violada; devolve o próprio erro
func (s *Session) rejected(ctx context.Context, err error) error {
	var r *race.Rejection
	reason := err.Error()
	if errors.As(err, &r) {
		reason = r.Err.Error()
	}
	if s.cfg.OnRejected != nil {
		s.cfg.OnRejected(reason)
	}
	s.log.Info("rejected", zap.String("reason", reason), zap.Error(err))
	s.notify(ctx, notify.LevelError, "rejected", err.Error(), nil)
	return err
}

func (s *Session) notify(ctx context.Context, level, kind, msg string, data any) {
	n := events.Notification{Level: level, Kind: kind, Message: msg, Data: data, Ts: s.cfg.Now()}
	if err := s.cfg.Notify.Notify(ctx, n); err != nil {
		s.log.Warn("notify failed", zap.String("kind", kind), zap.Error(err))
	}
}

func (s *Session) view(ctx context.Context) View {
	bal, err := s.cfg.Wallet.Balance(ctx)
	if err != nil {
		s.log.Warn("balance read failed", zap.Error(err))
	}
	return View{State: s.engine.Snapshot(), Balance: bal, AwaitingStart: s.pending != nil}
}
