package metrics

import "github.com/prometheus/client_golang/prometheus"

// Race agrupa as métricas da sessão de corrida do cliente
type Race struct {
	Started    prometheus.Counter
	Settled    *prometheus.CounterVec // outcome: win | loss
	Rejections *prometheus.CounterVec // reason
	Burned     prometheus.Counter
	Winnings   prometheus.Counter
	SocketIn   *prometheus.CounterVec // type
	SocketOut  *prometheus.CounterVec // type
}

// NewRace cria e registra as métricas no registerer informado
func NewRace(reg prometheus.Registerer) *Race {
	m := &Race{
		Started:    prometheus.NewCounter(prometheus.CounterOpts{Name: "race_started_total", Help: "corridas iniciadas"}),
		Settled:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_settled_total", Help: "corridas liquidadas por resultado"}, []string{"outcome"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_rejections_total", Help: "operações rejeitadas por motivo"}, []string{"reason"}),
		Burned:     prometheus.NewCounter(prometheus.CounterOpts{Name: "race_burned_tokens_total", Help: "tokens queimados na largada"}),
		Winnings:   prometheus.NewCounter(prometheus.CounterOpts{Name: "race_winnings_tokens_total", Help: "prêmios calculados"}),
		SocketIn:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_socket_messages_in_total", Help: "mensagens recebidas do servidor"}, []string{"type"}),
		SocketOut:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_socket_messages_out_total", Help: "mensagens enviadas ao servidor"}, []string{"type"}),
	}
	reg.MustRegister(m.Started, m.Settled, m.Rejections, m.Burned, m.Winnings, m.SocketIn, m.SocketOut)
	return m
}

// Audit agrupa as métricas do audit-worker
type Audit struct {
	Consumed   prometheus.Counter
	Persist    prometheus.Counter
	Duplicates prometheus.Counter
	Errors     *prometheus.CounterVec // stage
}

func NewAudit(reg prometheus.Registerer) *Audit {
	m := &Audit{
		Consumed:   prometheus.NewCounter(prometheus.CounterOpts{Name: "race_audit_messages_consumed_total", Help: "mensagens consumidas"}),
		Persist:    prometheus.NewCounter(prometheus.CounterOpts{Name: "race_audit_db_writes_total", Help: "liquidações gravadas"}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{Name: "race_audit_duplicates_total", Help: "reentregas ignoradas"}),
		Errors:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_audit_errors_total", Help: "erros por estágio"}, []string{"stage"}),
	}
	reg.MustRegister(m.Consumed, m.Persist, m.Duplicates, m.Errors)
	return m
}

// Simulator agrupa as métricas do race-simulator
type Simulator struct {
	Connections prometheus.Gauge
	Messages    *prometheus.CounterVec // type
}

func NewSimulator(reg prometheus.Registerer) *Simulator {
	m := &Simulator{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{Name: "race_simulator_ws_connections", Help: "clientes conectados"}),
		Messages:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_simulator_messages_total", Help: "mensagens recebidas por tipo"}, []string{"type"}),
	}
	reg.MustRegister(m.Connections, m.Messages)
	return m
}
