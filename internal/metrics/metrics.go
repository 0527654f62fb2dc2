package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collaboration server collectors. A nil *Metrics is safe
// to call, so components can run without a registry in tests.
type Metrics struct {
	activeClients    prometheus.Gauge
	activeRooms      prometheus.Gauge
	connectionsTotal prometheus.Counter
	broadcastsTotal  *prometheus.CounterVec
	slowClientDrops  prometheus.Counter
	executionsTotal  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		activeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coderoom_clients_active",
			Help: "Current number of connected clients.",
		}),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coderoom_rooms_active",
			Help: "Current number of live rooms.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coderoom_connections_total",
			Help: "Total client connections accepted since start.",
		}),
		broadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coderoom_broadcasts_total",
			Help: "Outbound room broadcasts grouped by event.",
		}, []string{"event"}),
		slowClientDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coderoom_slow_client_drops_total",
			Help: "Clients dropped because their send buffer was full.",
		}),
		executionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coderoom_executions_total",
			Help: "Remote code executions grouped by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.activeClients,
		m.activeRooms,
		m.connectionsTotal,
		m.broadcastsTotal,
		m.slowClientDrops,
		m.executionsTotal,
	)
	return m
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.activeClients.Inc()
	m.connectionsTotal.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.activeClients.Dec()
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.activeRooms.Set(float64(n))
}

func (m *Metrics) RecordBroadcast(event string) {
	if m == nil {
		return
	}
	m.broadcastsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordSlowClientDrop() {
	if m == nil {
		return
	}
	m.slowClientDrops.Inc()
}

func (m *Metrics) RecordExecution(result string) {
	if m == nil || result == "" {
		return
	}
	m.executionsTotal.WithLabelValues(result).Inc()
}
