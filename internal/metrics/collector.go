// Package v2gmetrics implements the metrics part of the ambient stack
// (spec §2.1): a Prometheus Collector that is itself a session.Observer a
// session.Machine reports into, exposing an active-sessions gauge and
// process-wide counters. It keeps its own metrics and does not read
// internal/registry.Registry.
package v2gmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "v2gsim"
	subsystem = "session"
)

// Label names for session metrics.
const (
	labelFromState = "from_state"
	labelToState   = "to_state"
)

// -------------------------------------------------------------------------
// Collector — Prometheus V2G session metrics
// -------------------------------------------------------------------------

// Collector holds the Prometheus metrics for V2G sessions and implements
// session.Observer directly (no adapter struct needed -- the label
// arrangement below matches the Observer method set one for one).
//
// Sessions tracks currently active sessions; the frame/timeout counters are
// process-wide totals rather than per-peer, since a peer's labelset
// disappears the moment its session ends and Prometheus discourages
// high-cardinality, short-lived label values for ephemeral TCP peers.
type Collector struct {
	// Sessions tracks the number of currently active V2G sessions.
	Sessions prometheus.Gauge

	// SessionsTotal counts sessions started, partitioned by whether they
	// ultimately terminated successfully.
	SessionsTotal *prometheus.CounterVec

	// FramesSent counts V2GTP frames transmitted.
	FramesSent prometheus.Counter

	// FramesReceived counts V2GTP frames received.
	FramesReceived prometheus.Counter

	// FramesDropped counts inbound frames rejected by the V2GTP framer: a
	// malformed header, a length mismatch, or a payload type not legal
	// before protocol negotiation.
	FramesDropped prometheus.Counter

	// Timeouts counts sessions that ended because no message arrived
	// before the current state's deadline (spec §4.3 suspension point i).
	Timeouts prometheus.Counter

	// StateTransitions counts state-catalogue transitions, labeled by the
	// (from, to) state name pair for alerting on stuck or flapping
	// sessions.
	StateTransitions *prometheus.CounterVec
}

// NewCollector creates a Collector with all session metrics registered
// against reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Sessions,
		c.SessionsTotal,
		c.FramesSent,
		c.FramesReceived,
		c.FramesDropped,
		c.Timeouts,
		c.StateTransitions,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active",
			Help:      "Number of currently active V2G sessions.",
		}),

		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "total",
			Help:      "Total V2G sessions started, labeled by outcome.",
		}, []string{"outcome"}),

		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_sent_total",
			Help:      "Total V2GTP frames transmitted.",
		}),

		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_received_total",
			Help:      "Total V2GTP frames received.",
		}),

		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_dropped_total",
			Help:      "Total inbound frames rejected by the V2GTP framer.",
		}),

		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "timeouts_total",
			Help:      "Total sessions ended by a message-receipt timeout.",
		}),

		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_transitions_total",
			Help:      "Total state-catalogue transitions.",
		}, []string{labelFromState, labelToState}),
	}
}

// -------------------------------------------------------------------------
// session.Observer implementation
// -------------------------------------------------------------------------

// SessionStarted implements session.Observer.
func (c *Collector) SessionStarted(string) {
	c.Sessions.Inc()
}

// SessionStopped implements session.Observer.
func (c *Collector) SessionStopped(_ string, successful bool) {
	c.Sessions.Dec()
	outcome := "failed"
	if successful {
		outcome = "successful"
	}
	c.SessionsTotal.WithLabelValues(outcome).Inc()
}

// FrameSent implements session.Observer.
func (c *Collector) FrameSent(string) {
	c.FramesSent.Inc()
}

// FrameReceived implements session.Observer.
func (c *Collector) FrameReceived(string) {
	c.FramesReceived.Inc()
}

// FrameDropped implements session.Observer.
func (c *Collector) FrameDropped(string) {
	c.FramesDropped.Inc()
}

// StateTransition implements session.Observer.
func (c *Collector) StateTransition(_ string, from, to string) {
	c.StateTransitions.WithLabelValues(from, to).Inc()
}

// Timeout implements session.Observer.
func (c *Collector) Timeout(string) {
	c.Timeouts.Inc()
}
