package v2gmetrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	v2gmetrics "github.com/dantte-lp/v2gsim/internal/metrics"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := v2gmetrics.NewCollector(reg)

	if c.Sessions == nil {
		t.Error("Sessions is nil")
	}
	if c.SessionsTotal == nil {
		t.Error("SessionsTotal is nil")
	}
	if c.FramesSent == nil {
		t.Error("FramesSent is nil")
	}
	if c.FramesReceived == nil {
		t.Error("FramesReceived is nil")
	}
	if c.FramesDropped == nil {
		t.Error("FramesDropped is nil")
	}
	if c.Timeouts == nil {
		t.Error("Timeouts is nil")
	}
	if c.StateTransitions == nil {
		t.Error("StateTransitions is nil")
	}

	// Verify all metrics are registered by gathering them.
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := v2gmetrics.NewCollector(reg)

	c.SessionStarted("10.0.0.1:1234")
	if val := gaugeValue(t, c.Sessions); val != 1 {
		t.Errorf("after SessionStarted: Sessions = %v, want 1", val)
	}

	c.SessionStarted("10.0.0.2:1234")
	if val := gaugeValue(t, c.Sessions); val != 2 {
		t.Errorf("after second SessionStarted: Sessions = %v, want 2", val)
	}

	c.SessionStopped("10.0.0.1:1234", true)
	if val := gaugeValue(t, c.Sessions); val != 1 {
		t.Errorf("after SessionStopped: Sessions = %v, want 1", val)
	}
	if val := counterVecValue(t, c.SessionsTotal, "successful"); val != 1 {
		t.Errorf("SessionsTotal{outcome=successful} = %v, want 1", val)
	}

	c.SessionStopped("10.0.0.2:1234", false)
	if val := counterVecValue(t, c.SessionsTotal, "failed"); val != 1 {
		t.Errorf("SessionsTotal{outcome=failed} = %v, want 1", val)
	}
}

func TestFrameCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := v2gmetrics.NewCollector(reg)

	c.FrameSent("peer")
	c.FrameSent("peer")
	c.FrameReceived("peer")
	c.FrameDropped("peer")
	c.FrameDropped("peer")
	c.FrameDropped("peer")

	if val := counterValue(t, c.FramesSent); val != 2 {
		t.Errorf("FramesSent = %v, want 2", val)
	}
	if val := counterValue(t, c.FramesReceived); val != 1 {
		t.Errorf("FramesReceived = %v, want 1", val)
	}
	if val := counterValue(t, c.FramesDropped); val != 3 {
		t.Errorf("FramesDropped = %v, want 3", val)
	}
}

func TestTimeoutCounter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := v2gmetrics.NewCollector(reg)

	c.Timeout("peer")

	if val := counterValue(t, c.Timeouts); val != 1 {
		t.Errorf("Timeouts = %v, want 1", val)
	}
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := v2gmetrics.NewCollector(reg)

	c.StateTransition("peer", "SupportedAppProtocol", "SessionSetup")
	c.StateTransition("peer", "SessionSetup", "ServiceDiscovery")
	c.StateTransition("peer", "SupportedAppProtocol", "SessionSetup")

	if val := counterVecValue(t, c.StateTransitions, "SupportedAppProtocol", "SessionSetup"); val != 2 {
		t.Errorf("StateTransitions(SupportedAppProtocol->SessionSetup) = %v, want 2", val)
	}
	if val := counterVecValue(t, c.StateTransitions, "SessionSetup", "ServiceDiscovery"); val != 1 {
		t.Errorf("StateTransitions(SessionSetup->ServiceDiscovery) = %v, want 1", val)
	}
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func counterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
