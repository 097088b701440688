package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementStateTransition("editing", "awaiting_confirmation")
		m.IncrementReconcileTick("ok")
		m.ObserveBackendCall("get_event", "ok", time.Millisecond)
		m.SetBackendCircuitOpen(true)
		m.AddActivePolls(1)
	})
}

func TestCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementStateTransition("editing", "awaiting_confirmation")
	m.IncrementStateTransition("editing", "awaiting_confirmation")
	m.ObserveBackendCall("get_event", "network", 20*time.Millisecond)
	m.SetBackendCircuitOpen(true)
	m.AddActivePolls(2)
	m.AddActivePolls(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StateTransitions.WithLabelValues("editing", "awaiting_confirmation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("get_event", "network")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCircuitOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivePolls))
}
