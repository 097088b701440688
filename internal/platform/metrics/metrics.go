package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registrar's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	StateTransitions    *prometheus.CounterVec
	ReconcileTicks      *prometheus.CounterVec
	PaymentPolls        *prometheus.CounterVec
	PaymentOutcomes     *prometheus.CounterVec
	ActivePolls         prometheus.Gauge
	OTPSends            *prometheus.CounterVec
	OTPVerifications    *prometheus.CounterVec
	BackendCalls        *prometheus.CounterVec
	BackendCallDuration *prometheus.HistogramVec
	BackendCircuitOpen  prometheus.Gauge
}

// New registers collectors on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_state_transitions_total",
			Help: "Registration state transitions",
		}, []string{"from", "to"}),
		ReconcileTicks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_reconcile_ticks_total",
			Help: "Background reconciliation ticks by outcome",
		}, []string{"outcome"}),
		PaymentPolls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_payment_polls_total",
			Help: "Payment status reads by observed status or error",
		}, []string{"result"}),
		PaymentOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_payment_outcomes_total",
			Help: "Finished payment polling loops by outcome",
		}, []string{"outcome"}),
		ActivePolls: f.NewGauge(prometheus.GaugeOpts{
			Name: "registrar_payment_active_polls",
			Help: "Payment polling loops currently running",
		}),
		OTPSends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_otp_sends_total",
			Help: "One-time code send attempts",
		}, []string{"channel", "outcome"}),
		OTPVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_otp_verifications_total",
			Help: "One-time code verification attempts",
		}, []string{"outcome"}),
		BackendCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_backend_calls_total",
			Help: "Backend REST calls by operation and outcome",
		}, []string{"op", "outcome"}),
		BackendCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_backend_call_duration_seconds",
			Help:    "Backend REST call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		BackendCircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "registrar_backend_circuit_open",
			Help: "1 while the backend circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncrementStateTransition(from, to string) {
	if m == nil {
		return
	}
	m.StateTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncrementReconcileTick(outcome string) {
	if m == nil {
		return
	}
	m.ReconcileTicks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementPaymentPoll(result string) {
	if m == nil {
		return
	}
	m.PaymentPolls.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementPaymentOutcome(outcome string) {
	if m == nil {
		return
	}
	m.PaymentOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddActivePolls(delta int) {
	if m == nil {
		return
	}
	m.ActivePolls.Add(float64(delta))
}

func (m *Metrics) IncrementOTPSend(channel, outcome string) {
	if m == nil {
		return
	}
	m.OTPSends.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) IncrementOTPVerification(outcome string) {
	if m == nil {
		return
	}
	m.OTPVerifications.WithLabelValues(outcome).Inc()
}

// ObserveBackendCall records one backend call.
func (m *Metrics) ObserveBackendCall(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendCalls.WithLabelValues(op, outcome).Inc()
	m.BackendCallDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) SetBackendCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BackendCircuitOpen.Set(1)
		return
	}
	m.BackendCircuitOpen.Set(0)
}
