// Package registration drives an attendee through editing, confirmation and
// payment. The cached status is written only here, and every reconciliation
// read overwrites it.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"registrar/internal/backend"
	"registrar/internal/domain"
	"registrar/internal/identity"
	"registrar/internal/payment"
	"registrar/internal/platform/metrics"
	dErrors "registrar/pkg/domain-errors"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/task"
)

// Backend is the slice of the backend the machine calls directly.
type Backend interface {
	backend.Events
	backend.Status
	backend.Invitations
}

// ContactVerifier reports whether a contact identifier has been proven.
type ContactVerifier interface {
	IsVerified(identifier string) bool
}

// Config holds the machine's timings and policy.
type Config struct {
	ReconcileInterval time.Duration
	PollInterval      time.Duration
	RetrySchedule     payment.Schedule
	// RequireVerifiedContact gates Submit on a verified contact for every event.
	RequireVerifiedContact bool
}

func DefaultConfig() Config {
	return Config{
		ReconcileInterval: 5 * time.Second,
		PollInterval:      payment.DefaultPollInterval,
		RetrySchedule:     payment.DefaultRetrySchedule,
	}
}

// Machine is the registration state machine for one attendee session.
type Machine struct {
	eventID  string
	backend  Backend
	resolver *identity.Resolver
	payments *payment.Engine
	verifier ContactVerifier
	config   Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  audit.Emitter
	tracer   trace.Tracer

	base  context.Context
	stop  context.CancelFunc
	reads singleflight.Group

	mu          sync.Mutex
	started     bool
	event       domain.Event
	state       State
	status      domain.RegistrationStatus
	record      *domain.AttendeeRecord
	waived      bool
	editMode    bool
	submitting  bool
	formErrors  map[string]string
	formError   string
	payment     PaymentView
	reconciler  *task.Handle
	poll        *task.Handle
	pollID      string
	pollGen     uint64
	subscribers map[int]func(View)
	nextSub     int
	pending     []audit.Event
}

type Option func(*Machine)

func WithConfig(cfg Config) Option {
	return func(m *Machine) {
		if cfg.ReconcileInterval > 0 {
			m.config.ReconcileInterval = cfg.ReconcileInterval
		}
		if cfg.PollInterval > 0 {
			m.config.PollInterval = cfg.PollInterval
		}
		if cfg.RetrySchedule != nil {
			m.config.RetrySchedule = cfg.RetrySchedule
		}
		m.config.RequireVerifiedContact = cfg.RequireVerifiedContact
	}
}

func WithVerifier(v ContactVerifier) Option {
	return func(m *Machine) {
		m.verifier = v
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = mt
	}
}

func WithAuditor(a audit.Emitter) Option {
	return func(m *Machine) {
		if a != nil {
			m.auditor = a
		}
	}
}

func New(eventID string, b Backend, resolver *identity.Resolver, payments *payment.Engine, opts ...Option) (*Machine, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	if b == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver is required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment engine is required")
	}
	base, stop := context.WithCancel(context.Background())
	m := &Machine{
		eventID:     eventID,
		backend:     b,
		resolver:    resolver,
		payments:    payments,
		config:      DefaultConfig(),
		logger:      slog.Default(),
		auditor:     audit.Discard{},
		tracer:      otel.Tracer("registrar/internal/registration"),
		base:        base,
		stop:        stop,
		subscribers: make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start loads the event, reads the current status and starts reconciling.
func (m *Machine) Start(ctx context.Context) error {
	event, err := m.backend.GetEvent(ctx, m.eventID)
	if err != nil {
		return fmt.Errorf("load event %s: %w", m.eventID, err)
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "registration already started")
	}
	m.started = true
	m.event = event
	m.mu.Unlock()

	st, err := m.readStatus(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "initial status read failed", "event_id", m.eventID, "error", err)
	} else {
		m.loadRecord(ctx, st.AttendeeID)
		m.apply(ctx, st, "start")
	}
	m.resumePayment(ctx)

	m.mu.Lock()
	m.reconciler = task.Every(m.base, "registration-reconcile", m.config.ReconcileInterval, m.reconcile)
	m.mu.Unlock()
	return nil
}

// loadRecord reads the attendee of an existing registration so the party
// size and paying flag are known without a resubmit. A failed read leaves
// the record unknown; the ticket then follows the event.
func (m *Machine) loadRecord(ctx context.Context, attendeeID string) {
	if attendeeID == "" {
		return
	}
	rec, err := m.resolver.Record(ctx, m.eventID, attendeeID)
	if err != nil {
		m.logger.WarnContext(ctx, "attendee read failed", "event_id", m.eventID, "attendee_id", attendeeID, "error", err)
		return
	}
	m.mu.Lock()
	if m.record == nil {
		m.record = &rec
	}
	m.mu.Unlock()
}

// resumePayment restarts polling for the registration's open payment. A
// payment started before a restart is adopted from an authoritative read.
func (m *Machine) resumePayment(ctx context.Context) {
	m.mu.Lock()
	id, attendeeID := m.status.PaymentID, m.status.AttendeeID
	if m.state != StateAwaitingPayment || id == "" {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	tx, err := m.payments.Adopt(ctx, id, m.eventID, attendeeID)
	if err != nil {
		m.logger.WarnContext(ctx, "resume payment failed", "payment_id", id, "error", err)
		return
	}
	m.mu.Lock()
	if m.state == StateAwaitingPayment {
		m.payment.setTransaction(tx)
		if tx.Status.IsTerminal() {
			m.applyOutcomeLocked(payment.ResultOf(tx))
		} else {
			m.startPollLocked(id, payment.Continuous(m.config.PollInterval))
		}
	}
	m.unlockAndNotify(ctx)
}

// Reconcile performs one reconciliation read regardless of the interval.
func (m *Machine) Reconcile(ctx context.Context) {
	m.reconcile(ctx)
}

func (m *Machine) reconcile(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateEditing || m.editMode || m.submitting {
		m.mu.Unlock()
		m.metrics.IncrementReconcileTick("skipped")
		return
	}
	m.mu.Unlock()

	ctx, span := m.tracer.Start(ctx, "registration.reconcile")
	defer span.End()

	st, err := m.readStatus(ctx)
	if err != nil {
		m.metrics.IncrementReconcileTick("error")
		m.logger.WarnContext(ctx, "reconcile status read failed", "event_id", m.eventID, "error", err)
		return
	}
	m.metrics.IncrementReconcileTick("ok")
	m.apply(ctx, st, "reconcile")
}

// readStatus coalesces concurrent status reads into one backend call.
func (m *Machine) readStatus(ctx context.Context) (domain.RegistrationStatus, error) {
	v, err, _ := m.reads.Do(m.eventID, func() (any, error) {
		return m.backend.GetRegistrationStatus(ctx, m.eventID)
	})
	if err != nil {
		return domain.RegistrationStatus{}, err
	}
	return v.(domain.RegistrationStatus), nil
}

// apply overwrites the cached status with an authoritative read.
func (m *Machine) apply(ctx context.Context, st domain.RegistrationStatus, reason string) {
	m.mu.Lock()
	if m.editMode || m.submitting {
		m.mu.Unlock()
		return
	}
	m.status = st
	m.setStateLocked(m.computeLocked(), reason)
	m.unlockAndNotify(ctx)
}

func (m *Machine) computeLocked() State {
	var paying *bool
	if m.record != nil {
		paying = &m.record.IsPaying
	}
	return ComputeState(m.status, EffectiveTicket(m.event.TicketType, paying, m.waived))
}

// setStateLocked moves to next. Leaving the payment step stops polling.
func (m *Machine) setStateLocked(next State, reason string) {
	prev := m.state
	if next == prev {
		return
	}
	m.state = next
	if prev == StateAwaitingPayment {
		m.cancelPollLocked()
	}
	if next == StateCompleted {
		m.payment.clearError()
		m.payment.Message = ""
		m.payment.CanManualVerify = false
	}
	m.metrics.IncrementStateTransition(prev.String(), next.String())
	m.pending = append(m.pending, audit.Event{
		Action:     audit.ActionStateChanged,
		EventID:    m.eventID,
		AttendeeID: m.status.AttendeeID,
		Subject:    next.String(),
		Decision:   prev.String() + "->" + next.String(),
		Reason:     reason,
	})
}

// startPollLocked replaces any running loop. Updates from a replaced loop
// are dropped by generation, even for the same payment id.
func (m *Machine) startPollLocked(paymentID string, schedule payment.Schedule) {
	m.cancelPollLocked()
	m.pollGen++
	gen := m.pollGen
	m.pollID = paymentID
	m.payment.Polling = true
	m.poll = m.payments.Poll(paymentID, schedule, func(res payment.Result) {
		m.onPaymentUpdate(gen, res)
	})
}

func (m *Machine) cancelPollLocked() {
	if m.pollID != "" {
		m.payments.CancelPoll(m.pollID)
	}
	m.pollGen++
	m.poll = nil
	m.pollID = ""
	m.payment.Polling = false
}

// unlockAndNotify releases m.mu, then flushes queued audit events and
// publishes a snapshot to subscribers.
func (m *Machine) unlockAndNotify(ctx context.Context) {
	view := m.viewLocked()
	subs := make([]func(View), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, e := range pending {
		if err := m.auditor.Emit(ctx, e); err != nil {
			m.logger.WarnContext(ctx, "audit emit failed", "action", e.Action, "error", err)
		}
	}
	for _, fn := range subs {
		fn(view)
	}
}

// Subscribe registers fn for every view change and returns its cancel func.
// fn is called without the machine lock held and must not block.
func (m *Machine) Subscribe(fn func(View)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Close stops reconciliation and payment polling and waits for both loops.
func (m *Machine) Close() {
	m.mu.Lock()
	reconciler, poll := m.reconciler, m.poll
	m.reconciler = nil
	m.cancelPollLocked()
	m.mu.Unlock()

	m.stop()
	reconciler.Stop()
	poll.Stop()
}

func (m *Machine) requireStarted() error {
	if !m.started {
		return dErrors.New(dErrors.CodeInvalidState, "registration has not started")
	}
	return nil
}

// userMessage is the text shown for err.
func userMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		if de.Code == dErrors.CodeInternal {
			return "something went wrong, please try again"
		}
		return de.Message
	}
	return "something went wrong, please try again"
}
