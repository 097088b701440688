// Package payment reconciles payment transactions against the backend's
// authoritative ledger.
//
// The engine never learns a payment outcome from the checkout handoff. It
// polls for status, treats transport errors as non-terminal, and on bounded
// retry exhaustion reports the payment as still processing rather than
// failed. Manual verification is the only path that completes a payment
// without a completed status read.
package payment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"registrar/internal/backend"
	"registrar/internal/domain"
	"registrar/internal/payment/store"
	"registrar/internal/platform/metrics"
	dErrors "registrar/pkg/domain-errors"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/task"
)

// ProcessingMessage is surfaced when bounded polling ends without a terminal status.
const ProcessingMessage = "payment is being processed, check back later"

// Store persists transactions. Get and FindActive return sentinel.ErrNotFound on a miss.
type Store interface {
	Save(ctx context.Context, tx *domain.PaymentTransaction) error
	Get(ctx context.Context, paymentID string) (*domain.PaymentTransaction, error)
	FindActive(ctx context.Context, eventID, attendeeID string, now time.Time) (*domain.PaymentTransaction, error)
}

// Outcome classifies a poll result.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeFailed
	OutcomeExpired
	// OutcomeInconclusive means the retry budget ran out without a terminal status.
	OutcomeInconclusive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeExpired:
		return "expired"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return "pending"
	}
}

// Final reports whether polling has stopped.
func (o Outcome) Final() bool {
	return o != OutcomePending
}

// Result is one update from a poll. Err is set for failed and expired payments.
type Result struct {
	Outcome     Outcome
	Transaction *domain.PaymentTransaction
	Message     string
	Err         error
}

// Initiation is the answer to Initiate. Transaction is nil when no payment is required.
type Initiation struct {
	RequiresPayment bool
	Transaction     *domain.PaymentTransaction
	Reused          bool
}

// ManualProof is human-supplied evidence of settlement.
type ManualProof struct {
	TransactionID string
	Amount        domain.Money
	Method        string
	ActorID       string
}

type poll struct {
	handle *task.Handle
}

// Engine owns the payment transactions of one process.
type Engine struct {
	payments backend.Payments
	store    Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  audit.Emitter
	tracer   trace.Tracer
	nowF     func() time.Time

	initiations singleflight.Group

	base context.Context
	stop context.CancelFunc

	mu    sync.Mutex
	polls map[string]*poll
}

type Option func(*Engine)

func WithStore(s Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithAuditor(a audit.Emitter) Option {
	return func(e *Engine) {
		if a != nil {
			e.auditor = a
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.nowF = now
		}
	}
}

// New creates an engine backed by an in-memory store unless WithStore is given.
func New(payments backend.Payments, opts ...Option) *Engine {
	base, stop := context.WithCancel(context.Background())
	e := &Engine{
		payments: payments,
		store:    store.NewInMemoryStore(),
		logger:   slog.Default(),
		auditor:  audit.Discard{},
		tracer:   otel.Tracer("registrar/internal/payment"),
		nowF:     time.Now,
		base:     base,
		stop:     stop,
		polls:    make(map[string]*poll),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initiate starts or reuses the attendee's payment. While a non-terminal
// transaction exists it is returned instead of creating a second charge, and
// concurrent calls for the same pair share one backend request.
func (e *Engine) Initiate(ctx context.Context, eventID, attendeeID string) (Initiation, error) {
	if eventID == "" || attendeeID == "" {
		return Initiation{}, dErrors.Validation("event and attendee are required", nil)
	}
	ctx, span := e.tracer.Start(ctx, "payment.initiate",
		trace.WithAttributes(attribute.String("event_id", eventID), attribute.String("attendee_id", attendeeID)))
	defer span.End()

	v, err, shared := e.initiations.Do(eventID+":"+attendeeID, func() (any, error) {
		return e.initiate(ctx, eventID, attendeeID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "initiate failed")
		return Initiation{}, err
	}
	res := v.(Initiation)
	if shared {
		res.Transaction = res.Transaction.Clone()
	}
	span.SetAttributes(attribute.Bool("requires_payment", res.RequiresPayment), attribute.Bool("reused", res.Reused))
	return res, nil
}

func (e *Engine) initiate(ctx context.Context, eventID, attendeeID string) (Initiation, error) {
	now := e.nowF()
	existing, err := e.store.FindActive(ctx, eventID, attendeeID, now)
	switch {
	case err == nil:
		return Initiation{RequiresPayment: true, Transaction: existing, Reused: true}, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return Initiation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read payment state")
	}

	resp, err := e.payments.InitiatePayment(ctx, eventID, attendeeID)
	if err != nil {
		return Initiation{}, err
	}
	if !resp.RequiresPayment {
		e.logger.InfoContext(ctx, "payment not required", "event_id", eventID, "attendee_id", attendeeID)
		return Initiation{RequiresPayment: false}, nil
	}
	if resp.PaymentID == "" || resp.PaymentURL == "" {
		return Initiation{}, dErrors.New(dErrors.CodeNetwork, "payment initiation returned no checkout")
	}

	tx, err := e.store.Get(ctx, resp.PaymentID)
	reused := err == nil
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return Initiation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read payment state")
		}
		tx = &domain.PaymentTransaction{
			PaymentID:  resp.PaymentID,
			EventID:    eventID,
			AttendeeID: attendeeID,
			Status:     domain.PaymentInitiated,
			CreatedAt:  now,
		}
	}
	tx.Amount = resp.Amount
	tx.Fees = resp.Fees
	tx.PaymentURL = resp.PaymentURL
	if resp.PaymentExpiry != nil {
		exp := *resp.PaymentExpiry
		tx.PaymentExpiry = &exp
	}
	tx.UpdatedAt = now
	if err := e.store.Save(ctx, tx); err != nil {
		return Initiation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save payment")
	}

	if !reused {
		e.emit(ctx, audit.Event{Action: audit.ActionPaymentInitiated, EventID: eventID, AttendeeID: attendeeID, PaymentID: tx.PaymentID, Subject: tx.Total().String()})
		e.logger.InfoContext(ctx, "payment initiated", "payment_id", tx.PaymentID, "attendee_id", attendeeID, "total", tx.Total().String())
	}
	return Initiation{RequiresPayment: true, Transaction: tx.Clone(), Reused: reused}, nil
}

// Transaction returns the stored transaction.
func (e *Engine) Transaction(ctx context.Context, paymentID string) (*domain.PaymentTransaction, error) {
	tx, err := e.store.Get(ctx, paymentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read payment state")
	}
	return tx, nil
}

// Adopt returns the stored transaction for paymentID. A payment this process
// has never seen, such as one started before a restart, is seeded from an
// authoritative status read and saved under the given owner. A stored
// transaction without an owner takes the given one.
func (e *Engine) Adopt(ctx context.Context, paymentID, eventID, attendeeID string) (*domain.PaymentTransaction, error) {
	if paymentID == "" {
		return nil, dErrors.Validation("payment is required", nil)
	}
	tx, err := e.store.Get(ctx, paymentID)
	switch {
	case err == nil:
		if tx.EventID != "" || eventID == "" || attendeeID == "" {
			return tx, nil
		}
		tx.EventID, tx.AttendeeID = eventID, attendeeID
		if err := e.store.Save(ctx, tx); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save payment")
		}
		return tx.Clone(), nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read payment state")
	}

	read, err := e.payments.GetPaymentStatus(ctx, paymentID)
	if err != nil {
		e.metrics.IncrementPaymentPoll("error")
		return nil, err
	}
	e.metrics.IncrementPaymentPoll(string(read.Status))
	now := e.nowF()
	tx = &domain.PaymentTransaction{
		PaymentID:  paymentID,
		EventID:    eventID,
		AttendeeID: attendeeID,
		Status:     domain.PaymentInitiated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tx.ApplyStatus(read.Status, read.PaymentExpiry, now)
	if err := e.store.Save(ctx, tx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save payment")
	}
	e.logger.InfoContext(ctx, "payment adopted", "payment_id", paymentID, "attendee_id", attendeeID, "status", tx.Status)
	return tx.Clone(), nil
}

// Poll starts a background loop for paymentID, cancelling any earlier loop
// for the same payment. onUpdate receives every status change and one final
// result; it is not called after the loop is cancelled or superseded.
func (e *Engine) Poll(paymentID string, schedule Schedule, onUpdate func(Result)) *task.Handle {
	p := &poll{}
	e.mu.Lock()
	if prev, ok := e.polls[paymentID]; ok {
		prev.handle.Cancel()
	}
	e.polls[paymentID] = p
	// commit runs save only while this loop is still the registered one.
	commit := func(save func()) bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.polls[paymentID] != p {
			return false
		}
		save()
		return true
	}
	p.handle = task.Go(e.base, "payment-poll:"+paymentID, func(ctx context.Context) {
		e.metrics.AddActivePolls(1)
		defer e.metrics.AddActivePolls(-1)
		defer e.release(paymentID, p)

		res := e.poll(ctx, paymentID, schedule, commit, onUpdate)
		if ctx.Err() == nil && commit(func() {}) && onUpdate != nil {
			onUpdate(res)
		}
	})
	h := p.handle
	e.mu.Unlock()
	return h
}

// PollUntilTerminal blocks until a terminal status, schedule exhaustion or
// ctx cancellation.
func (e *Engine) PollUntilTerminal(ctx context.Context, paymentID string, schedule Schedule) Result {
	return e.poll(ctx, paymentID, schedule, func(save func()) bool { save(); return true }, nil)
}

// CancelPoll stops the loop for paymentID, if any. It does not wait.
func (e *Engine) CancelPoll(paymentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.polls[paymentID]; ok {
		p.handle.Cancel()
		delete(e.polls, paymentID)
	}
}

// Polling reports whether a loop is registered for paymentID.
func (e *Engine) Polling(paymentID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.polls[paymentID]
	return ok
}

// Close cancels every loop and waits for them to exit.
func (e *Engine) Close() {
	e.stop()
	e.mu.Lock()
	handles := make([]*task.Handle, 0, len(e.polls))
	for id, p := range e.polls {
		handles = append(handles, p.handle)
		delete(e.polls, id)
	}
	e.mu.Unlock()
	for _, h := range handles {
		h.Stop()
	}
}

func (e *Engine) release(paymentID string, p *poll) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.polls[paymentID] == p {
		delete(e.polls, paymentID)
	}
}

func (e *Engine) poll(ctx context.Context, paymentID string, schedule Schedule, commit func(save func()) bool, onUpdate func(Result)) Result {
	ctx, span := e.tracer.Start(ctx, "payment.poll", trace.WithAttributes(attribute.String("payment_id", paymentID)))
	defer span.End()

	tx, err := e.Adopt(ctx, paymentID, "", "")
	if err != nil {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomePending, Err: ctx.Err()}
		}
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return Result{Outcome: OutcomeInconclusive, Err: err}
		}
		e.logger.WarnContext(ctx, "payment status read failed", "payment_id", paymentID, "error", err)
		return Result{Outcome: OutcomeInconclusive, Message: ProcessingMessage, Err: err}
	}
	if tx.Status.IsTerminal() {
		return e.final(tx)
	}

	for attempt := 0; ; attempt++ {
		delay, ok := schedule.Next(attempt)
		if !ok {
			e.metrics.IncrementPaymentOutcome(OutcomeInconclusive.String())
			e.logger.InfoContext(ctx, "payment polling exhausted", "payment_id", paymentID, "attempts", attempt)
			span.SetAttributes(attribute.String("outcome", OutcomeInconclusive.String()))
			return Result{Outcome: OutcomeInconclusive, Transaction: tx, Message: ProcessingMessage}
		}
		if !task.Sleep(ctx, delay) {
			return Result{Outcome: OutcomePending, Transaction: tx, Err: ctx.Err()}
		}

		next, changed, err := e.readOnce(ctx, paymentID)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Outcome: OutcomePending, Transaction: tx, Err: ctx.Err()}
			}
			continue
		}
		tx = next
		if !changed {
			if tx.Status.IsTerminal() {
				return e.final(tx)
			}
			continue
		}
		saved := commit(func() {
			if err := e.store.Save(ctx, tx); err != nil {
				e.logger.ErrorContext(ctx, "save payment status failed", "payment_id", paymentID, "error", err)
			}
		})
		if !saved {
			return Result{Outcome: OutcomePending, Transaction: tx, Err: context.Canceled}
		}
		if tx.Status.IsTerminal() {
			res := e.final(tx)
			e.emitTerminal(ctx, tx)
			span.SetAttributes(attribute.String("outcome", res.Outcome.String()))
			return res
		}
		if onUpdate != nil {
			onUpdate(Result{Outcome: OutcomePending, Transaction: tx.Clone()})
		}
	}
}

// readOnce folds one authoritative read into the stored transaction. A
// transport error is non-terminal, but the local expiry still applies.
func (e *Engine) readOnce(ctx context.Context, paymentID string) (*domain.PaymentTransaction, bool, error) {
	tx, err := e.store.Get(ctx, paymentID)
	if err != nil {
		e.metrics.IncrementPaymentPoll("store_error")
		e.logger.WarnContext(ctx, "read payment state failed", "payment_id", paymentID, "error", err)
		return nil, false, err
	}
	if tx.Status.IsTerminal() {
		return tx, false, nil
	}
	now := e.nowF()

	read, err := e.payments.GetPaymentStatus(ctx, paymentID)
	if err != nil {
		e.metrics.IncrementPaymentPoll("error")
		e.logger.WarnContext(ctx, "payment status read failed", "payment_id", paymentID, "error", err)
		if tx.IsPastExpiry(now) {
			return tx, tx.ApplyStatus(domain.PaymentExpired, nil, now), nil
		}
		return tx, false, nil
	}
	e.metrics.IncrementPaymentPoll(string(read.Status))
	return tx, tx.ApplyStatus(read.Status, read.PaymentExpiry, now), nil
}

func (e *Engine) final(tx *domain.PaymentTransaction) Result {
	return ResultOf(tx)
}

// ResultOf is the final result for a terminal transaction.
func ResultOf(tx *domain.PaymentTransaction) Result {
	res := Result{Transaction: tx.Clone()}
	switch tx.Status {
	case domain.PaymentCompleted:
		res.Outcome = OutcomeCompleted
	case domain.PaymentFailed:
		res.Outcome = OutcomeFailed
		res.Message = "payment failed"
		res.Err = dErrors.New(dErrors.CodePaymentTerminal, res.Message)
	case domain.PaymentExpired:
		res.Outcome = OutcomeExpired
		res.Message = "payment expired"
		res.Err = dErrors.New(dErrors.CodePaymentTerminal, res.Message)
	}
	return res
}

func (e *Engine) emitTerminal(ctx context.Context, tx *domain.PaymentTransaction) {
	action := audit.ActionPaymentCompleted
	switch tx.Status {
	case domain.PaymentFailed:
		action = audit.ActionPaymentFailed
	case domain.PaymentExpired:
		action = audit.ActionPaymentExpired
	}
	e.metrics.IncrementPaymentOutcome(string(tx.Status))
	e.logger.InfoContext(ctx, "payment reached terminal status", "payment_id", tx.PaymentID, "status", tx.Status)
	e.emit(ctx, audit.Event{Action: action, EventID: tx.EventID, AttendeeID: tx.AttendeeID, PaymentID: tx.PaymentID, Decision: string(tx.Status)})
}

// ManualVerify force-resolves a failed or inconclusive payment on proof the
// backend accepts. Polling for the payment is cancelled first. A backend
// rejection is returned as CodeManualRejected carrying the backend's message.
func (e *Engine) ManualVerify(ctx context.Context, paymentID string, proof ManualProof) (*domain.PaymentTransaction, error) {
	fields := proof.validate()
	if paymentID == "" {
		fields["payment_id"] = "payment is required"
	}
	if len(fields) > 0 {
		return nil, dErrors.Validation("manual verification input is invalid", fields)
	}
	ctx, span := e.tracer.Start(ctx, "payment.manual_verify",
		trace.WithAttributes(attribute.String("payment_id", paymentID), attribute.String("method", proof.Method)))
	defer span.End()

	tx, err := e.Adopt(ctx, paymentID, "", "")
	if err != nil {
		return nil, err
	}
	if err := tx.CanManualOverride(); err != nil {
		return nil, err
	}
	e.CancelPoll(paymentID)

	verdict, err := e.payments.ManualVerifyPayment(ctx, paymentID, proof.TransactionID, proof.Amount, proof.Method)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "manual verify failed")
		return nil, err
	}
	if !verdict.Success {
		msg := verdict.Message
		if msg == "" {
			msg = "manual verification was rejected"
		}
		e.metrics.IncrementPaymentOutcome("manual_rejected")
		e.logger.WarnContext(ctx, "manual verification rejected", "payment_id", paymentID, "reason", msg)
		e.emit(ctx, audit.Event{
			Action: audit.ActionManualRejected, EventID: tx.EventID, AttendeeID: tx.AttendeeID, PaymentID: paymentID,
			Subject: proof.TransactionID, Decision: "rejected", Reason: msg, ActorID: proof.ActorID,
		})
		span.SetStatus(codes.Error, "rejected")
		return nil, dErrors.New(dErrors.CodeManualRejected, msg)
	}

	// Re-read: a poll may have landed a status between the check and the verdict.
	tx, err = e.Transaction(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if tx.Status == domain.PaymentCompleted {
		return tx, nil
	}
	now := e.nowF()
	tx.ApplyManualOverride(domain.ManualOverride{
		TransactionID: proof.TransactionID,
		Amount:        proof.Amount,
		Method:        proof.Method,
		AppliedAt:     now,
	})
	if err := e.store.Save(ctx, tx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save payment")
	}
	e.metrics.IncrementPaymentOutcome("manual_override")
	e.logger.InfoContext(ctx, "manual override applied",
		"payment_id", paymentID, "from_status", tx.Override.FromStatus, "method", proof.Method)
	e.emit(ctx, audit.Event{
		Action: audit.ActionManualOverride, EventID: tx.EventID, AttendeeID: tx.AttendeeID, PaymentID: paymentID,
		Subject: proof.TransactionID, Decision: "completed", Reason: string(tx.Override.FromStatus), ActorID: proof.ActorID,
	})
	return tx.Clone(), nil
}

func (p ManualProof) validate() map[string]string {
	fields := map[string]string{}
	if p.TransactionID == "" {
		fields["transaction_id"] = "transaction reference is required"
	}
	if p.Amount.Amount <= 0 {
		fields["amount"] = "amount must be positive"
	}
	if p.Amount.Currency == "" {
		fields["currency"] = "currency is required"
	}
	if p.Method == "" {
		fields["method"] = "payment method is required"
	}
	return fields
}

func (e *Engine) emit(ctx context.Context, event audit.Event) {
	if err := e.auditor.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
