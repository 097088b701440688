// Package inmem is an in-memory backend conforming to the backend contract.
// It serves the dev mode of the registrar and drives scenario tests: payment
// outcomes can be scripted, failures injected and out-of-band confirmations
// simulated.
package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"registrar/internal/backend"
	"registrar/internal/domain"
	dErrors "registrar/pkg/domain-errors"
)

// Op names a backend operation for call counting and failure injection.
type Op string

const (
	OpGetEvent         Op = "get_event"
	OpResolve          Op = "resolve_attendee"
	OpCreate           Op = "create_attendee"
	OpGetAttendee      Op = "get_attendee"
	OpUpdate           Op = "update_attendee"
	OpSendInvite       Op = "send_invite"
	OpMarkInvited      Op = "mark_invited"
	OpSendCode         Op = "send_verification_code"
	OpVerifyCode       Op = "verify_code"
	OpGetStatus        Op = "get_registration_status"
	OpInitiatePayment  Op = "initiate_payment"
	OpGetPaymentStatus Op = "get_payment_status"
	OpManualVerify     Op = "manual_verify_payment"
)

const (
	defaultCodeTTL     = 10 * time.Minute
	defaultMaxAttempts = 5
	defaultPaymentTTL  = 30 * time.Minute
)

type poolKey struct {
	eventID    string
	visibility domain.Visibility
}

type attendee struct {
	record    domain.AttendeeRecord
	invited   bool
	confirmed bool
	paid      bool
}

type otpEntry struct {
	hash      string
	expiresAt time.Time
	attempts  int
}

type payment struct {
	txn    domain.PaymentTransaction
	script []domain.PaymentStatus
}

// Invite is a recorded invitation delivery.
type Invite struct {
	EventID    string
	AttendeeID string
	Channel    domain.InviteChannel
	Message    string
}

// Backend implements backend.Backend in memory. One Backend represents one
// caller session: the registration status it reports is that of the last
// attendee the caller created or updated for the event.
type Backend struct {
	mu          sync.Mutex
	nowF        func() time.Time
	events      map[string]domain.Event
	pools       map[poolKey]map[string]*attendee
	owner       map[string]string
	codes       map[string]*otpEntry
	lastCode    map[string]string
	payments    map[string]*payment
	invites     []Invite
	nextScript  []domain.PaymentStatus
	manualProof map[string]domain.Money
	fees        domain.Money
	failures    map[Op][]error
	calls       map[Op]int
}

// Option configures a Backend.
type Option func(*Backend)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.nowF = now
		}
	}
}

// WithFees sets the flat fee added to every payment.
func WithFees(fees domain.Money) Option {
	return func(b *Backend) {
		b.fees = fees
	}
}

// New creates an empty backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		nowF:        time.Now,
		events:      make(map[string]domain.Event),
		pools:       make(map[poolKey]map[string]*attendee),
		owner:       make(map[string]string),
		codes:       make(map[string]*otpEntry),
		lastCode:    make(map[string]string),
		payments:    make(map[string]*payment),
		manualProof: make(map[string]domain.Money),
		failures:    make(map[Op][]error),
		calls:       make(map[Op]int),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

var _ backend.Backend = (*Backend)(nil)

// PutEvent registers an event descriptor.
func (b *Backend) PutEvent(e domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[e.ID] = e
}

// SeedAttendee inserts a record directly, as if created from another device.
// It returns the assigned attendee ID.
func (b *Backend) SeedAttendee(eventID string, r domain.AttendeeRecord) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.AttendeeID == "" {
		r.AttendeeID = uuid.NewString()
	}
	b.pool(eventID, r.Visibility)[r.AttendeeID] = &attendee{record: r}
	return r.AttendeeID
}

// Confirm simulates the attendee clicking the confirmation link out of band.
func (b *Backend) Confirm(eventID, attendeeID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.find(eventID, attendeeID)
	if a == nil {
		return fmt.Errorf("inmem: attendee %s not found", attendeeID)
	}
	a.confirmed = true
	return nil
}

// ScriptNextPayment sets the status sequence returned by successive polls of the
// next created payment. The last status repeats once the script is exhausted.
func (b *Backend) ScriptNextPayment(statuses ...domain.PaymentStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextScript = append([]domain.PaymentStatus(nil), statuses...)
}

// ScriptPayment replaces the status sequence of an existing payment.
func (b *Backend) ScriptPayment(paymentID string, statuses ...domain.PaymentStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.payments[paymentID]; ok {
		p.script = append([]domain.PaymentStatus(nil), statuses...)
	}
}

// AcceptManualProof makes a transaction reference valid for manual verification
// when the supplied amount covers floor.
func (b *Backend) AcceptManualProof(transactionID string, floor domain.Money) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.manualProof[transactionID] = floor
}

// FailNext makes the next n calls of op fail with err, or with a network error when err is nil.
func (b *Backend) FailNext(op Op, n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		err = dErrors.New(dErrors.CodeNetwork, "injected failure: "+string(op))
	}
	for range n {
		b.failures[op] = append(b.failures[op], err)
	}
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op Op) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// Invites returns recorded invitations.
func (b *Backend) Invites() []Invite {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Invite(nil), b.invites...)
}

// LastCode returns the most recent plain code sent to identifier. Dev use only.
func (b *Backend) LastCode(identifier string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	code, ok := b.lastCode[identifier]
	return code, ok
}

// Attendee returns a copy of a stored record.
func (b *Backend) Attendee(eventID, attendeeID string) (domain.AttendeeRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.find(eventID, attendeeID)
	if a == nil {
		return domain.AttendeeRecord{}, false
	}
	return a.record, true
}

// Payment returns a copy of a stored payment.
func (b *Backend) Payment(paymentID string) (domain.PaymentTransaction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.payments[paymentID]
	if !ok {
		return domain.PaymentTransaction{}, false
	}
	return *p.txn.Clone(), true
}

// enter counts the call and pops an injected failure. Caller holds b.mu.
func (b *Backend) enter(op Op) error {
	b.calls[op]++
	queue := b.failures[op]
	if len(queue) == 0 {
		return nil
	}
	b.failures[op] = queue[1:]
	return queue[0]
}

func (b *Backend) pool(eventID string, v domain.Visibility) map[string]*attendee {
	k := poolKey{eventID: eventID, visibility: v}
	p, ok := b.pools[k]
	if !ok {
		p = make(map[string]*attendee)
		b.pools[k] = p
	}
	return p
}

func (b *Backend) find(eventID, attendeeID string) *attendee {
	for k, p := range b.pools {
		if k.eventID != eventID {
			continue
		}
		if a, ok := p[attendeeID]; ok {
			return a
		}
	}
	return nil
}

func (b *Backend) match(eventID string, v domain.Visibility, email, phone string) *attendee {
	for _, a := range b.pool(eventID, v) {
		if email != "" && a.record.Email == email {
			return a
		}
		if phone != "" && a.record.Phone == phone {
			return a
		}
	}
	return nil
}

// GetEvent implements backend.Events.
func (b *Backend) GetEvent(_ context.Context, eventID string) (domain.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpGetEvent); err != nil {
		return domain.Event{}, err
	}
	e, ok := b.events[eventID]
	if !ok {
		return domain.Event{}, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	return e, nil
}

// ResolveAttendee implements backend.Attendees.
func (b *Backend) ResolveAttendee(_ context.Context, eventID string, v domain.Visibility, email, phone string) (backend.AttendeeLookup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpResolve); err != nil {
		return backend.AttendeeLookup{}, err
	}
	a := b.match(eventID, v, email, phone)
	if a == nil {
		return backend.AttendeeLookup{Exists: false}, nil
	}
	rec := a.record
	return backend.AttendeeLookup{Exists: true, Record: &rec}, nil
}

// CreateAttendee implements backend.Attendees.
func (b *Backend) CreateAttendee(_ context.Context, eventID string, r domain.AttendeeRecord) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpCreate); err != nil {
		return "", err
	}
	if b.match(eventID, r.Visibility, r.Email, r.Phone) != nil {
		return "", dErrors.New(dErrors.CodeDuplicateRegistration, "attendee already registered")
	}
	r.AttendeeID = uuid.NewString()
	b.pool(eventID, r.Visibility)[r.AttendeeID] = &attendee{record: r}
	b.owner[eventID] = r.AttendeeID
	return r.AttendeeID, nil
}

// GetAttendee implements backend.Attendees.
func (b *Backend) GetAttendee(_ context.Context, eventID, attendeeID string) (domain.AttendeeRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpGetAttendee); err != nil {
		return domain.AttendeeRecord{}, err
	}
	a := b.find(eventID, attendeeID)
	if a == nil {
		return domain.AttendeeRecord{}, dErrors.New(dErrors.CodeNotFound, "attendee not found")
	}
	return a.record, nil
}

// UpdateAttendee implements backend.Attendees.
func (b *Backend) UpdateAttendee(_ context.Context, eventID, attendeeID string, r domain.AttendeeRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpUpdate); err != nil {
		return err
	}
	a, ok := b.pool(eventID, r.Visibility)[attendeeID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "attendee not found")
	}
	r.AttendeeID = attendeeID
	a.record = r
	b.owner[eventID] = attendeeID
	return nil
}

// SendInvite implements backend.Invitations.
func (b *Backend) SendInvite(_ context.Context, eventID, attendeeID string, channel domain.InviteChannel, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpSendInvite); err != nil {
		return err
	}
	if b.find(eventID, attendeeID) == nil {
		return dErrors.New(dErrors.CodeNotFound, "attendee not found")
	}
	b.invites = append(b.invites, Invite{EventID: eventID, AttendeeID: attendeeID, Channel: channel, Message: message})
	return nil
}

// MarkInvited implements backend.Invitations.
func (b *Backend) MarkInvited(_ context.Context, eventID, attendeeID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpMarkInvited); err != nil {
		return err
	}
	a := b.find(eventID, attendeeID)
	if a == nil {
		return dErrors.New(dErrors.CodeNotFound, "attendee not found")
	}
	a.invited = true
	return nil
}

// SendVerificationCode implements backend.Verification. The previous code for
// the identifier is invalidated.
func (b *Backend) SendVerificationCode(_ context.Context, _ domain.Channel, identifier string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpSendCode); err != nil {
		return err
	}
	code, err := generateOTP()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "generate code")
	}
	b.codes[identifier] = &otpEntry{hash: hashOTP(code), expiresAt: b.nowF().Add(defaultCodeTTL)}
	b.lastCode[identifier] = code
	return nil
}

// VerifyCode implements backend.Verification. A code verifies at most once.
func (b *Backend) VerifyCode(_ context.Context, identifier, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpVerifyCode); err != nil {
		return err
	}
	e, ok := b.codes[identifier]
	if !ok {
		return dErrors.New(dErrors.CodeInvalidCode, "no active code")
	}
	if !e.expiresAt.After(b.nowF()) {
		delete(b.codes, identifier)
		return dErrors.New(dErrors.CodeInvalidCode, "code expired")
	}
	e.attempts++
	if e.attempts > defaultMaxAttempts {
		delete(b.codes, identifier)
		return dErrors.New(dErrors.CodeInvalidCode, "too many attempts")
	}
	if !otpEqual(code, e.hash) {
		return dErrors.New(dErrors.CodeInvalidCode, "code is incorrect")
	}
	delete(b.codes, identifier)
	delete(b.lastCode, identifier)
	return nil
}

// GetRegistrationStatus implements backend.Status.
func (b *Backend) GetRegistrationStatus(_ context.Context, eventID string) (domain.RegistrationStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpGetStatus); err != nil {
		return domain.RegistrationStatus{}, err
	}
	id, ok := b.owner[eventID]
	if !ok {
		return domain.RegistrationStatus{}, nil
	}
	a := b.find(eventID, id)
	if a == nil {
		return domain.RegistrationStatus{}, nil
	}
	st := domain.RegistrationStatus{
		IsRegistered: true,
		IsInvited:    a.invited,
		IsConfirmed:  a.confirmed,
		IsPaid:       a.paid,
		AttendeeID:   id,
	}
	if p := b.currentPayment(eventID, id, b.nowF()); p != nil {
		st.PaymentID = p.txn.PaymentID
	}
	return st, nil
}

// InitiatePayment implements backend.Payments. It is idempotent while a
// non-terminal payment exists for the attendee.
func (b *Backend) InitiatePayment(_ context.Context, eventID, attendeeID string) (backend.PaymentInitiation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpInitiatePayment); err != nil {
		return backend.PaymentInitiation{}, err
	}
	e, ok := b.events[eventID]
	if !ok {
		return backend.PaymentInitiation{}, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	a := b.find(eventID, attendeeID)
	if a == nil {
		return backend.PaymentInitiation{}, dErrors.New(dErrors.CodeNotFound, "attendee not found")
	}
	if e.TicketType != domain.TicketPaid || !a.record.IsPaying {
		return backend.PaymentInitiation{RequiresPayment: false}, nil
	}
	now := b.nowF()
	for _, p := range b.payments {
		if p.txn.EventID == eventID && p.txn.AttendeeID == attendeeID && p.txn.IsActive(now) {
			return initiationOf(p.txn), nil
		}
	}
	expiry := now.Add(defaultPaymentTTL)
	id := uuid.NewString()
	p := &payment{
		txn: domain.PaymentTransaction{
			PaymentID:     id,
			EventID:       eventID,
			AttendeeID:    attendeeID,
			Status:        domain.PaymentInitiated,
			Amount:        e.TotalFor(a.record.AllowedPeople),
			Fees:          b.fees,
			PaymentURL:    "https://pay.example.test/checkout/" + id,
			PaymentExpiry: &expiry,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		script: b.nextScript,
	}
	b.nextScript = nil
	b.payments[id] = p
	return initiationOf(p.txn), nil
}

// currentPayment picks the attendee's active payment, or the most recently
// created one. Ties on CreatedAt break on PaymentID. Caller holds b.mu.
func (b *Backend) currentPayment(eventID, attendeeID string, now time.Time) *payment {
	var best *payment
	for _, p := range b.payments {
		if p.txn.EventID != eventID || p.txn.AttendeeID != attendeeID {
			continue
		}
		if best == nil || newer(p, best, now) {
			best = p
		}
	}
	return best
}

func newer(p, than *payment, now time.Time) bool {
	if a, b := p.txn.IsActive(now), than.txn.IsActive(now); a != b {
		return a
	}
	if !p.txn.CreatedAt.Equal(than.txn.CreatedAt) {
		return p.txn.CreatedAt.After(than.txn.CreatedAt)
	}
	return p.txn.PaymentID > than.txn.PaymentID
}

func initiationOf(t domain.PaymentTransaction) backend.PaymentInitiation {
	return backend.PaymentInitiation{
		RequiresPayment: true,
		PaymentID:       t.PaymentID,
		PaymentURL:      t.PaymentURL,
		Amount:          t.Amount,
		Fees:            t.Fees,
		PaymentExpiry:   t.PaymentExpiry,
	}
}

// GetPaymentStatus implements backend.Payments. Each call consumes one scripted status.
func (b *Backend) GetPaymentStatus(_ context.Context, paymentID string) (backend.PaymentStatusRead, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpGetPaymentStatus); err != nil {
		return backend.PaymentStatusRead{}, err
	}
	p, ok := b.payments[paymentID]
	if !ok {
		return backend.PaymentStatusRead{}, dErrors.New(dErrors.CodeNotFound, "payment not found")
	}
	if len(p.script) > 0 {
		next := p.script[0]
		if len(p.script) > 1 {
			p.script = p.script[1:]
		}
		if p.txn.ApplyStatus(next, nil, b.nowF()) && p.txn.Status == domain.PaymentCompleted {
			b.markPaid(p.txn)
		}
	}
	return backend.PaymentStatusRead{Status: p.txn.Status, PaymentExpiry: p.txn.PaymentExpiry}, nil
}

// ManualVerifyPayment implements backend.Payments against the accepted-proof ledger.
func (b *Backend) ManualVerifyPayment(_ context.Context, paymentID, transactionID string, amount domain.Money, method string) (backend.ManualVerification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(OpManualVerify); err != nil {
		return backend.ManualVerification{}, err
	}
	p, ok := b.payments[paymentID]
	if !ok {
		return backend.ManualVerification{}, dErrors.New(dErrors.CodeNotFound, "payment not found")
	}
	floor, ok := b.manualProof[transactionID]
	if !ok {
		return backend.ManualVerification{Success: false, Message: "transaction reference not found"}, nil
	}
	if amount.Amount < floor.Amount {
		return backend.ManualVerification{Success: false, Message: "amount does not match the recorded transaction"}, nil
	}
	if err := p.txn.CanManualOverride(); err != nil && p.txn.Status != domain.PaymentCompleted {
		return backend.ManualVerification{Success: false, Message: "payment cannot be verified in its current state"}, nil
	}
	now := b.nowF()
	if p.txn.Status != domain.PaymentCompleted {
		p.txn.ApplyManualOverride(domain.ManualOverride{TransactionID: transactionID, Amount: amount, Method: method, AppliedAt: now})
	}
	delete(b.manualProof, transactionID)
	b.markPaid(p.txn)
	return backend.ManualVerification{Success: true, Message: "payment verified"}, nil
}

func (b *Backend) markPaid(t domain.PaymentTransaction) {
	if a := b.find(t.EventID, t.AttendeeID); a != nil {
		a.paid = true
	}
}
