package domain

import (
	"time"

	dErrors "registrar/pkg/domain-errors"
)

// PaymentStatus is the lifecycle status of a payment transaction.
type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentExpired   PaymentStatus = "expired"
)

// IsTerminal reports whether no automatic transition leaves this status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentExpired
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentInitiated, PaymentPending, PaymentCompleted, PaymentFailed, PaymentExpired:
		return true
	}
	return false
}

func (s PaymentStatus) rank() int {
	switch s {
	case PaymentInitiated:
		return 0
	case PaymentPending:
		return 1
	default:
		return 2
	}
}

// ManualOverride records a human-supplied settlement proof accepted by the backend.
type ManualOverride struct {
	TransactionID string        `json:"transaction_id"`
	Amount        Money         `json:"amount"`
	Method        string        `json:"method"`
	AppliedAt     time.Time     `json:"applied_at"`
	FromStatus    PaymentStatus `json:"from_status"`
}

// PaymentTransaction is one attempted settlement for a registration.
//
// Invariants:
//   - Status only moves forward: initiated -> pending -> terminal
//   - a terminal Status never changes through polling; the only exit is a
//     manual override from failed (or an inconclusive non-terminal) to completed
//   - once PaymentExpiry has passed a non-terminal transaction is treated as expired
type PaymentTransaction struct {
	PaymentID     string          `json:"payment_id"`
	EventID       string          `json:"event_id"`
	AttendeeID    string          `json:"attendee_id"`
	Status        PaymentStatus   `json:"status"`
	Amount        Money           `json:"amount"`
	Fees          Money           `json:"fees"`
	PaymentURL    string          `json:"payment_url,omitempty"`
	PaymentExpiry *time.Time      `json:"payment_expiry,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Override      *ManualOverride `json:"override,omitempty"`
}

// Total is amount plus fees.
func (t *PaymentTransaction) Total() Money {
	return t.Amount.Add(t.Fees)
}

// IsActive reports whether the transaction is non-terminal and not past expiry.
func (t *PaymentTransaction) IsActive(now time.Time) bool {
	return !t.Status.IsTerminal() && !t.IsPastExpiry(now)
}

// IsPastExpiry reports whether PaymentExpiry is set and has passed.
func (t *PaymentTransaction) IsPastExpiry(now time.Time) bool {
	return t.PaymentExpiry != nil && !now.Before(*t.PaymentExpiry)
}

// ApplyStatus folds an authoritative status read into the transaction.
// It returns true when the status changed. Reads that would move a terminal
// transaction, or move backwards, are ignored.
func (t *PaymentTransaction) ApplyStatus(next PaymentStatus, expiry *time.Time, now time.Time) bool {
	if expiry != nil {
		t.PaymentExpiry = expiry
	}
	if t.Status.IsTerminal() || !next.IsValid() {
		return false
	}
	if !next.IsTerminal() && t.IsPastExpiry(now) {
		next = PaymentExpired
	}
	if next.rank() < t.Status.rank() || next == t.Status {
		return false
	}
	t.Status = next
	t.UpdatedAt = now
	return true
}

// CanManualOverride checks that the transaction may be force-resolved.
func (t *PaymentTransaction) CanManualOverride() error {
	switch t.Status {
	case PaymentFailed, PaymentInitiated, PaymentPending:
		return nil
	case PaymentCompleted:
		return dErrors.New(dErrors.CodeInvalidState, "payment is already completed")
	default:
		return dErrors.New(dErrors.CodeInvalidState, "payment cannot be manually verified in status "+string(t.Status))
	}
}

// ApplyManualOverride marks the transaction completed on backend-validated proof.
// Call CanManualOverride first.
func (t *PaymentTransaction) ApplyManualOverride(o ManualOverride) {
	o.FromStatus = t.Status
	t.Override = &o
	t.Status = PaymentCompleted
	t.UpdatedAt = o.AppliedAt
}

// Clone returns a deep copy safe to hand across goroutines.
func (t *PaymentTransaction) Clone() *PaymentTransaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.PaymentExpiry != nil {
		exp := *t.PaymentExpiry
		c.PaymentExpiry = &exp
	}
	if t.Override != nil {
		o := *t.Override
		c.Override = &o
	}
	return &c
}
