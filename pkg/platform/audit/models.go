package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers money movement and human overrides. These are
	// written synchronously and must not be sampled.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers rejected proofs and verification failures.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine pipeline activity.
	CategoryOperations EventCategory = "operations"
)

// Action names what happened.
type Action string

const (
	// Registration
	ActionAttendeeCreated Action = "attendee_created"
	ActionAttendeeUpdated Action = "attendee_updated"
	ActionInviteSent      Action = "invite_sent"
	ActionStateChanged    Action = "registration_state_changed"

	// Verification
	ActionContactVerified Action = "contact_verified"

	// Payment
	ActionPaymentInitiated Action = "payment_initiated"
	ActionPaymentCompleted Action = "payment_completed"
	ActionPaymentFailed    Action = "payment_failed"
	ActionPaymentExpired   Action = "payment_expired"
	ActionManualOverride   Action = "payment_manual_override"
	ActionManualRejected   Action = "payment_manual_rejected"
)

var actionCategories = map[Action]EventCategory{
	ActionPaymentCompleted: CategoryCompliance,
	ActionPaymentFailed:    CategoryCompliance,
	ActionPaymentExpired:   CategoryCompliance,
	ActionManualOverride:   CategoryCompliance,

	ActionManualRejected:  CategorySecurity,
	ActionContactVerified: CategorySecurity,

	ActionAttendeeCreated:  CategoryOperations,
	ActionAttendeeUpdated:  CategoryOperations,
	ActionInviteSent:       CategoryOperations,
	ActionStateChanged:     CategoryOperations,
	ActionPaymentInitiated: CategoryOperations,
}

// Category returns the category of the action. Unknown actions are operations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         string        `json:"id"`
	Category   EventCategory `json:"category"`
	Timestamp  time.Time     `json:"timestamp"`
	Action     Action        `json:"action"`
	EventID    string        `json:"event_id,omitempty"`
	AttendeeID string        `json:"attendee_id,omitempty"`
	PaymentID  string        `json:"payment_id,omitempty"`
	// Subject is a human-readable subject such as a transaction reference or state name.
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// ActorID is who performed the action when it is not the attendee.
	ActorID string `json:"actor_id,omitempty"`
}

// Appender persists or forwards events.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store is an Appender that can also be queried.
type Store interface {
	Appender
	ListByAttendee(ctx context.Context, attendeeID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Emitter is what domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Discard is an Emitter that drops everything.
type Discard struct{}

func (Discard) Emit(context.Context, Event) error { return nil }

// Fanout appends to every appender in order and returns the first error.
type Fanout []Appender

func (f Fanout) Append(ctx context.Context, event Event) error {
	var first error
	for _, a := range f {
		if err := a.Append(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
