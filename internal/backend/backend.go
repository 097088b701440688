// Package backend declares the REST backend collaborator consumed by the
// registration pipeline. Only shapes are fixed here; the wire encoding lives
// in the rest subpackage and an in-memory implementation lives in inmem.
//
// Error contract for every implementation:
//   - transport failures and 5xx responses return dErrors.CodeNetwork
//   - a create that collides with an existing record returns dErrors.CodeDuplicateRegistration
//   - a wrong or expired one-time code returns dErrors.CodeInvalidCode
//   - rejected input returns dErrors.CodeValidation
package backend

//go:generate mockgen -source=backend.go -destination=mocks/backend_mock.go -package=mocks

import (
	"context"
	"time"

	"registrar/internal/domain"
)

// AttendeeLookup is the result of resolving an identity against an attendee pool.
type AttendeeLookup struct {
	Exists bool                   `json:"exists"`
	Record *domain.AttendeeRecord `json:"record,omitempty"`
}

// PaymentInitiation is the backend's answer to a payment request.
type PaymentInitiation struct {
	RequiresPayment bool         `json:"requires_payment"`
	PaymentID       string       `json:"payment_id,omitempty"`
	PaymentURL      string       `json:"payment_url,omitempty"`
	Amount          domain.Money `json:"amount"`
	Fees            domain.Money `json:"fees"`
	PaymentExpiry   *time.Time   `json:"payment_expiry,omitempty"`
}

// PaymentStatusRead is one authoritative read of a payment's status.
type PaymentStatusRead struct {
	Status        domain.PaymentStatus `json:"status"`
	PaymentExpiry *time.Time           `json:"payment_expiry,omitempty"`
}

// ManualVerification is the backend's verdict on human-supplied payment proof.
type ManualVerification struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Events reads event descriptors.
type Events interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
}

// Attendees resolves and writes attendee records. The public and private pools are disjoint.
type Attendees interface {
	ResolveAttendee(ctx context.Context, eventID string, visibility domain.Visibility, email, phone string) (AttendeeLookup, error)
	GetAttendee(ctx context.Context, eventID, attendeeID string) (domain.AttendeeRecord, error)
	CreateAttendee(ctx context.Context, eventID string, record domain.AttendeeRecord) (string, error)
	UpdateAttendee(ctx context.Context, eventID, attendeeID string, record domain.AttendeeRecord) error
}

// Invitations delivers and records invitations.
type Invitations interface {
	SendInvite(ctx context.Context, eventID, attendeeID string, channel domain.InviteChannel, message string) error
	MarkInvited(ctx context.Context, eventID, attendeeID string) error
}

// Verification issues and checks one-time codes. A new send invalidates the previous code.
type Verification interface {
	SendVerificationCode(ctx context.Context, channel domain.Channel, identifier string) error
	VerifyCode(ctx context.Context, identifier, code string) error
}

// Status reads the caller's authoritative registration status for an event.
type Status interface {
	GetRegistrationStatus(ctx context.Context, eventID string) (domain.RegistrationStatus, error)
}

// Payments drives settlement with the payment gateway behind the backend.
type Payments interface {
	InitiatePayment(ctx context.Context, eventID, attendeeID string) (PaymentInitiation, error)
	GetPaymentStatus(ctx context.Context, paymentID string) (PaymentStatusRead, error)
	ManualVerifyPayment(ctx context.Context, paymentID, transactionID string, amount domain.Money, method string) (ManualVerification, error)
}

// Backend is the full collaborator surface.
type Backend interface {
	Events
	Attendees
	Invitations
	Verification
	Status
	Payments
}
