// Package identity resolves whether a person already has an attendee record
// for an event and performs the create-or-update that follows.
package identity

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/backend"
	"registrar/internal/domain"
	dErrors "registrar/pkg/domain-errors"
	audit "registrar/pkg/platform/audit"
)

// Intent is what the caller must do after a resolve.
type Intent int

const (
	IntentCreate Intent = iota
	IntentUpdate
)

func (i Intent) String() string {
	if i == IntentUpdate {
		return "update"
	}
	return "create"
}

// Registration is the outcome of Register.
type Registration struct {
	AttendeeID string
	Intent     Intent
	// Recovered is true when a create collided with a concurrent registration
	// and was folded into an update.
	Recovered bool
}

// Resolver wraps the attendee endpoints with resolve-first semantics.
type Resolver struct {
	attendees backend.Attendees
	logger    *slog.Logger
	auditor   audit.Emitter
	tracer    trace.Tracer
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithAuditor(a audit.Emitter) Option {
	return func(r *Resolver) {
		if a != nil {
			r.auditor = a
		}
	}
}

// New constructs a Resolver.
func New(attendees backend.Attendees, opts ...Option) *Resolver {
	r := &Resolver{
		attendees: attendees,
		logger:    slog.Default(),
		auditor:   audit.Discard{},
		tracer:    otel.Tracer("registrar/internal/identity"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks the identity up in the pool selected by visibility. It has no
// side effects beyond the read.
func (r *Resolver) Resolve(ctx context.Context, eventID string, visibility domain.Visibility, email, phone string) (backend.AttendeeLookup, error) {
	if email == "" && phone == "" {
		return backend.AttendeeLookup{}, dErrors.Validation("an email or phone number is required",
			map[string]string{"contact": "an email or phone number is required"})
	}
	if !visibility.IsValid() {
		return backend.AttendeeLookup{}, dErrors.Validation("visibility must be public or private",
			map[string]string{"visibility": "visibility must be public or private"})
	}
	lookup, err := r.attendees.ResolveAttendee(ctx, eventID, visibility, email, phone)
	if err != nil {
		return backend.AttendeeLookup{}, err
	}
	if lookup.Exists && (lookup.Record == nil || lookup.Record.AttendeeID == "") {
		return backend.AttendeeLookup{}, dErrors.New(dErrors.CodeInternal, "resolved record has no attendee id")
	}
	return lookup, nil
}

// Record reads an attendee by id. It is used to rebuild a session whose
// registration was made elsewhere.
func (r *Resolver) Record(ctx context.Context, eventID, attendeeID string) (domain.AttendeeRecord, error) {
	if attendeeID == "" {
		return domain.AttendeeRecord{}, dErrors.Validation("attendee is required", nil)
	}
	rec, err := r.attendees.GetAttendee(ctx, eventID, attendeeID)
	if err != nil {
		return domain.AttendeeRecord{}, err
	}
	rec.AttendeeID = attendeeID
	return rec, nil
}

// IntentFor maps a lookup to the write the caller must use.
func IntentFor(l backend.AttendeeLookup) Intent {
	if l.Exists {
		return IntentUpdate
	}
	return IntentCreate
}

// Register resolves the record's identity and then updates the existing
// record or creates a new one. A duplicate reported by create means another
// device won the race; it is resolved again and treated as an update.
// The record must already be validated.
func (r *Resolver) Register(ctx context.Context, eventID string, record domain.AttendeeRecord) (Registration, error) {
	ctx, span := r.tracer.Start(ctx, "identity.register")
	defer span.End()

	lookup, err := r.Resolve(ctx, eventID, record.Visibility, record.Email, record.Phone)
	if err != nil {
		return Registration{}, err
	}

	if lookup.Exists {
		return r.update(ctx, eventID, lookup.Record.AttendeeID, record, false)
	}

	id, err := r.attendees.CreateAttendee(ctx, eventID, record)
	if err == nil {
		span.SetAttributes(attribute.String("attendee_id", id), attribute.String("intent", "create"))
		r.emit(ctx, audit.ActionAttendeeCreated, eventID, id)
		return Registration{AttendeeID: id, Intent: IntentCreate}, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeDuplicateRegistration) {
		return Registration{}, err
	}

	r.logger.InfoContext(ctx, "create raced an existing registration, updating instead", "event_id", eventID)
	lookup, err = r.Resolve(ctx, eventID, record.Visibility, record.Email, record.Phone)
	if err != nil {
		return Registration{}, err
	}
	if !lookup.Exists {
		return Registration{}, dErrors.New(dErrors.CodeConflict, "duplicate reported but no record found")
	}
	return r.update(ctx, eventID, lookup.Record.AttendeeID, record, true)
}

func (r *Resolver) update(ctx context.Context, eventID, attendeeID string, record domain.AttendeeRecord, recovered bool) (Registration, error) {
	if record.AttendeeID != "" && record.AttendeeID != attendeeID {
		r.logger.WarnContext(ctx, "cached attendee id differs from resolved id",
			"event_id", eventID,
			"cached_attendee_id", record.AttendeeID,
			"attendee_id", attendeeID,
		)
	}
	record.AttendeeID = attendeeID
	if err := r.attendees.UpdateAttendee(ctx, eventID, attendeeID, record); err != nil {
		return Registration{}, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("attendee_id", attendeeID), attribute.String("intent", "update"))
	r.emit(ctx, audit.ActionAttendeeUpdated, eventID, attendeeID)
	return Registration{AttendeeID: attendeeID, Intent: IntentUpdate, Recovered: recovered}, nil
}

func (r *Resolver) emit(ctx context.Context, action audit.Action, eventID, attendeeID string) {
	if err := r.auditor.Emit(ctx, audit.Event{Action: action, EventID: eventID, AttendeeID: attendeeID}); err != nil {
		r.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
