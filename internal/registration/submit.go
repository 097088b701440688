package registration

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/domain"
	dErrors "registrar/pkg/domain-errors"
	audit "registrar/pkg/platform/audit"
)

// Form is one registration submission.
type Form struct {
	Record        domain.AttendeeRecord `json:"record"`
	InviteChannel domain.InviteChannel  `json:"invite_channel,omitempty"`
	Message       string                `json:"message,omitempty"`
}

// Submit creates or updates the attendee, sends the invitation on exactly
// one channel and marks the attendee invited. It is the only user action
// that leaves Editing. On failure the state stays Editing with the error
// reported in the view.
func (m *Machine) Submit(ctx context.Context, form Form) error {
	m.mu.Lock()
	if err := m.requireStarted(); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.submitting {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
	}
	if m.state != StateEditing {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "registration can only be submitted while editing")
	}
	m.submitting = true
	m.formErrors, m.formError = nil, ""
	event := m.event
	m.unlockAndNotify(ctx)

	ctx, span := m.tracer.Start(ctx, "registration.submit", trace.WithAttributes(attribute.String("event_id", m.eventID)))
	defer span.End()

	record, channel, err := m.submit(ctx, event, form)

	m.mu.Lock()
	m.submitting = false
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		m.formErrors = dErrors.FieldsOf(err)
		m.formError = userMessage(err)
		m.unlockAndNotify(ctx)
		m.logger.WarnContext(ctx, "registration submit failed", "event_id", m.eventID, "code", dErrors.CodeOf(err), "error", err)
		return err
	}
	m.record = &record
	m.editMode = false
	m.status.IsRegistered = true
	m.status.IsInvited = true
	m.status.AttendeeID = record.AttendeeID
	m.setStateLocked(StateAwaitingConfirmation, "submit")
	m.pending = append(m.pending, audit.Event{
		Action: audit.ActionInviteSent, EventID: m.eventID, AttendeeID: record.AttendeeID, Subject: string(channel),
	})
	m.unlockAndNotify(ctx)

	span.SetAttributes(attribute.String("attendee_id", record.AttendeeID), attribute.String("invite_channel", string(channel)))
	m.logger.InfoContext(ctx, "registration submitted", "event_id", m.eventID, "attendee_id", record.AttendeeID, "invite_channel", channel)
	return nil
}

func (m *Machine) submit(ctx context.Context, event domain.Event, form Form) (domain.AttendeeRecord, domain.InviteChannel, error) {
	record := form.Record
	record.Normalize()
	if record.Visibility == "" {
		record.Visibility = event.Visibility
	}
	channel := form.InviteChannel
	if channel == "" {
		channel = domain.InviteEmail
		if record.Email == "" && record.Phone != "" {
			channel = domain.InviteSMS
		}
	}

	fields := record.Validate(event.MaxAllowedPeople)
	switch channel {
	case domain.InviteEmail, domain.InviteSMS:
		contact := channel.ContactChannel()
		if _, bad := fields["contact"]; !bad && record.Identifier(contact) == "" {
			fields[string(contact)] = fmt.Sprintf("a %s is required to send the invitation by %s", contact, channel)
		}
	default:
		fields["invite_channel"] = "invitation channel must be email or sms"
	}
	if len(fields) > 0 {
		return record, channel, dErrors.Validation("registration form is invalid", fields)
	}

	if m.config.RequireVerifiedContact || event.RequiresVerification {
		identifier := record.Identifier(channel.ContactChannel())
		if m.verifier == nil || !m.verifier.IsVerified(identifier) {
			return record, channel, dErrors.Validation("contact is not verified", map[string]string{
				"contact": "verify your contact before registering",
			})
		}
	}

	reg, err := m.resolver.Register(ctx, m.eventID, record)
	if err != nil {
		return record, channel, err
	}
	record.AttendeeID = reg.AttendeeID

	message := form.Message
	if message == "" {
		message = fmt.Sprintf("You're invited to %s. Use the link in this message to confirm your registration.", event.Name)
	}
	if err := m.backend.SendInvite(ctx, m.eventID, record.AttendeeID, channel, message); err != nil {
		return record, channel, err
	}
	if err := m.backend.MarkInvited(ctx, m.eventID, record.AttendeeID); err != nil {
		return record, channel, err
	}
	return record, channel, nil
}

// EditFromConfirmation returns to the form without touching server state.
// Reconciliation is suspended until editing ends.
func (m *Machine) EditFromConfirmation(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAwaitingConfirmation {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "editing is only available while awaiting confirmation")
	}
	m.editMode = true
	m.formErrors, m.formError = nil, ""
	m.setStateLocked(StateEditing, "edit")
	m.unlockAndNotify(ctx)
	return nil
}

// ReturnToConfirmation abandons an edit started from confirmation.
func (m *Machine) ReturnToConfirmation(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateEditing || !m.editMode {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "no edit in progress")
	}
	if m.submitting {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "a submission is in progress")
	}
	m.editMode = false
	m.formErrors, m.formError = nil, ""
	m.setStateLocked(StateAwaitingConfirmation, "return")
	m.unlockAndNotify(ctx)
	return nil
}
