package rest

import (
	"context"
	"net/http"
	"net/url"

	"registrar/internal/backend"
	"registrar/internal/domain"
	dErrors "registrar/pkg/domain-errors"
)

type createAttendeeResponse struct {
	AttendeeID string `json:"attendee_id"`
}

type inviteRequest struct {
	Channel domain.InviteChannel `json:"channel"`
	Message string               `json:"message,omitempty"`
}

type sendCodeRequest struct {
	Channel    domain.Channel `json:"channel"`
	Identifier string         `json:"identifier"`
}

type verifyCodeRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type manualVerifyRequest struct {
	TransactionID string       `json:"transaction_id"`
	Amount        domain.Money `json:"amount"`
	Method        string       `json:"method"`
}

var verifyStatusCodes = map[int]dErrors.Code{
	http.StatusBadRequest:          dErrors.CodeInvalidCode,
	http.StatusGone:                dErrors.CodeInvalidCode,
	http.StatusUnprocessableEntity: dErrors.CodeInvalidCode,
}

// GetEvent implements backend.Events.
func (c *Client) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	var out domain.Event
	err := c.do(ctx, call{
		op:     "get_event",
		method: http.MethodGet,
		path:   "/events/" + url.PathEscape(eventID),
		out:    &out,
	})
	return out, err
}

// ResolveAttendee implements backend.Attendees.
func (c *Client) ResolveAttendee(ctx context.Context, eventID string, v domain.Visibility, email, phone string) (backend.AttendeeLookup, error) {
	q := url.Values{}
	q.Set("visibility", string(v))
	if email != "" {
		q.Set("email", email)
	}
	if phone != "" {
		q.Set("phone", phone)
	}
	var out backend.AttendeeLookup
	err := c.do(ctx, call{
		op:     "resolve_attendee",
		method: http.MethodGet,
		path:   "/events/" + url.PathEscape(eventID) + "/attendees/resolve",
		query:  q,
		out:    &out,
	})
	if err != nil {
		return backend.AttendeeLookup{}, err
	}
	if out.Exists && out.Record == nil {
		return backend.AttendeeLookup{}, dErrors.New(dErrors.CodeNetwork, "resolve response missing record")
	}
	return out, nil
}

// CreateAttendee implements backend.Attendees.
func (c *Client) CreateAttendee(ctx context.Context, eventID string, record domain.AttendeeRecord) (string, error) {
	record.AttendeeID = ""
	var out createAttendeeResponse
	err := c.do(ctx, call{
		op:         "create_attendee",
		method:     http.MethodPost,
		path:       "/events/" + url.PathEscape(eventID) + "/attendees",
		body:       record,
		out:        &out,
		idempotent: true,
	})
	if err != nil {
		return "", err
	}
	if out.AttendeeID == "" {
		return "", dErrors.New(dErrors.CodeNetwork, "create response missing attendee id")
	}
	return out.AttendeeID, nil
}

// GetAttendee implements backend.Attendees.
func (c *Client) GetAttendee(ctx context.Context, eventID, attendeeID string) (domain.AttendeeRecord, error) {
	var out domain.AttendeeRecord
	err := c.do(ctx, call{
		op:     "get_attendee",
		method: http.MethodGet,
		path:   "/events/" + url.PathEscape(eventID) + "/attendees/" + url.PathEscape(attendeeID),
		out:    &out,
	})
	if err != nil {
		return domain.AttendeeRecord{}, err
	}
	if out.AttendeeID == "" {
		out.AttendeeID = attendeeID
	}
	return out, nil
}

// UpdateAttendee implements backend.Attendees.
func (c *Client) UpdateAttendee(ctx context.Context, eventID, attendeeID string, record domain.AttendeeRecord) error {
	record.AttendeeID = attendeeID
	return c.do(ctx, call{
		op:     "update_attendee",
		method: http.MethodPut,
		path:   "/events/" + url.PathEscape(eventID) + "/attendees/" + url.PathEscape(attendeeID),
		body:   record,
	})
}

// SendInvite implements backend.Invitations.
func (c *Client) SendInvite(ctx context.Context, eventID, attendeeID string, channel domain.InviteChannel, message string) error {
	return c.do(ctx, call{
		op:         "send_invite",
		method:     http.MethodPost,
		path:       "/events/" + url.PathEscape(eventID) + "/attendees/" + url.PathEscape(attendeeID) + "/invites",
		body:       inviteRequest{Channel: channel, Message: message},
		idempotent: true,
	})
}

// MarkInvited implements backend.Invitations.
func (c *Client) MarkInvited(ctx context.Context, eventID, attendeeID string) error {
	return c.do(ctx, call{
		op:     "mark_invited",
		method: http.MethodPost,
		path:   "/events/" + url.PathEscape(eventID) + "/attendees/" + url.PathEscape(attendeeID) + "/invited",
	})
}

// SendVerificationCode implements backend.Verification.
func (c *Client) SendVerificationCode(ctx context.Context, channel domain.Channel, identifier string) error {
	return c.do(ctx, call{
		op:     "send_verification_code",
		method: http.MethodPost,
		path:   "/verification/codes",
		body:   sendCodeRequest{Channel: channel, Identifier: identifier},
	})
}

// VerifyCode implements backend.Verification. Rejected codes map to CodeInvalidCode.
func (c *Client) VerifyCode(ctx context.Context, identifier, code string) error {
	return c.do(ctx, call{
		op:          "verify_code",
		method:      http.MethodPost,
		path:        "/verification/codes/verify",
		body:        verifyCodeRequest{Identifier: identifier, Code: code},
		statusCodes: verifyStatusCodes,
	})
}

// GetRegistrationStatus implements backend.Status.
func (c *Client) GetRegistrationStatus(ctx context.Context, eventID string) (domain.RegistrationStatus, error) {
	var out domain.RegistrationStatus
	err := c.do(ctx, call{
		op:     "get_registration_status",
		method: http.MethodGet,
		path:   "/events/" + url.PathEscape(eventID) + "/registration-status",
		out:    &out,
	})
	return out, err
}

// InitiatePayment implements backend.Payments.
func (c *Client) InitiatePayment(ctx context.Context, eventID, attendeeID string) (backend.PaymentInitiation, error) {
	var out backend.PaymentInitiation
	err := c.do(ctx, call{
		op:         "initiate_payment",
		method:     http.MethodPost,
		path:       "/events/" + url.PathEscape(eventID) + "/attendees/" + url.PathEscape(attendeeID) + "/payments",
		out:        &out,
		idempotent: true,
	})
	if err != nil {
		return backend.PaymentInitiation{}, err
	}
	if out.RequiresPayment && out.PaymentID == "" {
		return backend.PaymentInitiation{}, dErrors.New(dErrors.CodeNetwork, "payment response missing payment id")
	}
	return out, nil
}

// GetPaymentStatus implements backend.Payments.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (backend.PaymentStatusRead, error) {
	var out backend.PaymentStatusRead
	err := c.do(ctx, call{
		op:     "get_payment_status",
		method: http.MethodGet,
		path:   "/payments/" + url.PathEscape(paymentID),
		out:    &out,
	})
	if err != nil {
		return backend.PaymentStatusRead{}, err
	}
	if !out.Status.IsValid() {
		return backend.PaymentStatusRead{}, dErrors.New(dErrors.CodeNetwork, "unknown payment status "+string(out.Status))
	}
	return out, nil
}

// ManualVerifyPayment implements backend.Payments.
func (c *Client) ManualVerifyPayment(ctx context.Context, paymentID, transactionID string, amount domain.Money, method string) (backend.ManualVerification, error) {
	var out backend.ManualVerification
	err := c.do(ctx, call{
		op:     "manual_verify_payment",
		method: http.MethodPost,
		path:   "/payments/" + url.PathEscape(paymentID) + "/manual-verification",
		body:   manualVerifyRequest{TransactionID: transactionID, Amount: amount, Method: method},
		out:    &out,
	})
	return out, err
}
