package handler

import (
	"strings"

	"registrar/internal/domain"
	"registrar/internal/registration"
	"registrar/internal/payment"
	dErrors "registrar/pkg/domain-errors"
)

// SubmitRequest is the body of POST /registration/submit. Field rules live in
// the registration machine so the view reports them per field.
type SubmitRequest struct {
	FirstName     string               `json:"first_name"`
	LastName      string               `json:"last_name"`
	Email         string               `json:"email"`
	Phone         string               `json:"phone"`
	AllowedPeople int                  `json:"allowed_people"`
	IsPaying      bool                 `json:"is_paying"`
	Visibility    domain.Visibility    `json:"visibility"`
	InviteChannel domain.InviteChannel `json:"invite_channel"`
	Message       string               `json:"message"`
}

func (r *SubmitRequest) Validate() error {
	if len(r.Message) > 2000 {
		return dErrors.Validation("message must be at most 2000 characters", map[string]string{"message": "too long"})
	}
	return nil
}

func (r *SubmitRequest) Form() registration.Form {
	return registration.Form{
		Record: domain.AttendeeRecord{
			FirstName:     r.FirstName,
			LastName:      r.LastName,
			Email:         r.Email,
			Phone:         r.Phone,
			AllowedPeople: r.AllowedPeople,
			IsPaying:      r.IsPaying,
			Visibility:    r.Visibility,
		},
		InviteChannel: r.InviteChannel,
		Message:       r.Message,
	}
}

// ManualVerifyRequest is the body of POST /registration/payment/manual-verify.
type ManualVerifyRequest struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Method        string `json:"method"`
}

func (r *ManualVerifyRequest) Validate() error {
	r.TransactionID = strings.TrimSpace(r.TransactionID)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.Method = strings.TrimSpace(r.Method)
	fields := map[string]string{}
	if r.TransactionID == "" {
		fields["transaction_id"] = "required"
	}
	if r.Amount <= 0 {
		fields["amount"] = "must be positive"
	}
	if r.Currency == "" {
		fields["currency"] = "required"
	}
	if r.Method == "" {
		fields["method"] = "required"
	}
	if len(fields) > 0 {
		return dErrors.Validation("manual verification proof is incomplete", fields)
	}
	return nil
}

func (r *ManualVerifyRequest) Proof(actorID string) payment.ManualProof {
	return payment.ManualProof{
		TransactionID: r.TransactionID,
		Amount:        domain.Money{Amount: r.Amount, Currency: r.Currency},
		Method:        r.Method,
		ActorID:       actorID,
	}
}

// SendCodeRequest is the body of POST /verification/send.
type SendCodeRequest struct {
	Channel    domain.Channel `json:"channel"`
	Identifier string         `json:"identifier"`
}

func (r *SendCodeRequest) Validate() error {
	r.Identifier = strings.TrimSpace(r.Identifier)
	if r.Channel == domain.ChannelEmail {
		r.Identifier = strings.ToLower(r.Identifier)
	}
	return nil
}

// VerifyCodeRequest is the body of POST /verification/verify.
type VerifyCodeRequest struct {
	Code string `json:"code"`
}

func (r *VerifyCodeRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return dErrors.Validation("code is required", map[string]string{"code": "required"})
	}
	return nil
}

// ResendResponse reports the outcome of POST /verification/resend.
type ResendResponse struct {
	Sent              bool   `json:"sent"`
	CooldownRemaining int    `json:"cooldown_remaining_seconds"`
	Notice            string `json:"notice,omitempty"`
}
