package registration

import (
	"maps"
	"time"

	"registrar/internal/domain"
)

// View is what presentation collaborators render. It carries no decisions.
type View struct {
	State      string                    `json:"state"`
	Step       int                       `json:"step"`
	EditMode   bool                      `json:"edit_mode"`
	Submitting bool                      `json:"submitting"`
	FormErrors map[string]string         `json:"form_errors,omitempty"`
	FormError  string                    `json:"form_error,omitempty"`
	Status     domain.RegistrationStatus `json:"status"`
	Event      domain.Event              `json:"event"`
	Payment    *PaymentView              `json:"payment,omitempty"`
}

// PaymentView is the payment UI state.
type PaymentView struct {
	PaymentID       string               `json:"payment_id,omitempty"`
	PaymentURL      string               `json:"payment_url,omitempty"`
	Status          domain.PaymentStatus `json:"status,omitempty"`
	Amount          domain.Money         `json:"amount"`
	Fees            domain.Money         `json:"fees"`
	Total           domain.Money         `json:"total"`
	Expiry          *time.Time           `json:"payment_expiry,omitempty"`
	Busy            bool                 `json:"busy"`
	Polling         bool                 `json:"polling"`
	Message         string               `json:"message,omitempty"`
	Error           string               `json:"error,omitempty"`
	ErrorCode       string               `json:"error_code,omitempty"`
	CanRetry        bool                 `json:"can_retry"`
	CanManualVerify bool                 `json:"can_manual_verify"`
}

func (p *PaymentView) clearError() {
	p.Error, p.ErrorCode = "", ""
	p.CanRetry = false
}

func (p *PaymentView) setTransaction(tx *domain.PaymentTransaction) {
	p.PaymentID = tx.PaymentID
	p.PaymentURL = tx.PaymentURL
	p.Status = tx.Status
	p.Amount = tx.Amount
	p.Fees = tx.Fees
	p.Total = tx.Total()
	p.Expiry = tx.PaymentExpiry
}

func (m *Machine) viewLocked() View {
	v := View{
		State:      m.state.String(),
		Step:       int(m.state),
		EditMode:   m.editMode,
		Submitting: m.submitting,
		FormErrors: maps.Clone(m.formErrors),
		FormError:  m.formError,
		Status:     m.status,
		Event:      m.event,
	}
	if m.state == StateAwaitingPayment || m.payment.PaymentID != "" {
		p := m.payment
		// A payment adopted from a status read carries no amount.
		if p.Total.IsZero() && m.record != nil {
			p.Amount = m.event.TotalFor(m.record.AllowedPeople)
			p.Total = p.Amount
		}
		v.Payment = &p
	}
	return v
}
