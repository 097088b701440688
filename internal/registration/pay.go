package registration

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/domain"
	"registrar/internal/payment"
	dErrors "registrar/pkg/domain-errors"
)

// PayNow initiates or reuses the attendee's payment and starts continuous
// polling. A payment the backend waives completes the registration. An
// initiation failure stays in AwaitingPayment with a retry affordance.
func (m *Machine) PayNow(ctx context.Context) (PaymentView, error) {
	m.mu.Lock()
	if m.state != StateAwaitingPayment {
		m.mu.Unlock()
		return PaymentView{}, dErrors.New(dErrors.CodeInvalidState, "payment is not due")
	}
	if m.payment.Busy {
		m.mu.Unlock()
		return PaymentView{}, dErrors.New(dErrors.CodeConflict, "payment is already being started")
	}
	attendeeID := m.status.AttendeeID
	if attendeeID == "" {
		m.mu.Unlock()
		return PaymentView{}, dErrors.New(dErrors.CodeInvalidState, "attendee is unknown")
	}
	m.payment.Busy = true
	m.payment.clearError()
	m.payment.Message = ""
	m.unlockAndNotify(ctx)

	ctx, span := m.tracer.Start(ctx, "registration.pay_now", trace.WithAttributes(attribute.String("attendee_id", attendeeID)))
	defer span.End()

	res, err := m.payments.Initiate(ctx, m.eventID, attendeeID)

	m.mu.Lock()
	m.payment.Busy = false
	if err != nil {
		m.payment.Error = userMessage(err)
		m.payment.ErrorCode = string(dErrors.CodeOf(err))
		m.payment.CanRetry = true
		view := m.payment
		m.unlockAndNotify(ctx)
		m.logger.WarnContext(ctx, "payment initiation failed", "attendee_id", attendeeID, "error", err)
		return view, err
	}
	if !res.RequiresPayment {
		m.waived = true
		m.setStateLocked(m.computeLocked(), "payment_waived")
		view := m.payment
		m.unlockAndNotify(ctx)
		m.logger.InfoContext(ctx, "payment waived", "attendee_id", attendeeID)
		return view, nil
	}
	if m.state != StateAwaitingPayment {
		view := m.payment
		m.unlockAndNotify(ctx)
		return view, nil
	}
	m.payment.setTransaction(res.Transaction)
	m.payment.CanManualVerify = false
	m.status.PaymentID = res.Transaction.PaymentID
	m.startPollLocked(res.Transaction.PaymentID, payment.Continuous(m.config.PollInterval))
	view := m.payment
	m.unlockAndNotify(ctx)
	return view, nil
}

// PaymentReturned handles the redirect back from checkout with the bounded
// retry schedule. An empty paymentID means the current payment.
func (m *Machine) PaymentReturned(ctx context.Context, paymentID string) error {
	m.mu.Lock()
	if m.state == StateCompleted {
		m.mu.Unlock()
		return nil
	}
	if m.state != StateAwaitingPayment {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "payment is not due")
	}
	current := m.payment.PaymentID
	if current == "" {
		current = m.status.PaymentID
	}
	if paymentID == "" {
		paymentID = current
	}
	if paymentID == "" {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "no payment to check")
	}
	if current != "" && paymentID != current {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeNotFound, "payment does not belong to this registration")
	}
	m.payment.PaymentID = paymentID
	m.payment.clearError()
	m.payment.Message = ""
	m.startPollLocked(paymentID, m.config.RetrySchedule)
	m.unlockAndNotify(ctx)
	return nil
}

// ManualVerify submits human-supplied proof for the current payment. A
// rejection is shown verbatim and the state stays AwaitingPayment.
func (m *Machine) ManualVerify(ctx context.Context, proof payment.ManualProof) (PaymentView, error) {
	m.mu.Lock()
	if m.state != StateAwaitingPayment {
		m.mu.Unlock()
		return PaymentView{}, dErrors.New(dErrors.CodeInvalidState, "payment is not due")
	}
	paymentID := m.payment.PaymentID
	if paymentID == "" {
		paymentID = m.status.PaymentID
	}
	if paymentID == "" {
		m.mu.Unlock()
		return PaymentView{}, dErrors.New(dErrors.CodeInvalidState, "no payment to verify")
	}
	m.cancelPollLocked()
	m.payment.Busy = true
	m.payment.clearError()
	m.unlockAndNotify(ctx)

	tx, err := m.payments.ManualVerify(ctx, paymentID, proof)

	m.mu.Lock()
	m.payment.Busy = false
	if err != nil {
		m.payment.Error = userMessage(err)
		m.payment.ErrorCode = string(dErrors.CodeOf(err))
		m.payment.CanRetry = true
		m.payment.CanManualVerify = true
		view := m.payment
		m.unlockAndNotify(ctx)
		return view, err
	}
	m.payment.setTransaction(tx)
	m.status.IsPaid = true
	m.setStateLocked(m.computeLocked(), "manual_override")
	view := m.payment
	m.unlockAndNotify(ctx)
	m.logger.InfoContext(ctx, "registration paid by manual verification", "payment_id", paymentID)
	return view, nil
}

func (m *Machine) onPaymentUpdate(gen uint64, res payment.Result) {
	ctx := m.base
	m.mu.Lock()
	if m.pollGen != gen {
		m.mu.Unlock()
		return
	}
	if res.Transaction != nil {
		m.payment.setTransaction(res.Transaction)
	}
	if !res.Outcome.Final() {
		m.unlockAndNotify(ctx)
		return
	}
	m.payment.Polling = false
	m.poll = nil
	m.pollID = ""
	m.applyOutcomeLocked(res)
	m.unlockAndNotify(ctx)
}

// applyOutcomeLocked folds a final poll result into the view and state.
func (m *Machine) applyOutcomeLocked(res payment.Result) {
	switch res.Outcome {
	case payment.OutcomeCompleted:
		m.status.IsPaid = true
		m.setStateLocked(m.computeLocked(), "payment_completed")
	case payment.OutcomeFailed, payment.OutcomeExpired:
		m.payment.Error = res.Message
		m.payment.ErrorCode = string(dErrors.CodeOf(res.Err))
		m.payment.CanRetry = true
		m.payment.CanManualVerify = res.Transaction != nil && res.Transaction.Status == domain.PaymentFailed
	case payment.OutcomeInconclusive:
		if res.Err != nil {
			m.payment.Error = userMessage(res.Err)
			m.payment.ErrorCode = string(dErrors.CodeOf(res.Err))
			m.payment.CanRetry = true
			break
		}
		m.payment.Message = res.Message
		m.payment.CanManualVerify = true
	}
}
