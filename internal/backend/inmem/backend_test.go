package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/domain"
	dErrors "registrar/pkg/domain-errors"
)

const eventID = "evt-1"

func paidEvent() domain.Event {
	return domain.Event{
		ID:               eventID,
		Name:             "Launch",
		TicketType:       domain.TicketPaid,
		Price:            domain.Money{Amount: 2500, Currency: "USD"},
		MaxAllowedPeople: 4,
		Visibility:       domain.VisibilityPublic,
	}
}

func record() domain.AttendeeRecord {
	return domain.AttendeeRecord{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		AllowedPeople: 2,
		IsPaying:      true,
		Visibility:    domain.VisibilityPublic,
	}
}

func TestAttendeePoolsAreDisjoint(t *testing.T) {
	ctx := context.Background()
	b := New()
	id, err := b.CreateAttendee(ctx, eventID, record())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	pub, err := b.ResolveAttendee(ctx, eventID, domain.VisibilityPublic, "ada@example.com", "")
	require.NoError(t, err)
	assert.True(t, pub.Exists)
	assert.Equal(t, id, pub.Record.AttendeeID)

	priv, err := b.ResolveAttendee(ctx, eventID, domain.VisibilityPrivate, "ada@example.com", "")
	require.NoError(t, err)
	assert.False(t, priv.Exists)
}

func TestCreateDuplicateIsRejected(t *testing.T) {
	ctx := context.Background()
	b := New()
	_, err := b.CreateAttendee(ctx, eventID, record())
	require.NoError(t, err)

	_, err = b.CreateAttendee(ctx, eventID, record())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicateRegistration))
}

func TestFailNextInjectsNetworkErrors(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.FailNext(OpResolve, 2, nil)

	for range 2 {
		_, err := b.ResolveAttendee(ctx, eventID, domain.VisibilityPublic, "ada@example.com", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNetwork))
	}
	_, err := b.ResolveAttendee(ctx, eventID, domain.VisibilityPublic, "ada@example.com", "")
	assert.NoError(t, err)
	assert.Equal(t, 3, b.Calls(OpResolve))
}

func TestVerificationCodeLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := New(WithClock(func() time.Time { return now }))
	ident := "ada@example.com"

	require.NoError(t, b.SendVerificationCode(ctx, domain.ChannelEmail, ident))
	first, ok := b.LastCode(ident)
	require.True(t, ok)
	assert.Len(t, first, 6)

	t.Run("resend invalidates the previous code", func(t *testing.T) {
		require.NoError(t, b.SendVerificationCode(ctx, domain.ChannelEmail, ident))
		second, _ := b.LastCode(ident)
		if second == first {
			t.Skip("random codes collided")
		}
		err := b.VerifyCode(ctx, ident, first)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})

	t.Run("correct code verifies once", func(t *testing.T) {
		code, _ := b.LastCode(ident)
		require.NoError(t, b.VerifyCode(ctx, ident, code))
		err := b.VerifyCode(ctx, ident, code)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		require.NoError(t, b.SendVerificationCode(ctx, domain.ChannelEmail, ident))
		code, _ := b.LastCode(ident)
		now = now.Add(defaultCodeTTL)
		err := b.VerifyCode(ctx, ident, code)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})
}

func TestInitiatePayment(t *testing.T) {
	ctx := context.Background()
	b := New(WithFees(domain.Money{Amount: 100, Currency: "USD"}))
	b.PutEvent(paidEvent())
	id, err := b.CreateAttendee(ctx, eventID, record())
	require.NoError(t, err)

	first, err := b.InitiatePayment(ctx, eventID, id)
	require.NoError(t, err)
	assert.True(t, first.RequiresPayment)
	assert.Equal(t, int64(5000), first.Amount.Amount)
	assert.Equal(t, int64(100), first.Fees.Amount)
	require.NotNil(t, first.PaymentExpiry)

	second, err := b.InitiatePayment(ctx, eventID, id)
	require.NoError(t, err)
	assert.Equal(t, first.PaymentID, second.PaymentID, "active payment is reused")

	t.Run("non-paying attendee needs no payment", func(t *testing.T) {
		r := record()
		r.Email = "guest@example.com"
		r.IsPaying = false
		gid, err := b.CreateAttendee(ctx, eventID, r)
		require.NoError(t, err)
		res, err := b.InitiatePayment(ctx, eventID, gid)
		require.NoError(t, err)
		assert.False(t, res.RequiresPayment)
	})
}

func TestScriptedPaymentStatusAndRegistrationStatus(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.PutEvent(paidEvent())
	id, err := b.CreateAttendee(ctx, eventID, record())
	require.NoError(t, err)
	require.NoError(t, b.MarkInvited(ctx, eventID, id))
	require.NoError(t, b.Confirm(eventID, id))

	b.ScriptNextPayment(domain.PaymentPending, domain.PaymentCompleted, domain.PaymentFailed)
	started, err := b.InitiatePayment(ctx, eventID, id)
	require.NoError(t, err)

	read, err := b.GetPaymentStatus(ctx, started.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, read.Status)

	read, err = b.GetPaymentStatus(ctx, started.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, read.Status)

	read, err = b.GetPaymentStatus(ctx, started.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, read.Status, "terminal status is sticky")

	st, err := b.GetRegistrationStatus(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatus{
		IsRegistered: true,
		IsInvited:    true,
		IsConfirmed:  true,
		IsPaid:       true,
		AttendeeID:   id,
		PaymentID:    started.PaymentID,
	}, st)
}

func TestManualVerifyPayment(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.PutEvent(paidEvent())
	id, err := b.CreateAttendee(ctx, eventID, record())
	require.NoError(t, err)
	b.ScriptNextPayment(domain.PaymentFailed)
	started, err := b.InitiatePayment(ctx, eventID, id)
	require.NoError(t, err)
	_, err = b.GetPaymentStatus(ctx, started.PaymentID)
	require.NoError(t, err)

	res, err := b.ManualVerifyPayment(ctx, started.PaymentID, "TX-unknown", domain.Money{Amount: 5000, Currency: "USD"}, "bank_transfer")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "transaction reference not found", res.Message)

	b.AcceptManualProof("TX-1", domain.Money{Amount: 5000, Currency: "USD"})
	res, err = b.ManualVerifyPayment(ctx, started.PaymentID, "TX-1", domain.Money{Amount: 4000, Currency: "USD"}, "bank_transfer")
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = b.ManualVerifyPayment(ctx, started.PaymentID, "TX-1", domain.Money{Amount: 5000, Currency: "USD"}, "bank_transfer")
	require.NoError(t, err)
	assert.True(t, res.Success)

	txn, ok := b.Payment(started.PaymentID)
	require.True(t, ok)
	assert.Equal(t, domain.PaymentCompleted, txn.Status)
	require.NotNil(t, txn.Override)
	assert.Equal(t, domain.PaymentFailed, txn.Override.FromStatus)
}

func TestRegistrationStatusReportsCurrentPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := New(WithClock(func() time.Time { return now }))
	b.PutEvent(paidEvent())
	id, err := b.CreateAttendee(ctx, eventID, record())
	require.NoError(t, err)

	b.ScriptNextPayment(domain.PaymentFailed)
	failed, err := b.InitiatePayment(ctx, eventID, id)
	require.NoError(t, err)
	_, err = b.GetPaymentStatus(ctx, failed.PaymentID)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	retry, err := b.InitiatePayment(ctx, eventID, id)
	require.NoError(t, err)
	require.NotEqual(t, failed.PaymentID, retry.PaymentID)

	for range 20 {
		st, err := b.GetRegistrationStatus(ctx, eventID)
		require.NoError(t, err)
		require.Equal(t, retry.PaymentID, st.PaymentID, "active payment wins")
	}

	t.Run("most recent wins once all are terminal", func(t *testing.T) {
		b.ScriptPayment(retry.PaymentID, domain.PaymentExpired)
		_, err := b.GetPaymentStatus(ctx, retry.PaymentID)
		require.NoError(t, err)
		for range 20 {
			st, err := b.GetRegistrationStatus(ctx, eventID)
			require.NoError(t, err)
			require.Equal(t, retry.PaymentID, st.PaymentID)
		}
	})
}
