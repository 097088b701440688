package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registrar/pkg/domain-errors"
)

func newTxn(status PaymentStatus) *PaymentTransaction {
	return &PaymentTransaction{PaymentID: "pay-1", Status: status}
}

func TestApplyStatus_MovesForward(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	txn := newTxn(PaymentInitiated)

	assert.True(t, txn.ApplyStatus(PaymentPending, nil, now))
	assert.False(t, txn.ApplyStatus(PaymentPending, nil, now), "same status is not a change")
	assert.False(t, txn.ApplyStatus(PaymentInitiated, nil, now), "backwards reads are ignored")
	assert.True(t, txn.ApplyStatus(PaymentCompleted, nil, now))
	assert.Equal(t, PaymentCompleted, txn.Status)
}

func TestApplyStatus_TerminalIsMonotonic(t *testing.T) {
	now := time.Now()
	for _, terminal := range []PaymentStatus{PaymentCompleted, PaymentFailed, PaymentExpired} {
		for _, next := range []PaymentStatus{PaymentInitiated, PaymentPending, PaymentCompleted, PaymentFailed, PaymentExpired} {
			txn := newTxn(terminal)
			assert.False(t, txn.ApplyStatus(next, nil, now), "%s -> %s", terminal, next)
			assert.Equal(t, terminal, txn.Status)
		}
	}
}

func TestApplyStatus_PastExpiryBecomesExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expiry := now.Add(-time.Second)
	txn := newTxn(PaymentPending)

	assert.True(t, txn.ApplyStatus(PaymentPending, &expiry, now))
	assert.Equal(t, PaymentExpired, txn.Status)
}

func TestApplyStatus_TerminalReadWinsOverLocalExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expiry := now.Add(-time.Second)
	txn := newTxn(PaymentPending)
	txn.PaymentExpiry = &expiry

	assert.True(t, txn.ApplyStatus(PaymentCompleted, nil, now))
	assert.Equal(t, PaymentCompleted, txn.Status)
}

func TestApplyStatus_IgnoresUnknownStatus(t *testing.T) {
	txn := newTxn(PaymentPending)
	assert.False(t, txn.ApplyStatus("refunded", nil, time.Now()))
	assert.Equal(t, PaymentPending, txn.Status)
}

func TestManualOverride(t *testing.T) {
	now := time.Now()

	t.Run("failed transaction can be overridden", func(t *testing.T) {
		txn := newTxn(PaymentFailed)
		require.NoError(t, txn.CanManualOverride())
		txn.ApplyManualOverride(ManualOverride{TransactionID: "tx-9", Method: "bank_transfer", AppliedAt: now})

		assert.Equal(t, PaymentCompleted, txn.Status)
		require.NotNil(t, txn.Override)
		assert.Equal(t, PaymentFailed, txn.Override.FromStatus)
		assert.Equal(t, "tx-9", txn.Override.TransactionID)
	})

	t.Run("inconclusive pending transaction can be overridden", func(t *testing.T) {
		assert.NoError(t, newTxn(PaymentPending).CanManualOverride())
	})

	t.Run("completed and expired transactions cannot", func(t *testing.T) {
		assert.True(t, dErrors.HasCode(newTxn(PaymentCompleted).CanManualOverride(), dErrors.CodeInvalidState))
		assert.True(t, dErrors.HasCode(newTxn(PaymentExpired).CanManualOverride(), dErrors.CodeInvalidState))
	})
}

func TestIsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.True(t, (&PaymentTransaction{Status: PaymentPending, PaymentExpiry: &future}).IsActive(now))
	assert.False(t, (&PaymentTransaction{Status: PaymentPending, PaymentExpiry: &past}).IsActive(now))
	assert.False(t, (&PaymentTransaction{Status: PaymentFailed}).IsActive(now))
}

func TestClone_DoesNotShareExpiry(t *testing.T) {
	exp := time.Now()
	txn := &PaymentTransaction{PaymentID: "pay-1", PaymentExpiry: &exp}
	c := txn.Clone()
	*c.PaymentExpiry = exp.Add(time.Hour)
	assert.Equal(t, exp, *txn.PaymentExpiry)
}
