package domain

import "time"

// VerificationChallenge is an outstanding one-time code challenge.
// At most one challenge is active per flow; attempts are enforced server side.
type VerificationChallenge struct {
	Channel    Channel   `json:"channel"`
	Identifier string    `json:"identifier"`
	IssuedAt   time.Time `json:"issued_at"`
	// CooldownUntil is when a resend becomes possible.
	CooldownUntil time.Time `json:"cooldown_until"`
}

// CooldownRemaining is the whole seconds left before a resend is allowed, rounded up.
func (c VerificationChallenge) CooldownRemaining(now time.Time) int {
	left := c.CooldownUntil.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}
