// Package verification runs the one-time code flow that proves ownership of
// an email address or phone number.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"registrar/internal/backend"
	"registrar/internal/domain"
	"registrar/internal/platform/metrics"
	dErrors "registrar/pkg/domain-errors"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/task"
)

const (
	CodeLength      = 6
	DefaultCooldown = 60 * time.Second
	defaultTick     = time.Second
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// State of the flow.
type State int

const (
	StateIdle State = iota
	StateCodeSent
	StateVerifying
	StateVerified
	// StateFailed is a retryable failure of the last verification attempt.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCodeSent:
		return "code_sent"
	case StateVerifying:
		return "verifying"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// View is the presentation snapshot of the flow.
type View struct {
	State             string         `json:"state"`
	Channel           domain.Channel `json:"channel,omitempty"`
	Identifier        string         `json:"identifier,omitempty"`
	CooldownRemaining int            `json:"cooldown_remaining_seconds"`
	CanResend         bool           `json:"can_resend"`
	Input             string         `json:"input"`
	Focus             int            `json:"focus"`
	Notice            string         `json:"notice,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// ResendResult reports whether a resend went out.
type ResendResult struct {
	Sent              bool
	CooldownRemaining int
	Notice            string
}

// Flow owns at most one active challenge. Backend calls are made without
// holding the lock.
type Flow struct {
	backend  backend.Verification
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  audit.Emitter
	cooldown time.Duration
	tick     time.Duration
	nowF     func() time.Time
	onChange func(View)

	base context.Context
	stop context.CancelFunc

	mu        sync.Mutex
	state     State
	challenge *domain.VerificationChallenge
	verified  *domain.VerificationChallenge
	countdown *task.Handle
	sending   bool
	input     string
	focus     int
	notice    string
	lastErr   string
}

type Option func(*Flow)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Flow) {
		f.metrics = m
	}
}

func WithAuditor(a audit.Emitter) Option {
	return func(f *Flow) {
		if a != nil {
			f.auditor = a
		}
	}
}

// WithCooldown sets the resend window.
func WithCooldown(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.cooldown = d
		}
	}
}

// WithTick sets the countdown refresh interval.
func WithTick(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.tick = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.nowF = now
		}
	}
}

// WithOnChange registers a callback receiving a snapshot after every change,
// including countdown ticks. It is called without the flow lock held.
func WithOnChange(fn func(View)) Option {
	return func(f *Flow) {
		f.onChange = fn
	}
}

// New creates an idle flow.
func New(b backend.Verification, opts ...Option) *Flow {
	base, stop := context.WithCancel(context.Background())
	f := &Flow{
		backend:  b,
		logger:   slog.Default(),
		auditor:  audit.Discard{},
		cooldown: DefaultCooldown,
		tick:     defaultTick,
		nowF:     time.Now,
		base:     base,
		stop:     stop,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SendCode issues a new challenge on channel. Choosing a different channel
// discards the previous challenge and its countdown. The same channel is
// throttled while its cooldown runs.
func (f *Flow) SendCode(ctx context.Context, channel domain.Channel, identifier string) error {
	if !channel.IsValid() {
		return dErrors.Validation("channel must be email or phone", map[string]string{"channel": "channel must be email or phone"})
	}
	if !domain.ValidIdentifier(channel, identifier) {
		return dErrors.Validation("contact is not valid", map[string]string{string(channel): string(channel) + " is not valid"})
	}

	f.mu.Lock()
	if err := f.checkSendableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.challenge != nil && f.challenge.Channel == channel {
		if left := f.challenge.CooldownRemaining(f.nowF()); left > 0 {
			f.mu.Unlock()
			f.metrics.IncrementOTPSend(string(channel), "throttled")
			return dErrors.Throttled(time.Duration(left) * time.Second)
		}
	}
	if f.challenge != nil && f.challenge.Channel != channel {
		f.discardLocked()
	}
	f.sending = true
	f.mu.Unlock()

	return f.send(ctx, channel, identifier)
}

// ResendCode re-sends on the active channel once the cooldown has elapsed.
// While the cooldown runs it sends nothing and returns a notice.
func (f *Flow) ResendCode(ctx context.Context) (ResendResult, error) {
	f.mu.Lock()
	if f.challenge == nil {
		f.mu.Unlock()
		return ResendResult{}, dErrors.New(dErrors.CodeInvalidState, "no code has been sent")
	}
	if err := f.checkSendableLocked(); err != nil {
		f.mu.Unlock()
		return ResendResult{}, err
	}
	if left := f.challenge.CooldownRemaining(f.nowF()); left > 0 {
		f.notice = fmt.Sprintf("You can request a new code in %d seconds.", left)
		res := ResendResult{Sent: false, CooldownRemaining: left, Notice: f.notice}
		channel := string(f.challenge.Channel)
		view := f.viewLocked()
		f.mu.Unlock()
		f.metrics.IncrementOTPSend(channel, "throttled")
		f.publish(view)
		return res, nil
	}
	channel, identifier := f.challenge.Channel, f.challenge.Identifier
	f.sending = true
	f.mu.Unlock()

	if err := f.send(ctx, channel, identifier); err != nil {
		return ResendResult{}, err
	}
	return ResendResult{Sent: true, CooldownRemaining: f.Remaining()}, nil
}

func (f *Flow) checkSendableLocked() error {
	switch {
	case f.sending:
		return dErrors.New(dErrors.CodeConflict, "a code is already being sent")
	case f.state == StateVerifying:
		return dErrors.New(dErrors.CodeConflict, "a code is being verified")
	case f.state == StateVerified:
		return dErrors.Wrap(sentinel.ErrAlreadyUsed, dErrors.CodeInvalidState, "contact is already verified")
	}
	return nil
}

// send performs the backend call. The caller has set f.sending.
func (f *Flow) send(ctx context.Context, channel domain.Channel, identifier string) error {
	err := f.backend.SendVerificationCode(ctx, channel, identifier)

	f.mu.Lock()
	f.sending = false
	if err != nil {
		f.lastErr = "could not send the code, please try again"
		view := f.viewLocked()
		f.mu.Unlock()
		f.metrics.IncrementOTPSend(string(channel), "error")
		f.logger.WarnContext(ctx, "send verification code failed", "channel", channel, "error", err)
		f.publish(view)
		return err
	}
	now := f.nowF()
	if f.countdown != nil {
		f.countdown.Cancel()
	}
	f.challenge = &domain.VerificationChallenge{
		Channel:       channel,
		Identifier:    identifier,
		IssuedAt:      now,
		CooldownUntil: now.Add(f.cooldown),
	}
	f.state = StateCodeSent
	f.input, f.focus = "", 0
	f.notice, f.lastErr = "", ""
	f.countdown = task.Every(f.base, "otp-countdown", f.tick, f.onTick)
	view := f.viewLocked()
	f.mu.Unlock()

	f.metrics.IncrementOTPSend(string(channel), "sent")
	f.publish(view)
	return nil
}

func (f *Flow) onTick(context.Context) {
	f.mu.Lock()
	if f.challenge == nil {
		f.mu.Unlock()
		return
	}
	left := f.challenge.CooldownRemaining(f.nowF())
	if left == 0 && f.notice != "" {
		f.notice = ""
	}
	view := f.viewLocked()
	h := f.countdown
	f.mu.Unlock()

	f.publish(view)
	if left == 0 {
		h.Cancel()
	}
}

// VerifyCode checks code against the active challenge. A code that is not
// exactly six digits is rejected without a network call. A wrong or expired
// code clears the input and leaves the countdown running.
func (f *Flow) VerifyCode(ctx context.Context, code string) error {
	if !codePattern.MatchString(code) {
		f.metrics.IncrementOTPVerification("malformed")
		return dErrors.Validation("code must be 6 digits", map[string]string{"code": "code must be 6 digits"})
	}

	f.mu.Lock()
	switch {
	case f.state == StateVerified:
		f.mu.Unlock()
		return dErrors.Wrap(sentinel.ErrAlreadyUsed, dErrors.CodeInvalidState, "contact is already verified")
	case f.challenge == nil:
		f.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "no code has been sent")
	case f.state == StateVerifying:
		f.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "a code is being verified")
	}
	f.state = StateVerifying
	f.input, f.focus = code, CodeLength-1
	f.lastErr = ""
	challenge := *f.challenge
	f.mu.Unlock()

	err := f.backend.VerifyCode(ctx, challenge.Identifier, code)

	f.mu.Lock()
	if err != nil {
		f.state = StateFailed
		if dErrors.HasCode(err, dErrors.CodeInvalidCode) {
			f.input, f.focus = "", 0
			f.lastErr = "the code is incorrect or has expired"
		} else {
			f.lastErr = "could not verify the code, please try again"
		}
		view := f.viewLocked()
		f.mu.Unlock()
		f.metrics.IncrementOTPVerification(string(dErrors.CodeOf(err)))
		f.publish(view)
		return err
	}
	f.state = StateVerified
	f.verified = &challenge
	f.notice = ""
	if f.countdown != nil {
		f.countdown.Cancel()
	}
	view := f.viewLocked()
	f.mu.Unlock()

	f.metrics.IncrementOTPVerification("verified")
	if aerr := f.auditor.Emit(ctx, audit.Event{Action: audit.ActionContactVerified, Subject: string(challenge.Channel)}); aerr != nil {
		f.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionContactVerified, "error", aerr)
	}
	f.publish(view)
	return nil
}

// IsVerified reports whether identifier was verified through this flow.
func (f *Flow) IsVerified(identifier string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verified != nil && f.verified.Identifier == identifier
}

// Remaining is the cooldown left on the active challenge, in seconds.
func (f *Flow) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.challenge == nil {
		return 0
	}
	return f.challenge.CooldownRemaining(f.nowF())
}

// Challenge returns a copy of the active challenge.
func (f *Flow) Challenge() (domain.VerificationChallenge, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.challenge == nil {
		return domain.VerificationChallenge{}, false
	}
	return *f.challenge, true
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// Reset discards the challenge and any verification, returning to idle.
func (f *Flow) Reset() {
	f.mu.Lock()
	f.discardLocked()
	f.verified = nil
	view := f.viewLocked()
	f.mu.Unlock()
	f.publish(view)
}

// Close stops the countdown and waits for it to exit.
func (f *Flow) Close() {
	f.mu.Lock()
	h := f.countdown
	f.countdown = nil
	f.mu.Unlock()
	f.stop()
	h.Stop()
}

func (f *Flow) discardLocked() {
	if f.countdown != nil {
		f.countdown.Cancel()
		f.countdown = nil
	}
	f.challenge = nil
	f.state = StateIdle
	f.input, f.focus = "", 0
	f.notice, f.lastErr = "", ""
}

func (f *Flow) viewLocked() View {
	v := View{
		State:  f.state.String(),
		Input:  f.input,
		Focus:  f.focus,
		Notice: f.notice,
		Error:  f.lastErr,
	}
	if f.challenge != nil {
		v.Channel = f.challenge.Channel
		v.Identifier = f.challenge.Identifier
		v.CooldownRemaining = f.challenge.CooldownRemaining(f.nowF())
		v.CanResend = v.CooldownRemaining == 0 && f.state != StateVerified && !f.sending
	}
	return v
}

func (f *Flow) publish(v View) {
	if f.onChange != nil {
		f.onChange(v)
	}
}
