package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"registrar/internal/backend/mocks"
	"registrar/internal/domain"
	dErrors "registrar/pkg/domain-errors"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	"registrar/pkg/platform/audit/store/memory"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/testutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// =============================================================================
// Verification Flow Test Suite
// =============================================================================
// One challenge at a time. Malformed codes never reach the backend.

type FlowSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	verify *mocks.MockVerification
	clock  *fakeClock
	store  *memory.InMemoryStore
	flow   *Flow
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}

func (s *FlowSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verify = mocks.NewMockVerification(s.ctrl)
	s.clock = &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s.store = memory.NewInMemoryStore()
	s.flow = New(s.verify,
		WithLogger(testutil.DiscardLogger()),
		WithClock(s.clock.Now),
		WithAuditor(publisher.NewPublisher(s.store)),
		WithTick(time.Hour),
	)
}

func (s *FlowSuite) TearDownTest() {
	s.flow.Close()
	s.ctrl.Finish()
}

const email = "ada@example.com"

func (s *FlowSuite) sendEmail() {
	s.verify.EXPECT().SendVerificationCode(gomock.Any(), domain.ChannelEmail, email).Return(nil)
	s.Require().NoError(s.flow.SendCode(context.Background(), domain.ChannelEmail, email))
}

// =============================================================================
// SendCode
// =============================================================================

func (s *FlowSuite) TestSendCode() {
	ctx := context.Background()

	s.Run("invalid identifier is rejected without a network call", func() {
		err := s.flow.SendCode(ctx, domain.ChannelEmail, "not-an-email")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(StateIdle, s.flow.State())
	})

	s.Run("unknown channel is rejected", func() {
		err := s.flow.SendCode(ctx, domain.Channel("fax"), email)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("successful send starts the cooldown", func() {
		s.sendEmail()
		v := s.flow.View()
		s.Equal("code_sent", v.State)
		s.Equal(60, v.CooldownRemaining)
		s.False(v.CanResend)
		s.Equal(domain.ChannelEmail, v.Channel)
	})

	s.Run("same channel during cooldown is throttled", func() {
		s.clock.Advance(10 * time.Second)
		err := s.flow.SendCode(ctx, domain.ChannelEmail, email)
		s.True(dErrors.HasCode(err, dErrors.CodeThrottled))
		s.Equal(50, s.flow.Remaining())
	})
}

func (s *FlowSuite) TestSendCodeChannelSwitchDiscardsCountdown() {
	ctx := context.Background()
	s.sendEmail()
	s.clock.Advance(5 * time.Second)

	s.verify.EXPECT().SendVerificationCode(gomock.Any(), domain.ChannelPhone, "+15551230000").Return(nil)
	s.Require().NoError(s.flow.SendCode(ctx, domain.ChannelPhone, "+15551230000"))

	c, ok := s.flow.Challenge()
	s.Require().True(ok)
	s.Equal(domain.ChannelPhone, c.Channel)
	s.Equal(60, s.flow.Remaining())
}

func (s *FlowSuite) TestSendCodeBackendFailureKeepsFlowIdle() {
	s.verify.EXPECT().SendVerificationCode(gomock.Any(), domain.ChannelEmail, email).
		Return(dErrors.New(dErrors.CodeNetwork, "unreachable"))

	err := s.flow.SendCode(context.Background(), domain.ChannelEmail, email)
	s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
	s.Equal(StateIdle, s.flow.State())
	s.NotEmpty(s.flow.View().Error)
}

// =============================================================================
// ResendCode
// =============================================================================

func (s *FlowSuite) TestResendCode() {
	ctx := context.Background()

	s.Run("without a challenge is an invalid state", func() {
		_, err := s.flow.ResendCode(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("during cooldown sends nothing and returns a notice", func() {
		s.sendEmail()
		s.clock.Advance(45 * time.Second)
		res, err := s.flow.ResendCode(ctx)
		s.Require().NoError(err)
		s.False(res.Sent)
		s.Equal(15, res.CooldownRemaining)
		s.Contains(res.Notice, "15 seconds")
		s.Equal(res.Notice, s.flow.View().Notice)
	})

	s.Run("after cooldown re-sends on the same channel", func() {
		s.clock.Advance(15 * time.Second)
		s.verify.EXPECT().SendVerificationCode(gomock.Any(), domain.ChannelEmail, email).Return(nil)
		res, err := s.flow.ResendCode(ctx)
		s.Require().NoError(err)
		s.True(res.Sent)
		s.Equal(60, res.CooldownRemaining)
		s.Empty(s.flow.View().Notice)
	})
}

// =============================================================================
// VerifyCode
// =============================================================================

func (s *FlowSuite) TestVerifyCodeMalformedInput() {
	s.sendEmail()
	for _, code := range []string{"", "12345", "1234567", "12a456", " 123456"} {
		err := s.flow.VerifyCode(context.Background(), code)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), "code %q", code)
	}
	s.Equal(StateCodeSent, s.flow.State())
}

func (s *FlowSuite) TestVerifyCodeWithoutChallenge() {
	err := s.flow.VerifyCode(context.Background(), "123456")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *FlowSuite) TestVerifyCodeWrongCodeClearsInput() {
	ctx := context.Background()
	s.sendEmail()
	s.clock.Advance(20 * time.Second)

	s.verify.EXPECT().VerifyCode(gomock.Any(), email, "123456").
		Return(dErrors.New(dErrors.CodeInvalidCode, "wrong code"))

	err := s.flow.VerifyCode(ctx, "123456")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))

	v := s.flow.View()
	s.Equal("failed", v.State)
	s.Empty(v.Input)
	s.Zero(v.Focus)
	s.Equal(40, v.CooldownRemaining)
	s.NotEmpty(v.Error)

	s.verify.EXPECT().VerifyCode(gomock.Any(), email, "424242").Return(nil)
	s.Require().NoError(s.flow.VerifyCode(ctx, "424242"))
	s.Equal(StateVerified, s.flow.State())
}

func (s *FlowSuite) TestVerifyCodeNetworkErrorKeepsInput() {
	s.sendEmail()
	s.verify.EXPECT().VerifyCode(gomock.Any(), email, "424242").
		Return(dErrors.New(dErrors.CodeNetwork, "timeout"))

	err := s.flow.VerifyCode(context.Background(), "424242")
	s.True(dErrors.IsRetryable(err))
	s.Equal("424242", s.flow.View().Input)
	s.Equal(StateFailed, s.flow.State())
}

func (s *FlowSuite) TestVerifyCodeSuccess() {
	ctx := context.Background()
	s.sendEmail()
	s.verify.EXPECT().VerifyCode(gomock.Any(), email, "424242").Return(nil)

	s.Require().NoError(s.flow.VerifyCode(ctx, "424242"))
	s.True(s.flow.IsVerified(email))
	s.False(s.flow.IsVerified("other@example.com"))

	s.Run("replay is rejected without a network call", func() {
		err := s.flow.VerifyCode(ctx, "424242")
		s.True(errors.Is(err, sentinel.ErrAlreadyUsed))
	})

	s.Run("sending again after verification is rejected", func() {
		err := s.flow.SendCode(ctx, domain.ChannelEmail, email)
		s.True(errors.Is(err, sentinel.ErrAlreadyUsed))
	})

	s.Run("verification is audited", func() {
		events, err := s.store.ListByActions(ctx, audit.ActionContactVerified)
		s.Require().NoError(err)
		s.Len(events, 1)
	})

	s.Run("reset forgets the verification", func() {
		s.flow.Reset()
		s.False(s.flow.IsVerified(email))
		s.Equal(StateIdle, s.flow.State())
	})
}

// =============================================================================
// Countdown
// =============================================================================

func TestCountdownPublishesTicks(t *testing.T) {
	ctrl := gomock.NewController(t)
	verify := mocks.NewMockVerification(ctrl)
	verify.EXPECT().SendVerificationCode(gomock.Any(), domain.ChannelEmail, email).Return(nil)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	views := make(chan View, 64)
	flow := New(verify,
		WithLogger(testutil.DiscardLogger()),
		WithClock(clock.Now),
		WithTick(2*time.Millisecond),
		WithOnChange(func(v View) {
			select {
			case views <- v:
			default:
			}
		}),
	)
	defer flow.Close()

	if err := flow.SendCode(context.Background(), domain.ChannelEmail, email); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Minute)

	deadline := time.After(time.Second)
	for {
		select {
		case v := <-views:
			if v.CooldownRemaining == 0 && v.CanResend {
				return
			}
		case <-deadline:
			t.Fatal("countdown never reached zero")
		}
	}
}
