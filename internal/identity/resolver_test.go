package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"registrar/internal/backend"
	"registrar/internal/backend/mocks"
	"registrar/internal/domain"
	dErrors "registrar/pkg/domain-errors"
	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	"registrar/pkg/platform/audit/store/memory"
	"registrar/pkg/testutil"
)

// =============================================================================
// Resolver Test Suite
// =============================================================================
// Resolve must never write, and Register must never create twice for one identity.

type ResolverSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	attendees *mocks.MockAttendees
	store     *memory.InMemoryStore
	resolver  *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.attendees = mocks.NewMockAttendees(s.ctrl)
	s.store = memory.NewInMemoryStore()
	s.resolver = New(s.attendees,
		WithLogger(testutil.DiscardLogger()),
		WithAuditor(publisher.NewPublisher(s.store)),
	)
}

func (s *ResolverSuite) TearDownTest() {
	s.ctrl.Finish()
}

func record() domain.AttendeeRecord {
	return domain.AttendeeRecord{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		AllowedPeople: 1,
		Visibility:    domain.VisibilityPublic,
	}
}

func existing(id string) backend.AttendeeLookup {
	r := record()
	r.AttendeeID = id
	return backend.AttendeeLookup{Exists: true, Record: &r}
}

// =============================================================================
// Resolve
// =============================================================================

func (s *ResolverSuite) TestResolveInputValidation() {
	ctx := context.Background()

	s.Run("no identifier is a validation error without a network call", func() {
		_, err := s.resolver.Resolve(ctx, "evt-1", domain.VisibilityPublic, "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(dErrors.FieldsOf(err), "contact")
	})

	s.Run("unknown visibility is a validation error", func() {
		_, err := s.resolver.Resolve(ctx, "evt-1", domain.Visibility("shared"), "ada@example.com", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ResolverSuite) TestResolveIsIdempotent() {
	ctx := context.Background()
	s.attendees.EXPECT().
		ResolveAttendee(gomock.Any(), "evt-1", domain.VisibilityPrivate, "ada@example.com", "+15550100").
		Return(existing("att-1"), nil).
		Times(2)

	first, err := s.resolver.Resolve(ctx, "evt-1", domain.VisibilityPrivate, "ada@example.com", "+15550100")
	s.Require().NoError(err)
	second, err := s.resolver.Resolve(ctx, "evt-1", domain.VisibilityPrivate, "ada@example.com", "+15550100")
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(IntentUpdate, IntentFor(first))
}

func (s *ResolverSuite) TestResolveRejectsRecordWithoutID() {
	s.attendees.EXPECT().ResolveAttendee(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(backend.AttendeeLookup{Exists: true, Record: &domain.AttendeeRecord{}}, nil)

	_, err := s.resolver.Resolve(context.Background(), "evt-1", domain.VisibilityPublic, "ada@example.com", "")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

// =============================================================================
// Register
// =============================================================================

func (s *ResolverSuite) TestRegisterCreatesWhenAbsent() {
	ctx := context.Background()
	gomock.InOrder(
		s.attendees.EXPECT().ResolveAttendee(gomock.Any(), "evt-1", domain.VisibilityPublic, "ada@example.com", "").
			Return(backend.AttendeeLookup{Exists: false}, nil),
		s.attendees.EXPECT().CreateAttendee(gomock.Any(), "evt-1", record()).Return("att-new", nil),
	)

	reg, err := s.resolver.Register(ctx, "evt-1", record())
	s.Require().NoError(err)
	s.Equal(Registration{AttendeeID: "att-new", Intent: IntentCreate}, reg)

	events, _ := s.store.ListByAttendee(ctx, "att-new")
	s.Require().Len(events, 1)
	s.Equal(audit.ActionAttendeeCreated, events[0].Action)
}

func (s *ResolverSuite) TestRegisterUpdatesWhenPresent() {
	ctx := context.Background()
	want := record()
	want.AttendeeID = "att-1"
	gomock.InOrder(
		s.attendees.EXPECT().ResolveAttendee(gomock.Any(), "evt-1", domain.VisibilityPublic, "ada@example.com", "").
			Return(existing("att-1"), nil),
		s.attendees.EXPECT().UpdateAttendee(gomock.Any(), "evt-1", "att-1", want).Return(nil),
	)

	reg, err := s.resolver.Register(ctx, "evt-1", record())
	s.Require().NoError(err)
	s.Equal(IntentUpdate, reg.Intent)
	s.Equal("att-1", reg.AttendeeID)
	s.False(reg.Recovered)
}

func (s *ResolverSuite) TestRegisterKeepsResolvedIDOverCachedID() {
	cached := record()
	cached.AttendeeID = "att-stale"
	want := record()
	want.AttendeeID = "att-1"
	s.attendees.EXPECT().ResolveAttendee(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(existing("att-1"), nil)
	s.attendees.EXPECT().UpdateAttendee(gomock.Any(), "evt-1", "att-1", want).Return(nil)

	reg, err := s.resolver.Register(context.Background(), "evt-1", cached)
	s.Require().NoError(err)
	s.Equal("att-1", reg.AttendeeID)
}

func (s *ResolverSuite) TestRegisterFoldsDuplicateIntoUpdate() {
	ctx := context.Background()
	want := record()
	want.AttendeeID = "att-other-device"
	gomock.InOrder(
		s.attendees.EXPECT().ResolveAttendee(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AttendeeLookup{Exists: false}, nil),
		s.attendees.EXPECT().CreateAttendee(gomock.Any(), "evt-1", gomock.Any()).
			Return("", dErrors.New(dErrors.CodeDuplicateRegistration, "exists")),
		s.attendees.EXPECT().ResolveAttendee(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(existing("att-other-device"), nil),
		s.attendees.EXPECT().UpdateAttendee(gomock.Any(), "evt-1", "att-other-device", want).Return(nil),
	)

	reg, err := s.resolver.Register(ctx, "evt-1", record())
	s.Require().NoError(err, "duplicate is never surfaced")
	s.Equal(Registration{AttendeeID: "att-other-device", Intent: IntentUpdate, Recovered: true}, reg)
}

func (s *ResolverSuite) TestRegisterPropagatesFailures() {
	ctx := context.Background()

	s.Run("network error on resolve", func() {
		s.attendees.EXPECT().ResolveAttendee(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AttendeeLookup{}, dErrors.New(dErrors.CodeNetwork, "down"))
		_, err := s.resolver.Register(ctx, "evt-1", record())
		s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
	})

	s.Run("duplicate with no record on re-resolve is a conflict", func() {
		s.attendees.EXPECT().ResolveAttendee(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AttendeeLookup{Exists: false}, nil).Times(2)
		s.attendees.EXPECT().CreateAttendee(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", dErrors.New(dErrors.CodeDuplicateRegistration, "exists"))
		_, err := s.resolver.Register(ctx, "evt-1", record())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// Record
// =============================================================================

func (s *ResolverSuite) TestRecord() {
	ctx := context.Background()

	s.Run("reads by id and pins the id", func() {
		s.attendees.EXPECT().GetAttendee(gomock.Any(), "evt-1", "att-3").Return(record(), nil)
		rec, err := s.resolver.Record(ctx, "evt-1", "att-3")
		s.Require().NoError(err)
		s.Equal("att-3", rec.AttendeeID)
		s.Equal("ada@example.com", rec.Email)
	})

	s.Run("empty id is rejected locally", func() {
		_, err := s.resolver.Record(ctx, "evt-1", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("backend error is returned", func() {
		s.attendees.EXPECT().GetAttendee(gomock.Any(), "evt-1", "att-4").
			Return(domain.AttendeeRecord{}, dErrors.New(dErrors.CodeNotFound, "attendee not found"))
		_, err := s.resolver.Record(ctx, "evt-1", "att-4")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
