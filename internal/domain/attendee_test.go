package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validRecord() AttendeeRecord {
	return AttendeeRecord{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		AllowedPeople: 1,
		Visibility:    VisibilityPublic,
	}
}

func TestAttendeeRecord_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *AttendeeRecord)
		max    int
		field  string
	}{
		{name: "valid record", mutate: func(r *AttendeeRecord) {}},
		{name: "missing first name", mutate: func(r *AttendeeRecord) { r.FirstName = "" }, field: "first_name"},
		{name: "no contact", mutate: func(r *AttendeeRecord) { r.Email = "" }, field: "contact"},
		{name: "phone only is fine", mutate: func(r *AttendeeRecord) { r.Email = ""; r.Phone = "+447700900123" }},
		{name: "bad email", mutate: func(r *AttendeeRecord) { r.Email = "not-an-email" }, field: "email"},
		{name: "bad phone", mutate: func(r *AttendeeRecord) { r.Phone = "12ab" }, field: "phone"},
		{name: "zero people", mutate: func(r *AttendeeRecord) { r.AllowedPeople = 0 }, field: "allowed_people"},
		{name: "over policy max", mutate: func(r *AttendeeRecord) { r.AllowedPeople = 5 }, max: 4, field: "allowed_people"},
		{name: "bad visibility", mutate: func(r *AttendeeRecord) { r.Visibility = "internal" }, field: "visibility"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			fields := r.Validate(tt.max)
			if tt.field == "" {
				assert.Empty(t, fields)
				return
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestAttendeeRecord_Normalize(t *testing.T) {
	r := AttendeeRecord{FirstName: " Ada ", Email: " ADA@Example.com ", Phone: "+44 7700 900123"}
	r.Normalize()
	assert.Equal(t, "Ada", r.FirstName)
	assert.Equal(t, "ada@example.com", r.Email)
	assert.Equal(t, "+447700900123", r.Phone)
}

func TestInviteChannel_ContactChannel(t *testing.T) {
	assert.Equal(t, ChannelEmail, InviteEmail.ContactChannel())
	assert.Equal(t, ChannelPhone, InviteSMS.ContactChannel())
}

func TestEvent_TotalFor(t *testing.T) {
	paid := Event{TicketType: TicketPaid, Price: Money{Amount: 5000, Currency: "USD"}}
	assert.Equal(t, Money{Amount: 10000, Currency: "USD"}, paid.TotalFor(2))
	assert.Equal(t, "100.00 USD", paid.TotalFor(2).String())

	free := Event{TicketType: TicketFree, Price: Money{Currency: "USD"}}
	assert.True(t, free.TotalFor(3).IsZero())
}

func TestVerificationChallenge_CooldownRemainingRoundsUp(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := VerificationChallenge{CooldownUntil: now.Add(59*time.Second + 100*time.Millisecond)}
	assert.Equal(t, 60, c.CooldownRemaining(now))
	assert.Equal(t, 0, c.CooldownRemaining(now.Add(time.Minute)))
}
