package domain

import (
	"net/mail"
	"regexp"
	"strings"
)

// Visibility selects which attendee pool is authoritative for an event.
// The public and private pools are disjoint and never merged.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Channel is a contact channel used for one-time codes.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelPhone
}

// InviteChannel is the delivery channel of an invitation. Exactly one is used per submission.
type InviteChannel string

const (
	InviteEmail InviteChannel = "email"
	InviteSMS   InviteChannel = "sms"
)

// ContactChannel maps the invite channel to the contact channel it targets.
func (c InviteChannel) ContactChannel() Channel {
	if c == InviteSMS {
		return ChannelPhone
	}
	return ChannelEmail
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidEmail reports whether s is a bare email address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ValidPhone reports whether s is a phone number in international digit form.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ValidIdentifier checks identifier against the format of channel.
func ValidIdentifier(channel Channel, identifier string) bool {
	switch channel {
	case ChannelEmail:
		return ValidEmail(identifier)
	case ChannelPhone:
		return ValidPhone(identifier)
	default:
		return false
	}
}

// AttendeeRecord holds identity and registration facts for one person at one event.
//
// Invariants:
//   - at least one of Email/Phone is present and well formed
//   - 1 <= AllowedPeople <= the event's policy maximum
//   - AttendeeID is empty until the first successful create and immutable afterwards
type AttendeeRecord struct {
	AttendeeID    string     `json:"attendee_id,omitempty"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	AllowedPeople int        `json:"allowed_people"`
	IsPaying      bool       `json:"is_paying"`
	Visibility    Visibility `json:"visibility"`
}

// Normalize trims whitespace and lowercases the email.
func (r *AttendeeRecord) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.ReplaceAll(strings.TrimSpace(r.Phone), " ", "")
}

// Identifier returns the contact identifier for channel.
func (r AttendeeRecord) Identifier(channel Channel) string {
	if channel == ChannelPhone {
		return r.Phone
	}
	return r.Email
}

// Validate returns per-field messages; an empty map means the record is valid.
// maxAllowed <= 0 disables the upper bound on AllowedPeople.
func (r AttendeeRecord) Validate(maxAllowed int) map[string]string {
	fields := make(map[string]string)
	if r.FirstName == "" {
		fields["first_name"] = "first name is required"
	}
	if r.LastName == "" {
		fields["last_name"] = "last name is required"
	}
	if r.Email == "" && r.Phone == "" {
		fields["contact"] = "an email or phone number is required"
	}
	if r.Email != "" && !ValidEmail(r.Email) {
		fields["email"] = "email is not valid"
	}
	if r.Phone != "" && !ValidPhone(r.Phone) {
		fields["phone"] = "phone number is not valid"
	}
	if r.AllowedPeople < 1 {
		fields["allowed_people"] = "at least one person is required"
	} else if maxAllowed > 0 && r.AllowedPeople > maxAllowed {
		fields["allowed_people"] = "too many people for this event"
	}
	if !r.Visibility.IsValid() {
		fields["visibility"] = "visibility must be public or private"
	}
	return fields
}
