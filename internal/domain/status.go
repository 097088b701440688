package domain

// RegistrationStatus is the server-owned registration status. The client holds a
// cached projection that is stale until reconciled.
type RegistrationStatus struct {
	IsRegistered bool   `json:"is_registered"`
	IsInvited    bool   `json:"is_invited"`
	IsConfirmed  bool   `json:"is_confirmed"`
	IsPaid       bool   `json:"is_paid"`
	AttendeeID   string `json:"attendee_id,omitempty"`
	PaymentID    string `json:"payment_id,omitempty"`
}
