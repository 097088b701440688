package registration

import "registrar/internal/domain"

// State is the registration step shown to the attendee.
type State int

const (
	StateEditing State = iota
	StateAwaitingConfirmation
	StateAwaitingPayment
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StateCompleted:
		return "completed"
	default:
		return "editing"
	}
}

// ComputeState maps the authoritative status to a state. ticket is the
// effective ticket type for the attendee: free when the event is free or the
// attendee does not pay.
func ComputeState(st domain.RegistrationStatus, ticket domain.TicketType) State {
	switch {
	case !st.IsRegistered || !st.IsInvited:
		return StateEditing
	case !st.IsConfirmed:
		return StateAwaitingConfirmation
	case ticket != domain.TicketPaid:
		return StateCompleted
	case st.IsPaid:
		return StateCompleted
	default:
		return StateAwaitingPayment
	}
}

// EffectiveTicket folds per-attendee waivers into the event ticket type.
// paying is nil when the attendee's paying flag is unknown.
func EffectiveTicket(event domain.TicketType, paying *bool, waived bool) domain.TicketType {
	if event != domain.TicketPaid || waived || (paying != nil && !*paying) {
		return domain.TicketFree
	}
	return domain.TicketPaid
}
