package domain

import "fmt"

// TicketType decides whether the payment step applies.
type TicketType string

const (
	TicketFree TicketType = "free"
	TicketPaid TicketType = "paid"
)

// Money is an amount in minor units (cents) of Currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Times multiplies the amount by n.
func (m Money) Times(n int) Money {
	return Money{Amount: m.Amount * int64(n), Currency: m.Currency}
}

// Add sums two amounts of the same currency; o's currency is ignored when m has none.
func (m Money) Add(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Amount: m.Amount + o.Amount, Currency: cur}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, abs(m.Amount%100), m.Currency)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Event describes what the registration pipeline needs to know about an event.
type Event struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	TicketType           TicketType `json:"ticket_type"`
	Price                Money      `json:"price"`
	MaxAllowedPeople     int        `json:"max_allowed_people"`
	Visibility           Visibility `json:"visibility"`
	RequiresVerification bool       `json:"requires_verification"`
}

// TotalFor is the ticket total for the given party size.
func (e Event) TotalFor(allowedPeople int) Money {
	if e.TicketType != TicketPaid {
		return Money{Currency: e.Price.Currency}
	}
	return e.Price.Times(allowedPeople)
}
