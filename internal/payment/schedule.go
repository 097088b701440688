package payment

import "time"

// Schedule yields the delay before each status read. ok=false ends polling.
type Schedule interface {
	Next(attempt int) (delay time.Duration, ok bool)
}

// Continuous reads at a fixed cadence until a terminal status.
type Continuous time.Duration

func (c Continuous) Next(int) (time.Duration, bool) {
	return time.Duration(c), true
}

// Bounded reads once per delay and then gives up.
type Bounded []time.Duration

func (b Bounded) Next(attempt int) (time.Duration, bool) {
	if attempt < 0 || attempt >= len(b) {
		return 0, false
	}
	return b[attempt], true
}

const DefaultPollInterval = 5 * time.Second

// DefaultRetrySchedule is used right after the processor redirects back.
var DefaultRetrySchedule = Bounded{
	1 * time.Second,
	2 * time.Second,
	3 * time.Second,
	5 * time.Second,
	8 * time.Second,
}
