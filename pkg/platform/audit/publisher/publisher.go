// Package publisher emits audit events to a store, synchronously or through a
// bounded buffer drained by a single worker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "registrar/pkg/platform/audit"
	"registrar/pkg/requestcontext"
)

// ErrBufferFull is returned in async mode when the buffer cannot take the event.
var ErrBufferFull = errors.New("audit: buffer full")

// ErrListUnsupported is returned by List when the store cannot be queried.
var ErrListUnsupported = errors.New("audit: store does not support listing")

// Publisher stamps events and hands them to the store.
// Compliance events are always written synchronously, even in async mode.
type Publisher struct {
	store  audit.Appender
	logger *slog.Logger
	nowF   func() time.Time

	buffer chan queued
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

type queued struct {
	ctx   context.Context
	event audit.Event
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a buffer of n events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan queued, n)
		}
	}
}

// WithLogger sets a logger for dropped and failed writes.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.nowF = now
		}
	}
}

// NewPublisher creates a publisher writing to store.
func NewPublisher(store audit.Appender, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		nowF:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit stamps the event and writes it. In async mode non-compliance events are
// queued and dropped with ErrBufferFull when the buffer is saturated.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.nowF()
	}
	event.Category = event.Action.Category()
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.buffer == nil || p.closed || event.Category == audit.CategoryCompliance {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit write failed", "action", event.Action, "error", err)
			return err
		}
		return nil
	}
	select {
	case p.buffer <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		return ErrBufferFull
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for q := range p.buffer {
		if err := p.store.Append(q.ctx, q.event); err != nil {
			p.logger.ErrorContext(q.ctx, "audit write failed", "action", q.event.Action, "error", err)
		}
	}
}

// List returns events for an attendee when the store supports queries.
func (p *Publisher) List(ctx context.Context, attendeeID string) ([]audit.Event, error) {
	s, ok := p.store.(audit.Store)
	if !ok {
		return nil, ErrListUnsupported
	}
	return s.ListByAttendee(ctx, attendeeID)
}

// Close drains queued events. It is safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.buffer != nil {
		close(p.buffer)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
