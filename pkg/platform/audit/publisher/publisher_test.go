package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/store/memory"
	"registrar/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		AttendeeID: "att-1",
		Action:     audit.ActionAttendeeCreated,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "att-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionAttendeeCreated, events[0].Action)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
	assert.NotEmpty(t, events[0].ID)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			AttendeeID: "att-1",
			Action:     audit.ActionStateChanged,
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByAttendee(context.Background(), "att-1")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_AsyncWritesComplianceSynchronously(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		PaymentID: "pay-1",
		Action:    audit.ActionManualOverride,
	})
	require.NoError(t, err)

	events, err := store.ListByActions(context.Background(), audit.ActionManualOverride)
	require.NoError(t, err)
	require.Len(t, events, 1, "compliance events are visible without draining")
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionStateChanged})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_Timestamps(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{AttendeeID: "a", Action: audit.ActionInviteSent}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{AttendeeID: "a", Action: audit.ActionInviteSent, Timestamp: custom}))

	events, err := pub.List(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, custom, events[1].Timestamp)
}

func TestPublisher_StampsRequestID(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	require.NoError(t, pub.Emit(ctx, audit.Event{AttendeeID: "a", Action: audit.ActionInviteSent}))

	events, err := pub.List(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-42", events[0].RequestID)
}

type appendOnly struct{}

func (appendOnly) Append(context.Context, audit.Event) error { return nil }

func TestPublisher_ListUnsupported(t *testing.T) {
	pub := NewPublisher(appendOnly{})
	defer pub.Close()

	_, err := pub.List(context.Background(), "a")
	assert.ErrorIs(t, err, ErrListUnsupported)
}

type failing struct{}

func (failing) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestFanoutReturnsFirstError(t *testing.T) {
	store := memory.NewInMemoryStore()
	fan := audit.Fanout{failing{}, store}

	err := fan.Append(context.Background(), audit.Event{AttendeeID: "a", Action: audit.ActionInviteSent})
	assert.EqualError(t, err, "disk full")

	events, _ := store.ListByAttendee(context.Background(), "a")
	assert.Len(t, events, 1, "later appenders still receive the event")
}
