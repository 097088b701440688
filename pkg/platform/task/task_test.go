package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_CancelStopsLoop(t *testing.T) {
	started := make(chan struct{})
	h := Go(context.Background(), "loop", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started
	assert.True(t, h.Running())
	assert.Equal(t, "loop", h.Name())

	h.Stop()
	assert.False(t, h.Running())
}

func TestGo_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := Go(parent, "child", func(ctx context.Context) {
		<-ctx.Done()
	})
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not observe parent cancellation")
	}
}

func TestEvery_TicksUntilCancelled(t *testing.T) {
	var ticks atomic.Int32
	h := Every(context.Background(), "ticker", 5*time.Millisecond, func(ctx context.Context) {
		ticks.Add(1)
	})
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	h.Stop()
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestNilHandleIsInert(t *testing.T) {
	var h *Handle
	h.Cancel()
	h.Stop()
	assert.False(t, h.Running())
	assert.Empty(t, h.Name())
}

func TestCancelFromInsideLoop(t *testing.T) {
	var h *Handle
	ready := make(chan struct{})
	h = Go(context.Background(), "self", func(ctx context.Context) {
		<-ready
		h.Cancel()
		<-ctx.Done()
	})
	close(ready)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("self-cancel did not stop loop")
	}
}

func TestSleep(t *testing.T) {
	assert.True(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, Sleep(ctx, time.Hour))
	assert.False(t, Sleep(ctx, 0))
}
