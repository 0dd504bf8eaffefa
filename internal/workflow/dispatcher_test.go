package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []Event
	err    error
	seen   chan struct{}
}

func newRecordingHandler(expected int) *recordingHandler {
	return &recordingHandler{seen: make(chan struct{}, expected)}
}

func (h *recordingHandler) HandleEvent(ctx context.Context, ev Event) error {
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
	h.seen <- struct{}{}
	return h.err
}

func (h *recordingHandler) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-h.seen:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
}

// blockingHandler parks inside HandleEvent until its context is
// cancelled, reporting the cancellation cause.
type blockingHandler struct {
	entered chan struct{}
	result  chan error
}

func (h *blockingHandler) HandleEvent(ctx context.Context, ev Event) error {
	close(h.entered)
	<-ctx.Done()
	h.result <- ctx.Err()
	return ctx.Err()
}

func TestDispatcher_ProcessesEventsInArrayOrder(t *testing.T) {
	handler := newRecordingHandler(3)
	d := NewDispatcher(handler, 8, nil)
	d.Start()

	delivery := Delivery{
		ID: "d-1",
		Events: []Event{
			{Action: "post", Object: EventObject{Type: "project", ID: 1}},
			{Action: "update", Object: EventObject{Type: "task", ID: 2}},
			{Action: "post", Object: EventObject{Type: "project", ID: 3}},
		},
	}
	require.True(t, d.Enqueue(delivery))
	handler.wait(t, 3)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.events, 3)
	assert.Equal(t, 1, handler.events[0].Object.ID)
	assert.Equal(t, 2, handler.events[1].Object.ID)
	assert.Equal(t, 3, handler.events[2].Object.ID)
}

func TestDispatcher_HandlerErrorDoesNotStopSiblings(t *testing.T) {
	handler := newRecordingHandler(2)
	handler.err = errors.New("boom")
	d := NewDispatcher(handler, 8, nil)
	d.Start()

	require.True(t, d.Enqueue(Delivery{
		ID: "d-1",
		Events: []Event{
			{Action: "post", Object: EventObject{Type: "project", ID: 1}},
			{Action: "post", Object: EventObject{Type: "project", ID: 2}},
		},
	}))
	handler.wait(t, 2)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Len(t, handler.events, 2)
}

func TestDispatcher_EnqueueFailsWhenFull(t *testing.T) {
	// Never started, so nothing drains the queue.
	d := NewDispatcher(newRecordingHandler(0), 1, nil)

	assert.True(t, d.Enqueue(Delivery{ID: "d-1"}))
	assert.False(t, d.Enqueue(Delivery{ID: "d-2"}))
}

func TestDispatcher_DrainWaitsForQueued(t *testing.T) {
	handler := newRecordingHandler(1)
	d := NewDispatcher(handler, 8, nil)
	d.Start()

	require.True(t, d.Enqueue(Delivery{
		ID:     "d-1",
		Events: []Event{{Action: "update", Object: EventObject{Type: "task", ID: 1}}},
	}))
	d.Drain(5 * time.Second)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Len(t, handler.events, 1)
}

func TestDispatcher_DrainFinishesBacklogAcceptedBeforeShutdown(t *testing.T) {
	handler := newRecordingHandler(3)
	d := NewDispatcher(handler, 8, nil)

	// Deliveries queued before the consumer ever got scheduled, as
	// happens when a shutdown signal races the webhook handler.
	for i := 1; i <= 3; i++ {
		require.True(t, d.Enqueue(Delivery{
			ID:     "d-backlog",
			Events: []Event{{Action: "post", Object: EventObject{Type: "project", ID: i}}},
		}))
	}

	d.Start()
	d.Drain(5 * time.Second)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.events, 3)
	assert.Equal(t, 1, handler.events[0].Object.ID)
	assert.Equal(t, 3, handler.events[2].Object.ID)
}

func TestDispatcher_DrainGraceAbortsStuckDelivery(t *testing.T) {
	handler := &blockingHandler{
		entered: make(chan struct{}),
		result:  make(chan error, 1),
	}
	d := NewDispatcher(handler, 8, nil)
	d.Start()

	require.True(t, d.Enqueue(Delivery{
		ID:     "d-stuck",
		Events: []Event{{Action: "update", Object: EventObject{Type: "task", ID: 1}}},
	}))
	select {
	case <-handler.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never started")
	}

	d.Drain(50 * time.Millisecond)

	select {
	case err := <-handler.result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight handler was not cancelled")
	}
}

func TestDispatcher_EnqueueRejectedAfterDrain(t *testing.T) {
	d := NewDispatcher(newRecordingHandler(0), 8, nil)
	d.Start()
	d.Drain(time.Second)

	// A handler that outlives httpServer.Shutdown may still enqueue;
	// the delivery is refused rather than sent on a closed channel.
	assert.False(t, d.Enqueue(Delivery{ID: "d-late"}))
}
