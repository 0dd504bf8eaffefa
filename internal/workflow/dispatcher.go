package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Handler processes one event.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// Delivery is one webhook request's worth of events, processed in
// array order.
type Delivery struct {
	ID     string
	Events []Event
}

// Dispatcher decouples webhook acknowledgement from event processing:
// the HTTP handler enqueues a delivery and returns, and a single
// consumer drains the queue. Deliveries run one at a time and events
// within a delivery run sequentially, which keeps provider logins
// ordered against the single cached-token slot.
type Dispatcher struct {
	handler Handler
	logger  hclog.Logger
	queue   chan Delivery

	mu     sync.Mutex
	closed bool

	// procCtx covers handler calls. It is independent of any request
	// or signal context so that accepted deliveries survive a shutdown
	// signal; Drain cancels it when the grace period elapses.
	procCtx    context.Context
	procCancel context.CancelFunc

	startOnce sync.Once
	done      chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue capacity.
func NewDispatcher(handler Handler, queueSize int, logger hclog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	procCtx, procCancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handler:    handler,
		logger:     logger,
		queue:      make(chan Delivery, queueSize),
		procCtx:    procCtx,
		procCancel: procCancel,
		done:       make(chan struct{}),
	}
}

// Start launches the consumer. The consumer runs until Drain is
// called; deliveries accepted before then are processed even when the
// process is already shutting down.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		go d.run()
	})
}

// Enqueue queues a delivery for processing. Returns false when the
// dispatcher is draining or the queue is full; the delivery is dropped
// (the webhook has already been acknowledged, so the only signal is
// the caller's log).
func (d *Dispatcher) Enqueue(delivery Delivery) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- delivery:
		return true
	default:
		return false
	}
}

// Drain stops intake and waits for queued deliveries to finish, up to
// grace. When the grace period elapses the processing context is
// cancelled, which aborts the in-flight handler call. Call after the
// HTTP server stopped accepting requests.
func (d *Dispatcher) Drain(grace time.Duration) {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-time.After(grace):
		d.logger.Warn("drain grace period elapsed, abandoning remaining deliveries")
		d.procCancel()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for delivery := range d.queue {
		if d.procCtx.Err() != nil {
			d.logger.Warn("drain aborted, skipping delivery", "delivery_id", delivery.ID)
			continue
		}
		for i, ev := range delivery.Events {
			if err := d.handler.HandleEvent(d.procCtx, ev); err != nil {
				// The delivering party was already acknowledged; the
				// event is abandoned and failure is local to the log.
				d.logger.Error("abandoning event",
					"delivery_id", delivery.ID,
					"event_index", i,
					"action", ev.Action,
					"object_type", ev.Object.Type,
					"error", err)
			}
		}
	}
}
