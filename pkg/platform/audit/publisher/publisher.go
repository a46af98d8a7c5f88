// Package publisher emits audit events either synchronously or through a
// bounded buffer drained by a background worker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "contactmanager/pkg/platform/audit"
	"contactmanager/pkg/platform/audit/worker"
)

var (
	// ErrBufferFull is returned by Emit when the async buffer has no room.
	ErrBufferFull = errors.New("audit buffer full")
	// ErrClosed is returned by Emit after Close.
	ErrClosed = errors.New("audit publisher closed")
)

// Publisher writes events to a store. In async mode Emit never blocks; events
// that do not fit in the buffer are rejected with ErrBufferFull.
type Publisher struct {
	store        audit.Store
	logger       *slog.Logger
	buffer       int
	drainTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	inbox  chan audit.Event
	done   chan struct{}
	cancel context.CancelFunc
}

// DefaultDrainTimeout bounds Close when no WithDrainTimeout is given.
const DefaultDrainTimeout = 15 * time.Second

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches to async mode with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

// WithLogger sets a logger for store failures in async mode.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithDrainTimeout bounds how long Close waits for buffered events. Events
// still queued after d are abandoned and the in-flight append is cancelled.
func WithDrainTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.drainTimeout = d
		}
	}
}

// NewPublisher creates a publisher; async mode starts its worker immediately.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, drainTimeout: DefaultDrainTimeout}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.inbox = make(chan audit.Event, p.buffer)
		p.done = make(chan struct{})
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		w := worker.NewWorker(store, p.inbox, worker.WithErrorHandler(p.logFailure))
		go func() {
			defer close(p.done)
			_ = w.Run(ctx)
		}()
	}
	return p
}

// Emit records event, stamping it with the current time when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events and, in async mode, waits until every
// buffered event has been written or the drain timeout expires.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()

	if p.done == nil {
		return
	}
	timer := time.NewTimer(p.drainTimeout)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		if p.logger != nil {
			p.logger.Warn("audit drain timed out, abandoning buffered events",
				"pending", len(p.inbox),
				"timeout", p.drainTimeout.String(),
			)
		}
	}
	p.cancel()
}

func (p *Publisher) logFailure(event audit.Event, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("failed to persist audit event",
		"action", event.Action,
		"contact_id", event.ContactID.String(),
		"request_id", event.RequestID,
		"error", err,
	)
}
