package worker

import (
	"context"

	audit "contactmanager/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store   audit.Store
	inbox   <-chan audit.Event
	onError func(audit.Event, error)
}

// Option configures the Worker.
type Option func(*Worker)

// WithErrorHandler keeps the worker running after a failed append and hands
// the failure to fn instead.
func WithErrorHandler(fn func(audit.Event, error)) Option {
	return func(w *Worker) {
		w.onError = fn
	}
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run persists events until ctx is done or the inbox is closed. A closed
// inbox is drained completely and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				if w.onError == nil {
					return err
				}
				w.onError(event, err)
			}
		}
	}
}
