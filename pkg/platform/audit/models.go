package audit

import (
	"context"
	"errors"
	"time"

	id "contactmanager/pkg/domain"
)

// AuditEvent names a contact lifecycle action.
type AuditEvent string

const (
	EventContactCreated AuditEvent = "contact_created"
	EventContactUpdated AuditEvent = "contact_updated"
	EventContactDeleted AuditEvent = "contact_deleted"
)

// Event is emitted from domain logic to capture key actions. It carries the
// contact id only, never the contact's personal fields.
type Event struct {
	Action    string       `json:"action"`
	ContactID id.ContactID `json:"contact_id"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Tee fans one event out to every store. All stores are attempted; the
// joined error reports every failure.
func Tee(stores ...Store) Store {
	return tee(stores)
}

type tee []Store

func (t tee) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
