package models

import (
	"time"

	id "contactmanager/pkg/domain"
)

// Contact is one person's stored contact record.
//
// Invariants:
//   - ID is unique within the store and never the nil UUID
//   - Name, Email and Phone passed ValidateContact at write time
//   - Phone is always in canonical (DDD)-DDD-DDDD form
//   - CreatedAt is immutable after creation
//   - UpdatedAt is nil until the first successful update
type Contact struct {
	ID        id.ContactID
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Clone returns an independent copy; the UpdatedAt pointer is not shared.
func (c Contact) Clone() Contact {
	if c.UpdatedAt != nil {
		updatedAt := *c.UpdatedAt
		c.UpdatedAt = &updatedAt
	}
	return c
}

// CloneAll copies every contact in cs.
func CloneAll(cs []Contact) []Contact {
	out := make([]Contact, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}
