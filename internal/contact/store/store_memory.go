package store

import (
	"context"
	"slices"
	"sync"

	"contactmanager/internal/contact/models"
	id "contactmanager/pkg/domain"
	"contactmanager/pkg/platform/sentinel"
)

// InMemory keeps contacts for the lifetime of the process.
//
// Every value crossing the store boundary is copied on the way in and on the
// way out, so callers can never reach internal state through a returned
// record. All operations run under one lock and are linearizable; the store
// does not validate, that is the service's job.
type InMemory struct {
	mu       sync.RWMutex
	contacts []models.Contact
}

// NewInMemory returns an empty store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// List returns a snapshot in insertion order.
func (s *InMemory) List(_ context.Context) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAll(s.contacts), nil
}

// FindByID returns sentinel.ErrNotFound when no record has contactID.
func (s *InMemory) FindByID(_ context.Context, contactID id.ContactID) (models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(contactID)
	if i < 0 {
		return models.Contact{}, sentinel.ErrNotFound
	}
	return s.contacts[i].Clone(), nil
}

// Create stores a copy of contact. A duplicate id is a programming error on
// the caller's side and is reported as sentinel.ErrConflict.
func (s *InMemory) Create(_ context.Context, contact models.Contact) (models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(contact.ID) >= 0 {
		return models.Contact{}, sentinel.ErrConflict
	}
	stored := contact.Clone()
	s.contacts = append(s.contacts, stored)
	return stored.Clone(), nil
}

// Update replaces the record sharing contact.ID wholesale.
func (s *InMemory) Update(_ context.Context, contact models.Contact) (models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(contact.ID)
	if i < 0 {
		return models.Contact{}, sentinel.ErrNotFound
	}
	s.contacts[i] = contact.Clone()
	return s.contacts[i].Clone(), nil
}

// Delete reports whether a record was removed.
func (s *InMemory) Delete(_ context.Context, contactID id.ContactID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(contactID)
	if i < 0 {
		return false, nil
	}
	s.contacts = slices.Delete(s.contacts, i, i+1)
	return true, nil
}

// Count returns the number of stored records.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contacts), nil
}

// indexOf must be called with mu held.
func (s *InMemory) indexOf(contactID id.ContactID) int {
	return slices.IndexFunc(s.contacts, func(c models.Contact) bool {
		return c.ID == contactID
	})
}
