package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"contactmanager/internal/contact/models"
	id "contactmanager/pkg/domain"
	"contactmanager/pkg/platform/sentinel"
)

type ContactStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ContactStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestContactStoreSuite(t *testing.T) {
	suite.Run(t, new(ContactStoreSuite))
}

func (s *ContactStoreSuite) newContact(name string) models.Contact {
	return models.Contact{
		ID:        id.NewContactID(),
		Name:      name,
		Email:     "someone@example.com",
		Phone:     "(780)-555-1234",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// TestCreationAndLookups verifies the store creates and retrieves contacts.
func (s *ContactStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds contact by ID", func() {
		contact := s.newContact("Ethan Gurne")
		created, err := s.store.Create(s.ctx, contact)
		s.Require().NoError(err)
		s.Equal(contact, created)

		found, err := s.store.FindByID(s.ctx, contact.ID)
		s.Require().NoError(err)
		s.Equal(contact, found)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewContactID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ID", func() {
		contact := s.newContact("Dup")
		_, err := s.store.Create(s.ctx, contact)
		s.Require().NoError(err)

		_, err = s.store.Create(s.ctx, contact)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("lists in insertion order", func() {
		store := NewInMemory()
		a, b := s.newContact("A"), s.newContact("B")
		_, _ = store.Create(s.ctx, a)
		_, _ = store.Create(s.ctx, b)

		all, err := store.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 2)
		s.Equal("A", all[0].Name)
		s.Equal("B", all[1].Name)

		count, err := store.Count(s.ctx)
		s.Require().NoError(err)
		s.Equal(2, count)
	})
}

// TestCopySemantics verifies callers cannot reach internal state.
func (s *ContactStoreSuite) TestCopySemantics() {
	s.Run("mutating the input after create does not change the store", func() {
		contact := s.newContact("Original")
		_, err := s.store.Create(s.ctx, contact)
		s.Require().NoError(err)

		contact.Name = "Changed"
		found, _ := s.store.FindByID(s.ctx, contact.ID)
		s.Equal("Original", found.Name)
	})

	s.Run("mutating a returned record does not change the store", func() {
		contact := s.newContact("Original")
		created, _ := s.store.Create(s.ctx, contact)
		created.Name = "Changed"

		listed, _ := s.store.List(s.ctx)
		for i := range listed {
			listed[i].Name = "Changed"
		}

		found, _ := s.store.FindByID(s.ctx, contact.ID)
		s.Equal("Original", found.Name)
	})

	s.Run("updated at pointer is never shared", func() {
		contact := s.newContact("Pointer")
		_, _ = s.store.Create(s.ctx, contact)

		updatedAt := contact.CreatedAt.Add(time.Hour)
		contact.UpdatedAt = &updatedAt
		updated, err := s.store.Update(s.ctx, contact)
		s.Require().NoError(err)

		*contact.UpdatedAt = time.Time{}
		*updated.UpdatedAt = time.Time{}

		found, _ := s.store.FindByID(s.ctx, contact.ID)
		s.Require().NotNil(found.UpdatedAt)
		s.Equal(contact.CreatedAt.Add(time.Hour), *found.UpdatedAt)
	})
}

// TestUpdates verifies wholesale replacement.
func (s *ContactStoreSuite) TestUpdates() {
	s.Run("replaces every field", func() {
		contact := s.newContact("Before")
		_, _ = s.store.Create(s.ctx, contact)

		replacement := models.Contact{ID: contact.ID, Name: "After", Email: "after@example.com", Phone: "(111)-222-3333"}
		updated, err := s.store.Update(s.ctx, replacement)
		s.Require().NoError(err)
		s.Equal(replacement, updated)

		found, _ := s.store.FindByID(s.ctx, contact.ID)
		s.Equal(replacement, found)
	})

	s.Run("returns ErrNotFound for non-existent contact", func() {
		_, err := s.store.Update(s.ctx, s.newContact("Ghost"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestDeletes verifies delete reports whether a record was removed.
func (s *ContactStoreSuite) TestDeletes() {
	contact := s.newContact("Delete Me")
	_, _ = s.store.Create(s.ctx, contact)

	removed, err := s.store.Delete(s.ctx, contact.ID)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.store.Delete(s.ctx, contact.ID)
	s.Require().NoError(err)
	s.False(removed)

	_, err = s.store.FindByID(s.ctx, contact.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentAccess exercises the lock under the race detector.
func (s *ContactStoreSuite) TestConcurrentAccess() {
	const workers = 50
	var wg sync.WaitGroup
	ids := make(chan id.ContactID, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := s.newContact(fmt.Sprintf("Worker %d", i))
			created, err := s.store.Create(s.ctx, c)
			s.NoError(err)
			ids <- created.ID
			_, _ = s.store.List(s.ctx)
		}()
	}
	wg.Wait()
	close(ids)

	for contactID := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			removed, err := s.store.Delete(s.ctx, contactID)
			s.NoError(err)
			s.True(removed)
		}()
	}
	wg.Wait()

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}
