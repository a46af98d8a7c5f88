package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"contactmanager/internal/contact/metrics"
	"contactmanager/internal/contact/models"
	"contactmanager/internal/contact/service/mocks"
	"contactmanager/internal/contact/store"
	id "contactmanager/pkg/domain"
	dErrors "contactmanager/pkg/domain-errors"
	audit "contactmanager/pkg/platform/audit"
	"contactmanager/pkg/platform/sentinel"
	"contactmanager/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

var (
	createdAt = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	updatedAt = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
)

func ethan() *models.ContactRequest {
	return &models.ContactRequest{Name: "Ethan Gurne", Email: "ethan.gurne@gmail.com", Phone: "(780)-555-1234"}
}

// ServiceSuite exercises the service against the real in-memory store.
type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	metrics *metrics.Metrics
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), createdAt)
	s.store = store.NewInMemory()
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.service = New(s.store, WithMetrics(s.metrics))
}

func (s *ServiceSuite) count() int {
	n, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	return n
}

func (s *ServiceSuite) add(req *models.ContactRequest) models.Contact {
	result := s.service.Add(s.ctx, req)
	s.Require().True(result.Success(), result.Message())
	return result.Data()
}

func (s *ServiceSuite) TestAdd() {
	s.Run("stores a normalized contact with a fresh id", func() {
		result := s.service.Add(s.ctx, &models.ContactRequest{
			Name:  "  Ethan Gurne ",
			Email: " ethan.gurne@gmail.com",
			Phone: "(780)-555-1234  ",
		})
		s.Require().True(result.Success())

		contact := result.Data()
		s.False(contact.ID.IsNil())
		s.Equal("Ethan Gurne", contact.Name)
		s.Equal("ethan.gurne@gmail.com", contact.Email)
		s.Equal("(780)-555-1234", contact.Phone)
		s.Equal(createdAt, contact.CreatedAt)
		s.Nil(contact.UpdatedAt)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ContactsCreated))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ContactsStored))
	})

	s.Run("get by returned id yields an equal record", func() {
		contact := s.add(ethan())
		found := s.service.GetByID(s.ctx, contact.ID)
		s.Require().True(found.Success())
		s.Equal(contact, found.Data())
	})

	s.Run("nil payload", func() {
		before := s.count()
		result := s.service.Add(s.ctx, nil)
		s.False(result.Success())
		s.Equal(dErrors.CodeValidation, result.Code())
		s.Equal(MsgPayloadNull, result.Message())
		s.Equal(before, s.count())
	})

	s.Run("concurrent adds get distinct ids", func() {
		ids := make(chan id.ContactID, 20)
		for range 20 {
			go func() {
				ids <- s.service.Add(s.ctx, ethan()).Data().ID
			}()
		}
		seen := map[id.ContactID]bool{}
		for range 20 {
			seen[<-ids] = true
		}
		s.Len(seen, 20)
	})
}

func (s *ServiceSuite) TestEthanGurneScenario() {
	first := s.service.Add(s.ctx, ethan())
	s.Require().True(first.Success())
	s.False(first.Data().ID.IsNil())
	s.False(first.Data().CreatedAt.IsZero())
	s.Nil(first.Data().UpdatedAt)

	second := s.service.Add(s.ctx, &models.ContactRequest{Name: "  ", Email: "x@y.com", Phone: "(780)-555-1234"})
	s.False(second.Success())
	s.Equal(models.MsgNameRequired, second.Message())
	s.Equal(1, s.count())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ValidationFailures.WithLabelValues(models.FieldName)))
}

func (s *ServiceSuite) TestBlankFieldsNeverMutate() {
	existing := s.add(ethan())
	blanks := []struct {
		name string
		req  *models.ContactRequest
		msg  string
	}{
		{"blank name", &models.ContactRequest{Name: "\t", Email: "a@b.co", Phone: "(780)-555-1234"}, models.MsgNameRequired},
		{"blank email", &models.ContactRequest{Name: "A", Email: "   ", Phone: "(780)-555-1234"}, models.MsgEmailRequired},
		{"blank phone", &models.ContactRequest{Name: "A", Email: "a@b.co", Phone: ""}, models.MsgPhoneRequired},
		{"bad email", &models.ContactRequest{Name: "A", Email: "a@b", Phone: "(780)-555-1234"}, models.MsgEmailInvalid},
		{"bad phone", &models.ContactRequest{Name: "A", Email: "a@b.co", Phone: "780-555-1234"}, models.MsgPhoneInvalid},
	}
	for _, tt := range blanks {
		s.Run(tt.name, func() {
			add := s.service.Add(s.ctx, tt.req)
			s.False(add.Success())
			s.Equal(dErrors.CodeValidation, add.Code())
			s.Equal(tt.msg, add.Message())

			update := s.service.Update(s.ctx, existing.ID, tt.req)
			s.False(update.Success())
			s.Equal(tt.msg, update.Message())

			s.Equal(1, s.count())
			stored := s.service.GetByID(s.ctx, existing.ID).Data()
			s.Equal(existing, stored)
		})
	}
}

func (s *ServiceSuite) TestGetByID() {
	s.Run("unknown id", func() {
		result := s.service.GetByID(s.ctx, id.NewContactID())
		s.False(result.Success())
		s.Equal(dErrors.CodeNotFound, result.Code())
		s.Equal(MsgNotFound, result.Message())
	})
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("preserves createdAt and stamps updatedAt", func() {
		contact := s.add(ethan())
		ctx := requestcontext.WithTime(context.Background(), updatedAt)

		result := s.service.Update(ctx, contact.ID, &models.ContactRequest{
			Name:  " Ethan G. ",
			Email: "ethan@gurne.dev",
			Phone: "(780)-555-9999",
		})
		s.Require().True(result.Success(), result.Message())

		updated := result.Data()
		s.Equal(contact.ID, updated.ID)
		s.Equal("Ethan G.", updated.Name)
		s.Equal(createdAt, updated.CreatedAt)
		s.Require().NotNil(updated.UpdatedAt)
		s.Equal(updatedAt, *updated.UpdatedAt)
		s.Equal(updated, s.service.GetByID(ctx, contact.ID).Data())
	})

	s.Run("updatedAt is strictly after createdAt under a pinned clock", func() {
		contact := s.add(ethan())
		result := s.service.Update(s.ctx, contact.ID, ethan())
		s.Require().True(result.Success())
		s.Require().NotNil(result.Data().UpdatedAt)
		s.True(result.Data().UpdatedAt.After(contact.CreatedAt))
	})

	s.Run("unknown id fails without mutation", func() {
		s.add(ethan())
		before, err := s.store.List(context.Background())
		s.Require().NoError(err)

		unknown := id.NewContactID()
		result := s.service.Update(s.ctx, unknown, ethan())
		s.False(result.Success())
		s.Equal(dErrors.CodeNotFound, result.Code())
		s.Equal(fmt.Sprintf("Contact with Id %s not found.", unknown), result.Message())

		after, err := s.store.List(context.Background())
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("nil payload", func() {
		contact := s.add(ethan())
		result := s.service.Update(s.ctx, contact.ID, nil)
		s.False(result.Success())
		s.Equal(MsgPayloadNull, result.Message())
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("twice in a row", func() {
		contact := s.add(ethan())
		before := s.count()

		first := s.service.Delete(s.ctx, contact.ID)
		s.True(first.Success())
		s.Equal(before-1, s.count())

		second := s.service.Delete(s.ctx, contact.ID)
		s.False(second.Success())
		s.Equal(dErrors.CodeNotFound, second.Code())
		s.Equal(fmt.Sprintf("Contact with Id %s not found.", contact.ID), second.Message())
	})

	s.Run("unknown id", func() {
		result := s.service.Delete(s.ctx, id.NewContactID())
		s.False(result.Success())
		s.Equal(dErrors.CodeNotFound, result.Code())
	})
}

func (s *ServiceSuite) TestSearch() {
	gurne := s.add(ethan())
	other := s.add(&models.ContactRequest{Name: "Maya Lind", Email: "maya@lind.io", Phone: "(403)-555-0000"})

	s.Run("blank query equals get all", func() {
		all := s.service.GetAll(s.ctx)
		s.Require().True(all.Success())
		for _, q := range []string{"", "   "} {
			search := s.service.Search(s.ctx, q)
			s.Require().True(search.Success())
			s.ElementsMatch(all.Data(), search.Data())
		}
	})

	s.Run("case insensitive name match", func() {
		result := s.service.Search(s.ctx, "ETHAN")
		s.Require().True(result.Success())
		s.Equal([]models.Contact{gurne}, result.Data())
	})

	s.Run("email substring match", func() {
		result := s.service.Search(s.ctx, " ethan.gurne ")
		s.Require().True(result.Success())
		s.Equal([]models.Contact{gurne}, result.Data())
	})

	s.Run("email domain", func() {
		result := s.service.Search(s.ctx, "LIND.IO")
		s.Require().True(result.Success())
		s.Equal([]models.Contact{other}, result.Data())
	})

	s.Run("phone is not searched", func() {
		result := s.service.Search(s.ctx, "555")
		s.Require().True(result.Success())
		s.Empty(result.Data())
	})
}

func (s *ServiceSuite) TestReturnedValuesAreCopies() {
	contact := s.add(ethan())
	contact.Name = "mutated"

	found := s.service.GetByID(s.ctx, contact.ID).Data()
	s.Equal("Ethan Gurne", found.Name)
}

// ServiceMockSuite covers paths the in-memory store cannot produce.
type ServiceMockSuite struct {
	suite.Suite
	ctx       context.Context
	store     *mocks.MockStore
	publisher *mocks.MockAuditPublisher
	metrics   *metrics.Metrics
	service   *Service
}

func TestServiceMockSuite(t *testing.T) {
	suite.Run(t, new(ServiceMockSuite))
}

func (s *ServiceMockSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.store = mocks.NewMockStore(ctrl)
	s.publisher = mocks.NewMockAuditPublisher(ctrl)
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), updatedAt), "req-42")
	s.service = New(s.store, WithMetrics(s.metrics), WithAuditPublisher(s.publisher))
}

func (s *ServiceMockSuite) existing() models.Contact {
	return models.Contact{
		ID:        id.NewContactID(),
		Name:      "Ethan Gurne",
		Email:     "ethan.gurne@gmail.com",
		Phone:     "(780)-555-1234",
		CreatedAt: createdAt,
	}
}

func (s *ServiceMockSuite) TestUpdateRaceReportsUpdateFailed() {
	contact := s.existing()
	s.store.EXPECT().FindByID(gomock.Any(), contact.ID).Return(contact, nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(models.Contact{}, sentinel.ErrNotFound).Times(1)

	result := s.service.Update(s.ctx, contact.ID, ethan())
	s.False(result.Success())
	s.Equal(dErrors.CodeInternal, result.Code())
	s.Equal(MsgUpdateFailed, result.Message())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StoreInconsistencies))
}

func (s *ServiceMockSuite) TestUpdateBuildsReplacement() {
	contact := s.existing()
	s.store.EXPECT().FindByID(gomock.Any(), contact.ID).Return(contact, nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c models.Contact) (models.Contact, error) {
			s.Equal(contact.ID, c.ID)
			s.Equal(createdAt, c.CreatedAt)
			s.Require().NotNil(c.UpdatedAt)
			s.Equal(updatedAt, *c.UpdatedAt)
			return c, nil
		})
	s.publisher.EXPECT().Emit(gomock.Any(), audit.Event{
		Action:    string(audit.EventContactUpdated),
		ContactID: contact.ID,
		RequestID: "req-42",
		Timestamp: updatedAt,
	}).Return(nil)

	result := s.service.Update(s.ctx, contact.ID, ethan())
	s.True(result.Success())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ContactsUpdated))
}

func (s *ServiceMockSuite) TestUpdateBumpsSkewedClock() {
	contact := s.existing()
	contact.CreatedAt = updatedAt.Add(time.Hour)
	s.store.EXPECT().FindByID(gomock.Any(), contact.ID).Return(contact, nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c models.Contact) (models.Contact, error) {
			return c, nil
		})
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	result := s.service.Update(s.ctx, contact.ID, ethan())
	s.Require().True(result.Success())
	s.Equal(contact.CreatedAt.Add(time.Nanosecond), *result.Data().UpdatedAt)
}

func (s *ServiceMockSuite) TestAddEmitsAudit() {
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c models.Contact) (models.Contact, error) {
			return c, nil
		})
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventContactCreated), e.Action)
			s.Equal("req-42", e.RequestID)
			s.False(e.ContactID.IsNil())
			return nil
		})

	s.True(s.service.Add(s.ctx, ethan()).Success())
}

func (s *ServiceMockSuite) TestAddConflictIsReported() {
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(models.Contact{}, sentinel.ErrConflict)

	result := s.service.Add(s.ctx, ethan())
	s.False(result.Success())
	s.Equal(dErrors.CodeConflict, result.Code())
	s.Equal("contact already exists", result.Message())
	s.Zero(testutil.ToFloat64(s.metrics.ContactsCreated))
}

func (s *ServiceMockSuite) TestAuditFailureDoesNotFailRequest() {
	contact := s.existing()
	s.store.EXPECT().Delete(gomock.Any(), contact.ID).Return(true, nil)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit buffer full"))

	result := s.service.Delete(s.ctx, contact.ID)
	s.True(result.Success())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AuditEventsDropped))
}

func (s *ServiceMockSuite) TestValidationFailureSkipsStore() {
	// No store expectations: gomock fails the test on any call.
	result := s.service.Add(s.ctx, &models.ContactRequest{Name: "A", Email: "nope", Phone: "(780)-555-1234"})
	s.False(result.Success())
	s.Equal(models.MsgEmailInvalid, result.Message())
}

func (s *ServiceMockSuite) TestStoreErrorsAreInternal() {
	boom := errors.New("boom")
	s.store.EXPECT().List(gomock.Any()).Return(nil, boom).Times(2)
	s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(models.Contact{}, boom)

	for _, code := range []dErrors.Code{
		s.service.GetAll(s.ctx).Code(),
		s.service.Search(s.ctx, "x").Code(),
		s.service.GetByID(s.ctx, id.NewContactID()).Code(),
	} {
		s.Equal(dErrors.CodeInternal, code)
	}
}

func TestNew_Defaults(t *testing.T) {
	svc := New(store.NewInMemory())
	require.NotNil(t, svc.logger)
	require.NotNil(t, svc.tracer)

	result := svc.GetAll(context.Background())
	assert.True(t, result.Success())
	assert.Empty(t, result.Data())
}

func TestSeedDemo(t *testing.T) {
	s := store.NewInMemory()
	svc := New(s)

	seeded, err := SeedDemo(context.Background(), svc)
	require.NoError(t, err)
	require.Len(t, seeded, 2)
	assert.Equal(t, "Ethan Gurne", seeded[0].Name)
	assert.Equal(t, "Barjot Mundi", seeded[1].Name)

	all := svc.GetAll(context.Background())
	assert.Equal(t, seeded, all.Data())
}
