package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contactmanager/internal/contact/metrics"
	"contactmanager/internal/contact/models"
	id "contactmanager/pkg/domain"
	dErrors "contactmanager/pkg/domain-errors"
	"contactmanager/pkg/outcome"
	audit "contactmanager/pkg/platform/audit"
	"contactmanager/pkg/platform/sentinel"
	"contactmanager/pkg/requestcontext"
)

// Client-facing failure messages.
const (
	MsgPayloadNull    = "Contact payload cannot be null."
	MsgNotFound       = "Contact not found."
	MsgUpdateFailed   = "Update failed."
	msgNotFoundWithID = "Contact with Id %s not found."
)

// Store is the record store the service mutates. Implementations copy
// contacts in and out so callers never share memory with stored records.
type Store interface {
	List(ctx context.Context) ([]models.Contact, error)
	FindByID(ctx context.Context, contactID id.ContactID) (models.Contact, error)
	Create(ctx context.Context, contact models.Contact) (models.Contact, error)
	Update(ctx context.Context, contact models.Contact) (models.Contact, error)
	Delete(ctx context.Context, contactID id.ContactID) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service validates contact payloads and applies them to the store.
type Service struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service around store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("contactmanager/contact"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAll returns every stored contact in insertion order.
func (s *Service) GetAll(ctx context.Context) (result outcome.Result[[]models.Contact]) {
	ctx, done := s.begin(ctx, "get_all")
	defer func() { done(result.Success()) }()

	contacts, err := s.store.List(ctx)
	if err != nil {
		return outcome.FromError[[]models.Contact](dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contacts"))
	}
	return outcome.Ok(contacts)
}

// GetByID looks up a single contact.
func (s *Service) GetByID(ctx context.Context, contactID id.ContactID) (result outcome.Result[models.Contact]) {
	ctx, done := s.begin(ctx, "get_by_id", attribute.String("contact.id", contactID.String()))
	defer func() { done(result.Success()) }()

	contact, err := s.store.FindByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return outcome.Fail[models.Contact](dErrors.CodeNotFound, MsgNotFound)
		}
		return outcome.FromError[models.Contact](dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact"))
	}
	return outcome.Ok(contact)
}

// Add validates req and stores it as a new contact with a fresh id.
func (s *Service) Add(ctx context.Context, req *models.ContactRequest) (result outcome.Result[models.Contact]) {
	ctx, done := s.begin(ctx, "add")
	defer func() { done(result.Success()) }()

	if req == nil {
		return outcome.Fail[models.Contact](dErrors.CodeValidation, MsgPayloadNull)
	}
	fields, err := models.ValidateContact(req)
	if err != nil {
		return s.validationFailure(err)
	}

	contact := models.Contact{
		ID:        id.NewContactID(),
		Name:      fields.Name,
		Email:     fields.Email,
		Phone:     fields.Phone,
		CreatedAt: requestcontext.Now(ctx),
	}
	stored, err := s.store.Create(ctx, contact)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return outcome.FromError[models.Contact](dErrors.Wrap(err, dErrors.CodeConflict, "contact already exists"))
		}
		return outcome.FromError[models.Contact](dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contact"))
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.emitAudit(ctx, audit.EventContactCreated, stored.ID)
	return outcome.Ok(stored)
}

// Update replaces the contact's fields, keeping its id and creation time.
func (s *Service) Update(ctx context.Context, contactID id.ContactID, req *models.ContactRequest) (result outcome.Result[models.Contact]) {
	ctx, done := s.begin(ctx, "update", attribute.String("contact.id", contactID.String()))
	defer func() { done(result.Success()) }()

	if req == nil {
		return outcome.Fail[models.Contact](dErrors.CodeValidation, MsgPayloadNull)
	}
	fields, err := models.ValidateContact(req)
	if err != nil {
		return s.validationFailure(err)
	}

	existing, err := s.store.FindByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return outcome.Fail[models.Contact](dErrors.CodeNotFound, notFoundWithID(contactID))
		}
		return outcome.FromError[models.Contact](dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact"))
	}

	updatedAt := requestcontext.Now(ctx)
	if !updatedAt.After(existing.CreatedAt) {
		updatedAt = existing.CreatedAt.Add(time.Nanosecond)
	}
	replacement := models.Contact{
		ID:        existing.ID,
		Name:      fields.Name,
		Email:     fields.Email,
		Phone:     fields.Phone,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: &updatedAt,
	}

	stored, err := s.store.Update(ctx, replacement)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Deleted between lookup and write.
			s.logger.WarnContext(ctx, "contact vanished during update",
				"contact_id", contactID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			if s.metrics != nil {
				s.metrics.IncrementInconsistency()
			}
			return outcome.Fail[models.Contact](dErrors.CodeInternal, MsgUpdateFailed)
		}
		return outcome.FromError[models.Contact](dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contact"))
	}

	if s.metrics != nil {
		s.metrics.IncrementUpdated()
	}
	s.emitAudit(ctx, audit.EventContactUpdated, stored.ID)
	return outcome.Ok(stored)
}

// Delete removes the contact.
func (s *Service) Delete(ctx context.Context, contactID id.ContactID) (result outcome.Result[outcome.Empty]) {
	ctx, done := s.begin(ctx, "delete", attribute.String("contact.id", contactID.String()))
	defer func() { done(result.Success()) }()

	removed, err := s.store.Delete(ctx, contactID)
	if err != nil {
		return outcome.FromError[outcome.Empty](dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete contact"))
	}
	if !removed {
		return outcome.Fail[outcome.Empty](dErrors.CodeNotFound, notFoundWithID(contactID))
	}

	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	s.emitAudit(ctx, audit.EventContactDeleted, contactID)
	return outcome.Done()
}

// Search matches query against name or email, ignoring case. A blank query
// returns every contact.
func (s *Service) Search(ctx context.Context, query string) (result outcome.Result[[]models.Contact]) {
	ctx, done := s.begin(ctx, "search")
	defer func() { done(result.Success()) }()

	contacts, err := s.store.List(ctx)
	if err != nil {
		return outcome.FromError[[]models.Contact](dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contacts"))
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return outcome.Ok(contacts)
	}
	matches := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) {
			matches = append(matches, c)
		}
	}
	return outcome.Ok(matches)
}

func notFoundWithID(contactID id.ContactID) string {
	return fmt.Sprintf(msgNotFoundWithID, contactID)
}

func (s *Service) validationFailure(err error) outcome.Result[models.Contact] {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		if s.metrics != nil {
			s.metrics.IncrementValidationFailure(verr.Field)
		}
		return outcome.Fail[models.Contact](dErrors.CodeValidation, verr.Message)
	}
	return outcome.Fail[models.Contact](dErrors.CodeValidation, err.Error())
}

// begin opens a span for operation; the returned func closes it and records
// the operation's duration.
func (s *Service) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(bool)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "contact."+operation, trace.WithAttributes(attrs...))
	return ctx, func(success bool) {
		if !success {
			span.SetStatus(codes.Error, "operation failed")
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, success, start)
		}
	}
}

// emitAudit never fails the caller. Events the publisher rejects are counted
// and dropped.
func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, contactID id.ContactID) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(action),
		ContactID: contactID,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: requestcontext.Now(ctx),
	})
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "audit event dropped",
		"action", string(action),
		"contact_id", contactID.String(),
		"error", err,
	)
	if s.metrics != nil {
		s.metrics.IncrementAuditDropped()
	}
}
