package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contactmanager/internal/contact/models"
	"contactmanager/internal/platform/metrics"
	"contactmanager/internal/platform/middleware"
	id "contactmanager/pkg/domain"
	dErrors "contactmanager/pkg/domain-errors"
	"contactmanager/pkg/outcome"
	audit "contactmanager/pkg/platform/audit"
	"contactmanager/pkg/platform/httputil"
	"contactmanager/pkg/platform/middleware/metadata"
)

// BasePath is where the contact routes are mounted.
const BasePath = "/api/contacts"

// Service defines the contact operations exposed over HTTP.
type Service interface {
	GetAll(ctx context.Context) outcome.Result[[]models.Contact]
	GetByID(ctx context.Context, contactID id.ContactID) outcome.Result[models.Contact]
	Add(ctx context.Context, req *models.ContactRequest) outcome.Result[models.Contact]
	Update(ctx context.Context, contactID id.ContactID, req *models.ContactRequest) outcome.Result[models.Contact]
	Delete(ctx context.Context, contactID id.ContactID) outcome.Result[outcome.Empty]
	Search(ctx context.Context, query string) outcome.Result[[]models.Contact]
}

// AuditReader lists the audit trail recorded for a contact.
type AuditReader interface {
	ListByContact(ctx context.Context, contactID id.ContactID) ([]audit.Event, error)
}

// Handler serves the contact JSON API.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditReader
}

type Option func(*Handler)

// WithAuditReader mounts GET /{id}/audit backed by reader.
func WithAuditReader(reader AuditReader) Option {
	return func(h *Handler) {
		h.audit = reader
	}
}

// New creates a contact Handler. metrics may be nil.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the contact routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route(BasePath, func(cr chi.Router) {
		cr.Use(middleware.RequestID)
		cr.Use(middleware.Recovery(h.logger))
		cr.Use(metadata.ClientMetadata)
		cr.Use(middleware.Logger(h.logger))
		cr.Use(middleware.ContentTypeJSON)
		cr.Use(middleware.LatencyMiddleware(h.metrics))

		cr.Get("/", h.handleList)
		cr.Post("/", h.handleCreate)
		cr.Get("/search", h.handleSearch)
		cr.Get("/{id}", h.handleGet)
		cr.Put("/{id}", h.handleUpdate)
		cr.Delete("/{id}", h.handleDelete)
		if h.audit != nil {
			cr.Get("/{id}/audit", h.handleAudit)
		}
	})
}

// handleList returns every contact, or the matches for ?query= when present.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var result outcome.Result[[]models.Contact]
	if r.URL.Query().Has("query") {
		result = h.service.Search(ctx, r.URL.Query().Get("query"))
	} else {
		result = h.service.GetAll(ctx)
	}
	if !result.Success() {
		h.writeFailure(ctx, w, result.Code(), result.Message())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContactList(result.Data()))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result := h.service.Search(ctx, r.URL.Query().Get("query"))
	if !result.Success() {
		h.writeFailure(ctx, w, result.Code(), result.Message())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContactList(result.Data()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}

	result := h.service.GetByID(ctx, contactID)
	if !result.Success() {
		h.writeFailure(ctx, w, result.Code(), result.Message())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContactResponse(result.Data()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result := h.service.Add(ctx, req)
	if !result.Success() {
		h.writeFailure(ctx, w, result.Code(), result.Message())
		return
	}
	created := result.Data()
	w.Header().Set("Location", BasePath+"/"+created.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, toContactResponse(created))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result := h.service.Update(ctx, contactID, req)
	if !result.Success() {
		h.writeFailure(ctx, w, result.Code(), result.Message())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toContactResponse(result.Data()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}

	result := h.service.Delete(ctx, contactID)
	if !result.Success() {
		h.writeFailure(ctx, w, result.Code(), result.Message())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAudit lists the retained audit events for a contact, oldest first.
// Deleted contacts keep their trail.
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}

	events, err := h.audit.ListByContact(ctx, contactID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", middleware.GetRequestID(ctx),
			"contact_id", contactID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditList(events))
}

func (h *Handler) contactID(w http.ResponseWriter, r *http.Request) (id.ContactID, bool) {
	contactID, err := parseContactID(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid contact id",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return id.ContactID{}, false
	}
	return contactID, true
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (*models.ContactRequest, bool) {
	req, err := decodeContactRequest(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid contact request",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return nil, false
	}
	return req, true
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, code dErrors.Code, message string) {
	status := httputil.StatusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "contact operation failed",
			"request_id", middleware.GetRequestID(ctx),
			"code", string(code),
			"message", message,
		)
	} else {
		h.logger.WarnContext(ctx, "contact request rejected",
			"request_id", middleware.GetRequestID(ctx),
			"code", string(code),
			"message", message,
		)
	}
	httputil.WriteFailure(w, code, message)
}
