package contact

import (
	"log/slog"

	"contactmanager/internal/contact/handler"
	"contactmanager/internal/contact/service"
	"contactmanager/internal/contact/store"
	"contactmanager/internal/platform/metrics"
)

// Service validates and applies contact changes.
type Service = service.Service

// Handler wires HTTP endpoints to the contact service.
type Handler = handler.Handler

// Store is the process-lifetime contact store.
type Store = store.InMemory

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return store.NewInMemory()
}

// NewService constructs the contact service around store.
func NewService(s service.Store, opts ...service.Option) *Service {
	return service.New(s, opts...)
}

// NewHandler constructs the HTTP handler for the contact API.
func NewHandler(s *Service, logger *slog.Logger, m *metrics.Metrics, opts ...handler.Option) *Handler {
	return handler.New(s, logger, m, opts...)
}
