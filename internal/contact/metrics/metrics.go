package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the contact module.
type Metrics struct {
	ContactsCreated      prometheus.Counter
	ContactsUpdated      prometheus.Counter
	ContactsDeleted      prometheus.Counter
	ContactsStored       prometheus.Gauge
	ValidationFailures   *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	AuditEventsDropped   prometheus.Counter
	StoreInconsistencies prometheus.Counter
}

// New registers the contact metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the contact metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ContactsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactmanager_contacts_created_total",
			Help: "Total number of contacts created",
		}),
		ContactsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactmanager_contacts_updated_total",
			Help: "Total number of contacts updated",
		}),
		ContactsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactmanager_contacts_deleted_total",
			Help: "Total number of contacts deleted",
		}),
		ContactsStored: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contactmanager_contacts_stored",
			Help: "Current number of contacts held in the store",
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactmanager_contact_validation_failures_total",
			Help: "Rejected contact payloads by offending field",
		}, []string{"field"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contactmanager_contact_operation_duration_seconds",
			Help:    "Duration of contact service operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation", "outcome"}),
		AuditEventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactmanager_audit_events_dropped_total",
			Help: "Contact audit events that could not be enqueued",
		}),
		StoreInconsistencies: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactmanager_store_inconsistencies_total",
			Help: "Updates whose target vanished between lookup and write",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.ContactsCreated.Inc()
	m.ContactsStored.Inc()
}

func (m *Metrics) IncrementUpdated() {
	m.ContactsUpdated.Inc()
}

func (m *Metrics) IncrementDeleted() {
	m.ContactsDeleted.Inc()
	m.ContactsStored.Dec()
}

func (m *Metrics) IncrementValidationFailure(field string) {
	m.ValidationFailures.WithLabelValues(field).Inc()
}

func (m *Metrics) IncrementAuditDropped() {
	m.AuditEventsDropped.Inc()
}

func (m *Metrics) IncrementInconsistency() {
	m.StoreInconsistencies.Inc()
}

// ObserveOperation records how long operation took. Call with time.Now() at
// the start of the operation.
func (m *Metrics) ObserveOperation(operation string, success bool, start time.Time) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.OperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
