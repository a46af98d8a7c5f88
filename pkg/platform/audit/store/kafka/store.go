// Package kafka streams audit events to a Kafka topic. Records are keyed by
// contact id so every event for one contact lands on the same partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	audit "contactmanager/pkg/platform/audit"
	"contactmanager/pkg/platform/circuit"
	"contactmanager/pkg/platform/sentinel"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of *kgo.Client used by Store.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Store implements audit.Store by producing one record per event.
type Store struct {
	producer Producer
	topic    string
	timeout  time.Duration
	breaker  *circuit.Breaker
}

// DefaultTimeout bounds a single produce when no WithTimeout is given.
const DefaultTimeout = 10 * time.Second

type Option func(*Store)

// WithBreaker fails appends fast while b is open instead of waiting on an
// unreachable broker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) {
		s.breaker = b
	}
}

// WithTimeout bounds how long Append waits for the broker acknowledgement.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Kafka-backed audit store writing to topic.
func New(producer Producer, topic string, opts ...Option) *Store {
	s := &Store{producer: producer, topic: topic, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Payload is the JSON value of each record. ID is unique per event so
// consumers can deduplicate redeliveries.
type Payload struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	ContactID string `json:"contact_id"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Append produces the event and waits for the broker acknowledgement.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload := Payload{
		ID:        uuid.NewString(),
		Action:    event.Action,
		ContactID: event.ContactID.String(),
		RequestID: event.RequestID,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(payload.ContactID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if s.breaker != nil && !s.breaker.Allow() {
		return fmt.Errorf("produce audit event: %w: circuit %s open", sentinel.ErrUnavailable, s.breaker.Name())
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		if s.breaker != nil {
			s.breaker.RecordFailure()
		}
		return fmt.Errorf("produce audit event: %w", err)
	}
	if s.breaker != nil {
		s.breaker.RecordSuccess()
	}
	return nil
}

// Dial builds a client for brokers that produces to topic by default. Records
// that cannot be delivered within timeout fail instead of retrying forever.
func Dial(brokers []string, topic string, timeout time.Duration, opts ...kgo.Opt) (*kgo.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(timeout),
	}
	cl, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return cl, nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, cl *kgo.Client, topic string, partitions int32, replicas int16) error {
	adm := kadm.NewClient(cl)
	resp, err := adm.CreateTopic(ctx, partitions, replicas, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Decode parses a record value produced by Store back into an event.
func Decode(value []byte) (audit.Event, error) {
	var payload Payload
	if err := json.Unmarshal(value, &payload); err != nil {
		return audit.Event{}, fmt.Errorf("unmarshal audit payload: %w", err)
	}
	var event audit.Event
	if err := event.ContactID.UnmarshalText([]byte(payload.ContactID)); err != nil {
		return audit.Event{}, fmt.Errorf("parse contact id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("parse timestamp: %w", err)
	}
	event.Action = payload.Action
	event.RequestID = payload.RequestID
	event.Timestamp = ts
	return event, nil
}
