// Package consumer materializes audit events streamed to Kafka back into an
// audit.Store.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	audit "contactmanager/pkg/platform/audit"
	"contactmanager/pkg/platform/audit/store/kafka"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Fetcher is the subset of *kgo.Client used by Consumer.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
}

// Consumer polls audit records and appends the decoded events to a store.
type Consumer struct {
	fetcher Fetcher
	store   audit.Store
	logger  *slog.Logger
}

// New creates a consumer. A nil logger discards log output.
func New(fetcher Fetcher, store audit.Store, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Consumer{fetcher: fetcher, store: store, logger: logger}
}

// Run polls until ctx is cancelled or the client is closed. Malformed records
// are logged and skipped so they cannot block the partition.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.fetcher.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				continue
			}
			c.logger.Warn("audit fetch failed",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}
		fetches.EachRecord(func(r *kgo.Record) {
			c.handle(ctx, r)
		})
	}
}

func (c *Consumer) handle(ctx context.Context, r *kgo.Record) {
	event, err := kafka.Decode(r.Value)
	if err != nil {
		c.logger.Error("failed to decode audit record",
			"topic", r.Topic,
			"key", string(r.Key),
			"offset", r.Offset,
			"error", err,
		)
		return
	}
	if err := c.store.Append(ctx, event); err != nil {
		c.logger.Error("failed to materialize audit event",
			"action", event.Action,
			"contact_id", event.ContactID.String(),
			"error", err,
		)
	}
}
