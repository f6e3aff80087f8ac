// Package ingest owns the first pipeline stage: it drains raw event envelopes
// from the events queue, buffers each one in the store under a fresh event
// identifier, and hands that identifier to the state-updates queue.
package ingest

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mobastats/match-pipeline/internal/broker"
	"github.com/mobastats/match-pipeline/internal/store"
)

var (
	eventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_ingress_events_total",
		Help: "Total events buffered and dispatched downstream",
	})
	eventsMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_ingress_malformed_total",
		Help: "Total inbound messages dropped as malformed JSON",
	})
	eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_ingress_failed_total",
		Help: "Total inbound messages returned to the broker after a store or publish failure",
	})
)

// Consumer is the ingress stage.
type Consumer struct {
	events  broker.Source
	updates broker.Publisher
	store   store.Store
	keys    store.Keyspace
	logger  *zap.SugaredLogger
}

func NewConsumer(events broker.Source, updates broker.Publisher, s store.Store, keys store.Keyspace, logger *zap.Logger) *Consumer {
	return &Consumer{
		events:  events,
		updates: updates,
		store:   s,
		keys:    keys,
		logger:  logger.Sugar(),
	}
}

// Run consumes until ctx is cancelled. One message is fully handled before
// the next is fetched, so identifiers reach the state-updates queue in
// ingress order.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.events.Consume(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("Ingress consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

// handle buffers one envelope. Malformed JSON is acknowledged and dropped;
// store or publish failures leave the message unacknowledged so the broker
// redelivers it. A redelivery mints a fresh event identifier, so downstream
// double-counting is possible — that is the accepted contract boundary.
func (c *Consumer) handle(ctx context.Context, d broker.Delivery) {
	var envelope map[string]any
	if err := json.Unmarshal(d.Body(), &envelope); err != nil {
		c.logger.Warnw("Dropping malformed event", "error", err)
		eventsMalformed.Inc()
		d.Ack()
		return
	}

	eventID := uuid.NewString()

	// The store keeps only scalar field values, so the inner payload is
	// re-encoded as a JSON string; all other envelope fields pass through.
	fields := make(map[string]any, len(envelope))
	for key, value := range envelope {
		switch v := value.(type) {
		case string:
			fields[key] = v
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				c.logger.Warnw("Dropping event with unencodable field", "field", key, "error", err)
				eventsMalformed.Inc()
				d.Ack()
				return
			}
			fields[key] = string(encoded)
		}
	}

	if err := c.store.HSet(ctx, c.keys.Event(eventID), fields); err != nil {
		c.logger.Errorw("Failed to buffer event, returning to broker", "eventID", eventID, "error", err)
		eventsFailed.Inc()
		d.Nack(true)
		return
	}

	if err := c.updates.Publish(ctx, []byte(eventID)); err != nil {
		c.logger.Errorw("Failed to publish state update, returning to broker", "eventID", eventID, "error", err)
		eventsFailed.Inc()
		d.Nack(true)
		return
	}

	eventsIngested.Inc()
	c.logger.Debugw("Buffered event", "eventID", eventID)
	d.Ack()
}
