// Package state owns the second pipeline stage: it consumes event identifiers
// from the state-updates queue, rehydrates the buffered events, and applies
// them to the aggregate match state through per-type processors.
package state

import (
	"context"

	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mobastats/match-pipeline/internal/broker"
	"github.com/mobastats/match-pipeline/internal/models"
	"github.com/mobastats/match-pipeline/internal/store"
)

var (
	updatesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_state_updates_processed_total",
		Help: "Total state updates applied to the aggregate state",
	})
	updatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_state_updates_dropped_total",
		Help: "Total state updates dropped (missing event, invalid payload, unknown type, unregistered player)",
	})
	updatesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_state_updates_failed_total",
		Help: "Total state updates returned to the broker after a store failure",
	})
)

// Consumer is the state-update stage.
type Consumer struct {
	updates    broker.Source
	store      store.Store
	keys       store.Keyspace
	processors map[models.EventType]Processor
	logger     *zap.SugaredLogger
}

func NewConsumer(updates broker.Source, s store.Store, keys store.Keyspace, processors map[models.EventType]Processor, logger *zap.Logger) *Consumer {
	return &Consumer{
		updates:    updates,
		store:      s,
		keys:       keys,
		processors: processors,
		logger:     logger.Sugar(),
	}
}

// Run consumes until ctx is cancelled. Deliveries are handled one at a time;
// processors therefore observe the broker's delivery order.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.updates.Consume(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("State-update consumer started")

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

func (c *Consumer) handle(ctx context.Context, d broker.Delivery) {
	eventID := string(d.Body())

	fields, err := c.store.HGetAll(ctx, c.keys.Event(eventID))
	if err != nil {
		c.logger.Errorw("Failed to fetch buffered event", "eventID", eventID, "error", err)
		updatesFailed.Inc()
		d.Nack(true)
		return
	}
	if len(fields) == 0 {
		c.logger.Warnw("Buffered event not found", "eventID", eventID)
		updatesDropped.Inc()
		d.Ack()
		return
	}

	ev, err := models.DecodeStoredEvent(fields)
	if err != nil {
		c.logger.Errorw("Failed to decode buffered event", "eventID", eventID, "error", err)
		updatesDropped.Inc()
		d.Ack()
		return
	}

	proc, ok := c.processors[ev.Type]
	if !ok {
		c.logger.Warnw("No processor for event type", "eventID", eventID, "type", ev.Type)
		updatesDropped.Inc()
		d.Ack()
		return
	}

	if err := proc.Process(ctx, ev); err != nil {
		if errors.Is(err, ErrNotRegistered) {
			c.logger.Warnw("Dropping event for unregistered player or team",
				"eventID", eventID, "type", ev.Type, "error", err)
			updatesDropped.Inc()
			d.Ack()
			return
		}
		c.logger.Errorw("Processor failed, returning event to broker",
			"eventID", eventID, "type", ev.Type, "error", err)
		updatesFailed.Inc()
		d.Nack(true)
		return
	}

	updatesProcessed.Inc()
	c.logger.Debugw("Processed event", "eventID", eventID, "type", ev.Type)
	d.Ack()
}
