// Package consumer runs the receive/process/acknowledge loop that drains
// the order queue into the aggregate store.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tallyworks/orderstats/internal/aggregate"
	"github.com/tallyworks/orderstats/internal/models"
	"github.com/tallyworks/orderstats/internal/queue"
	"github.com/tallyworks/orderstats/internal/validate"
)

// Config bounds the consumer loop.
type Config struct {
	BatchSize   int64         // max messages per receive
	WaitTime    time.Duration // long-poll block bound
	IdleBackoff time.Duration // pause after an empty receive
}

// DefaultConfig mirrors the queue producer's pacing: batches of 5, 5s
// long-poll, 2s idle backoff.
func DefaultConfig() Config {
	return Config{
		BatchSize:   5,
		WaitTime:    5 * time.Second,
		IdleBackoff: 2 * time.Second,
	}
}

// Consumer drains the queue: decode, validate, aggregate, acknowledge.
// Messages are acknowledged on every outcome except a store failure, so bad
// data is dropped after one delivery while infrastructure failures leave the
// message for redelivery after the visibility timeout.
type Consumer struct {
	queue   queue.Queue
	agg     *aggregate.Aggregator
	cfg     Config
	metrics *Metrics
}

// New wires a Consumer. metrics may be nil when instrumentation is unwanted.
func New(q queue.Queue, agg *aggregate.Aggregator, cfg Config, metrics *Metrics) *Consumer {
	return &Consumer{queue: q, agg: agg, cfg: cfg, metrics: metrics}
}

// Run loops until ctx is cancelled. It creates the queue if missing, then
// alternates long-poll receives with per-message processing. Any queue error
// other than cancellation is fatal and returned; recovery is the external
// supervisor's restart, not an internal retry.
//
// Shutdown is graceful: cancellation stops new receives, but a batch already
// received finishes processing and acknowledgement under a detached context.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.queue.Ensure(ctx); err != nil {
		return fmt.Errorf("ensure queue: %w", err)
	}
	log.Info().Msg("consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("consumer draining, shutting down")
			return nil
		default:
		}

		msgs, err := c.queue.Receive(ctx, c.cfg.BatchSize, c.cfg.WaitTime)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("consumer draining, shutting down")
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}

		if c.metrics != nil {
			c.metrics.BatchSize.Observe(float64(len(msgs)))
		}

		if len(msgs) == 0 {
			log.Debug().Msg("no messages, waiting")
			select {
			case <-time.After(c.cfg.IdleBackoff):
			case <-ctx.Done():
			}
			continue
		}

		// The batch in hand outlives cancellation so no message is
		// abandoned between aggregation and acknowledgement by our own
		// shutdown. A crash in that window still redelivers.
		procCtx := context.WithoutCancel(ctx)
		for _, msg := range msgs {
			c.process(procCtx, msg)
		}
	}
}

// process handles one delivery and returns having either acknowledged the
// message (success, poison, invalid) or left it pending (store failure).
func (c *Consumer) process(ctx context.Context, msg queue.Message) {
	start := time.Now()
	outcome := c.handle(ctx, msg)
	if c.metrics != nil {
		c.metrics.Messages.WithLabelValues(outcome).Inc()
		c.metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	}
}

func (c *Consumer) handle(ctx context.Context, msg queue.Message) string {
	var raw map[string]interface{}
	if err := json.Unmarshal(msg.Body, &raw); err != nil {
		log.Error().
			Str("message_id", msg.ID).
			Str("payload", string(msg.Body)).
			Msg("failed to decode message, dropping")
		c.ack(ctx, msg)
		return OutcomePoison
	}

	if !validate.Order(raw) {
		log.Warn().
			Str("message_id", msg.ID).
			Interface("order_id", raw["order_id"]).
			Msg("invalid order skipped")
		c.ack(ctx, msg)
		return OutcomeInvalid
	}

	ord := orderFromRaw(raw)
	if err := c.agg.Apply(ctx, ord); err != nil {
		// No ack: the message becomes visible again after the
		// visibility timeout and is redelivered.
		log.Error().Err(err).
			Str("message_id", msg.ID).
			Str("order_id", ord.OrderID).
			Msg("aggregation failed, leaving message for redelivery")
		return OutcomeRetry
	}

	c.ack(ctx, msg)
	return OutcomeOK
}

func (c *Consumer) ack(ctx context.Context, msg queue.Message) {
	if err := c.queue.Ack(ctx, msg.ID); err != nil {
		// The message will come back around; duplicate effects are an
		// accepted property of at-least-once delivery.
		log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
}

// orderFromRaw lifts a validated raw order into the typed model. Validation
// already guaranteed field presence and numeric order_value; string fields
// fall back to their printed form if the producer sent an unexpected type.
func orderFromRaw(raw map[string]interface{}) models.Order {
	value, _ := raw["order_value"].(float64)
	return models.Order{
		OrderID:        asString(raw["order_id"]),
		UserID:         asString(raw["user_id"]),
		OrderValue:     value,
		OrderTimestamp: asString(raw["order_timestamp"]),
	}
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
