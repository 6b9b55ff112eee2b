package broker

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/staffhubhq/staffhub/internal/metrics"
	"go.uber.org/zap"
)

// SubscriptionApplier applies a subscription change to this service's local
// replica.
type SubscriptionApplier interface {
	Apply(ctx context.Context, data SubscriptionData) error
}

// ConsumerConfig tunes redelivery handling.
type ConsumerConfig struct {
	Queue string
	// MaxRedelivery caps how often a failing delivery is requeued before it
	// is parked on the dead-letter queue, or dropped when no such queue is
	// configured. Zero restores unbounded requeue: a poison message then
	// loops until an operator intervenes.
	MaxRedelivery   int
	DeadLetterQueue string
}

// Consumer subscribes to the service queue and applies events to local
// state, acknowledging or rejecting per delivery.
type Consumer struct {
	ch      Channel
	cfg     ConsumerConfig
	applier SubscriptionApplier
	dedupe  *DedupeStore
	log     *zap.Logger
	met     *metrics.Metrics

	mu       sync.Mutex
	attempts map[string]int
}

// NewConsumer builds a consumer. dedupe may be nil, which keeps the legacy
// behavior: every redelivery is re-applied.
func NewConsumer(ch Channel, cfg ConsumerConfig, applier SubscriptionApplier, dedupe *DedupeStore, log *zap.Logger, met *metrics.Metrics) *Consumer {
	return &Consumer{
		ch:       ch,
		cfg:      cfg,
		applier:  applier,
		dedupe:   dedupe,
		log:      log.Named("broker.consumer"),
		met:      met,
		attempts: make(map[string]int),
	}
}

// Run consumes until ctx is canceled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.log.Info("consuming", zap.String("queue", c.cfg.Queue))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle processes one delivery: ack on success, nack (requeue) on failure,
// dead-letter once the redelivery cap is reached.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	c.met.EventsDelivered.WithLabelValues(c.cfg.Queue).Inc()

	key := deliveryKey(d)
	if err := c.process(ctx, d.Body); err != nil {
		c.log.Warn("delivery failed",
			zap.String("queue", c.cfg.Queue),
			zap.Error(err),
		)
		c.reject(ctx, d, key)
		return
	}

	if err := d.Ack(false); err != nil {
		c.log.Error("ack failed", zap.Error(err))
		return
	}
	c.met.EventsAcked.WithLabelValues(c.cfg.Queue).Inc()
	c.forget(key)
}

// process decodes the body, which is either one JSON object or an array of
// them, and applies each object sequentially left to right. An error on any
// object fails the whole delivery; effects applied before the failure stay.
func (c *Consumer) process(ctx context.Context, body []byte) error {
	objects, err := splitBody(body)
	if err != nil {
		return &MessageProcessingError{Index: 0, Err: err}
	}
	for i, raw := range objects {
		if err := c.processObject(ctx, raw); err != nil {
			return &MessageProcessingError{Index: i, Err: err}
		}
	}
	return nil
}

func (c *Consumer) processObject(ctx context.Context, raw json.RawMessage) error {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}

	// Objects without a known payload key are reserved for other services
	// and skipped, not rejected.
	if evt.SubscriptionData == nil {
		return nil
	}

	if c.dedupe != nil && evt.EventID != "" {
		seen, err := c.dedupe.Seen(ctx, evt.EventID)
		if err != nil {
			return err
		}
		if seen {
			c.log.Debug("duplicate event skipped", zap.String("event_id", evt.EventID))
			return nil
		}
	}

	if err := c.applier.Apply(ctx, *evt.SubscriptionData); err != nil {
		return err
	}

	if c.dedupe != nil && evt.EventID != "" {
		return c.dedupe.Mark(ctx, evt.EventID)
	}
	return nil
}

func (c *Consumer) reject(ctx context.Context, d amqp.Delivery, key string) {
	c.mu.Lock()
	c.attempts[key]++
	count := c.attempts[key]
	c.mu.Unlock()

	if c.cfg.MaxRedelivery > 0 && count >= c.cfg.MaxRedelivery {
		if c.cfg.DeadLetterQueue == "" {
			// No parking lot configured; the cap still holds, the message
			// is dropped instead of requeued forever.
			_ = d.Ack(false)
			c.met.EventsDeadLetter.WithLabelValues(c.cfg.Queue).Inc()
			c.forget(key)
			c.log.Warn("poison message dropped, no dead-letter queue configured",
				zap.String("queue", c.cfg.Queue),
				zap.Int("attempts", count),
			)
			return
		}

		err := c.ch.PublishWithContext(ctx, "", c.cfg.DeadLetterQueue, false, false, amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    d.MessageId,
			Body:         d.Body,
		})
		if err != nil {
			c.log.Error("dead-letter publish failed, requeueing instead", zap.Error(err))
			_ = d.Nack(false, true)
			c.met.EventsNacked.WithLabelValues(c.cfg.Queue).Inc()
			return
		}
		_ = d.Ack(false)
		c.met.EventsDeadLetter.WithLabelValues(c.cfg.Queue).Inc()
		c.forget(key)
		c.log.Warn("poison message parked",
			zap.String("queue", c.cfg.Queue),
			zap.String("dlq", c.cfg.DeadLetterQueue),
			zap.Int("attempts", count),
		)
		return
	}

	_ = d.Nack(false, true)
	c.met.EventsNacked.WithLabelValues(c.cfg.Queue).Inc()
}

func (c *Consumer) forget(key string) {
	c.mu.Lock()
	delete(c.attempts, key)
	c.mu.Unlock()
}

// splitBody branches on the message shape: a leading '[' means a batch.
func splitBody(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var objects []json.RawMessage
		if err := json.Unmarshal(trimmed, &objects); err != nil {
			return nil, err
		}
		return objects, nil
	}
	return []json.RawMessage{trimmed}, nil
}

// deliveryKey identifies a message across redeliveries. The broker does not
// carry a redelivery counter, so attempts are tracked per message id, with
// a body hash as fallback for messages published without one.
func deliveryKey(d amqp.Delivery) string {
	if d.MessageId != "" {
		return d.MessageId
	}
	sum := sha256.Sum256(d.Body)
	return hex.EncodeToString(sum[:])
}
