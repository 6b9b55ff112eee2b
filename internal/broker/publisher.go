package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/staffhubhq/staffhub/internal/metrics"
	"go.uber.org/zap"
)

// Publisher serializes domain events and publishes them to the fan-out
// exchange with persistent delivery.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

type publisher struct {
	ch       Channel
	exchange string
	log      *zap.Logger
	met      *metrics.Metrics
}

func NewPublisher(ch Channel, exchange string, log *zap.Logger, met *metrics.Metrics) Publisher {
	return &publisher{
		ch:       ch,
		exchange: exchange,
		log:      log.Named("broker.publisher"),
		met:      met,
	}
}

// Publish sends one message: a single JSON object for one event, a JSON
// array for several. A connection failure is reported as
// ErrBrokerUnavailable; call sites decide whether to propagate it. The
// subscription service logs and swallows it.
func (p *publisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	var (
		body []byte
		err  error
	)
	if len(events) == 1 {
		body, err = json.Marshal(events[0])
	} else {
		body, err = json.Marshal(events)
	}
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    events[0].EventID,
		Body:         body,
	})
	if err != nil {
		p.met.PublishFailures.Inc()
		p.log.Error("publish failed, event lost for dependent services",
			zap.String("exchange", p.exchange),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	p.met.EventsPublished.Inc()
	return nil
}
