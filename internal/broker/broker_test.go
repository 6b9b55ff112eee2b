package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/staffhubhq/staffhub/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeChannel is an in-process broker with fan-out routing: a publish to an
// exchange lands on every bound queue, a publish to the default exchange
// lands on the queue named by the routing key.
type fakeChannel struct {
	mu         sync.Mutex
	exchanges  map[string]string
	bindings   map[string][]string
	queues     map[string][]amqp.Delivery
	publishErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		exchanges: make(map[string]string),
		bindings:  make(map[string][]string),
		queues:    make(map[string][]amqp.Delivery),
	}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges[name] = kind
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.queues[name]; !ok {
		f.queues[name] = nil
	}
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings[exchange] = append(f.bindings[exchange], name)
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := amqp.Delivery{
		ContentType:  msg.ContentType,
		DeliveryMode: msg.DeliveryMode,
		MessageId:    msg.MessageId,
		Body:         msg.Body,
	}
	if exchange == "" {
		f.queues[key] = append(f.queues[key], d)
		return nil
	}
	for _, q := range f.bindings[exchange] {
		f.queues[q] = append(f.queues[q], d)
	}
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(chan amqp.Delivery, len(f.queues[queue]))
	for _, d := range f.queues[queue] {
		out <- d
	}
	close(out)
	return out, nil
}

func (f *fakeChannel) queueLen(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queues[name])
}

// fakeAck records the terminal disposition of one delivery.
type fakeAck struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

// stubApplier records applied payloads and can fail on a chosen tenant slug.
type stubApplier struct {
	mu       sync.Mutex
	applied  []SubscriptionData
	failSlug string
}

func (s *stubApplier) Apply(_ context.Context, data SubscriptionData) error {
	if s.failSlug != "" && data.TenantSlug == s.failSlug {
		return fmt.Errorf("replica write failed for %s", data.TenantSlug)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, data)
	return nil
}

func (s *stubApplier) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

func testMetrics() *metrics.Metrics {
	return metrics.NewWith(prometheus.NewRegistry())
}

func testConsumer(applier SubscriptionApplier, dedupe *DedupeStore, cfg ConsumerConfig) *Consumer {
	if cfg.Queue == "" {
		cfg.Queue = "businessOwnerQueue"
	}
	return NewConsumer(newFakeChannel(), cfg, applier, dedupe, zap.NewNop(), testMetrics())
}

func subscriptionBody(t *testing.T, events ...Event) []byte {
	t.Helper()
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
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestPublishFansOutToEveryBoundQueue(t *testing.T) {
	ch := newFakeChannel()
	for _, queue := range []string{"businessOwnerQueue", "payrollQueue", "reportingQueue"} {
		if err := Declare(ch, Topology{Exchange: "fanout_exchange", Queue: queue}); err != nil {
			t.Fatalf("declare: %v", err)
		}
	}

	pub := NewPublisher(ch, "fanout_exchange", zap.NewNop(), testMetrics())
	evt := NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme", PlanID: "1", PlanName: "basic"})
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for _, queue := range []string{"businessOwnerQueue", "payrollQueue", "reportingQueue"} {
		if got := ch.queueLen(queue); got != 1 {
			t.Fatalf("queue %s: expected exactly 1 delivery, got %d", queue, got)
		}
	}
}

func TestPublishShapes(t *testing.T) {
	ch := newFakeChannel()
	if err := Declare(ch, Topology{Exchange: "fanout_exchange", Queue: "businessOwnerQueue"}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	pub := NewPublisher(ch, "fanout_exchange", zap.NewNop(), testMetrics())

	one := NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme"})
	if err := pub.Publish(context.Background(), one); err != nil {
		t.Fatalf("publish one: %v", err)
	}
	if err := pub.Publish(context.Background(), one, NewSubscriptionEvent(SubscriptionData{TenantSlug: "globex"})); err != nil {
		t.Fatalf("publish batch: %v", err)
	}

	ch.mu.Lock()
	deliveries := ch.queues["businessOwnerQueue"]
	ch.mu.Unlock()
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	if deliveries[0].Body[0] != '{' {
		t.Fatalf("single event must be a bare object, got %q", deliveries[0].Body[0])
	}
	if deliveries[1].Body[0] != '[' {
		t.Fatalf("batch must be an array, got %q", deliveries[1].Body[0])
	}
	if deliveries[0].DeliveryMode != amqp.Persistent {
		t.Fatal("expected persistent delivery mode")
	}
	if deliveries[0].MessageId == "" {
		t.Fatal("expected a message id")
	}
}

func TestPublishBrokerUnavailable(t *testing.T) {
	ch := newFakeChannel()
	ch.publishErr = errors.New("connection refused")
	pub := NewPublisher(ch, "fanout_exchange", zap.NewNop(), testMetrics())

	err := pub.Publish(context.Background(), NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme"}))
	if !errors.Is(err, ErrBrokerUnavailable) {
		t.Fatalf("expected ErrBrokerUnavailable, got %v", err)
	}
}

func TestHandleAcksOnSuccess(t *testing.T) {
	applier := &stubApplier{}
	c := testConsumer(applier, nil, ConsumerConfig{})
	ack := &fakeAck{}

	body := subscriptionBody(t, NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme", PlanID: "1"}))
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body, MessageId: "m1"})

	if ack.acked != 1 || ack.nacked != 0 {
		t.Fatalf("expected one ack, got acked=%d nacked=%d", ack.acked, ack.nacked)
	}
	if applier.count() != 1 {
		t.Fatalf("expected one apply, got %d", applier.count())
	}
}

func TestBatchFailureNacksWholeDelivery(t *testing.T) {
	applier := &stubApplier{failSlug: "globex"}
	c := testConsumer(applier, nil, ConsumerConfig{})
	ack := &fakeAck{}

	body := subscriptionBody(t,
		NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme"}),
		NewSubscriptionEvent(SubscriptionData{TenantSlug: "globex"}),
		NewSubscriptionEvent(SubscriptionData{TenantSlug: "initech"}),
	)
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body, MessageId: "m1"})

	if ack.nacked != 1 || !ack.requeue {
		t.Fatalf("expected one requeueing nack, got nacked=%d requeue=%v", ack.nacked, ack.requeue)
	}
	// The first object's effect was applied before the failure and stays.
	if applier.count() != 1 || applier.applied[0].TenantSlug != "acme" {
		t.Fatalf("expected only the leading object applied, got %v", applier.applied)
	}
}

func TestUnknownPayloadKeysSkipped(t *testing.T) {
	applier := &stubApplier{}
	c := testConsumer(applier, nil, ConsumerConfig{})
	ack := &fakeAck{}

	body := []byte(`{"event_id":"01J0","event_type":"billing.updated","billingData":{"amount":12}}`)
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body, MessageId: "m1"})

	if ack.acked != 1 {
		t.Fatalf("expected ack for a foreign event, got acked=%d nacked=%d", ack.acked, ack.nacked)
	}
	if applier.count() != 0 {
		t.Fatal("foreign event must not reach the applier")
	}
}

func TestMalformedBodyNacked(t *testing.T) {
	applier := &stubApplier{}
	c := testConsumer(applier, nil, ConsumerConfig{})
	ack := &fakeAck{}

	c.Handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(`{not json`), MessageId: "m1"})

	if ack.nacked != 1 || !ack.requeue {
		t.Fatalf("expected requeueing nack, got acked=%d nacked=%d", ack.acked, ack.nacked)
	}
}

func TestRedeliveryReappliesWithoutDedupe(t *testing.T) {
	applier := &stubApplier{}
	c := testConsumer(applier, nil, ConsumerConfig{})

	body := subscriptionBody(t, NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme"}))
	for i := 0; i < 2; i++ {
		c.Handle(context.Background(), amqp.Delivery{Acknowledger: &fakeAck{}, Body: body, MessageId: "m1"})
	}

	if applier.count() != 2 {
		t.Fatalf("redelivery without dedupe must re-apply, got %d applies", applier.count())
	}
}

func TestDedupeAppliesOnce(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dedupe, err := NewDedupeStore(gdb)
	if err != nil {
		t.Fatalf("dedupe store: %v", err)
	}

	applier := &stubApplier{}
	c := testConsumer(applier, dedupe, ConsumerConfig{})

	body := subscriptionBody(t, NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme"}))
	first, second := &fakeAck{}, &fakeAck{}
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: first, Body: body, MessageId: "m1"})
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: second, Body: body, MessageId: "m1"})

	if first.acked != 1 || second.acked != 1 {
		t.Fatal("both deliveries must be acked")
	}
	if applier.count() != 1 {
		t.Fatalf("dedupe must apply once, got %d applies", applier.count())
	}
}

func TestDeadLetterAfterMaxRedelivery(t *testing.T) {
	ch := newFakeChannel()
	if err := Declare(ch, Topology{Exchange: "fanout_exchange", Queue: "businessOwnerQueue", DeadLetterQueue: "businessOwnerQueue.dlq"}); err != nil {
		t.Fatalf("declare: %v", err)
	}

	applier := &stubApplier{failSlug: "acme"}
	cfg := ConsumerConfig{Queue: "businessOwnerQueue", MaxRedelivery: 2, DeadLetterQueue: "businessOwnerQueue.dlq"}
	c := NewConsumer(ch, cfg, applier, nil, zap.NewNop(), testMetrics())

	body := subscriptionBody(t, NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme"}))
	first, second := &fakeAck{}, &fakeAck{}
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: first, Body: body, MessageId: "poison"})
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: second, Body: body, MessageId: "poison"})

	if first.nacked != 1 {
		t.Fatalf("first attempt must requeue, got nacked=%d", first.nacked)
	}
	if second.acked != 1 || second.nacked != 0 {
		t.Fatalf("capped attempt must ack after parking, got acked=%d nacked=%d", second.acked, second.nacked)
	}
	if got := ch.queueLen("businessOwnerQueue.dlq"); got != 1 {
		t.Fatalf("expected 1 parked message, got %d", got)
	}
}

func TestMaxRedeliveryWithoutDeadLetterQueueDrops(t *testing.T) {
	ch := newFakeChannel()
	applier := &stubApplier{failSlug: "acme"}
	cfg := ConsumerConfig{Queue: "businessOwnerQueue", MaxRedelivery: 2}
	c := NewConsumer(ch, cfg, applier, nil, zap.NewNop(), testMetrics())

	body := subscriptionBody(t, NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme"}))
	first, second := &fakeAck{}, &fakeAck{}
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: first, Body: body, MessageId: "poison"})
	c.Handle(context.Background(), amqp.Delivery{Acknowledger: second, Body: body, MessageId: "poison"})

	if first.nacked != 1 {
		t.Fatalf("first attempt must requeue, got nacked=%d", first.nacked)
	}
	// The cap holds without a parking lot: the message is acked away, not
	// requeued forever.
	if second.acked != 1 || second.nacked != 0 {
		t.Fatalf("capped attempt must ack, got acked=%d nacked=%d", second.acked, second.nacked)
	}
}

func TestZeroMaxRedeliveryRequeuesForever(t *testing.T) {
	ch := newFakeChannel()
	applier := &stubApplier{failSlug: "acme"}
	cfg := ConsumerConfig{Queue: "businessOwnerQueue", MaxRedelivery: 0, DeadLetterQueue: "businessOwnerQueue.dlq"}
	c := NewConsumer(ch, cfg, applier, nil, zap.NewNop(), testMetrics())

	body := subscriptionBody(t, NewSubscriptionEvent(SubscriptionData{TenantSlug: "acme"}))
	for i := 0; i < 5; i++ {
		ack := &fakeAck{}
		c.Handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body, MessageId: "poison"})
		if ack.nacked != 1 || !ack.requeue {
			t.Fatalf("attempt %d: expected requeueing nack", i+1)
		}
	}
	if got := ch.queueLen("businessOwnerQueue.dlq"); got != 0 {
		t.Fatalf("zero cap must never dead-letter, got %d parked", got)
	}
}

func TestRunDrainsQueue(t *testing.T) {
	ch := newFakeChannel()
	if err := Declare(ch, Topology{Exchange: "fanout_exchange", Queue: "businessOwnerQueue"}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	pub := NewPublisher(ch, "fanout_exchange", zap.NewNop(), testMetrics())
	for _, slug := range []string{"acme", "globex"} {
		if err := pub.Publish(context.Background(), NewSubscriptionEvent(SubscriptionData{TenantSlug: slug})); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	// Stamp an acknowledger on the staged deliveries before consuming.
	ack := &fakeAck{}
	ch.mu.Lock()
	for i := range ch.queues["businessOwnerQueue"] {
		ch.queues["businessOwnerQueue"][i].Acknowledger = ack
	}
	ch.mu.Unlock()

	applier := &stubApplier{}
	c := NewConsumer(ch, ConsumerConfig{Queue: "businessOwnerQueue"}, applier, nil, zap.NewNop(), testMetrics())
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if applier.count() != 2 {
		t.Fatalf("expected 2 applies, got %d", applier.count())
	}
	if ack.acked != 2 {
		t.Fatalf("expected 2 acks, got %d", ack.acked)
	}
}
