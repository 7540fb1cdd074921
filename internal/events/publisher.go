// Package events publishes sync and product change notifications.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/config"
)

// Event is the envelope written to the events topic
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	RunID      string                 `json:"run_id,omitempty"`
	Key        string                 `json:"key,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Publisher delivers events; implementations must not block a sync run on broker outages
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewPublisher returns a Kafka publisher when brokers are configured, otherwise a no-op
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, sync events are not published")
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg, logger)
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultQueueSize = 4096
	maxBatchSize     = 200
	writeTimeout     = 30 * time.Second
)

// ErrQueueFull is returned when the broker falls too far behind; the event is dropped
var ErrQueueFull = errors.New("event queue full")

// KafkaPublisher writes events as JSON, keyed by SKU or run id.
// Publish only enqueues; a background loop writes batches to the broker.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	done   chan struct{}
}

// NewKafkaPublisher creates a kafka-go writer for cfg.Topic
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, defaultQueueSize, logger)
}

func newKafkaPublisher(w messageWriter, queueSize int, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &KafkaPublisher{
		writer: w,
		logger: logger,
		queue:  make(chan kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.loop()
	return p
}

// Publish enqueues event without waiting for the broker
func (p *KafkaPublisher) Publish(_ context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := event.Key
	if key == "" {
		key = event.RunID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "message_id", Value: []byte(event.ID)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.New("event publisher closed")
	}

	select {
	case p.queue <- msg:
		return nil
	default:
		p.logger.Warn("Event queue full, dropping event", zap.String("type", event.Type), zap.String("key", key))
		return ErrQueueFull
	}
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)

	for msg := range p.queue {
		batch := []kafka.Message{msg}
	drain:
		for len(batch) < maxBatchSize {
			select {
			case next, ok := <-p.queue:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		p.write(batch)
	}
}

func (p *KafkaPublisher) write(batch []kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		p.logger.Warn("Failed to publish events", zap.Int("count", len(batch)), zap.Error(err))
	}
}

// Close flushes queued events and closes the writer
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}
