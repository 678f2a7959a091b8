// Package publisher announces persisted collection writes on a Kafka topic
// so that other processes sharing the same storage can reload them.
package publisher

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event is the change-feed message. Key is the storage key that was written.
type Event struct {
	Session   string    `json:"session"`
	Key       string    `json:"key"`
	Origin    string    `json:"origin"`
	WrittenAt time.Time `json:"written_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const queueSize = 256

type Publisher struct {
	writer  messageWriter
	session string
	origin  string
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time

	queue   chan string
	done    chan struct{}
	started atomic.Bool
}

// NewKafkaWriter returns the writer used in production.
func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func New(writer messageWriter, session, origin string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		writer:  writer,
		session: session,
		origin:  origin,
		logger:  logger,
		timeout: 5 * time.Second,
		now:     time.Now,
		queue:   make(chan string, queueSize),
		done:    make(chan struct{}),
	}
}

// Notify queues key for publishing without blocking. It is meant to be
// registered as a persistence write listener.
func (p *Publisher) Notify(key string) {
	select {
	case p.queue <- key:
	default:
		p.logger.Warn("change feed queue full, dropping event", zap.String("key", key))
	}
}

// Run publishes queued keys until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	p.started.Store(true)
	defer close(p.done)
	for {
		select {
		case key := <-p.queue:
			if err := p.publish(ctx, key); err != nil {
				p.logger.Error("failed to publish change", zap.String("key", key), zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, key string) error {
	payload, err := json.Marshal(Event{
		Session:   p.session,
		Key:       key,
		Origin:    p.origin,
		WrittenAt: p.now().UTC(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// session as the message key keeps one session's changes on one partition
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.session),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "origin", Value: []byte(p.origin)},
		},
	})
}

// Close waits for Run to return when it was started, then closes the writer.
func (p *Publisher) Close(ctx context.Context) error {
	if p.started.Load() {
		select {
		case <-p.done:
		case <-ctx.Done():
		}
	}
	return p.writer.Close()
}
