// Package poller consumes the change feed and reloads collections that
// another process wrote for the same session.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/esdaly/storefront/internal/publisher"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Rehydrator reloads one storage key into its collection.
type Rehydrator interface {
	Rehydrate(ctx context.Context, key string) error
}

type Poller struct {
	reader  messageReader
	target  Rehydrator
	session string
	origin  string
	logger  *zap.Logger
	backoff time.Duration
}

// NewKafkaReader builds a reader with its own consumer group, so every
// process sees every change. Only changes made after start are read.
func NewKafkaReader(topic, origin string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     "storefront-" + origin,
		StartOffset: kafka.LastOffset,
		MaxBytes:    1e6,
	})
}

func New(reader messageReader, target Rehydrator, session, origin string, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{reader: reader, target: target, session: session, origin: origin, logger: logger, backoff: time.Second}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := p.poll(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (p *Poller) poll(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return err
		}
		p.logger.Warn("error reading change feed", zap.Error(err))
		return err
	}
	p.handle(ctx, m)
	return nil
}

func (p *Poller) handle(ctx context.Context, m kafka.Message) {
	var event publisher.Event
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.logger.Warn("error parsing change event", zap.Error(err))
		return
	}
	if event.Session != p.session || event.Origin == p.origin || event.Key == "" {
		return
	}

	if err := p.target.Rehydrate(ctx, event.Key); err != nil {
		p.logger.Warn("failed to reload collection",
			zap.String("key", event.Key),
			zap.String("origin", event.Origin),
			zap.Error(err))
		return
	}
	p.logger.Debug("collection reloaded from change feed", zap.String("key", event.Key), zap.String("origin", event.Origin))
}
