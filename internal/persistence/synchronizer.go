// Package persistence mirrors store collections into a storage backend.
//
// Each bound collection is read once at startup (Hydrate) and then written
// back on every change the store reports. Storage failures never reach the
// shopper: they are logged and counted, and the in-memory state stays
// authoritative.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/esdaly/storefront/internal/metrics"
	"github.com/esdaly/storefront/internal/storage"
	"github.com/esdaly/storefront/internal/store"
	"go.uber.org/zap"
)

var (
	ErrUnknownKey   = errors.New("no collection bound to key")
	ErrDuplicateKey = errors.New("collection key already bound")
	ErrStarted      = errors.New("synchronizer already started")
)

// deleted marks a key known to be absent from storage.
const deleted = "\x00deleted"

const defaultWriteTimeout = 5 * time.Second

// Collection is a store the synchronizer can hydrate and observe.
type Collection[T any] interface {
	Key() string
	Subscribe(fn store.Listener[T]) func()
	Replace(items []T)
}

// WriteListener is told about every key successfully written or deleted.
type WriteListener func(key string)

type Option func(*Synchronizer)

func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.writeTimeout = d }
}

// WithEmptyCollections writes "[]" for every empty collection instead of
// deleting its key.
func WithEmptyCollections() Option {
	return func(s *Synchronizer) { s.alwaysWrite = true }
}

func WithWriteListener(fn WriteListener) Option {
	return func(s *Synchronizer) { s.listeners = append(s.listeners, fn) }
}

type bindConfig struct {
	keepEmpty bool
}

type BindOption func(*bindConfig)

// KeepEmpty writes "[]" for this collection when it becomes empty.
func KeepEmpty() BindOption {
	return func(c *bindConfig) { c.keepEmpty = true }
}

type binding interface {
	key() string
	load(raw []byte) error
	reset()
	subscribe(s *Synchronizer) func()
}

type Synchronizer struct {
	storage      storage.Storage
	logger       *zap.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration
	alwaysWrite  bool
	listeners    []WriteListener

	mu       sync.Mutex
	bindings map[string]binding
	order    []string
	// last holds the payload known to be stored under each key.
	last         map[string]string
	unsubscribes []func()
	started      bool
}

func New(st storage.Storage, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		storage:      st,
		logger:       zap.NewNop(),
		metrics:      metrics.Nop(),
		writeTimeout: defaultWriteTimeout,
		bindings:     make(map[string]binding),
		last:         make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind registers c under its key. Bindings must be made before Start.
func Bind[T any](s *Synchronizer, c Collection[T], opts ...BindOption) error {
	var cfg bindConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}
	if _, ok := s.bindings[c.Key()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, c.Key())
	}

	s.bindings[c.Key()] = &typedBinding[T]{coll: c, keepEmpty: cfg.keepEmpty}
	s.order = append(s.order, c.Key())
	return nil
}

// Hydrate restores every bound collection from storage. Missing keys and
// unreadable payloads leave the collection as it is.
func (s *Synchronizer) Hydrate(ctx context.Context) {
	for _, b := range s.snapshotBindings() {
		s.hydrate(ctx, b, false)
	}
}

// Rehydrate reloads a single key, typically after another process wrote
// it. A missing key empties the collection.
func (s *Synchronizer) Rehydrate(ctx context.Context, key string) error {
	s.mu.Lock()
	b, ok := s.bindings[key]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	s.hydrate(ctx, b, true)
	return nil
}

// Start subscribes to every bound collection. Calling Start twice is a no-op.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	bindings := make([]binding, 0, len(s.order))
	for _, key := range s.order {
		bindings = append(bindings, s.bindings[key])
	}
	s.mu.Unlock()

	unsubscribes := make([]func(), 0, len(bindings))
	for _, b := range bindings {
		unsubscribes = append(unsubscribes, b.subscribe(s))
	}

	s.mu.Lock()
	s.unsubscribes = unsubscribes
	s.mu.Unlock()

	s.logger.Info("persistence started", zap.Strings("keys", s.order))
}

// Close stops mirroring changes.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	unsubscribes := s.unsubscribes
	s.unsubscribes = nil
	s.mu.Unlock()

	for _, fn := range unsubscribes {
		fn()
	}
}

func (s *Synchronizer) snapshotBindings() []binding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]binding, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.bindings[key])
	}
	return out
}

func (s *Synchronizer) hydrate(ctx context.Context, b binding, reset bool) {
	key := b.key()

	raw, err := s.storage.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.remember(key, deleted)
		if reset {
			b.reset()
		}
		return
	case err != nil:
		s.metrics.RecordStorage(ctx, "read", key, err)
		s.logger.Warn("failed to read collection", zap.String("key", key), zap.Error(err))
		return
	}

	s.remember(key, string(raw))
	if err := b.load(raw); err != nil {
		s.forget(key)
		s.metrics.RecordStorage(ctx, "read", key, err)
		s.logger.Warn("ignoring malformed collection", zap.String("key", key), zap.Error(err))
		return
	}
	s.metrics.RecordStorage(ctx, "read", key, nil)
}

// persist writes payload under key, or deletes the key when payload is
// the deleted marker. Unchanged payloads are skipped.
func (s *Synchronizer) persist(key, payload string) {
	s.mu.Lock()
	if last, ok := s.last[key]; ok && last == payload {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	op := "write"
	var err error
	if payload == deleted {
		op = "delete"
		err = s.storage.Delete(ctx, key)
	} else {
		err = s.storage.Set(ctx, key, []byte(payload))
	}

	s.metrics.RecordStorage(ctx, op, key, err)
	if err != nil {
		s.forget(key)
		s.logger.Error("failed to persist collection", zap.String("key", key), zap.String("op", op), zap.Error(err))
		return
	}

	s.remember(key, payload)
	s.logger.Debug("collection persisted", zap.String("key", key), zap.String("op", op))
	for _, fn := range s.listeners {
		fn(key)
	}
}

func (s *Synchronizer) remember(key, payload string) {
	s.mu.Lock()
	s.last[key] = payload
	s.mu.Unlock()
}

func (s *Synchronizer) forget(key string) {
	s.mu.Lock()
	delete(s.last, key)
	s.mu.Unlock()
}

type typedBinding[T any] struct {
	coll      Collection[T]
	keepEmpty bool
}

func (b *typedBinding[T]) key() string {
	return b.coll.Key()
}

func (b *typedBinding[T]) load(raw []byte) error {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("failed to decode %s: %w", b.coll.Key(), err)
	}
	b.coll.Replace(items)
	return nil
}

func (b *typedBinding[T]) reset() {
	b.coll.Replace(nil)
}

func (b *typedBinding[T]) subscribe(s *Synchronizer) func() {
	return b.coll.Subscribe(func(c store.Change[T]) {
		if c.Empty() && !b.keepEmpty && !s.alwaysWrite {
			s.persist(c.Key, deleted)
			return
		}

		items := c.Items
		if items == nil {
			items = []T{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			s.logger.Error("failed to encode collection", zap.String("key", c.Key), zap.Error(err))
			return
		}
		s.persist(c.Key, string(data))
	})
}
