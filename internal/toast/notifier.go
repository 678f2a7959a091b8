// Package toast keeps the queue of short-lived shopper notifications.
package toast

import (
	"context"
	"sync"
	"time"

	"github.com/esdaly/storefront/internal/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 3500 * time.Millisecond

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"message"`
	Severity  Severity  `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Option func(*Notifier)

func WithDuration(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.duration = d
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) { n.metrics = m }
}

type Notifier struct {
	duration time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics

	mu        sync.Mutex
	active    []Message
	timers    map[string]*time.Timer
	listeners map[int]func([]Message)
	nextID    int
	closed    bool

	// delivery is taken before mu is released so listeners see queue
	// snapshots in the order they were taken.
	delivery sync.Mutex
}

func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{
		duration:  DefaultDuration,
		now:       time.Now,
		metrics:   metrics.Nop(),
		timers:    make(map[string]*time.Timer),
		listeners: make(map[int]func([]Message)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Show queues a toast that disappears after the configured duration. An
// empty severity means success.
func (n *Notifier) Show(text string, severity Severity) Message {
	if severity == "" {
		severity = SeveritySuccess
	}

	now := n.now()
	msg := Message{
		ID:        "toast-" + uuid.NewString(),
		Text:      text,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(n.duration),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return msg
	}
	n.active = append(n.active, msg)
	n.timers[msg.ID] = time.AfterFunc(n.duration, func() { n.expire(msg.ID) })
	n.deliverLocked()

	n.metrics.ToastsShown.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("severity", string(severity))))
	return msg
}

func (n *Notifier) Success(text string) Message { return n.Show(text, SeveritySuccess) }
func (n *Notifier) Error(text string) Message   { return n.Show(text, SeverityError) }

// Dismiss removes a toast early. It reports whether the toast was active.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	if !n.removeLocked(id) {
		n.mu.Unlock()
		return false
	}
	n.deliverLocked()
	return true
}

// Active returns the visible toasts, oldest first.
func (n *Notifier) Active() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Message, len(n.active))
	copy(out, n.active)
	return out
}

// Subscribe registers fn for every change of the active queue. fn must not
// call back into the Notifier.
func (n *Notifier) Subscribe(fn func([]Message)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

// Close cancels every pending expiry and drops the queue.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.active = nil
	n.closed = true
}

func (n *Notifier) expire(id string) {
	n.mu.Lock()
	delete(n.timers, id)
	if !n.removeLocked(id) {
		n.mu.Unlock()
		return
	}
	n.deliverLocked()
}

func (n *Notifier) removeLocked(id string) bool {
	for i := range n.active {
		if n.active[i].ID == id {
			n.active = append(n.active[:i], n.active[i+1:]...)
			return true
		}
	}
	return false
}

// deliverLocked hands the current queue to every listener and releases mu.
func (n *Notifier) deliverLocked() {
	active, listeners := n.snapshotLocked()
	n.delivery.Lock()
	n.mu.Unlock()
	defer n.delivery.Unlock()

	notify(listeners, active)
}

func (n *Notifier) snapshotLocked() ([]Message, []func([]Message)) {
	active := make([]Message, len(n.active))
	copy(active, n.active)

	listeners := make([]func([]Message), 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	return active, listeners
}

func notify(listeners []func([]Message), active []Message) {
	for _, fn := range listeners {
		fn(active)
	}
}
