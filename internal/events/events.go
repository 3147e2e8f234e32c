package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// HandlerFunc is the function called when an event is published.
type HandlerFunc func(context.Context, any) error

// Option configures a Bus.
type Option func(*busConfig)

type busConfig struct {
	bufferSize   int
	syncDelivery bool
	logger       *slog.Logger
}

// WithBufferSize sets the event channel buffer size.
func WithBufferSize(size int) Option {
	return func(cfg *busConfig) {
		cfg.bufferSize = size
	}
}

// WithSyncDelivery forces synchronous (inline) handler calls from the
// dispatch goroutine. Handlers then run one at a time, in publish order.
// The mutation pipeline relies on this: a batch must be fully processed
// before the next batch is delivered.
func WithSyncDelivery() Option {
	return func(cfg *busConfig) {
		cfg.syncDelivery = true
	}
}

// WithLogger sets a structured logger for handler errors.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *busConfig) {
		cfg.logger = logger
	}
}

type event struct {
	topic   string
	message any
}

// Subscription is a handle to an active topic subscription.
type Subscription struct {
	Topic       string
	ID          string
	Handler     HandlerFunc
	Unsubscribe func()
}

// Bus is a small in-process pub/sub hub. Events published to a topic are
// dispatched by a single goroutine, so subscribers observe them in publish
// order.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]Subscription
	nextSubID   int64

	events   chan event
	shutdown chan struct{}
	closed   int32
	wg       sync.WaitGroup

	config busConfig
}

// NewBus creates a Bus and starts its dispatch loop.
func NewBus(opts ...Option) *Bus {
	cfg := busConfig{bufferSize: 256}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bus{
		subscribers: make(map[string]map[string]Subscription),
		events:      make(chan event, cfg.bufferSize),
		shutdown:    make(chan struct{}),
		config:      cfg,
	}

	b.wg.Add(1)
	go b.dispatchLoop()
	return b
}

// Publish sends an event to the given topic.
func Publish[T any](b *Bus, topic string, value T) error {
	select {
	case b.events <- event{topic: topic, message: value}:
		return nil
	case <-b.shutdown:
		return fmt.Errorf("bus closed, dropping event on %q", topic)
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timed out publishing event on %q", topic)
	}
}

// Subscribe registers a typed handler for the given topic.
func Subscribe[T any](b *Bus, topic string, handler func(context.Context, T) error) Subscription {
	wrapped := HandlerFunc(func(ctx context.Context, data any) error {
		typed, ok := data.(T)
		if !ok {
			return fmt.Errorf("unexpected payload %T on topic %q", data, topic)
		}
		return handler(ctx, typed)
	})

	id := fmt.Sprintf("%s-%d", topic, atomic.AddInt64(&b.nextSubID, 1))
	sub := Subscription{Topic: topic, ID: id, Handler: wrapped}
	sub.Unsubscribe = func() { b.remove(topic, id) }

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[string]Subscription)
	}
	b.subscribers[topic][id] = sub
	b.mu.Unlock()

	return sub
}

// Close shuts the bus down. Idempotent.
func (b *Bus) Close() {
	if atomic.CompareAndSwapInt32(&b.closed, 0, 1) {
		close(b.shutdown)
		b.wg.Wait()
	}
}

// Done is closed when the bus shuts down. Callers waiting on a handler side
// effect select on it so shutdown cannot strand them.
func (b *Bus) Done() <-chan struct{} {
	return b.shutdown
}

func (b *Bus) remove(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subscribers[topic]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.subscribers, topic)
		}
	}
}

func (b *Bus) dispatchLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.shutdown:
			return
		case evt := <-b.events:
			b.mu.RLock()
			subs := make([]Subscription, 0, len(b.subscribers[evt.topic]))
			for _, sub := range b.subscribers[evt.topic] {
				subs = append(subs, sub)
			}
			b.mu.RUnlock()

			for _, sub := range subs {
				b.deliver(sub, evt)
			}
		}
	}
}

func (b *Bus) deliver(sub Subscription, evt event) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sub.Handler(ctx, evt.message); err != nil && b.config.logger != nil {
			b.config.logger.Debug("event handler error",
				"topic", evt.topic,
				"subscription_id", sub.ID,
				"error", err)
		}
	}

	if b.config.syncDelivery {
		run()
	} else {
		go run()
	}
}
