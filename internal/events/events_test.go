package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	got := make(chan string, 1)
	Subscribe(bus, "greeting", func(_ context.Context, msg string) error {
		got <- msg
		return nil
	})

	if err := Publish(bus, "greeting", "hello"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-got:
		if msg != "hello" {
			t.Errorf("got %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSyncDeliveryOrder(t *testing.T) {
	bus := NewBus(WithSyncDelivery())
	defer bus.Close()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	Subscribe(bus, "seq", func(_ context.Context, n int) error {
		mu.Lock()
		order = append(order, n)
		full := len(order) == 50
		mu.Unlock()
		if full {
			close(done)
		}
		return nil
	})

	for i := 0; i < 50; i++ {
		if err := Publish(bus, "seq", i); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deliveries incomplete")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, n := range order {
		if n != i {
			t.Fatalf("delivery order broken at %d: %v", i, order[:i+1])
		}
	}
}

func TestSyncDeliveryOneAtATime(t *testing.T) {
	bus := NewBus(WithSyncDelivery())
	defer bus.Close()

	var inFlight, maxInFlight int32
	done := make(chan struct{})
	var once sync.Once

	Subscribe(bus, "batch", func(_ context.Context, n int) error {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			seen := atomic.LoadInt32(&maxInFlight)
			if cur <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		if n == 9 {
			once.Do(func() { close(done) })
		}
		return nil
	})

	for i := 0; i < 10; i++ {
		Publish(bus, "batch", i)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deliveries incomplete")
	}
	if got := atomic.LoadInt32(&maxInFlight); got != 1 {
		t.Errorf("max concurrent handlers = %d, want 1", got)
	}
}

func TestTopicsIsolated(t *testing.T) {
	bus := NewBus(WithSyncDelivery())
	defer bus.Close()

	var aCount, bCount int32
	Subscribe(bus, "a", func(_ context.Context, _ struct{}) error {
		atomic.AddInt32(&aCount, 1)
		return nil
	})
	Subscribe(bus, "b", func(_ context.Context, _ struct{}) error {
		atomic.AddInt32(&bCount, 1)
		return nil
	})

	Publish(bus, "a", struct{}{})
	Publish(bus, "a", struct{}{})
	Publish(bus, "b", struct{}{})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&aCount) == 2 && atomic.LoadInt32(&bCount) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("a=%d b=%d", aCount, bCount)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(WithSyncDelivery())
	defer bus.Close()

	var count int32
	sub := Subscribe(bus, "t", func(_ context.Context, _ int) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	Publish(bus, "t", 1)
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&count) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	sub.Unsubscribe()
	Publish(bus, "t", 2)
	time.Sleep(50 * time.Millisecond)

	if got := atomic.LoadInt32(&count); got != 1 {
		t.Errorf("count = %d after unsubscribe, want 1", got)
	}
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewBus()
	bus.Close()
	bus.Close() // idempotent

	if err := Publish(bus, "t", 1); err == nil {
		t.Fatal("expected error publishing to closed bus")
	}
}

func TestMismatchedPayloadType(t *testing.T) {
	bus := NewBus(WithSyncDelivery())
	defer bus.Close()

	var called int32
	Subscribe(bus, "typed", func(_ context.Context, _ string) error {
		atomic.AddInt32(&called, 1)
		return nil
	})

	// An int on a string subscription is rejected by the wrapper, not
	// delivered as a zero value.
	Publish(bus, "typed", 42)
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&called) != 0 {
		t.Error("handler ran with mismatched payload type")
	}
}
