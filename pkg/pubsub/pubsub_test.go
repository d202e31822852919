package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	bus := New(0)
	defer bus.Shutdown()

	sub, err := bus.Subscribe(context.Background(), TopicNotice)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	bus.Publish(TopicNotice, Notice{Severity: SeverityWarning, Message: "hello"})

	select {
	case msg := <-sub.Channel():
		n, ok := msg.(Notice)
		if !ok || n.Message != "hello" || n.Severity != SeverityWarning {
			t.Errorf("unexpected message %#v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for message")
	}

	sub.Unsubscribe()
}

func TestMultipleSubscribers(t *testing.T) {
	bus := New(0)
	defer bus.Shutdown()

	const numSubscribers = 5
	subs := make([]*Subscription, numSubscribers)
	for i := range subs {
		sub, err := bus.Subscribe(context.Background(), TopicSave)
		if err != nil {
			t.Fatalf("Failed to subscribe %d: %v", i, err)
		}
		subs[i] = sub
	}

	bus.Publish(TopicSave, SaveRequest{Revision: 7})

	for i, sub := range subs {
		select {
		case msg := <-sub.Channel():
			if msg.(SaveRequest).Revision != 7 {
				t.Errorf("subscriber %d got %#v", i, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestTopicIsolation(t *testing.T) {
	bus := New(0)
	defer bus.Shutdown()

	saves, _ := bus.Subscribe(context.Background(), TopicSave)
	notices, _ := bus.Subscribe(context.Background(), TopicNotice)

	bus.Publish(TopicNotice, Notice{Message: "only notices"})

	select {
	case <-notices.Channel():
	case <-time.After(time.Second):
		t.Fatal("notice subscriber should receive the message")
	}
	select {
	case msg := <-saves.Channel():
		t.Errorf("save subscriber received %#v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestContextCancellation(t *testing.T) {
	bus := New(0)
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, TopicReady)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Error("channel should be closed after cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}

	deadline := time.Now().Add(time.Second)
	for bus.SubscriberCount(TopicReady) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := bus.SubscriberCount(TopicReady); n != 0 {
		t.Errorf("subscriber count = %d after cancel", n)
	}
}

func TestFullBufferDrops(t *testing.T) {
	bus := New(2)
	defer bus.Shutdown()

	sub, _ := bus.Subscribe(context.Background(), TopicSave)
	for i := 0; i < 5; i++ {
		bus.Publish(TopicSave, SaveRequest{Revision: uint64(i)})
	}

	if got := len(sub.Channel()); got != 2 {
		t.Errorf("buffered = %d, want 2", got)
	}
	if bus.Dropped() != 3 {
		t.Errorf("dropped = %d, want 3", bus.Dropped())
	}
}

func TestConcurrentPublish(t *testing.T) {
	bus := New(1000)
	defer bus.Shutdown()

	sub, _ := bus.Subscribe(context.Background(), TopicNotice)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(TopicNotice, Notice{Message: "x"})
			}
		}()
	}
	wg.Wait()

	if got := len(sub.Channel()); got != 500 {
		t.Errorf("received %d messages, want 500", got)
	}
}

func TestShutdown(t *testing.T) {
	bus := New(0)
	sub, _ := bus.Subscribe(context.Background(), TopicLoaded)

	bus.Shutdown()
	bus.Shutdown()

	if _, ok := <-sub.Channel(); ok {
		t.Error("channel should be closed after shutdown")
	}
	if _, err := bus.Subscribe(context.Background(), TopicLoaded); err != ErrShutdown {
		t.Errorf("Subscribe after shutdown = %v, want ErrShutdown", err)
	}
	bus.Publish(TopicLoaded, Loaded{})
}
