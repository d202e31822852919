// Package pubsub is the session's in-process event bus. The explorer publishes
// save requests, notices and lifecycle events; background workers and the UI
// subscribe to the topics they care about.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Topic names a stream of events.
type Topic string

const (
	TopicReady  Topic = "ready"  // Ready: the graph store has a live state
	TopicSave   Topic = "save"   // SaveRequest: the debounce window elapsed
	TopicNotice Topic = "notice" // Notice: a message for the user
	TopicLoaded Topic = "loaded" // Loaded: a snapshot replaced the state
)

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 64

var ErrShutdown = errors.New("bus is shut down")

// Bus fans messages out to every subscription on a topic. Publishing never
// blocks: a subscriber whose buffer is full misses the message.
type Bus struct {
	subscribers map[Topic]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
	dropped     atomic.Uint64
}

// Subscription receives the messages published on one topic.
type Subscription struct {
	topic     Topic
	channel   chan any
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a bus. A non-positive buffer selects DefaultBuffer.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subscribers: make(map[Topic]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
	}
}

// Subscribe registers interest in topic until ctx is cancelled, Unsubscribe
// is called or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan any, b.buffer),
		bus:     b,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends message to every current subscriber of topic.
func (b *Bus) Publish(topic Topic, message any) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	// Snapshot under the read lock; sends happen outside it.
	b.mu.RLock()
	topicSubs := b.subscribers[topic]
	if len(topicSubs) == 0 {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- message:
		default:
			b.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of subscribers for a topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Shutdown closes every subscription. Later publishes are ignored.
func (b *Bus) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for topic := range b.subscribers {
		for sub := range b.subscribers[topic] {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()
}

// Channel returns the subscription's message channel. It is closed when the
// subscription ends.
func (s *Subscription) Channel() <-chan any {
	return s.channel
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() Topic {
	return s.topic
}

// Unsubscribe removes the subscription.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.bus.subscribers[s.topic] != nil {
		delete(s.bus.subscribers[s.topic], s)
		if len(s.bus.subscribers[s.topic]) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
