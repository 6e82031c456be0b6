// Package notify implements the Notification Bus (C8): publish/
// subscribe fan-out of chain events keyed by topic, per spec §4.8.
package notify

import (
	"sync"

	"github.com/chaind/chain-manager/internal/domain"
	"github.com/chaind/chain-manager/internal/metrics"
)

// DefaultBufferSize is the default per-subscriber buffer, per spec
// §4.8.
const DefaultBufferSize = 1024

// Subscription is handed back from Subscribe. Events arrive on C;
// Unsubscribe stops further delivery and closes C.
type Subscription struct {
	ID    uint64
	Topic string
	C     <-chan domain.Event

	bus *Bus
	ch  chan domain.Event
	mu  sync.Mutex
	lag bool
}

// Bus fans out Publish calls to every subscriber of the event's topic.
// A slow subscriber never blocks the publisher: its channel is
// bounded and overflow drops the oldest buffered event, marking a
// pending `lag` notice that is delivered ahead of the next real event.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string]map[uint64]*Subscription
	nextID      uint64
	bufferSize  int
	metrics     *metrics.Registry
}

// New creates a Bus with the given per-subscriber buffer size (0 uses
// DefaultBufferSize). reg may be nil in tests.
func New(bufferSize int, reg *metrics.Registry) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		subs:       make(map[string]map[uint64]*Subscription),
		bufferSize: bufferSize,
		metrics:    reg,
	}
}

// Subscribe registers for topic, per spec §4.8's `{topic,
// subscriber_handle}` registration.
func (b *Bus) Subscribe(topic string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan domain.Event, b.bufferSize)
	sub := &Subscription{ID: id, Topic: topic, C: ch, bus: b, ch: ch}

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*Subscription)
	}
	b.subs[topic][id] = sub
	return sub
}

// Unsubscribe is idempotent, per spec §4.8.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	topicSubs, ok := b.subs[sub.Topic]
	if !ok {
		return
	}
	if _, ok := topicSubs[sub.ID]; !ok {
		return
	}
	delete(topicSubs, sub.ID)
	close(sub.ch)
}

// Publish delivers evt to every current subscriber of topic,
// best-effort and at-most-once, per spec §4.8. It never blocks on a
// slow subscriber.
func (b *Bus) Publish(topic string, evt domain.Event) {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs[topic]))
	for _, s := range b.subs[topic] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.deliver(evt, topic, b.metrics)
	}
}

func (s *Subscription) deliver(evt domain.Event, topic string, reg *metrics.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lag {
		select {
		case s.ch <- domain.Event{ChainID: evt.ChainID, Topic: topic, Type: domain.EventLag, At: evt.At}:
			s.lag = false
		default:
			// still backed up; the lag marker itself got dropped, the
			// drop-oldest path below will retry sending it along with evt.
		}
	}

	select {
	case s.ch <- evt:
		return
	default:
	}

	// Buffer full: drop the oldest buffered event to make room, per
	// spec §4.8, and remember to surface a lag marker on next delivery.
	select {
	case <-s.ch:
		if reg != nil {
			reg.BusDropped.WithLabelValues(topic).Inc()
		}
	default:
	}
	s.lag = true

	select {
	case s.ch <- evt:
	default:
		// Buffer refilled concurrently by another publisher; give up on
		// this one delivery rather than spin — at-most-once, not
		// guaranteed.
	}
}
