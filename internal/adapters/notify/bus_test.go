package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaind/chain-manager/internal/domain"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	b := New(4, nil)
	sub := b.Subscribe("chain:1")
	defer b.Unsubscribe(sub)

	b.Publish("chain:1", domain.Event{ChainID: "1", Topic: "chain:1", Type: domain.EventStarted})

	select {
	case evt := <-sub.C:
		assert.Equal(t, domain.EventStarted, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_PublishDoesNotCrossTopics(t *testing.T) {
	b := New(4, nil)
	sub := b.Subscribe("chain:1")
	defer b.Unsubscribe(sub)

	b.Publish("chain:2", domain.Event{ChainID: "2", Topic: "chain:2", Type: domain.EventStarted})

	select {
	case evt := <-sub.C:
		t.Fatalf("unexpected event delivered across topics: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_MultipleSubscribersSameTopic(t *testing.T) {
	b := New(4, nil)
	sub1 := b.Subscribe("api")
	sub2 := b.Subscribe("api")
	defer b.Unsubscribe(sub1)
	defer b.Unsubscribe(sub2)

	b.Publish("api", domain.Event{Type: domain.EventStatusChanged})

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case <-sub.C:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out delivery")
		}
	}
}

func TestBus_Unsubscribe_ClosesChannel(t *testing.T) {
	b := New(4, nil)
	sub := b.Subscribe("chain:1")

	b.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestBus_Unsubscribe_Idempotent(t *testing.T) {
	b := New(4, nil)
	sub := b.Subscribe("chain:1")

	b.Unsubscribe(sub)
	require.NotPanics(t, func() { b.Unsubscribe(sub) })
}

func TestBus_DropOldestOnOverflow_MarksLag(t *testing.T) {
	b := New(2, nil)
	sub := b.Subscribe("chain:1")
	defer b.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		b.Publish("chain:1", domain.Event{Type: domain.EventStatusChanged})
	}

	var sawLag bool
	drained := 0
	for {
		select {
		case evt := <-sub.C:
			drained++
			if evt.Type == domain.EventLag {
				sawLag = true
			}
		default:
			goto done
		}
	}
done:
	assert.True(t, drained > 0)
	assert.True(t, sawLag, "expected a lag marker to be surfaced after overflow")
}

func TestBus_PublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := New(1, nil)
	sub := b.Subscribe("chain:1")
	defer b.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("chain:1", domain.Event{Type: domain.EventStatusChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
