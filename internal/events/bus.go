// Package events is a small in-process publish/subscribe bus used to signal
// that server-side state changed, so listeners can refetch it.
package events

import (
	"sync"
	"time"
)

type Topic string

const (
	// StatsChanged is published after an action that changes the user's
	// aggregate statistics, such as completing a habit.
	StatsChanged Topic = "stats.changed"
	// SessionChanged is published on login and logout.
	SessionChanged Topic = "session.changed"
)

type Event struct {
	Topic Topic
	At    time.Time
}

type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[Topic]map[uint64]chan Event
}

func New() *Bus {
	return &Bus{subs: map[Topic]map[uint64]chan Event{}}
}

// Subscribe returns a channel receiving events for topic and a cancel func
// that unsubscribes and closes the channel. The channel holds one pending
// event; publishes while it is full are dropped, so bursts coalesce.
func (b *Bus) Subscribe(topic Topic) (<-chan Event, func()) {
	ch := make(chan Event, 1)

	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[topic] == nil {
		b.subs[topic] = map[uint64]chan Event{}
	}
	b.subs[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish never blocks.
func (b *Bus) Publish(topic Topic) {
	ev := Event{Topic: topic, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
