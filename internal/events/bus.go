// Package events fans state changes out to any number of subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the event.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kinds published by the store and the kiosk runner.
const (
	KindUserUpdated         = "user.updated"
	KindBinCollected        = "bin.collected"
	KindBinSelected         = "bin.selected"
	KindTransactionRecorded = "transaction.recorded"
	KindKioskChanged        = "kiosk.changed"
)

// Event is a single change notification.
type Event struct {
	Seq     uint64    `json:"seq"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(kind string, payload any)
}

// Bus is an in-process event fan-out.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	seq     atomic.Uint64
	dropped atomic.Uint64
	nowFn   func() time.Time
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs:  make(map[uint64]chan Event),
		nowFn: time.Now,
	}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unregisters it and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish implements Publisher.
func (b *Bus) Publish(kind string, payload any) {
	ev := Event{
		Seq:     b.seq.Add(1),
		Kind:    kind,
		At:      b.nowFn().UTC(),
		Payload: payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Discard is a Publisher that drops everything.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(string, any) {}
