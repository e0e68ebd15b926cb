// Package event provides a pub/sub bus for server lifecycle events using
// watermill. Polling remains the normative way to consume protocol results;
// the bus exists for embedders that want push-style observability of
// connection and document state.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type names a lifecycle event.
type Type string

const (
	ServerConnecting Type = "server.connecting"
	ServerConnected  Type = "server.connected"
	ServerFailed     Type = "server.failed"
	ServerClosed     Type = "server.closed"
	DocumentOpened   Type = "document.opened"
	DocumentClosed   Type = "document.closed"
	DocumentEdited   Type = "document.edited"
)

// Event is one published lifecycle event.
type Event struct {
	Type Type `json:"type"`
	// ServerID identifies the originating session, -1 when not applicable.
	ServerID int `json:"serverId"`
	// URI is set for document events.
	URI string `json:"uri,omitempty"`
	// Detail carries a human-readable note (failure reason, server name).
	Detail string `json:"detail,omitempty"`
}

// Subscriber receives published events.
type Subscriber func(Event)

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus fans events out to subscribers. Each Context owns its own Bus; there
// is no process-global instance. Publish calls subscribers directly; the
// bus also owns a watermill GoChannel (see PubSub), which Publish does not
// write to.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	byType map[Type][]subscriberEntry
	all    []subscriberEntry

	nextID uint64
	closed bool
}

// NewBus creates a bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
		byType: make(map[Type][]subscriberEntry),
	}
}

// Subscribe registers fn for one event type and returns an unsubscribe
// function.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := atomic.AddUint64(&b.nextID, 1)
	b.byType[t] = append(b.byType[t], subscriberEntry{id: id, fn: fn})
	return func() { b.unsubscribe(t, id) }
}

// SubscribeAll registers fn for every event type.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := atomic.AddUint64(&b.nextID, 1)
	b.all = append(b.all, subscriberEntry{id: id, fn: fn})
	return func() { b.unsubscribeAll(id) }
}

func (b *Bus) unsubscribe(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.byType[t]
	for i, e := range subs {
		if e.id == id {
			b.byType[t] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) unsubscribeAll(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.all {
		if e.id == id {
			b.all = append(b.all[:i], b.all[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to all matching subscribers in the caller's
// goroutine, preserving the library's single-threaded polling model.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]Subscriber, 0, len(b.byType[ev.Type])+len(b.all))
	for _, e := range b.byType[ev.Type] {
		subs = append(subs, e.fn)
	}
	for _, e := range b.all {
		subs = append(subs, e.fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Close drops all subscribers and shuts the bus down.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.byType = make(map[Type][]subscriberEntry)
	b.all = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}

// PubSub exposes the watermill GoChannel owned by the bus. Lifecycle events
// passed to Publish are not forwarded to it; it is closed by Close.
func (b *Bus) PubSub() *gochannel.GoChannel {
	return b.pubsub
}
