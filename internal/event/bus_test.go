package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribePublish(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var got []Event
	b.Subscribe(ServerConnected, func(ev Event) {
		got = append(got, ev)
	})

	b.Publish(Event{Type: ServerConnected, ServerID: 1, Detail: "gopls"})
	b.Publish(Event{Type: ServerClosed, ServerID: 1})

	require.Len(t, got, 1)
	assert.Equal(t, ServerConnected, got[0].Type)
	assert.Equal(t, "gopls", got[0].Detail)
}

func TestBus_SubscribeAll(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var count int
	b.SubscribeAll(func(Event) { count++ })

	b.Publish(Event{Type: DocumentOpened, ServerID: 0, URI: "file:///a.go"})
	b.Publish(Event{Type: DocumentClosed, ServerID: 0, URI: "file:///a.go"})

	assert.Equal(t, 2, count)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var count int
	off := b.Subscribe(ServerFailed, func(Event) { count++ })

	b.Publish(Event{Type: ServerFailed, ServerID: 2})
	off()
	b.Publish(Event{Type: ServerFailed, ServerID: 2})

	assert.Equal(t, 1, count)
}

func TestBus_PublishAfterClose(t *testing.T) {
	b := NewBus()

	var count int
	b.Subscribe(ServerConnected, func(Event) { count++ })

	require.NoError(t, b.Close())
	b.Publish(Event{Type: ServerConnected})
	assert.Equal(t, 0, count)

	// Subscribing after close is a no-op.
	off := b.Subscribe(ServerConnected, func(Event) { count++ })
	off()
	b.Publish(Event{Type: ServerConnected})
	assert.Equal(t, 0, count)
}

func TestBus_CloseTwice(t *testing.T) {
	b := NewBus()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestBus_PubSubExposed(t *testing.T) {
	b := NewBus()
	defer b.Close()
	assert.NotNil(t, b.PubSub())
}
