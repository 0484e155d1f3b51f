package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTelemetryClient stands in for a live connection.
type fakeTelemetryClient struct {
	ch chan []byte
}

func (f *fakeTelemetryClient) sendChannel() chan []byte { return f.ch }
func (f *fakeTelemetryClient) shutdown()                {}

func TestTelemetryHubBroadcast(t *testing.T) {
	hub := NewTelemetryHub()
	go hub.Run()
	defer hub.Stop()

	client := &fakeTelemetryClient{ch: make(chan []byte, 8)}
	hub.register <- client

	hub.Broadcast(SearchEvent{
		Type:      "search",
		Query:     "acme tasks",
		NoteCount: 2,
		GraphOnly: true,
	})

	select {
	case data := <-client.ch:
		var event SearchEvent
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, "acme tasks", event.Query)
		assert.True(t, event.GraphOnly)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestTelemetryHubDropsSlowClient(t *testing.T) {
	hub := NewTelemetryHub()
	go hub.Run()
	defer hub.Stop()

	// Zero-capacity channel: the first broadcast cannot be delivered,
	// so the hub disconnects the client.
	client := &fakeTelemetryClient{ch: make(chan []byte)}
	hub.register <- client

	hub.Broadcast(SearchEvent{Type: "search", Query: "x"})

	select {
	case _, open := <-client.ch:
		assert.False(t, open, "slow client channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect")
	}
}
