package websocket

import (
	"testing"
	"time"

	"ai-companion-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil, logger.NewIsolatedLogger(t.TempDir()+"/hub.log"))
	go h.Run()
	return h
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h := newTestHub(t)

	a := &Client{Hub: h, Username: "admin", Send: make(chan []byte, 4)}
	b := &Client{Hub: h, Username: "other", Send: make(chan []byte, 4)}
	h.register <- a
	h.register <- b

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients) == 2
	}, time.Second, 5*time.Millisecond)

	h.Broadcast(Notification{Event: "USER_REGISTERED", Username: "alice", At: time.Now()})

	assert.Contains(t, string(<-a.Send), "USER_REGISTERED")
	assert.Contains(t, string(<-b.Send), "USER_REGISTERED")
}

func TestBroadcastSlowClientClosedOnceByRunLoop(t *testing.T) {
	h := newTestHub(t)

	c := &Client{Hub: h, Username: "admin", Send: make(chan []byte, 1)}
	h.register <- c

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients["admin"]) == 1
	}, time.Second, 5*time.Millisecond)

	// Fill the buffer so the broadcast takes the slow-client path.
	c.Send <- []byte("stale")

	require.NotPanics(t, func() {
		h.Broadcast(Notification{Event: "USER_ACTIVATED", Username: "alice", At: time.Now()})
	})

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		_, ok := h.clients["admin"]
		return !ok
	}, time.Second, 5*time.Millisecond)

	// The run loop is the sole closer: the buffered frame survives, then the
	// channel reads as closed.
	assert.Equal(t, []byte("stale"), <-c.Send)
	_, open := <-c.Send
	assert.False(t, open)
}
