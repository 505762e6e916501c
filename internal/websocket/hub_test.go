package websocket

import (
	"testing"
	"time"

	"deep-research-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewIsolatedLogger(t.TempDir()+"/hub.log"))
	go hub.Run()
	return hub
}

func register(hub *Hub, sessionID string, buffer int) *Client {
	client := &Client{Hub: hub, SessionID: sessionID, Send: make(chan []byte, buffer)}
	hub.register <- client
	return client
}

func TestSendToSessionDeliversToWatchers(t *testing.T) {
	hub := newTestHub(t)
	client := register(hub, "sess-1", 4)

	hub.SendToSession("sess-1", []byte("update"))

	select {
	case msg := <-client.Send:
		assert.Equal(t, "update", string(msg))
	case <-time.After(time.Second):
		t.Fatal("watcher never received the update")
	}
}

func TestSendToSessionIgnoresOtherSessions(t *testing.T) {
	hub := newTestHub(t)
	client := register(hub, "sess-1", 4)

	hub.SendToSession("sess-2", []byte("update"))

	select {
	case <-client.Send:
		t.Fatal("watcher received an update for another session")
	case <-time.After(50 * time.Millisecond):
	}
}

// A client disconnecting while a broadcast is in flight must neither
// race the unregister bookkeeping nor hit a closed Send channel.
func TestSendToSessionDuringConcurrentUnregister(t *testing.T) {
	hub := newTestHub(t)

	for i := 0; i < 200; i++ {
		client := register(hub, "sess", 1)

		done := make(chan struct{})
		go func() {
			for j := 0; j < 50; j++ {
				hub.SendToSession("sess", []byte("x"))
			}
			close(done)
		}()

		hub.unregister <- client
		<-done
	}
}

func TestSlowClientIsDroppedNotBlockedOn(t *testing.T) {
	hub := newTestHub(t)
	client := register(hub, "sess", 1)

	// First send fills the buffer, second overflows and must return
	// promptly while evicting the client.
	hub.SendToSession("sess", []byte("one"))
	hub.SendToSession("sess", []byte("two"))

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[client.SessionID]) == 0
	}, time.Second, 10*time.Millisecond)
}
