package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"deep-research-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Hub fans progress updates out to the websocket clients tailing a
// session. Clients are keyed by session id (multiple tabs may watch the
// same run). An optional Redis relay carries updates across instances.
type Hub struct {
	// Registered clients map: SessionID -> List of Clients
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Session has no watchers left", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToSession delivers one serialized update to everyone tailing the
// session, locally and (when Redis is configured) on other instances.
func (h *Hub) SendToSession(sessionID string, payload []byte) {
	if dropped := h.deliverLocal(sessionID, payload); len(dropped) > 0 {
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"session_id": sessionID})
		for _, client := range dropped {
			h.unregister <- client
		}
	}

	if h.rdb != nil {
		relayed, _ := json.Marshal(map[string]interface{}{
			"target_session_id": sessionID,
			"message":           json.RawMessage(payload),
		})
		h.rdb.Publish(context.Background(), "research_cluster_events", relayed)
	}
}

// deliverLocal sends to every local watcher of the session. The read
// lock is held across the sends so Run cannot close a Send channel
// mid-loop; the non-blocking send keeps the critical section short.
// Slow clients are returned for unregistration outside the lock.
func (h *Hub) deliverLocal(sessionID string, payload []byte) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var dropped []*Client
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
			dropped = append(dropped, client)
		}
	}
	return dropped
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the shared channel and forwards
	// updates for sessions it has local watchers for.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "research_cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetSessionID string          `json:"target_session_id"`
			Message         json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		for _, client := range h.deliverLocal(payload.TargetSessionID, payload.Message) {
			h.unregister <- client
		}
	}
}
