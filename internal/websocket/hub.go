package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"ai-companion-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Notification is the frame pushed to admin dashboard sockets when an
// account lifecycle event happens.
type Notification struct {
	Event    string    `json:"event"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

type Hub struct {
	// Registered clients map: admin username -> list of clients (multi-tab)
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
	// Start Redis subscriber when a cluster bus is configured
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Username] = append(h.clients[client.Username], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"username": client.Username})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.Username]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.Username] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.Username]) == 0 {
					delete(h.clients, client.Username)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"username": client.Username})
				}
			}
			h.mu.Unlock()
		}
	}
}

// dropSlow hands clients that could not keep up back to the run loop, which
// owns removal and is the only closer of a client's Send channel.
func (h *Hub) dropSlow(slow []*Client) {
	for _, client := range slow {
		h.unregister <- client
	}
}

// Broadcast sends a notification to ALL connected dashboard clients, on
// this instance directly and on peers through Redis.
func (h *Hub) Broadcast(notification Notification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})

	h.mu.RLock()
	var slow []*Client
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()
	h.dropSlow(slow)

	if h.rdb != nil {
		payload := map[string]interface{}{
			"target":  "*", // Wildcard for broadcast
			"message": data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

// Send delivers a notification to one admin's open sockets.
func (h *Hub) Send(username string, notification Notification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})

	h.mu.RLock()
	clients, localFound := h.clients[username]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"username": username})
				h.unregister <- client
			}
		}
	}

	// Always publish so peers holding other tabs of the same admin deliver too
	if h.rdb != nil {
		payload := map[string]interface{}{
			"target":  username,
			"message": data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances listen on one channel carrying {target, message}; each
	// instance forwards to whichever targets it holds locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			Target  string          `json:"target"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.Target == "*" {
			h.mu.RLock()
			var slow []*Client
			for _, clients := range h.clients {
				for _, client := range clients {
					select {
					case client.Send <- payload.Message:
					default:
						slow = append(slow, client)
					}
				}
			}
			h.mu.RUnlock()
			h.dropSlow(slow)
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[payload.Target]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					h.unregister <- client
				}
			}
		}
	}
}
