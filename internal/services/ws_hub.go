package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout = 10 * time.Second
	// queued messages per subscriber before it is dropped as too slow
	wsSendBuffer = 16
)

// WebSocket message types
const (
	WSTypePOICreated = "poi_created"
	WSTypePOIUpdated = "poi_updated"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type wsClient struct {
	userID int64
	conn   *websocket.Conn
	// closed by the hub when the subscription is removed
	send chan []byte
}

// WSHub fans POI change events out to every connected subscriber.
// Each subscriber has its own writer goroutine, so publishing never waits on a socket.
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[string]*wsClient),
	}
}

// Register adds a connection for an authenticated user and returns its subscription ID
func (h *WSHub) Register(userID int64, conn *websocket.Conn) string {
	id := uuid.New().String()
	client := &wsClient{userID: userID, conn: conn, send: make(chan []byte, wsSendBuffer)}

	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()

	go h.writeLoop(id, client)

	log.Info().Int64("user_id", userID).Str("subscription_id", id).Msg("WebSocket connection registered")
	return id
}

func (h *WSHub) writeLoop(id string, client *wsClient) {
	for data := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Str("subscription_id", id).Msg("Failed to deliver WebSocket message")
			h.Unregister(id)
			return
		}
	}
}

// Unregister closes and removes a subscription
func (h *WSHub) Unregister(id string) {
	h.mu.Lock()
	client, exists := h.clients[id]
	if exists {
		delete(h.clients, id)
		close(client.send)
	}
	h.mu.Unlock()

	if exists {
		client.conn.Close()
		log.Info().Int64("user_id", client.userID).Str("subscription_id", id).Msg("WebSocket connection unregistered")
	}
}

// Send queues a message for one subscription. A subscription whose queue is
// full is dropped.
func (h *WSHub) Send(id string, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.RLock()
	client, exists := h.clients[id]
	queued := exists && enqueue(client, data)
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("subscription %s is not connected", id)
	}
	if !queued {
		h.Unregister(id)
		return fmt.Errorf("subscription %s is too slow, dropped", id)
	}
	return nil
}

// Broadcast queues a message for every subscription without blocking.
// Subscriptions that cannot keep up are dropped.
func (h *WSHub) Broadcast(message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("type", message.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	var slow []string
	h.mu.RLock()
	for id, client := range h.clients {
		if !enqueue(client, data) {
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		log.Warn().Str("subscription_id", id).Str("type", message.Type).Msg("WebSocket subscriber too slow, dropping")
		h.Unregister(id)
	}
}

// enqueue must be called with h.mu held so the channel cannot be closed underneath it
func enqueue(client *wsClient, data []byte) bool {
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

// NotifyPOICreated announces a new POI
func (h *WSHub) NotifyPOICreated(poi any) {
	h.Broadcast(WSMessage{Type: WSTypePOICreated, Data: poi})
}

// NotifyPOIUpdated announces a changed POI
func (h *WSHub) NotifyPOIUpdated(poi any) {
	h.Broadcast(WSMessage{Type: WSTypePOIUpdated, Data: poi})
}

// Count returns the number of live subscriptions
func (h *WSHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscription
func (h *WSHub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*wsClient)
	h.mu.Unlock()

	for _, client := range clients {
		close(client.send)
		client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		client.conn.Close()
	}
}
