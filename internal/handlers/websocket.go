package handlers

import (
	"net/http"
	"time"

	"poi-backend/internal/middleware"
	"poi-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams POI change events to authenticated clients
type WebSocketHandler struct {
	hub          *services.WSHub
	tokenService *services.TokenService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, tokenService *services.TokenService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		tokenService: tokenService,
	}
}

// HandleWebSocket handles GET /api/v1/ws. Browsers cannot set headers on the
// upgrade request, so the token may also be passed as ?token=.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		token = r.URL.Query().Get("token")
	}

	user, err := h.tokenService.Validate(r.Context(), token)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to upgrade WebSocket connection")
		return
	}

	id := h.hub.Register(user.ID, conn)
	defer h.hub.Unregister(id)

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	// Clients only listen; reading drives pong handling and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Int64("user_id", user.ID).Msg("WebSocket error")
			}
			return
		}
	}
}

func (h *WebSocketHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
