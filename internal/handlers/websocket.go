package handlers

import (
	"net/http"
	"time"

	"hbnb-api/internal/events"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		return true // the REST API is open to any origin as well
	},
}

// WebSocketHandler streams change events to websocket subscribers
type WebSocketHandler struct {
	hub *events.Hub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *events.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket handles GET /api/v1/events. The stream is one way:
// client messages are read and discarded until the connection closes.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	// the server's ReadTimeout would otherwise end idle streams
	conn.SetReadDeadline(time.Time{})

	clientID := uuid.NewString()
	h.hub.Register(clientID, conn)
	defer h.hub.Unregister(clientID)

	log.Info().Str("client_id", clientID).Str("remote", r.RemoteAddr).Msg("WebSocket connection established")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("client_id", clientID).Msg("WebSocket error")
			}
			return
		}
	}
}
