package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/walletgate/walletgate/adapters/registry"
	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/service"
)

// SessionHandler upgrades connections to websockets and owns the
// session lifecycle: insert on connect, remove on disconnect. The
// challenge is generated here, once per connection.
type SessionHandler struct {
	registry *registry.MemoryRegistry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewSessionHandler creates a new websocket session handler.
func NewSessionHandler(reg *registry.MemoryRegistry, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// wsSink adapts a websocket connection to the registry's sink. The
// registry serializes Send calls per session, which satisfies the
// connection's single-writer requirement.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(msg core.ServerMessage) error {
	return s.conn.WriteJSON(msg)
}

// Connect handles GET /ws: upgrades, registers a session with a fresh
// challenge, and pushes the session id and challenge to the client.
// The connection is held open until the client disconnects; nothing
// inbound is expected on it.
func (h *SessionHandler) Connect(c *gin.Context) {
	challenge, err := service.NewChallenge()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	sessionID := service.NewSessionID()
	h.registry.Add(sessionID, challenge, &wsSink{conn: conn})
	h.logger.Info("session connected", "session_id", sessionID)

	h.registry.Push(sessionID, core.ServerMessage{
		Action:    core.ActionSessionCreated,
		SessionID: sessionID,
		Challenge: challenge,
	})

	go h.drain(sessionID, conn)
}

// drain consumes the read side until the peer goes away, then tears
// the session down.
func (h *SessionHandler) drain(sessionID string, conn *websocket.Conn) {
	defer func() {
		h.registry.Remove(sessionID)
		_ = conn.Close()
		h.logger.Info("session disconnected", "session_id", sessionID)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
