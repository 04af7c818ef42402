package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/axiomduel/platform/internal/auth/jwt"
	httperrors "github.com/axiomduel/platform/pkg/http/errors"
	ws "github.com/axiomduel/platform/pkg/http/ws"
)

// Upgrader for duel WebSocket connections. CheckOrigin is permissive; the
// bearer token is the access control.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the HTTP connection and authenticates the user.
// Browsers cannot set headers on WebSocket dials, so the token arrives as a
// query parameter.
func (h *Handler) HandleWebSocket(tokens *jwt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			h.logger.Warn().Err(err).Msg("websocket token validation failed")
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
			return
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error().Err(err).Msg("websocket upgrade failed")
			return
		}

		h.handleConnection(conn, claims.UserID)
	}
}

// handleConnection pumps a socket until it closes. A running match session
// outlives the socket: a player who reconnects resumes receiving controller
// output through the freshly registered connection.
func (h *Handler) handleConnection(conn *websocket.Conn, userID uuid.UUID) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), userID, msg)
	})

	h.hub.UnregisterConnection(userID, wsConn)
}
