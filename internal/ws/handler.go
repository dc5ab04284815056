package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/notify"
	"github.com/stratking/matchmaker/internal/services/auth"
	"github.com/stratking/matchmaker/internal/services/match"
)

// Handler upgrades authenticated requests to websocket connections and
// routes their typed messages to the matchmaking services.
type Handler struct {
	auth       *auth.Service
	registry   *notify.Registry
	controller *match.Controller
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates the websocket endpoint handler
func NewHandler(authService *auth.Service, registry *notify.Registry, controller *match.Controller, logger *slog.Logger) *Handler {
	return &Handler{
		auth:       authService,
		registry:   registry,
		controller: controller,
		logger:     logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients are native binaries; origin checks do not apply
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP authenticates the bearer credential before upgrading.
// Invalid or missing tokens are rejected with 401 and no upgrade happens.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}

	session, err := h.auth.ValidateSession(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(session.PlayerID, conn)
	h.registry.Register(session.PlayerID, c)
	go c.writePump()

	_ = c.Send(model.Event{
		Type: model.EventConnectionSuccess,
		Data: model.ConnectionSuccessPayload{
			PlayerID: session.PlayerID,
			Message:  "connected to matchmaking server",
		},
	})

	h.readLoop(c)
}

// readLoop decodes inbound messages until the connection drops, then
// unregisters the client, which cascades to queue removal.
func (h *Handler) readLoop(c *client) {
	defer h.registry.Unregister(c.playerID, c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error",
					slog.String("player_id", string(c.playerID)),
					slog.String("error", err.Error()))
			}
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(c, "invalid message format")
			continue
		}

		h.handleMessage(c, msg)
	}
}

// handleMessage dispatches one decoded message. The tag set is closed;
// unknown tags get an error event, never a close.
func (h *Handler) handleMessage(c *client, msg InboundMessage) {
	// Queue operations outlive the read loop iteration that triggered them
	ctx := context.Background()

	switch msg.Type {
	case MessagePing:
		_ = c.Send(model.Event{Type: model.EventPong})

	case MessageQueueJoin:
		status, err := h.controller.JoinQueue(ctx, c.playerID, msg.GameMode)
		if err != nil {
			h.sendError(c, joinErrorMessage(err))
			return
		}
		if !status.Matched {
			// The joining player gets an immediate queue_status; the rest
			// of the pool was refreshed by the controller
			_ = c.Send(model.Event{
				Type: model.EventQueueStatus,
				Data: model.QueueStatusPayload{
					GameMode:             msg.GameMode,
					Position:             status.Position,
					EstimatedWaitSeconds: status.EstimatedWaitSeconds,
				},
			})
		}

	case MessageQueueLeave:
		if _, err := h.controller.LeaveQueue(ctx, c.playerID, msg.GameMode); err != nil {
			h.sendError(c, "failed to leave queue")
		}

	default:
		h.sendError(c, "unknown message type")
	}
}

func (h *Handler) sendError(c *client, message string) {
	if err := c.Send(model.Event{
		Type: model.EventError,
		Data: model.ErrorPayload{Message: message},
	}); err != nil {
		h.logger.Debug("error event dropped",
			slog.String("player_id", string(c.playerID)),
			slog.String("error", err.Error()))
	}
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrAlreadyQueued):
		return "already queued for this mode"
	case errors.Is(err, model.ErrUnknownGameMode):
		return "unknown game mode"
	default:
		return "failed to join queue"
	}
}

// bearerToken extracts the credential from the Authorization header or,
// for clients that cannot set headers on websocket dials, the token
// query parameter.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
