package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stratking/matchmaker/internal/api/request"
	"github.com/stratking/matchmaker/internal/api/response"
	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/services/match"
)

// WebhookHandler handles callbacks from provisioned game servers.
// These routes authenticate with the per-match server secret, not a
// player session
type WebhookHandler struct {
	controller *match.Controller
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(controller *match.Controller) *WebhookHandler {
	return &WebhookHandler{
		controller: controller,
	}
}

// ServerReady handles POST /api/v1/webhooks/server-ready
func (h *WebhookHandler) ServerReady(w http.ResponseWriter, r *http.Request) {
	var req request.ServerReady
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.MatchID == "" {
		WriteError(w, NewInvalidRequestError("match_id is required"))
		return
	}

	m, err := h.controller.HandleServerReady(r.Context(), model.MatchID(req.MatchID), req.ServerSecret)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.WebhookResponse{
		Success: true,
		Status:  string(m.Status),
	})
}

// MatchComplete handles POST /api/v1/webhooks/match-complete
func (h *WebhookHandler) MatchComplete(w http.ResponseWriter, r *http.Request) {
	var req request.MatchComplete
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.MatchID == "" {
		WriteError(w, NewInvalidRequestError("match_id is required"))
		return
	}

	m, err := h.controller.HandleMatchComplete(r.Context(), model.MatchID(req.MatchID), req.ServerSecret, model.PlayerID(req.Winner))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.WebhookResponse{
		Success: true,
		Status:  string(m.Status),
	})
}
