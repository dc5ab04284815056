package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stratking/matchmaker/internal/api/middleware"
	"github.com/stratking/matchmaker/internal/api/request"
	"github.com/stratking/matchmaker/internal/api/response"
	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/services/match"
)

// MatchmakingHandler handles queue join and leave endpoints
type MatchmakingHandler struct {
	controller *match.Controller
}

// NewMatchmakingHandler creates a new matchmaking handler
func NewMatchmakingHandler(controller *match.Controller) *MatchmakingHandler {
	return &MatchmakingHandler{
		controller: controller,
	}
}

// JoinQueue handles POST /api/v1/matchmaking/join
func (h *MatchmakingHandler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.JoinQueue
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.GameMode == "" {
		WriteError(w, NewInvalidRequestError("game_mode is required"))
		return
	}

	status, err := h.controller.JoinQueue(r.Context(), player.ID, model.GameMode(req.GameMode))
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.JoinQueueResponse{
		Success: true,
		Matched: status.Matched,
	}
	if status.Matched {
		resp.MatchID = string(status.MatchID)
	} else {
		resp.QueuePosition = status.Position
		resp.EstimatedWaitSeconds = status.EstimatedWaitSeconds
	}

	response.JSON(w, http.StatusOK, resp)
}

// LeaveQueue handles POST /api/v1/matchmaking/leave
func (h *MatchmakingHandler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.LeaveQueue
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.GameMode == "" {
		WriteError(w, NewInvalidRequestError("game_mode is required"))
		return
	}

	removed, err := h.controller.LeaveQueue(r.Context(), player.ID, model.GameMode(req.GameMode))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaveQueueResponse{
		Success: true,
		Removed: removed,
	})
}
