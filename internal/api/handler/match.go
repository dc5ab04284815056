package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stratking/matchmaker/internal/api/middleware"
	"github.com/stratking/matchmaker/internal/api/response"
	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/services/match"
)

// MatchHandler handles match query endpoints
type MatchHandler struct {
	controller *match.Controller
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(controller *match.Controller) *MatchHandler {
	return &MatchHandler{
		controller: controller,
	}
}

// GetMatch handles GET /api/v1/matches/{matchId}
// Only participants may view a match
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	matchID := model.MatchID(mux.Vars(r)["matchId"])

	m, err := h.controller.GetMatch(r.Context(), matchID)
	if err != nil {
		WriteError(w, err)
		return
	}

	if !m.HasPlayer(player.ID) {
		WriteError(w, NewForbiddenError("not a participant in this match"))
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}
