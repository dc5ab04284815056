package response

import (
	"time"

	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		Username:    p.Username,
		DisplayName: p.DisplayName,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// JoinQueueResponse is the response for queue join requests
type JoinQueueResponse struct {
	Success              bool   `json:"success"`
	Matched              bool   `json:"matched"`
	MatchID              string `json:"match_id,omitempty"`
	QueuePosition        int    `json:"queue_position,omitempty"`
	EstimatedWaitSeconds int    `json:"estimated_wait_seconds,omitempty"`
}

// LeaveQueueResponse is the response for queue leave requests
type LeaveQueueResponse struct {
	Success bool `json:"success"`
	Removed bool `json:"removed"`
}

// Match represents a match in API responses.
// The server secret is never exposed on the request path
type Match struct {
	ID         string    `json:"id"`
	Players    []string  `json:"players"`
	Status     string    `json:"status"`
	ServerHost string    `json:"server_host,omitempty"`
	ServerPort int       `json:"server_port,omitempty"`
	Winner     *string   `json:"winner"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MatchFromModel converts model.Match
func MatchFromModel(m *model.Match) Match {
	players := make([]string, len(m.PlayerIDs))
	for i, p := range m.PlayerIDs {
		players[i] = string(p)
	}

	var winner *string
	if m.Winner != "" {
		w := string(m.Winner)
		winner = &w
	}

	return Match{
		ID:         string(m.ID),
		Players:    players,
		Status:     string(m.Status),
		ServerHost: m.ServerHost,
		ServerPort: m.ServerPort,
		Winner:     winner,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// WebhookResponse is the acknowledgement for webhook callbacks
type WebhookResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}
