package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// MatchStatus is the state of a match in its lifecycle
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusSpawning  MatchStatus = "spawning"
	MatchStatusActive    MatchStatus = "active"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusFailed    MatchStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusFailed
}

// Match represents a two-player match and its provisioned game server.
// Matches are never deleted; terminal states are retained for audit.
type Match struct {
	ID MatchID
	// PlayerIDs always holds exactly two distinct players, in pairing order
	PlayerIDs []PlayerID
	Status    MatchStatus
	// ServerSecret authenticates the game server's webhook callbacks
	ServerSecret   string
	ServerHost     string
	ServerPort     int
	ProvisionerRef string
	// Winner is set when the match completes, if one was reported
	Winner    PlayerID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPlayer reports whether id is one of the match participants
func (m *Match) HasPlayer(id PlayerID) bool {
	for _, p := range m.PlayerIDs {
		if p == id {
			return true
		}
	}
	return false
}
