package model

// EventType identifies the type of event pushed to a player
type EventType string

const (
	// Connection events
	EventConnectionSuccess EventType = "connection_success"
	EventPong              EventType = "pong"
	EventError             EventType = "error"

	// Queue events
	EventQueueStatus EventType = "queue_status"

	// Match events
	EventMatchFound    EventType = "match_found"
	EventMatchFailed   EventType = "match_failed"
	EventServerReady   EventType = "server_ready"
	EventMatchComplete EventType = "match_complete"
)

// Event is the envelope for all events delivered over the real-time channel
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// ConnectionSuccessPayload is sent once after a channel authenticates
type ConnectionSuccessPayload struct {
	PlayerID PlayerID `json:"player_id"`
	Message  string   `json:"message"`
}

// ErrorPayload describes a rejected or malformed inbound message
type ErrorPayload struct {
	Message string `json:"message"`
}

// QueueStatusPayload reports a player's place in the queue.
// EstimatedWaitSeconds is position * 15 (fixed per-position cost model).
type QueueStatusPayload struct {
	GameMode             GameMode `json:"game_mode"`
	Position             int      `json:"position"`
	EstimatedWaitSeconds int      `json:"estimated_wait_seconds"`
}

// MatchFoundPayload notifies a player that they have been paired
type MatchFoundPayload struct {
	MatchID      MatchID     `json:"match_id"`
	Players      []PlayerID  `json:"players"`
	Status       MatchStatus `json:"status"`
	ServerHost   string      `json:"server_host,omitempty"`
	ServerPort   int         `json:"server_port,omitempty"`
	ServerSecret string      `json:"server_secret"`
}

// MatchFailedPayload notifies a player that provisioning their match failed
type MatchFailedPayload struct {
	MatchID MatchID `json:"match_id"`
	Error   string  `json:"error"`
}

// ServerReadyPayload notifies a player that their game server is reachable
type ServerReadyPayload struct {
	MatchID    MatchID `json:"match_id"`
	ServerHost string  `json:"server_host"`
	ServerPort int     `json:"server_port"`
}

// MatchCompletePayload notifies a player that their match finished
type MatchCompletePayload struct {
	MatchID MatchID  `json:"match_id"`
	Winner  PlayerID `json:"winner,omitempty"`
}
