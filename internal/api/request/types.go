package request

// Register is the request body for player registration
type Register struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// Login is the request body for player login
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// JoinQueue is the request body for joining a matchmaking queue
type JoinQueue struct {
	GameMode string `json:"game_mode"`
}

// LeaveQueue is the request body for leaving a matchmaking queue
type LeaveQueue struct {
	GameMode string `json:"game_mode"`
}

// ServerReady is the webhook body posted when a game server comes up
type ServerReady struct {
	MatchID      string `json:"match_id"`
	ServerSecret string `json:"server_secret"`
}

// MatchComplete is the webhook body posted when a match finishes
type MatchComplete struct {
	MatchID      string `json:"match_id"`
	ServerSecret string `json:"server_secret"`
	Winner       string `json:"winner,omitempty"`
}
