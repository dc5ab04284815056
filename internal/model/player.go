package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents a game participant
type Player struct {
	ID          PlayerID
	Username    string
	DisplayName string
	CreatedAt   time.Time
}

// Credentials holds a player's authentication data
// Stored separately so the password hash never travels with the player row
type Credentials struct {
	PlayerID     PlayerID
	Username     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}
