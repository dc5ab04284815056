package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Queue errors
	ErrUnknownGameMode    = errors.New("unknown game mode")
	ErrAlreadyQueued      = errors.New("player is already queued for this mode")
	ErrQueueEntryNotFound = errors.New("queue entry not found")

	// Match errors
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchStateConflict  = errors.New("match is not in a state that allows this transition")
	ErrInvalidServerSecret = errors.New("server secret does not match")
	ErrSelfPairing         = errors.New("a match requires two distinct players")
)
