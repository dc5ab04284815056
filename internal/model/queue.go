package model

import "time"

// GameMode names a matchmaking pool
type GameMode string

const (
	// GameMode1v1 is the two-player mode; currently the only recognized mode
	GameMode1v1 GameMode = "1v1"
)

// RecognizedGameModes lists every mode the queue manager accepts
func RecognizedGameModes() []GameMode {
	return []GameMode{GameMode1v1}
}

// IsRecognizedGameMode reports whether mode names a known matchmaking pool
func IsRecognizedGameMode(mode GameMode) bool {
	for _, m := range RecognizedGameModes() {
		if m == mode {
			return true
		}
	}
	return false
}

// QueueEntryID uniquely identifies a queue entry
type QueueEntryID string

// QueueEntry represents a player waiting in a matchmaking pool.
// At most one entry exists per (PlayerID, GameMode).
type QueueEntry struct {
	ID         QueueEntryID
	PlayerID   PlayerID
	GameMode   GameMode
	EnqueuedAt time.Time
	// Seq is a storage-assigned monotonic insertion sequence, used as the
	// deterministic tie-break when two entries share an EnqueuedAt
	Seq int64
}
