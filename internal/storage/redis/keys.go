package redis

import (
	"fmt"

	"github.com/stratking/matchmaker/internal/model"
)

// Key prefix for all matchmaker data
const keyPrefix = "matchmaker"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// credentialsKey returns the Redis key for a player's Credentials
func credentialsKey(username string) string {
	return fmt.Sprintf("%s:credentials:%s", keyPrefix, username)
}

// queueEntryKey returns the Redis key for a QueueEntry
func queueEntryKey(id model.QueueEntryID) string {
	return fmt.Sprintf("%s:queue_entry:%s", keyPrefix, id)
}

// queueIndexKey returns the Redis key for the per-mode ZSET ordering
// queue entries by insertion sequence
func queueIndexKey(mode model.GameMode) string {
	return fmt.Sprintf("%s:idx:queue:%s", keyPrefix, mode)
}

// queuePlayerIndexKey returns the Redis key for the (player, mode) -> entry id index
func queuePlayerIndexKey(playerID model.PlayerID, mode model.GameMode) string {
	return fmt.Sprintf("%s:idx:queue_player:%s:%s", keyPrefix, mode, playerID)
}

// matchKey returns the Redis key for a Match
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// seqCounterKey returns the Redis key for the queue insertion sequence counter
func seqCounterKey() string {
	return fmt.Sprintf("%s:queue_seq", keyPrefix)
}
