package notify

import (
	"log/slog"
	"sync"

	"github.com/stratking/matchmaker/internal/model"
)

// Channel is a live push-channel to a single connected player
type Channel interface {
	// Send delivers an event to the player. It must not block; a full
	// buffer is reported as an error and the event is dropped
	Send(event model.Event) error

	// Close releases the channel. Safe to call more than once
	Close()
}

// Registry maps player identity to their live push-channel.
// Purely in-memory; connections do not survive restarts.
type Registry struct {
	mu       sync.RWMutex
	channels map[model.PlayerID]Channel
	logger   *slog.Logger

	// onDisconnect runs after a channel is unregistered, outside the
	// registry lock. Wired by the factory to queue removal
	onDisconnect func(model.PlayerID)
}

// NewRegistry creates an empty connection registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		channels: make(map[model.PlayerID]Channel),
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// SetDisconnectHook sets the callback invoked after Unregister removes a
// mapping. Must be called during wiring, before connections arrive.
func (r *Registry) SetDisconnectHook(fn func(model.PlayerID)) {
	r.onDisconnect = fn
}

// Register associates a channel with a player, superseding any prior
// channel for that player (last-writer-wins; a reconnect replaces a stale
// handle). The superseded channel is closed.
func (r *Registry) Register(playerID model.PlayerID, ch Channel) {
	r.mu.Lock()
	prior := r.channels[playerID]
	r.channels[playerID] = ch
	total := len(r.channels)
	r.mu.Unlock()

	if prior != nil {
		prior.Close()
		r.logger.Info("connection superseded", slog.String("player_id", string(playerID)))
	}
	r.logger.Info("connection registered",
		slog.String("player_id", string(playerID)),
		slog.Int("total_connections", total))
}

// Unregister removes the mapping for a player if ch is still the current
// channel, then fires the disconnect hook. A stale handle that was already
// superseded by a reconnect is ignored.
func (r *Registry) Unregister(playerID model.PlayerID, ch Channel) {
	r.mu.Lock()
	current, ok := r.channels[playerID]
	if !ok || (ch != nil && current != ch) {
		r.mu.Unlock()
		return
	}
	delete(r.channels, playerID)
	total := len(r.channels)
	r.mu.Unlock()

	current.Close()
	r.logger.Info("connection unregistered",
		slog.String("player_id", string(playerID)),
		slog.Int("total_connections", total))

	if r.onDisconnect != nil {
		r.onDisconnect(playerID)
	}
}

// Lookup returns the live channel for a player, if any
func (r *Registry) Lookup(playerID model.PlayerID) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[playerID]
	return ch, ok
}

// ConnectedPlayers returns the ids of every player with a live channel
func (r *Registry) ConnectedPlayers() []model.PlayerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]model.PlayerID, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	return ids
}
