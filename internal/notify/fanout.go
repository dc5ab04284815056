package notify

import (
	"log/slog"

	"github.com/stratking/matchmaker/internal/model"
)

// Fanout delivers typed events to specific players, best-effort.
// If no live channel exists the event is silently dropped; a disconnected
// player learns the outcome via a later reconnect or the request path.
type Fanout struct {
	registry *Registry
	logger   *slog.Logger
}

// NewFanout creates a Fanout backed by the given registry
func NewFanout(registry *Registry, logger *slog.Logger) *Fanout {
	return &Fanout{
		registry: registry,
		logger:   logger.With(slog.String("component", "fanout")),
	}
}

// Notify sends an event to a single player. Fire-and-forget: a missing
// channel or a full send buffer is logged at debug level and never
// surfaced to the caller.
func (f *Fanout) Notify(playerID model.PlayerID, event model.Event) {
	ch, ok := f.registry.Lookup(playerID)
	if !ok {
		f.logger.Debug("event dropped, no live channel",
			slog.String("player_id", string(playerID)),
			slog.String("event_type", string(event.Type)))
		return
	}

	if err := ch.Send(event); err != nil {
		f.logger.Debug("event dropped, channel unavailable",
			slog.String("player_id", string(playerID)),
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()))
	}
}

// NotifyAll sends the same event to each listed player
func (f *Fanout) NotifyAll(playerIDs []model.PlayerID, event model.Event) {
	for _, id := range playerIDs {
		f.Notify(id, event)
	}
}
