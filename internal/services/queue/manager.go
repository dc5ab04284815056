package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/stratking/matchmaker/internal/dependencies/clock"
	"github.com/stratking/matchmaker/internal/dependencies/random"
	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/storage"
)

const (
	// entryIDLength is the length of generated queue entry ids
	entryIDLength = 12
	// entryIDAlphabet is the characters used in queue entry ids
	entryIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Pair is the result of a successful pairing pass: exactly two queue
// entries, removed from the queue, in enqueue order
type Pair struct {
	GameMode model.GameMode
	Entries  [2]*model.QueueEntry
}

// PlayerIDs returns the paired players in enqueue order
func (p *Pair) PlayerIDs() []model.PlayerID {
	return []model.PlayerID{p.Entries[0].PlayerID, p.Entries[1].PlayerID}
}

// Manager owns queue admission, removal, and the pairing algorithm.
// Pairing passes for a mode are serialized by a per-mode mutex; the
// critical section is a pure store read+delete with no external calls.
type Manager struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	modeLocks map[model.GameMode]*sync.Mutex
}

// NewManager creates a new queue Manager
func NewManager(storage storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Manager {
	locks := make(map[model.GameMode]*sync.Mutex, len(model.RecognizedGameModes()))
	for _, mode := range model.RecognizedGameModes() {
		locks[mode] = &sync.Mutex{}
	}
	return &Manager{
		storage:   storage,
		clock:     clk,
		random:    rnd,
		logger:    logger.With(slog.String("component", "queue")),
		modeLocks: locks,
	}
}

// Join admits a player to the queue for a mode and runs a pairing pass
// before returning. On success it returns either the formed Pair (the
// joining player was matched immediately) or the player's 1-based queue
// position. A second join for the same (player, mode) fails with
// ErrAlreadyQueued; an unrecognized mode fails with ErrUnknownGameMode.
func (m *Manager) Join(ctx context.Context, playerID model.PlayerID, mode model.GameMode) (*Pair, int, error) {
	lock, ok := m.modeLocks[mode]
	if !ok {
		return nil, 0, model.ErrUnknownGameMode
	}

	lock.Lock()
	defer lock.Unlock()

	_, err := m.storage.GetQueueEntryByPlayer(ctx, playerID, mode)
	if err == nil {
		return nil, 0, model.ErrAlreadyQueued
	}
	if !errors.Is(err, model.ErrQueueEntryNotFound) {
		return nil, 0, err
	}

	entry := &model.QueueEntry{
		ID:         model.QueueEntryID("q_" + m.random.String(entryIDLength, entryIDAlphabet)),
		PlayerID:   playerID,
		GameMode:   mode,
		EnqueuedAt: m.clock.Now(),
	}
	if err := m.storage.SaveQueueEntry(ctx, entry); err != nil {
		return nil, 0, err
	}

	m.logger.Info("player queued",
		slog.String("player_id", string(playerID)),
		slog.String("game_mode", string(mode)))

	pair, err := m.attemptPairingLocked(ctx, mode)
	if err != nil {
		return nil, 0, err
	}
	if pair != nil {
		return pair, 0, nil
	}

	position, err := m.positionLocked(ctx, playerID, mode)
	if err != nil {
		return nil, 0, err
	}
	return nil, position, nil
}

// Leave removes a player's queue entry for a mode if present.
// Idempotent: leaving while not queued reports removed=false, never an error.
func (m *Manager) Leave(ctx context.Context, playerID model.PlayerID, mode model.GameMode) (bool, error) {
	lock, ok := m.modeLocks[mode]
	if !ok {
		return false, nil
	}

	lock.Lock()
	defer lock.Unlock()

	entry, err := m.storage.GetQueueEntryByPlayer(ctx, playerID, mode)
	if err != nil {
		if errors.Is(err, model.ErrQueueEntryNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := m.storage.DeleteQueueEntries(ctx, entry.ID); err != nil {
		return false, err
	}

	m.logger.Info("player left queue",
		slog.String("player_id", string(playerID)),
		slog.String("game_mode", string(mode)))
	return true, nil
}

// LeaveAll removes a player's queue entries in every recognized mode.
// Used on connection loss; failures are logged, not propagated.
func (m *Manager) LeaveAll(ctx context.Context, playerID model.PlayerID) []model.GameMode {
	var removed []model.GameMode
	for _, mode := range model.RecognizedGameModes() {
		ok, err := m.Leave(ctx, playerID, mode)
		if err != nil {
			m.logger.Error("queue removal on disconnect failed",
				slog.String("player_id", string(playerID)),
				slog.String("game_mode", string(mode)),
				slog.String("error", err.Error()))
			continue
		}
		if ok {
			removed = append(removed, mode)
		}
	}
	return removed
}

// AttemptPairing runs one pairing pass for a mode. If at least two
// eligible entries exist it atomically consumes exactly the two oldest
// and returns them; otherwise it is a no-op.
func (m *Manager) AttemptPairing(ctx context.Context, mode model.GameMode) (*Pair, error) {
	lock, ok := m.modeLocks[mode]
	if !ok {
		return nil, model.ErrUnknownGameMode
	}

	lock.Lock()
	defer lock.Unlock()
	return m.attemptPairingLocked(ctx, mode)
}

// attemptPairingLocked is the pairing critical section. Callers must hold
// the mode lock.
func (m *Manager) attemptPairingLocked(ctx context.Context, mode model.GameMode) (*Pair, error) {
	entries, err := m.storage.OldestQueueEntries(ctx, mode, 2)
	if err != nil {
		return nil, err
	}
	if len(entries) < 2 {
		return nil, nil
	}

	// A single player holding both oldest entries is a data anomaly;
	// abort without consuming rather than form a self-match
	if entries[0].PlayerID == entries[1].PlayerID {
		m.logger.Warn("pairing pass aborted, duplicate player in queue",
			slog.String("player_id", string(entries[0].PlayerID)),
			slog.String("game_mode", string(mode)))
		return nil, nil
	}

	if err := m.storage.DeleteQueueEntries(ctx, entries[0].ID, entries[1].ID); err != nil {
		return nil, err
	}

	m.logger.Info("pair formed",
		slog.String("player_a", string(entries[0].PlayerID)),
		slog.String("player_b", string(entries[1].PlayerID)),
		slog.String("game_mode", string(mode)))

	return &Pair{
		GameMode: mode,
		Entries:  [2]*model.QueueEntry{entries[0], entries[1]},
	}, nil
}

// Waiting returns the queued entries for a mode in pairing order
func (m *Manager) Waiting(ctx context.Context, mode model.GameMode) ([]*model.QueueEntry, error) {
	if !model.IsRecognizedGameMode(mode) {
		return nil, model.ErrUnknownGameMode
	}
	return m.storage.ListQueueEntries(ctx, mode)
}

func (m *Manager) positionLocked(ctx context.Context, playerID model.PlayerID, mode model.GameMode) (int, error) {
	entries, err := m.storage.ListQueueEntries(ctx, mode)
	if err != nil {
		return 0, err
	}
	for i, entry := range entries {
		if entry.PlayerID == playerID {
			return i + 1, nil
		}
	}
	return 0, model.ErrQueueEntryNotFound
}
