package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players       map[model.PlayerID]*model.Player
	usernameIndex map[string]model.PlayerID
	credentials   map[string]*model.Credentials
	queueEntries  map[model.QueueEntryID]*model.QueueEntry
	matches       map[model.MatchID]*model.Match

	nextSeq int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:       make(map[model.PlayerID]*model.Player),
		usernameIndex: make(map[string]model.PlayerID),
		credentials:   make(map[string]*model.Credentials),
		queueEntries:  make(map[model.QueueEntryID]*model.QueueEntry),
		matches:       make(map[model.MatchID]*model.Match),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	s.usernameIndex[player.Username] = player.ID
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) GetPlayerByUsername(ctx context.Context, username string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[creds.Username] = creds
	return nil
}

func (s *Storage) GetCredentialsByUsername(ctx context.Context, username string) (*model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.credentials[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return creds, nil
}

// Queue operations

func (s *Storage) SaveQueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Seq == 0 {
		s.nextSeq++
		entry.Seq = s.nextSeq
	}
	s.queueEntries[entry.ID] = entry
	return nil
}

func (s *Storage) GetQueueEntry(ctx context.Context, id model.QueueEntryID) (*model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.queueEntries[id]
	if !ok {
		return nil, model.ErrQueueEntryNotFound
	}
	return entry, nil
}

func (s *Storage) GetQueueEntryByPlayer(ctx context.Context, playerID model.PlayerID, mode model.GameMode) (*model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.queueEntries {
		if entry.PlayerID == playerID && entry.GameMode == mode {
			return entry, nil
		}
	}
	return nil, model.ErrQueueEntryNotFound
}

func (s *Storage) OldestQueueEntries(ctx context.Context, mode model.GameMode, limit int) ([]*model.QueueEntry, error) {
	entries, err := s.ListQueueEntries(ctx, mode)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Storage) ListQueueEntries(ctx context.Context, mode model.GameMode) ([]*model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*model.QueueEntry
	for _, entry := range s.queueEntries {
		if entry.GameMode == mode {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EnqueuedAt.Equal(entries[j].EnqueuedAt) {
			return entries[i].EnqueuedAt.Before(entries[j].EnqueuedAt)
		}
		return entries[i].Seq < entries[j].Seq
	})
	return entries, nil
}

func (s *Storage) DeleteQueueEntries(ctx context.Context, ids ...model.QueueEntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.queueEntries, id)
	}
	return nil
}

// Match operations

// Matches are stored and returned as copies. Provisioning mutates match
// structs from a background goroutine while handlers marshal their own
// snapshots, so the stored struct must never be shared
func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID] = copyMatch(match)
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return copyMatch(match), nil
}

func copyMatch(m *model.Match) *model.Match {
	out := *m
	out.PlayerIDs = append([]model.PlayerID(nil), m.PlayerIDs...)
	return &out
}
