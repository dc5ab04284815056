package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, playerKey(player.ID), data, s.cfg.PlayerTTL)
	pipe.Set(ctx, usernameIndexKey(player.Username), string(player.ID), s.cfg.PlayerTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByUsername(ctx context.Context, username string) (*model.Player, error) {
	idStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(idStr))
}

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, credentialsKey(creds.Username), data, 0).Err()
}

func (s *Storage) GetCredentialsByUsername(ctx context.Context, username string) (*model.Credentials, error) {
	data, err := s.client.Get(ctx, credentialsKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var creds model.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Queue operations
//
// Queue ordering uses a per-mode ZSET scored by the insertion sequence.
// EnqueuedAt is assigned under the manager's per-mode lock immediately before
// the insert, so sequence order and (EnqueuedAt, Seq) order coincide.

func (s *Storage) SaveQueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	if entry.Seq == 0 {
		seq, err := s.client.Incr(ctx, seqCounterKey()).Result()
		if err != nil {
			return err
		}
		entry.Seq = seq
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, queueEntryKey(entry.ID), data, 0)
	pipe.ZAdd(ctx, queueIndexKey(entry.GameMode), redis.Z{
		Score:  float64(entry.Seq),
		Member: string(entry.ID),
	})
	pipe.Set(ctx, queuePlayerIndexKey(entry.PlayerID, entry.GameMode), string(entry.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetQueueEntry(ctx context.Context, id model.QueueEntryID) (*model.QueueEntry, error) {
	data, err := s.client.Get(ctx, queueEntryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrQueueEntryNotFound
		}
		return nil, err
	}

	var entry model.QueueEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Storage) GetQueueEntryByPlayer(ctx context.Context, playerID model.PlayerID, mode model.GameMode) (*model.QueueEntry, error) {
	idStr, err := s.client.Get(ctx, queuePlayerIndexKey(playerID, mode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrQueueEntryNotFound
		}
		return nil, err
	}
	return s.GetQueueEntry(ctx, model.QueueEntryID(idStr))
}

func (s *Storage) OldestQueueEntries(ctx context.Context, mode model.GameMode, limit int) ([]*model.QueueEntry, error) {
	if limit == 0 {
		return nil, nil
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	return s.rangeQueueEntries(ctx, mode, stop)
}

func (s *Storage) ListQueueEntries(ctx context.Context, mode model.GameMode) ([]*model.QueueEntry, error) {
	return s.rangeQueueEntries(ctx, mode, -1)
}

func (s *Storage) rangeQueueEntries(ctx context.Context, mode model.GameMode, stop int64) ([]*model.QueueEntry, error) {
	ids, err := s.client.ZRange(ctx, queueIndexKey(mode), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.QueueEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.GetQueueEntry(ctx, model.QueueEntryID(id))
		if err != nil {
			// Index can briefly lead the entry keys during deletes; skip holes
			if errors.Is(err, model.ErrQueueEntryNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Storage) DeleteQueueEntries(ctx context.Context, ids ...model.QueueEntryID) error {
	if len(ids) == 0 {
		return nil
	}

	// Fetch entries first to learn their index keys
	entries := make([]*model.QueueEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.GetQueueEntry(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrQueueEntryNotFound) {
				continue
			}
			return err
		}
		entries = append(entries, entry)
	}

	pipe := s.client.Pipeline()
	for _, entry := range entries {
		pipe.Del(ctx, queueEntryKey(entry.ID))
		pipe.ZRem(ctx, queueIndexKey(entry.GameMode), string(entry.ID))
		pipe.Del(ctx, queuePlayerIndexKey(entry.PlayerID, entry.GameMode))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}
	// Matches are retained for audit; no TTL
	return s.client.Set(ctx, matchKey(match.ID), data, 0).Err()
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	var match model.Match
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, err
	}
	return &match, nil
}
