package storage

import (
	"context"

	"github.com/stratking/matchmaker/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByUsername(ctx context.Context, username string) (*model.Player, error)

	// Credential operations
	SaveCredentials(ctx context.Context, creds *model.Credentials) error
	GetCredentialsByUsername(ctx context.Context, username string) (*model.Credentials, error)

	// Queue operations.
	// SaveQueueEntry assigns the entry a monotonically increasing Seq
	// before persisting it.
	SaveQueueEntry(ctx context.Context, entry *model.QueueEntry) error
	GetQueueEntry(ctx context.Context, id model.QueueEntryID) (*model.QueueEntry, error)
	GetQueueEntryByPlayer(ctx context.Context, playerID model.PlayerID, mode model.GameMode) (*model.QueueEntry, error)
	// OldestQueueEntries returns up to limit entries for mode, ordered by
	// (EnqueuedAt, Seq) ascending
	OldestQueueEntries(ctx context.Context, mode model.GameMode, limit int) ([]*model.QueueEntry, error)
	// ListQueueEntries returns every entry for mode in the same order
	ListQueueEntries(ctx context.Context, mode model.GameMode) ([]*model.QueueEntry, error)
	DeleteQueueEntries(ctx context.Context, ids ...model.QueueEntryID) error

	// Match operations. Matches are never deleted
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
}
