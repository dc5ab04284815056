package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/stratking/matchmaker/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		Username:    "alice",
		DisplayName: "Alice",
		CreatedAt:   time.Now(),
	}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.DisplayName, retrieved.DisplayName)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGetPlayerByUsername() {
	player := &model.Player{ID: "player-1", Username: "alice", DisplayName: "Alice"}
	_ = s.storage.SavePlayer(s.ctx, player)

	retrieved, err := s.storage.GetPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.ID)
}

func (s *StorageSuite) TestGetPlayerByUsernameNotFound() {
	_, err := s.storage.GetPlayerByUsername(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Credential tests

func (s *StorageSuite) TestSaveAndGetCredentials() {
	creds := &model.Credentials{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    time.Now(),
	}

	err := s.storage.SaveCredentials(s.ctx, creds)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetCredentialsByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.PlayerID)
	s.Equal("hash123", retrieved.PasswordHash)
}

func (s *StorageSuite) TestGetCredentialsByUsernameNotFound() {
	_, err := s.storage.GetCredentialsByUsername(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Queue entry tests

func (s *StorageSuite) queueEntry(id, playerID string, at time.Time) *model.QueueEntry {
	return &model.QueueEntry{
		ID:         model.QueueEntryID(id),
		PlayerID:   model.PlayerID(playerID),
		GameMode:   model.GameMode1v1,
		EnqueuedAt: at,
	}
}

func (s *StorageSuite) TestSaveQueueEntryAssignsSeq() {
	now := time.Now()
	e1 := s.queueEntry("q-1", "player-1", now)
	e2 := s.queueEntry("q-2", "player-2", now)

	s.Require().NoError(s.storage.SaveQueueEntry(s.ctx, e1))
	s.Require().NoError(s.storage.SaveQueueEntry(s.ctx, e2))

	s.NotZero(e1.Seq)
	s.NotZero(e2.Seq)
	s.Less(e1.Seq, e2.Seq)
}

func (s *StorageSuite) TestGetQueueEntry() {
	e := s.queueEntry("q-1", "player-1", time.Now())
	_ = s.storage.SaveQueueEntry(s.ctx, e)

	retrieved, err := s.storage.GetQueueEntry(s.ctx, "q-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.PlayerID)
}

func (s *StorageSuite) TestGetQueueEntryNotFound() {
	_, err := s.storage.GetQueueEntry(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrQueueEntryNotFound)
}

func (s *StorageSuite) TestGetQueueEntryByPlayer() {
	e := s.queueEntry("q-1", "player-1", time.Now())
	_ = s.storage.SaveQueueEntry(s.ctx, e)

	retrieved, err := s.storage.GetQueueEntryByPlayer(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)
	s.Equal(model.QueueEntryID("q-1"), retrieved.ID)

	_, err = s.storage.GetQueueEntryByPlayer(s.ctx, "player-2", model.GameMode1v1)
	s.ErrorIs(err, model.ErrQueueEntryNotFound)
}

func (s *StorageSuite) TestListQueueEntriesOrderedByEnqueueTime() {
	now := time.Now()
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-2", "player-2", now.Add(time.Second)))
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-1", "player-1", now))
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-3", "player-3", now.Add(2*time.Second)))

	entries, err := s.storage.ListQueueEntries(s.ctx, model.GameMode1v1)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(model.QueueEntryID("q-1"), entries[0].ID)
	s.Equal(model.QueueEntryID("q-2"), entries[1].ID)
	s.Equal(model.QueueEntryID("q-3"), entries[2].ID)
}

func (s *StorageSuite) TestListQueueEntriesBreaksTiesBySeq() {
	// Same enqueue time: insertion order decides
	now := time.Now()
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-1", "player-1", now))
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-2", "player-2", now))

	entries, err := s.storage.ListQueueEntries(s.ctx, model.GameMode1v1)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(model.QueueEntryID("q-1"), entries[0].ID)
	s.Equal(model.QueueEntryID("q-2"), entries[1].ID)
}

func (s *StorageSuite) TestOldestQueueEntriesRespectsLimit() {
	now := time.Now()
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-1", "player-1", now))
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-2", "player-2", now.Add(time.Second)))
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-3", "player-3", now.Add(2*time.Second)))

	entries, err := s.storage.OldestQueueEntries(s.ctx, model.GameMode1v1, 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(model.QueueEntryID("q-1"), entries[0].ID)
	s.Equal(model.QueueEntryID("q-2"), entries[1].ID)
}

func (s *StorageSuite) TestOldestQueueEntriesFewerThanLimit() {
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-1", "player-1", time.Now()))

	entries, err := s.storage.OldestQueueEntries(s.ctx, model.GameMode1v1, 2)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *StorageSuite) TestDeleteQueueEntries() {
	now := time.Now()
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-1", "player-1", now))
	_ = s.storage.SaveQueueEntry(s.ctx, s.queueEntry("q-2", "player-2", now))

	err := s.storage.DeleteQueueEntries(s.ctx, "q-1", "q-2")
	s.Require().NoError(err)

	entries, err := s.storage.ListQueueEntries(s.ctx, model.GameMode1v1)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *StorageSuite) TestDeleteQueueEntriesMissingIsNoop() {
	err := s.storage.DeleteQueueEntries(s.ctx, "nonexistent")
	s.NoError(err)
}

// Match tests

func (s *StorageSuite) TestSaveAndGetMatch() {
	match := &model.Match{
		ID:           "match-1",
		PlayerIDs:    []model.PlayerID{"player-1", "player-2"},
		Status:       model.MatchStatusPending,
		ServerSecret: "secret",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err := s.storage.SaveMatch(s.ctx, match)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(match.ID, retrieved.ID)
	s.Equal(match.PlayerIDs, retrieved.PlayerIDs)
	s.Equal(model.MatchStatusPending, retrieved.Status)
}

func (s *StorageSuite) TestMatchSnapshotsAreIndependent() {
	match := &model.Match{
		ID:        "match-1",
		PlayerIDs: []model.PlayerID{"player-1", "player-2"},
		Status:    model.MatchStatusPending,
	}
	s.Require().NoError(s.storage.SaveMatch(s.ctx, match))

	// Mutating the saved struct must not touch the stored copy
	match.Status = model.MatchStatusFailed
	retrieved, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusPending, retrieved.Status)

	// Nor does mutating a retrieved struct
	retrieved.Status = model.MatchStatusActive
	retrieved.PlayerIDs[0] = "intruder"
	again, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusPending, again.Status)
	s.Equal([]model.PlayerID{"player-1", "player-2"}, again.PlayerIDs)
}

func (s *StorageSuite) TestGetMatchNotFound() {
	_, err := s.storage.GetMatch(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestUpdateMatch() {
	match := &model.Match{
		ID:        "match-1",
		PlayerIDs: []model.PlayerID{"player-1", "player-2"},
		Status:    model.MatchStatusPending,
	}
	_ = s.storage.SaveMatch(s.ctx, match)

	match.Status = model.MatchStatusActive
	match.ServerHost = "localhost"
	match.ServerPort = 5001
	s.Require().NoError(s.storage.SaveMatch(s.ctx, match))

	retrieved, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusActive, retrieved.Status)
	s.Equal("localhost", retrieved.ServerHost)
	s.Equal(5001, retrieved.ServerPort)
}
