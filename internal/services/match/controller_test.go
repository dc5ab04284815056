package match

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/stratking/matchmaker/internal/dependencies/mocks"
	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/notify"
	"github.com/stratking/matchmaker/internal/provision"
	"github.com/stratking/matchmaker/internal/services/queue"
	"github.com/stratking/matchmaker/internal/storage/memory"
	redisstorage "github.com/stratking/matchmaker/internal/storage/redis"
	"github.com/stratking/matchmaker/internal/testutil"
)

// captureChannel records every event pushed to a player
type captureChannel struct {
	mu     sync.Mutex
	events []model.Event
}

func (c *captureChannel) Send(event model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureChannel) Close() {}

func (c *captureChannel) Events() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *captureChannel) EventsOfType(t model.EventType) []model.Event {
	var out []model.Event
	for _, ev := range c.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type ControllerSuite struct {
	suite.Suite
	storage     *memory.Storage
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	provisioner *provision.MockProvisioner
	registry    *notify.Registry
	queue       *queue.Manager
	controller  *Controller
	ctx         context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.provisioner = provision.NewMockProvisioner()
	s.registry = notify.NewRegistry(logger)
	s.queue = queue.NewManager(s.storage, s.clock, s.random, logger)
	fanout := notify.NewFanout(s.registry, logger)
	s.controller = NewController(s.storage, s.queue, s.provisioner, fanout, s.clock, s.random, DefaultConfig(), logger)
	s.ctx = context.Background()
}

// connect registers a capture channel for a player
func (s *ControllerSuite) connect(playerID model.PlayerID) *captureChannel {
	ch := &captureChannel{}
	s.registry.Register(playerID, ch)
	return ch
}

// queuePairRandoms queues the ids consumed by two joins that pair:
// two queue entry ids, the match id, and the server secret
func (s *ControllerSuite) queuePairRandoms(matchID string) {
	s.random.QueueString("entrya", "entryb", matchID)
	s.random.QueueHex("a1b2c3d4e5f60718293a4b5c6d7e8f90")
}

// matchedPair joins two players, returning the created match
func (s *ControllerSuite) matchedPair(a, b model.PlayerID) *model.Match {
	s.queuePairRandoms("match1")

	_, err := s.controller.JoinQueue(s.ctx, a, model.GameMode1v1)
	s.Require().NoError(err)

	status, err := s.controller.JoinQueue(s.ctx, b, model.GameMode1v1)
	s.Require().NoError(err)
	s.Require().True(status.Matched)

	s.controller.Wait()

	m, err := s.storage.GetMatch(s.ctx, status.MatchID)
	s.Require().NoError(err)
	return m
}

// JoinQueue tests

func (s *ControllerSuite) TestJoinQueueFirstPlayerWaits() {
	ch := s.connect("player-1")
	s.random.QueueString("entrya")

	status, err := s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)
	s.False(status.Matched)
	s.Equal(1, status.Position)
	s.Equal(15, status.EstimatedWaitSeconds)

	// Waiting players get a queue_status push
	events := ch.EventsOfType(model.EventQueueStatus)
	s.Require().Len(events, 1)
	payload := events[0].Data.(model.QueueStatusPayload)
	s.Equal(1, payload.Position)
	s.Equal(15, payload.EstimatedWaitSeconds)
}

func (s *ControllerSuite) TestJoinQueueSecondPlayerCreatesMatch() {
	chA := s.connect("player-1")
	chB := s.connect("player-2")

	m := s.matchedPair("player-1", "player-2")

	s.Equal(model.MatchID("m_match1"), m.ID)
	s.Equal([]model.PlayerID{"player-1", "player-2"}, m.PlayerIDs)
	s.NotEmpty(m.ServerSecret)

	// Both players are told about the match, secret included
	for _, ch := range []*captureChannel{chA, chB} {
		events := ch.EventsOfType(model.EventMatchFound)
		s.Require().Len(events, 1)
		payload := events[0].Data.(model.MatchFoundPayload)
		s.Equal(m.ID, payload.MatchID)
		s.Equal(m.PlayerIDs, payload.Players)
		s.Equal(m.ServerSecret, payload.ServerSecret)
	}
}

func (s *ControllerSuite) TestJoinQueueProvisionsGameServer() {
	m := s.matchedPair("player-1", "player-2")

	s.Equal(model.MatchStatusSpawning, m.Status)
	s.Equal("localhost", m.ServerHost)
	s.Equal(5001, m.ServerPort)
	s.NotEmpty(m.ProvisionerRef)
	s.Equal([]model.MatchID{m.ID}, s.provisioner.Provisioned())
}

func (s *ControllerSuite) TestJoinQueueDuplicateRejected() {
	s.random.QueueString("entrya")
	_, err := s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)

	_, err = s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	s.ErrorIs(err, model.ErrAlreadyQueued)
}

func (s *ControllerSuite) TestJoinQueueUnknownMode() {
	_, err := s.controller.JoinQueue(s.ctx, "player-1", "capture-the-flag")
	s.ErrorIs(err, model.ErrUnknownGameMode)
}

func (s *ControllerSuite) TestJoinQueueRefreshesWaitingPositions() {
	chA := s.connect("player-1")
	s.random.QueueString("entrya", "entryb", "entryc")

	_, _ = s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().Len(chA.EventsOfType(model.EventQueueStatus), 1)

	// A third player joining after a pair forms leaves only themselves
	// waiting; player-1 receives no further refreshes once matched
	_, _ = s.controller.JoinQueue(s.ctx, "player-2", model.GameMode1v1)
	s.controller.Wait()

	chC := s.connect("player-3")
	_, _ = s.controller.JoinQueue(s.ctx, "player-3", model.GameMode1v1)

	events := chC.EventsOfType(model.EventQueueStatus)
	s.Require().Len(events, 1)
	s.Equal(1, events[0].Data.(model.QueueStatusPayload).Position)
}

// Provisioning failure tests

func (s *ControllerSuite) TestProvisionFailureFailsMatch() {
	chA := s.connect("player-1")
	s.provisioner.Err = errors.New("image pull failed")

	m := s.matchedPair("player-1", "player-2")

	s.Equal(model.MatchStatusFailed, m.Status)

	events := chA.EventsOfType(model.EventMatchFailed)
	s.Require().Len(events, 1)
	payload := events[0].Data.(model.MatchFailedPayload)
	s.Equal(m.ID, payload.MatchID)
	s.Contains(payload.Error, "image pull failed")
}

func (s *ControllerSuite) TestProvisionFailureDoesNotRestoreQueue() {
	s.provisioner.Err = errors.New("image pull failed")

	s.matchedPair("player-1", "player-2")

	entries, err := s.queue.Waiting(s.ctx, model.GameMode1v1)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ControllerSuite) TestProvisionTimeoutFailsMatch() {
	logger := testutil.NopLogger()
	fanout := notify.NewFanout(s.registry, logger)
	cfg := Config{ProvisionTimeout: 20 * time.Millisecond, TeardownTimeout: time.Second}
	s.controller = NewController(s.storage, s.queue, s.provisioner, fanout, s.clock, s.random, cfg, logger)

	// Hold provisioning open past the deadline
	s.provisioner.Block = make(chan struct{})
	chA := s.connect("player-1")

	m := s.matchedPair("player-1", "player-2")

	s.Equal(model.MatchStatusFailed, m.Status)

	events := chA.EventsOfType(model.EventMatchFailed)
	s.Require().Len(events, 1)
	s.Contains(events[0].Data.(model.MatchFailedPayload).Error, "timed out")
}

// A timed-out Provision call must still land the failed transition even
// when the storage backend honors context deadlines
func (s *ControllerSuite) TestProvisionTimeoutFailsMatchOnRedis() {
	mini := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	store := redisstorage.NewWithClient(client, redisstorage.DefaultConfig())

	logger := testutil.NopLogger()
	s.queue = queue.NewManager(store, s.clock, s.random, logger)
	fanout := notify.NewFanout(s.registry, logger)
	cfg := Config{ProvisionTimeout: 20 * time.Millisecond, TeardownTimeout: time.Second}
	s.controller = NewController(store, s.queue, s.provisioner, fanout, s.clock, s.random, cfg, logger)

	s.provisioner.Block = make(chan struct{})
	chA := s.connect("player-1")

	s.queuePairRandoms("match1")
	_, err := s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)
	status, err := s.controller.JoinQueue(s.ctx, "player-2", model.GameMode1v1)
	s.Require().NoError(err)
	s.Require().True(status.Matched)

	s.controller.Wait()

	m, err := store.GetMatch(s.ctx, status.MatchID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusFailed, m.Status)

	events := chA.EventsOfType(model.EventMatchFailed)
	s.Require().Len(events, 1)
	s.Contains(events[0].Data.(model.MatchFailedPayload).Error, "timed out")
}

func (s *ControllerSuite) TestFailedMatchIsTerminal() {
	s.provisioner.Err = errors.New("boom")
	m := s.matchedPair("player-1", "player-2")
	s.Require().Equal(model.MatchStatusFailed, m.Status)

	_, err := s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.ErrorIs(err, model.ErrMatchStateConflict)
}

// StartMatch tests

func (s *ControllerSuite) TestStartMatchRejectsSelfPair() {
	entry := func(id model.QueueEntryID) *model.QueueEntry {
		return &model.QueueEntry{ID: id, PlayerID: "player-1", GameMode: model.GameMode1v1}
	}
	pair := &queue.Pair{
		GameMode: model.GameMode1v1,
		Entries:  [2]*model.QueueEntry{entry("q-1"), entry("q-2")},
	}

	_, err := s.controller.StartMatch(s.ctx, pair)
	s.ErrorIs(err, model.ErrSelfPairing)
}

// HandleServerReady tests

func (s *ControllerSuite) TestHandleServerReadyActivatesMatch() {
	chA := s.connect("player-1")
	m := s.matchedPair("player-1", "player-2")

	activated, err := s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusActive, activated.Status)

	events := chA.EventsOfType(model.EventServerReady)
	s.Require().Len(events, 1)
	payload := events[0].Data.(model.ServerReadyPayload)
	s.Equal(m.ID, payload.MatchID)
	s.Equal("localhost", payload.ServerHost)
	s.Equal(5001, payload.ServerPort)
}

func (s *ControllerSuite) TestHandleServerReadyUnknownMatch() {
	_, err := s.controller.HandleServerReady(s.ctx, "m_nonexistent", "secret")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *ControllerSuite) TestHandleServerReadyWrongSecret() {
	m := s.matchedPair("player-1", "player-2")

	_, err := s.controller.HandleServerReady(s.ctx, m.ID, "wrong-secret")
	s.ErrorIs(err, model.ErrInvalidServerSecret)

	// Rejection has no side effects
	reloaded, loadErr := s.storage.GetMatch(s.ctx, m.ID)
	s.Require().NoError(loadErr)
	s.Equal(model.MatchStatusSpawning, reloaded.Status)
}

func (s *ControllerSuite) TestHandleServerReadyTwiceConflicts() {
	m := s.matchedPair("player-1", "player-2")

	_, err := s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.Require().NoError(err)

	_, err = s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.ErrorIs(err, model.ErrMatchStateConflict)
}

// HandleMatchComplete tests

func (s *ControllerSuite) TestHandleMatchCompleteRecordsWinner() {
	chB := s.connect("player-2")
	m := s.matchedPair("player-1", "player-2")

	_, err := s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.Require().NoError(err)

	completed, err := s.controller.HandleMatchComplete(s.ctx, m.ID, m.ServerSecret, "player-2")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusCompleted, completed.Status)
	s.Equal(model.PlayerID("player-2"), completed.Winner)

	events := chB.EventsOfType(model.EventMatchComplete)
	s.Require().Len(events, 1)
	payload := events[0].Data.(model.MatchCompletePayload)
	s.Equal(m.ID, payload.MatchID)
	s.Equal(model.PlayerID("player-2"), payload.Winner)
}

func (s *ControllerSuite) TestHandleMatchCompleteWithoutWinner() {
	m := s.matchedPair("player-1", "player-2")
	_, err := s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.Require().NoError(err)

	completed, err := s.controller.HandleMatchComplete(s.ctx, m.ID, m.ServerSecret, "")
	s.Require().NoError(err)
	s.Equal(model.MatchStatusCompleted, completed.Status)
	s.Empty(completed.Winner)
}

func (s *ControllerSuite) TestHandleMatchCompleteTearsDownServer() {
	m := s.matchedPair("player-1", "player-2")
	_, err := s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.Require().NoError(err)

	_, err = s.controller.HandleMatchComplete(s.ctx, m.ID, m.ServerSecret, "player-1")
	s.Require().NoError(err)
	s.controller.Wait()

	s.Equal([]string{m.ProvisionerRef}, s.provisioner.TornDown())
}

func (s *ControllerSuite) TestHandleMatchCompleteBeforeActiveConflicts() {
	m := s.matchedPair("player-1", "player-2")

	_, err := s.controller.HandleMatchComplete(s.ctx, m.ID, m.ServerSecret, "player-1")
	s.ErrorIs(err, model.ErrMatchStateConflict)
}

func (s *ControllerSuite) TestHandleMatchCompleteTwiceConflicts() {
	m := s.matchedPair("player-1", "player-2")
	_, err := s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.Require().NoError(err)

	_, err = s.controller.HandleMatchComplete(s.ctx, m.ID, m.ServerSecret, "player-1")
	s.Require().NoError(err)

	_, err = s.controller.HandleMatchComplete(s.ctx, m.ID, m.ServerSecret, "player-2")
	s.ErrorIs(err, model.ErrMatchStateConflict)
}

func (s *ControllerSuite) TestHandleMatchCompleteWrongSecret() {
	m := s.matchedPair("player-1", "player-2")
	_, err := s.controller.HandleServerReady(s.ctx, m.ID, m.ServerSecret)
	s.Require().NoError(err)

	_, err = s.controller.HandleMatchComplete(s.ctx, m.ID, "wrong-secret", "player-1")
	s.ErrorIs(err, model.ErrInvalidServerSecret)
}

// LeaveQueue and disconnect tests

func (s *ControllerSuite) TestLeaveQueueRemovesPlayer() {
	s.random.QueueString("entrya")
	_, err := s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)

	removed, err := s.controller.LeaveQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)
	s.True(removed)
}

func (s *ControllerSuite) TestLeaveQueueRefreshesRemainingPlayers() {
	s.random.QueueString("entrya", "entryb", "entryc")

	// Three players wait: one pair forms, then a third joins
	_, _ = s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	chB := s.connect("player-2")

	// player-1 leaves before a pair forms; nobody else is waiting yet
	_, err := s.controller.LeaveQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)

	_, _ = s.controller.JoinQueue(s.ctx, "player-2", model.GameMode1v1)
	_, _ = s.controller.JoinQueue(s.ctx, "player-3", model.GameMode1v1)
	s.controller.Wait()

	// player-2 paired with player-3, so their last queue_status was the
	// one from their own join at position 1
	events := chB.EventsOfType(model.EventQueueStatus)
	s.Require().NotEmpty(events)
	s.Equal(1, events[0].Data.(model.QueueStatusPayload).Position)
}

func (s *ControllerSuite) TestHandleDisconnectRemovesFromQueue() {
	s.random.QueueString("entrya")
	_, err := s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)

	s.controller.HandleDisconnect("player-1")

	entries, err := s.queue.Waiting(s.ctx, model.GameMode1v1)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ControllerSuite) TestHandleDisconnectWhenNotQueued() {
	// Must not panic or error
	s.controller.HandleDisconnect("player-1")
}

// GetMatch tests

func (s *ControllerSuite) TestGetMatch() {
	m := s.matchedPair("player-1", "player-2")

	retrieved, err := s.controller.GetMatch(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(m.ID, retrieved.ID)
}

// Snapshot reads must be safe while the provisioning goroutine records
// its result; run under the race detector
func (s *ControllerSuite) TestGetMatchWhileProvisioningCompletes() {
	s.provisioner.Block = make(chan struct{})
	s.queuePairRandoms("match1")

	_, err := s.controller.JoinQueue(s.ctx, "player-1", model.GameMode1v1)
	s.Require().NoError(err)
	status, err := s.controller.JoinQueue(s.ctx, "player-2", model.GameMode1v1)
	s.Require().NoError(err)
	s.Require().True(status.Matched)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			m, err := s.controller.GetMatch(s.ctx, status.MatchID)
			if err == nil {
				_, _ = json.Marshal(m)
			}
		}
	}()

	close(s.provisioner.Block)
	<-done
	s.controller.Wait()

	m, err := s.storage.GetMatch(s.ctx, status.MatchID)
	s.Require().NoError(err)
	s.Equal("localhost", m.ServerHost)
}

func (s *ControllerSuite) TestGetMatchNotFound() {
	_, err := s.controller.GetMatch(s.ctx, "m_nonexistent")
	s.ErrorIs(err, model.ErrMatchNotFound)
}
