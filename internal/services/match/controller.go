package match

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/stratking/matchmaker/internal/dependencies/clock"
	"github.com/stratking/matchmaker/internal/dependencies/random"
	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/notify"
	"github.com/stratking/matchmaker/internal/provision"
	"github.com/stratking/matchmaker/internal/services/queue"
	"github.com/stratking/matchmaker/internal/storage"
)

const (
	// matchIDLength is the length of generated match ids
	matchIDLength = 12
	// matchIDAlphabet is the characters used in match ids
	matchIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// serverSecretBytes is the byte length of generated server secrets
	serverSecretBytes = 16
	// estimatedWaitPerPosition is the fixed per-position wait cost model
	estimatedWaitPerPosition = 15
)

// ErrProvisionTimeout marks a Provision call that exceeded the configured
// timeout; treated identically to an explicit provisioning failure
var ErrProvisionTimeout = errors.New("game server provisioning timed out")

// Config holds configuration for the lifecycle controller
type Config struct {
	// ProvisionTimeout bounds each Provision call
	ProvisionTimeout time.Duration
	// TeardownTimeout bounds best-effort teardown calls
	TeardownTimeout time.Duration
}

// DefaultConfig returns default controller configuration
func DefaultConfig() Config {
	return Config{
		ProvisionTimeout: 30 * time.Second,
		TeardownTimeout:  10 * time.Second,
	}
}

// JoinStatus is the request-path outcome of a queue join
type JoinStatus struct {
	// Matched is true when the join completed a pair and a match was created
	Matched bool
	MatchID model.MatchID
	// Position and EstimatedWaitSeconds are set when the player is waiting
	Position             int
	EstimatedWaitSeconds int
}

// Controller owns the match state machine. It is the only writer of match
// status and provisioning fields. State flow:
//
//	pending -> spawning -> active -> completed
//	           spawning -> failed
//
// completed and failed are terminal.
type Controller struct {
	storage     storage.Storage
	queue       *queue.Manager
	provisioner provision.Provisioner
	fanout      *notify.Fanout
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
	cfg         Config

	// per-match locks serialize transitions; matches are independent,
	// so there is no cross-match locking
	locksMu sync.Mutex
	locks   map[model.MatchID]*sync.Mutex

	// wg tracks in-flight provisioning and teardown goroutines
	wg sync.WaitGroup
}

// NewController creates a new lifecycle Controller
func NewController(
	storage storage.Storage,
	queueManager *queue.Manager,
	provisioner provision.Provisioner,
	fanout *notify.Fanout,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.ProvisionTimeout == 0 {
		cfg.ProvisionTimeout = DefaultConfig().ProvisionTimeout
	}
	if cfg.TeardownTimeout == 0 {
		cfg.TeardownTimeout = DefaultConfig().TeardownTimeout
	}
	return &Controller{
		storage:     storage,
		queue:       queueManager,
		provisioner: provisioner,
		fanout:      fanout,
		clock:       clk,
		random:      rnd,
		logger:      logger.With(slog.String("component", "match")),
		cfg:         cfg,
		locks:       make(map[model.MatchID]*sync.Mutex),
	}
}

// Wait blocks until in-flight provisioning and teardown work completes.
// Called during shutdown.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// JoinQueue admits a player and, if the join completed a pair, creates the
// match and starts provisioning. Waiting players get their position and a
// queue_status fan-out refresh for the mode.
func (c *Controller) JoinQueue(ctx context.Context, playerID model.PlayerID, mode model.GameMode) (*JoinStatus, error) {
	pair, position, err := c.queue.Join(ctx, playerID, mode)
	if err != nil {
		return nil, err
	}

	if pair != nil {
		m, err := c.StartMatch(ctx, pair)
		if err != nil {
			return nil, err
		}
		c.broadcastQueueStatus(ctx, mode)
		return &JoinStatus{Matched: true, MatchID: m.ID}, nil
	}

	c.broadcastQueueStatus(ctx, mode)
	return &JoinStatus{
		Position:             position,
		EstimatedWaitSeconds: position * estimatedWaitPerPosition,
	}, nil
}

// LeaveQueue removes a player from a mode's queue and refreshes the
// remaining players' queue_status. Idempotent.
func (c *Controller) LeaveQueue(ctx context.Context, playerID model.PlayerID, mode model.GameMode) (bool, error) {
	removed, err := c.queue.Leave(ctx, playerID, mode)
	if err != nil {
		return false, err
	}
	if removed {
		c.broadcastQueueStatus(ctx, mode)
	}
	return removed, nil
}

// HandleDisconnect removes the player from every mode's queue.
// Wired to the connection registry's disconnect hook; never fails.
func (c *Controller) HandleDisconnect(playerID model.PlayerID) {
	ctx := context.Background()
	for _, mode := range c.queue.LeaveAll(ctx, playerID) {
		c.broadcastQueueStatus(ctx, mode)
	}
}

// StartMatch creates a match for a formed pair and begins provisioning.
// The Provision call runs in its own goroutine so pairing passes for other
// players are never blocked behind it.
func (c *Controller) StartMatch(ctx context.Context, pair *queue.Pair) (*model.Match, error) {
	playerIDs := pair.PlayerIDs()
	if playerIDs[0] == playerIDs[1] {
		return nil, model.ErrSelfPairing
	}

	now := c.clock.Now()
	m := &model.Match{
		ID:           model.MatchID("m_" + c.random.String(matchIDLength, matchIDAlphabet)),
		PlayerIDs:    playerIDs,
		Status:       model.MatchStatusPending,
		ServerSecret: c.random.Hex(serverSecretBytes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	c.logger.Info("match created",
		slog.String("match_id", string(m.ID)),
		slog.String("player_a", string(playerIDs[0])),
		slog.String("player_b", string(playerIDs[1])))

	c.fanout.NotifyAll(playerIDs, model.Event{
		Type: model.EventMatchFound,
		Data: model.MatchFoundPayload{
			MatchID:      m.ID,
			Players:      playerIDs,
			Status:       m.Status,
			ServerSecret: m.ServerSecret,
		},
	})

	// pending -> spawning: the provisioner is being invoked
	m.Status = model.MatchStatusSpawning
	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.provisionMatch(m.ID)

	return m, nil
}

// provisionMatch drives spawning -> (recorded endpoint | failed).
// Detached from the request context: the join request has already returned.
func (c *Controller) provisionMatch(matchID model.MatchID) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ProvisionTimeout)
	defer cancel()

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		c.logger.Error("provisioning aborted, match not loadable",
			slog.String("match_id", string(matchID)),
			slog.String("error", err.Error()))
		return
	}

	res, err := c.callProvisioner(ctx, m)

	// On timeout the provision context has already expired, but the
	// outcome still has to reach storage and the players
	ctx = context.WithoutCancel(ctx)

	lock := c.matchLock(matchID)
	lock.Lock()
	defer lock.Unlock()

	// Reload under the lock: a webhook may have raced in
	m, loadErr := c.storage.GetMatch(ctx, matchID)
	if loadErr != nil {
		c.logger.Error("provisioning result dropped, match not loadable",
			slog.String("match_id", string(matchID)),
			slog.String("error", loadErr.Error()))
		return
	}
	if m.Status != model.MatchStatusSpawning {
		return
	}

	if err != nil {
		c.failMatch(ctx, m, err)
		return
	}

	m.ServerHost = res.Host
	m.ServerPort = res.Port
	m.ProvisionerRef = res.Ref
	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		c.logger.Error("failed to record provisioned endpoint",
			slog.String("match_id", string(m.ID)),
			slog.String("error", err.Error()))
		return
	}

	c.logger.Info("game server provisioned",
		slog.String("match_id", string(m.ID)),
		slog.String("host", res.Host),
		slog.Int("port", res.Port))
}

// callProvisioner bounds Provision with the configured timeout. A call
// that outlives its deadline is treated as a provisioning failure even if
// the adapter ignores context cancellation.
func (c *Controller) callProvisioner(ctx context.Context, m *model.Match) (*provision.Result, error) {
	type outcome struct {
		res *provision.Result
		err error
	}

	ch := make(chan outcome, 1)
	go func() {
		res, err := c.provisioner.Provision(ctx, m.ID, m.PlayerIDs, m.ServerSecret)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		return nil, ErrProvisionTimeout
	}
}

// failMatch transitions spawning -> failed and notifies both players.
// Queue entries are not restored; players must re-join. Callers hold the
// match lock.
func (c *Controller) failMatch(ctx context.Context, m *model.Match, cause error) {
	m.Status = model.MatchStatusFailed
	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		c.logger.Error("failed to record match failure",
			slog.String("match_id", string(m.ID)),
			slog.String("error", err.Error()))
		return
	}

	c.logger.Warn("match failed",
		slog.String("match_id", string(m.ID)),
		slog.String("error", cause.Error()))

	c.fanout.NotifyAll(m.PlayerIDs, model.Event{
		Type: model.EventMatchFailed,
		Data: model.MatchFailedPayload{
			MatchID: m.ID,
			Error:   cause.Error(),
		},
	})
}

// HandleServerReady drives spawning -> active on the game server's
// readiness callback. Unknown match ids fail with ErrMatchNotFound; a
// wrong secret with ErrInvalidServerSecret; terminal or premature states
// with ErrMatchStateConflict. No side effects on rejection.
func (c *Controller) HandleServerReady(ctx context.Context, matchID model.MatchID, serverSecret string) (*model.Match, error) {
	lock := c.matchLock(matchID)
	lock.Lock()
	defer lock.Unlock()

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.ServerSecret != serverSecret {
		return nil, model.ErrInvalidServerSecret
	}
	if m.Status != model.MatchStatusSpawning {
		return nil, model.ErrMatchStateConflict
	}

	m.Status = model.MatchStatusActive
	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	c.logger.Info("match active",
		slog.String("match_id", string(m.ID)),
		slog.String("host", m.ServerHost),
		slog.Int("port", m.ServerPort))

	c.fanout.NotifyAll(m.PlayerIDs, model.Event{
		Type: model.EventServerReady,
		Data: model.ServerReadyPayload{
			MatchID:    m.ID,
			ServerHost: m.ServerHost,
			ServerPort: m.ServerPort,
		},
	})

	return m, nil
}

// HandleMatchComplete drives active -> completed on the game server's
// completion callback, recording the winner if one was reported, and
// releases the server resources best-effort.
func (c *Controller) HandleMatchComplete(ctx context.Context, matchID model.MatchID, serverSecret string, winner model.PlayerID) (*model.Match, error) {
	lock := c.matchLock(matchID)
	lock.Lock()
	defer lock.Unlock()

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.ServerSecret != serverSecret {
		return nil, model.ErrInvalidServerSecret
	}
	if m.Status != model.MatchStatusActive {
		return nil, model.ErrMatchStateConflict
	}

	m.Status = model.MatchStatusCompleted
	m.Winner = winner
	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	c.logger.Info("match completed",
		slog.String("match_id", string(m.ID)),
		slog.String("winner", string(winner)))

	c.fanout.NotifyAll(m.PlayerIDs, model.Event{
		Type: model.EventMatchComplete,
		Data: model.MatchCompletePayload{
			MatchID: m.ID,
			Winner:  winner,
		},
	})

	if m.ProvisionerRef != "" {
		c.wg.Add(1)
		go c.teardown(m.ID, m.ProvisionerRef)
	}

	return m, nil
}

// GetMatch returns a match by id
func (c *Controller) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return c.storage.GetMatch(ctx, id)
}

// teardown releases game-server resources. Best-effort only: failures are
// logged and never propagated.
func (c *Controller) teardown(matchID model.MatchID, ref string) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.TeardownTimeout)
	defer cancel()

	if err := c.provisioner.Teardown(ctx, ref); err != nil {
		c.logger.Warn("game server teardown failed",
			slog.String("match_id", string(matchID)),
			slog.String("error", err.Error()))
	}
}

// broadcastQueueStatus pushes queue_status to every player still waiting
// in the mode. Fan-out failures never reach the caller.
func (c *Controller) broadcastQueueStatus(ctx context.Context, mode model.GameMode) {
	entries, err := c.queue.Waiting(ctx, mode)
	if err != nil {
		c.logger.Error("queue status broadcast failed",
			slog.String("game_mode", string(mode)),
			slog.String("error", err.Error()))
		return
	}

	for i, entry := range entries {
		position := i + 1
		c.fanout.Notify(entry.PlayerID, model.Event{
			Type: model.EventQueueStatus,
			Data: model.QueueStatusPayload{
				GameMode:             mode,
				Position:             position,
				EstimatedWaitSeconds: position * estimatedWaitPerPosition,
			},
		})
	}
}

func (c *Controller) matchLock(id model.MatchID) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	return lock
}
