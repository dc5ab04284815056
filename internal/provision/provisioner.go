package provision

import (
	"context"
	"errors"

	"github.com/stratking/matchmaker/internal/model"
)

// ErrProvisionFailed wraps any adapter failure to start a game server
var ErrProvisionFailed = errors.New("failed to provision game server")

// Result describes a running, reachable game server
type Result struct {
	Host string
	Port int
	// Ref is an adapter-specific handle used for teardown
	// (container id, process id, allocated port)
	Ref string
}

// Provisioner turns a match into a running game-server process.
//
// Provision is synchronous but may take seconds; callers run it in its own
// goroutine and bound it with a context deadline. Teardown is best-effort:
// implementations log failures rather than letting them reach callers'
// hot paths.
type Provisioner interface {
	Provision(ctx context.Context, matchID model.MatchID, playerIDs []model.PlayerID, serverSecret string) (*Result, error)
	Teardown(ctx context.Context, ref string) error
}
