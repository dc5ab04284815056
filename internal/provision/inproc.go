package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/stratking/matchmaker/internal/model"
)

// InProcess is a provisioner adapter that allocates a local port and
// returns a deterministic endpoint without starting any process. Used for
// development and as the swappable test adapter.
type InProcess struct {
	host   string
	ports  *PortAllocator
	logger *slog.Logger
}

// NewInProcess creates an in-process provisioner serving ports from the
// given allocator
func NewInProcess(host string, ports *PortAllocator, logger *slog.Logger) *InProcess {
	if host == "" {
		host = "localhost"
	}
	return &InProcess{
		host:   host,
		ports:  ports,
		logger: logger.With(slog.String("component", "provision.inprocess")),
	}
}

var _ Provisioner = (*InProcess)(nil)

// Provision allocates a port and reports the endpoint immediately
func (p *InProcess) Provision(ctx context.Context, matchID model.MatchID, playerIDs []model.PlayerID, serverSecret string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := p.ports.Allocate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvisionFailed, err)
	}

	p.logger.Info("in-process server allocated",
		slog.String("match_id", string(matchID)),
		slog.Int("port", port))

	return &Result{
		Host: p.host,
		Port: port,
		Ref:  strconv.Itoa(port),
	}, nil
}

// Teardown releases the allocated port
func (p *InProcess) Teardown(ctx context.Context, ref string) error {
	port, err := strconv.Atoi(ref)
	if err != nil {
		return fmt.Errorf("invalid provisioner ref %q: %w", ref, err)
	}
	p.ports.Release(port)
	return nil
}
