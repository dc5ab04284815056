package provision

import (
	"context"
	"sync"

	"github.com/stratking/matchmaker/internal/model"
)

// MockProvisioner is a controllable Provisioner for tests.
// By default every Provision call succeeds with a fixed result
type MockProvisioner struct {
	mu sync.Mutex

	// Result returned on success
	Host string
	Port int

	// Err, when set, is returned from every Provision call
	Err error

	// Block, when set, is received from before Provision returns.
	// Lets tests hold provisioning open to observe intermediate state
	Block chan struct{}

	provisioned []model.MatchID
	tornDown    []string
}

// NewMockProvisioner creates a mock that reports localhost:5001
func NewMockProvisioner() *MockProvisioner {
	return &MockProvisioner{
		Host: "localhost",
		Port: 5001,
	}
}

// Provision implements Provisioner
func (p *MockProvisioner) Provision(ctx context.Context, matchID model.MatchID, playerIDs []model.PlayerID, serverSecret string) (*Result, error) {
	if p.Block != nil {
		select {
		case <-p.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}

	p.provisioned = append(p.provisioned, matchID)
	return &Result{
		Host: p.Host,
		Port: p.Port,
		Ref:  "mock-" + string(matchID),
	}, nil
}

// Teardown implements Provisioner
func (p *MockProvisioner) Teardown(ctx context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tornDown = append(p.tornDown, ref)
	return nil
}

// Provisioned returns the match IDs provisioned so far
func (p *MockProvisioner) Provisioned() []model.MatchID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.MatchID, len(p.provisioned))
	copy(out, p.provisioned)
	return out
}

// TornDown returns the refs torn down so far
func (p *MockProvisioner) TornDown() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.tornDown))
	copy(out, p.tornDown)
	return out
}
