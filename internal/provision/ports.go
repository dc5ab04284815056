package provision

import (
	"errors"
	"sync"
)

// ErrNoPortsAvailable is returned when every port in the range is in use
var ErrNoPortsAvailable = errors.New("no available ports for game server")

const (
	defaultStartPort = 5001
	defaultMaxPorts  = 100
)

// PortAllocator hands out game-server ports from a fixed range
type PortAllocator struct {
	mu        sync.Mutex
	used      map[int]bool
	startPort int
	maxPorts  int
}

// NewPortAllocator creates an allocator over [startPort, startPort+maxPorts)
func NewPortAllocator(startPort, maxPorts int) *PortAllocator {
	if startPort <= 0 {
		startPort = defaultStartPort
	}
	if maxPorts <= 0 {
		maxPorts = defaultMaxPorts
	}
	return &PortAllocator{
		used:      make(map[int]bool),
		startPort: startPort,
		maxPorts:  maxPorts,
	}
}

// Allocate reserves the lowest free port in the range
func (a *PortAllocator) Allocate() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < a.maxPorts; i++ {
		port := a.startPort + i
		if !a.used[port] {
			a.used[port] = true
			return port, nil
		}
	}
	return 0, ErrNoPortsAvailable
}

// Release returns a port to the pool. Releasing an unallocated port is a no-op
func (a *PortAllocator) Release(port int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.used, port)
}

// InUse reports how many ports are currently allocated
func (a *PortAllocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.used)
}
