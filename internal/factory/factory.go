package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/stratking/matchmaker/internal/dependencies/clock"
	"github.com/stratking/matchmaker/internal/dependencies/random"
	"github.com/stratking/matchmaker/internal/notify"
	"github.com/stratking/matchmaker/internal/provision"
	"github.com/stratking/matchmaker/internal/services/auth"
	"github.com/stratking/matchmaker/internal/services/match"
	"github.com/stratking/matchmaker/internal/services/queue"
	"github.com/stratking/matchmaker/internal/storage"
	"github.com/stratking/matchmaker/internal/storage/memory"
	redisstorage "github.com/stratking/matchmaker/internal/storage/redis"
	"github.com/stratking/matchmaker/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Provisioner type constants
const (
	ProvisionerTypeInProcess = "inprocess"
	ProvisionerTypeDocker    = "docker"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Realtime
	Registry *notify.Registry
	Fanout   *notify.Fanout

	// Services
	AuthService     *auth.Service
	QueueManager    *queue.Manager
	MatchController *match.Controller
	Provisioner     provision.Provisioner

	// WebsocketHandler is the /ws endpoint handler
	WebsocketHandler *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// AuthConfig holds configuration for the auth service (optional)
	AuthConfig auth.Config
	// MatchConfig holds configuration for the match controller (optional)
	MatchConfig match.Config
	// ProvisionerType selects the game-server adapter ("inprocess" or "docker")
	// If empty, defaults to "inprocess"
	ProvisionerType string
	// DockerConfig holds docker adapter settings (used when ProvisionerType is "docker")
	DockerConfig provision.DockerConfig
	// ServerHost is the host reported for in-process game servers
	ServerHost string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create the game-server adapter
	var provisioner provision.Provisioner
	provisionerType := cfg.ProvisionerType
	if provisionerType == "" {
		provisionerType = ProvisionerTypeInProcess
	}

	switch provisionerType {
	case ProvisionerTypeInProcess:
		host := cfg.ServerHost
		if host == "" {
			host = "localhost"
		}
		provisioner = provision.NewInProcess(host, provision.NewPortAllocator(0, 0), logger)
	case ProvisionerTypeDocker:
		provisioner = provision.NewDocker(cfg.DockerConfig, logger)
	default:
		return nil, errors.New("invalid ProvisionerType: must be 'inprocess' or 'docker'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, provisioner, clk, rnd, cfg.AuthConfig, cfg.MatchConfig, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	provisioner provision.Provisioner,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	matchCfg match.Config,
	logger *slog.Logger,
) *App {
	registry := notify.NewRegistry(logger)
	fanout := notify.NewFanout(registry, logger)

	authService := auth.New(store, clk, authCfg)
	queueManager := queue.NewManager(store, clk, rnd, logger)
	matchController := match.NewController(store, queueManager, provisioner, fanout, clk, rnd, matchCfg, logger)

	// Players dropping their websocket leave every queue they were in
	registry.SetDisconnectHook(matchController.HandleDisconnect)

	wsHandler := ws.NewHandler(authService, registry, matchController, logger)

	return &App{
		Storage:          store,
		Clock:            clk,
		Random:           rnd,
		Registry:         registry,
		Fanout:           fanout,
		AuthService:      authService,
		QueueManager:     queueManager,
		MatchController:  matchController,
		Provisioner:      provisioner,
		WebsocketHandler: wsHandler,
	}
}
