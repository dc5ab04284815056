package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/stratking/matchmaker/internal/model"
)

// DockerConfig holds settings for the docker adapter
type DockerConfig struct {
	// Image is the game-server image to run
	Image string
	// BackendURL is where the spawned server posts its webhook callbacks
	BackendURL string
	// ServerPort is the fixed port the server binds with host networking
	ServerPort int
}

// DefaultDockerConfig returns sensible defaults for the docker adapter
func DefaultDockerConfig() DockerConfig {
	return DockerConfig{
		Image:      "strat-king-server:latest",
		BackendURL: "http://localhost:8080",
		ServerPort: 7777,
	}
}

// Docker is a provisioner adapter that starts one game-server container
// per match via the docker CLI, using host networking.
type Docker struct {
	cfg    DockerConfig
	logger *slog.Logger
}

// NewDocker creates a docker-backed provisioner
func NewDocker(cfg DockerConfig, logger *slog.Logger) *Docker {
	if cfg.Image == "" {
		cfg.Image = DefaultDockerConfig().Image
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = DefaultDockerConfig().ServerPort
	}
	return &Docker{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "provision.docker")),
	}
}

var _ Provisioner = (*Docker)(nil)

// Provision runs a detached container configured for the match and
// returns its endpoint. The container authenticates its callbacks with
// the match's server secret.
func (d *Docker) Provision(ctx context.Context, matchID model.MatchID, playerIDs []model.PlayerID, serverSecret string) (*Result, error) {
	expected, err := json.Marshal(playerIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvisionFailed, err)
	}

	args := []string{
		"run", "-d",
		"--network", "host",
		"-e", "SERVER_SECRET=" + serverSecret,
		"-e", "MATCH_ID=" + string(matchID),
		"-e", "EXPECTED_PLAYERS=" + string(expected),
		"-e", "BACKEND_URL=" + d.cfg.BackendURL,
		"-e", fmt.Sprintf("SERVER_PORT=%d", d.cfg.ServerPort),
		d.cfg.Image,
	}

	d.logger.Info("spawning game server container",
		slog.String("match_id", string(matchID)),
		slog.String("image", d.cfg.Image))

	out, err := exec.CommandContext(ctx, "docker", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: docker run: %w", ErrProvisionFailed, err)
	}

	containerID := strings.TrimSpace(string(out))
	if containerID == "" {
		return nil, fmt.Errorf("%w: docker run returned no container id", ErrProvisionFailed)
	}

	d.logger.Info("game server container started",
		slog.String("match_id", string(matchID)),
		slog.String("container_id", shortID(containerID)),
		slog.Int("port", d.cfg.ServerPort))

	// Host networking: the container binds the fixed server port directly
	return &Result{
		Host: "localhost",
		Port: d.cfg.ServerPort,
		Ref:  containerID,
	}, nil
}

// Teardown stops and removes the match's container. Failures are returned
// for logging but must never reach a user-facing path.
func (d *Docker) Teardown(ctx context.Context, ref string) error {
	d.logger.Info("stopping game server container", slog.String("container_id", shortID(ref)))

	if out, err := exec.CommandContext(ctx, "docker", "stop", ref).CombinedOutput(); err != nil {
		return fmt.Errorf("docker stop %s: %w: %s", shortID(ref), err, strings.TrimSpace(string(out)))
	}
	if out, err := exec.CommandContext(ctx, "docker", "rm", ref).CombinedOutput(); err != nil {
		return fmt.Errorf("docker rm %s: %w: %s", shortID(ref), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// List reports running game-server containers for this image
func (d *Docker) List(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "docker", "ps",
		"--filter", "ancestor="+d.cfg.Image,
		"--format", "{{.ID}}").Output()
	if err != nil {
		return nil, fmt.Errorf("docker ps: %w", err)
	}

	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
