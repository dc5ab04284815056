package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/stratking/matchmaker/internal/api"
	"github.com/stratking/matchmaker/internal/factory"
	"github.com/stratking/matchmaker/internal/provision"
	redisstorage "github.com/stratking/matchmaker/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:          logger,
		StorageType:     os.Getenv("STORAGE_TYPE"),
		ProvisionerType: os.Getenv("PROVISIONER_TYPE"),
		ServerHost:      os.Getenv("GAME_SERVER_HOST"),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	// Configure the docker adapter if selected
	if cfg.ProvisionerType == factory.ProvisionerTypeDocker {
		dockerCfg := provision.DefaultDockerConfig()
		if image := os.Getenv("GAME_SERVER_IMAGE"); image != "" {
			dockerCfg.Image = image
		}
		if backendURL := os.Getenv("BACKEND_URL"); backendURL != "" {
			dockerCfg.BackendURL = backendURL
		}
		cfg.DockerConfig = dockerCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Surface game-server containers left running by a previous process
	if d, ok := app.Provisioner.(*provision.Docker); ok {
		if refs, err := d.List(context.Background()); err != nil {
			logger.Warn("could not list game server containers", slog.String("error", err.Error()))
		} else if len(refs) > 0 {
			logger.Warn("game server containers still running from a previous run",
				slog.Int("count", len(refs)))
		}
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		AuthService:      app.AuthService,
		MatchController:  app.MatchController,
		WebsocketHandler: app.WebsocketHandler,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT", slog.String("value", portStr))
			os.Exit(1)
		}
		serverConfig.Port = port
	}
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
		// Let in-flight provisioning and teardown finish
		app.MatchController.Wait()
	}

	logger.Info("server stopped")
}
