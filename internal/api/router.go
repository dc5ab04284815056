package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stratking/matchmaker/internal/api/handler"
	"github.com/stratking/matchmaker/internal/api/middleware"
	"github.com/stratking/matchmaker/internal/services/auth"
	"github.com/stratking/matchmaker/internal/services/match"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	MatchController *match.Controller

	// WebsocketHandler serves the realtime endpoint when set
	WebsocketHandler http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	matchmakingHandler := handler.NewMatchmakingHandler(cfg.MatchController)
	matchHandler := handler.NewMatchHandler(cfg.MatchController)
	webhookHandler := handler.NewWebhookHandler(cfg.MatchController)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for registering/logging in)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/players/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)

	// Matchmaking routes (all require auth)
	matchmaking := api.PathPrefix("/matchmaking").Subrouter()
	matchmaking.Use(authMiddleware)
	matchmaking.HandleFunc("/join", matchmakingHandler.JoinQueue).Methods(http.MethodPost)
	matchmaking.HandleFunc("/leave", matchmakingHandler.LeaveQueue).Methods(http.MethodPost)

	// Match routes (all require auth)
	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("/{matchId}", matchHandler.GetMatch).Methods(http.MethodGet)

	// Webhook routes authenticated by the per-match server secret
	api.HandleFunc("/webhooks/server-ready", webhookHandler.ServerReady).Methods(http.MethodPost)
	api.HandleFunc("/webhooks/match-complete", webhookHandler.MatchComplete).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Realtime websocket endpoint. Auth happens inside the handler so
	// failures are reported before the upgrade
	if cfg.WebsocketHandler != nil {
		r.Handle("/ws", cfg.WebsocketHandler)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
