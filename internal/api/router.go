package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pairwise-games/stakeroom/internal/api/handler"
	apimiddleware "github.com/pairwise-games/stakeroom/internal/api/middleware"
	"github.com/pairwise-games/stakeroom/internal/middleware"
	"github.com/pairwise-games/stakeroom/internal/services/auth"
	"github.com/pairwise-games/stakeroom/internal/services/balance"
	"github.com/pairwise-games/stakeroom/internal/services/cancellation"
	"github.com/pairwise-games/stakeroom/internal/services/match"
	"github.com/pairwise-games/stakeroom/internal/services/registry"
	"github.com/pairwise-games/stakeroom/internal/stream"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	AuthService  *auth.Service
	Coordinator  *match.Coordinator
	Cancellation *cancellation.Workflow
	Registry     *registry.Registry
	Gate         balance.Gate
	Hub          *stream.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	participantHandler := handler.NewParticipantHandler(cfg.AuthService, cfg.Gate)
	challengeHandler := handler.NewChallengeHandler(cfg.Coordinator, cfg.Registry)
	matchHandler := handler.NewMatchHandler(cfg.Coordinator, cfg.Registry)
	cancellationHandler := handler.NewCancellationHandler(cfg.Cancellation, cfg.Registry)
	eventsHandler := handler.NewEventsHandler(cfg.Hub, cfg.Registry, cfg.Coordinator)

	// Create middleware
	authMiddleware := apimiddleware.Auth(cfg.AuthService)
	arbiterMiddleware := apimiddleware.Arbiter(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Participant routes (no auth required for creating a guest)
	api.HandleFunc("/participants/guest", participantHandler.CreateGuest).Methods(http.MethodPost)

	participants := api.PathPrefix("/participants").Subrouter()
	participants.Use(authMiddleware)
	participants.HandleFunc("/me", participantHandler.GetMe).Methods(http.MethodGet)

	// Event stream; the stream is the participant's presence
	events := api.PathPrefix("/events").Subrouter()
	events.Use(authMiddleware)
	events.HandleFunc("", eventsHandler.Stream).Methods(http.MethodGet)

	// Challenge book routes
	challenges := api.PathPrefix("/challenges").Subrouter()
	challenges.Use(authMiddleware)
	challenges.HandleFunc("", challengeHandler.Create).Methods(http.MethodPost)
	challenges.HandleFunc("", challengeHandler.List).Methods(http.MethodGet)
	challenges.HandleFunc("/{id}/accept", challengeHandler.Accept).Methods(http.MethodPost)
	challenges.HandleFunc("/{id}", challengeHandler.Withdraw).Methods(http.MethodDelete)

	// Arbitration routes, gated by the arbiter key rather than a session.
	// Registered before the matches subrouter so its path prefix does not
	// swallow them.
	api.Handle("/matches/{id}/complete",
		arbiterMiddleware(http.HandlerFunc(matchHandler.Complete))).Methods(http.MethodPost)
	api.Handle("/matches/{id}/cancellation/resolve",
		arbiterMiddleware(http.HandlerFunc(cancellationHandler.Resolve))).Methods(http.MethodPost)

	// Match and room-session routes
	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("", matchHandler.List).Methods(http.MethodGet)
	matches.HandleFunc("/{id}", matchHandler.Get).Methods(http.MethodGet)
	matches.HandleFunc("/{id}/join", matchHandler.Join).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/cancellation", cancellationHandler.Request).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/cancellation", cancellationHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
