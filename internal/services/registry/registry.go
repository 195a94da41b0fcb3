package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pairwise-games/stakeroom/internal/dependencies/clock"
	"github.com/pairwise-games/stakeroom/internal/dependencies/random"
	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/storage"
)

const (
	// connectionIDLength is the length of generated connection ids
	connectionIDLength = 16
	// connectionIDAlphabet is the characters used in connection ids
	connectionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// LeaveHandler consumes the single participantLeft event emitted per
// disconnect
type LeaveHandler func(ctx context.Context, p *model.Participant)

// Registry maps live connections to participant identities and maintains the
// connection-to-match index so room dispatch is a data lookup rather than
// transport state
type Registry struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu          sync.RWMutex
	userConns   map[model.UserID]model.ConnectionID
	connMatches map[model.ConnectionID]model.MatchID

	leaveHandler LeaveHandler
}

// New creates a new Registry
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		storage:     storage,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "registry")),
		userConns:   make(map[model.UserID]model.ConnectionID),
		connMatches: make(map[model.ConnectionID]model.MatchID),
	}
}

// SetLeaveHandler installs the disconnect consumer. Must be called during
// wiring, before any connection is accepted.
func (r *Registry) SetLeaveHandler(h LeaveHandler) {
	r.leaveHandler = h
}

// Connect registers a new live connection for a user and returns the
// participant bound to it. A user's newer connection supersedes the index
// entry of any older one; the older connection is cleaned up when its own
// stream closes.
func (r *Registry) Connect(ctx context.Context, userID model.UserID, displayName string) (*model.Participant, error) {
	connID := model.ConnectionID("c_" + r.random.String(connectionIDLength, connectionIDAlphabet))

	p := &model.Participant{
		ConnectionID: connID,
		UserID:       userID,
		DisplayName:  displayName,
		ConnectedAt:  r.clock.Now(),
	}

	if err := r.storage.SaveParticipant(ctx, p); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.userConns[userID] = connID
	r.mu.Unlock()

	r.logger.Info("participant connected",
		slog.String("connection_id", string(connID)),
		slog.String("user_id", string(userID)),
	)

	return p, nil
}

// Disconnect tears down a connection and emits the participantLeft event
// exactly once for it
func (r *Registry) Disconnect(ctx context.Context, connID model.ConnectionID) {
	p, err := r.storage.GetParticipant(ctx, connID)
	if err != nil {
		// Already gone; nothing to emit
		return
	}

	if err := r.storage.DeleteParticipant(ctx, connID); err != nil {
		r.logger.Error("failed to delete participant",
			slog.String("connection_id", string(connID)),
			slog.String("error", err.Error()),
		)
	}

	// The match binding survives the disconnect: the leave handler (and the
	// reconnect grace window) still needs it, and it is unbound when the
	// match reaches a terminal state or the slot is rebound.
	r.mu.Lock()
	if current, ok := r.userConns[p.UserID]; ok && current == connID {
		delete(r.userConns, p.UserID)
	}
	r.mu.Unlock()

	r.logger.Info("participant disconnected",
		slog.String("connection_id", string(connID)),
		slog.String("user_id", string(p.UserID)),
	)

	if r.leaveHandler != nil {
		r.leaveHandler(ctx, p)
	}
}

// Get returns the participant bound to a connection
func (r *Registry) Get(ctx context.Context, connID model.ConnectionID) (*model.Participant, error) {
	return r.storage.GetParticipant(ctx, connID)
}

// ParticipantFor returns the participant behind a user's current connection,
// or ErrNotConnected if the user has no open event stream
func (r *Registry) ParticipantFor(ctx context.Context, userID model.UserID) (*model.Participant, error) {
	r.mu.RLock()
	connID, ok := r.userConns[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, model.ErrNotConnected
	}

	p, err := r.storage.GetParticipant(ctx, connID)
	if err != nil {
		return nil, model.ErrNotConnected
	}
	return p, nil
}

// BindMatch records which match a connection belongs to
func (r *Registry) BindMatch(connID model.ConnectionID, matchID model.MatchID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connMatches[connID] = matchID
}

// UnbindMatch clears a connection's match binding
func (r *Registry) UnbindMatch(connID model.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connMatches, connID)
}

// MatchFor returns the match a connection is bound to, if any
func (r *Registry) MatchFor(connID model.ConnectionID) (model.MatchID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matchID, ok := r.connMatches[connID]
	return matchID, ok
}
