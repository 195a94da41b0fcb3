package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pairwise-games/stakeroom/internal/dependencies/clock"
	"github.com/pairwise-games/stakeroom/internal/model"
)

// Errors
var (
	ErrInvalidSession    = errors.New("invalid or expired session")
	ErrInvalidArbiterKey = errors.New("invalid arbiter key")
	ErrArbiterDisabled   = errors.New("arbiter access not configured")
)

// Session represents an authenticated guest identity. The UserID is the
// durable identity used for slot rebinding across reconnects.
type Session struct {
	Token       string
	UserID      model.UserID
	DisplayName string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Service handles guest identity and session management, plus verification
// of the arbiter key used by the external arbitration surface
type Service struct {
	clock clock.Clock

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
	arbiterKeyHash  string
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	// ArbiterKeyHash is the bcrypt hash of the shared key presented by the
	// external arbiter. Empty disables the arbitration endpoints.
	ArbiterKeyHash string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(clock clock.Clock, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		clock:           clock,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
		arbiterKeyHash:  cfg.ArbiterKeyHash,
	}
}

// CreateGuest mints a guest identity and session for a display name
func (s *Service) CreateGuest(displayName string) (*Session, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, model.ErrInvalidDisplayName
	}

	userID := model.UserID(s.generateID("u_"))
	token := s.generateID("sess_")
	now := s.clock.Now()

	session := &Session{
		Token:       token,
		UserID:      userID,
		DisplayName: displayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session, nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// VerifyArbiterKey checks the key presented on an arbitration request
func (s *Service) VerifyArbiterKey(key string) error {
	if s.arbiterKeyHash == "" {
		return ErrArbiterDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.arbiterKeyHash), []byte(key)); err != nil {
		return ErrInvalidArbiterKey
	}
	return nil
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// generateID generates a random ID with a prefix
func (s *Service) generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
