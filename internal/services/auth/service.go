// Package auth guards the staff endpoints with a shared PIN exchanged for
// short-lived bearer tokens.
package auth

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/xrkiosk/internal/dependencies/clock"
	"github.com/mcoot/xrkiosk/internal/dependencies/random"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

const (
	tokenPrefix = "staff_"
	tokenLength = 32
)

// Session represents an authenticated staff session
type Session struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles staff authentication and session management
type Service struct {
	pinHash []byte
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	// PINHash is the bcrypt hash of the staff PIN. Empty disables authentication.
	PINHash         string
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 12 * time.Hour,
	}
}

// New creates a new auth Service
func New(clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		pinHash:         []byte(cfg.PINHash),
		clock:           clock,
		random:          random,
		logger:          logger.With(slog.String("component", "auth")),
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// HashPIN returns the bcrypt hash to configure as the staff PIN hash
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Enabled returns true if a PIN hash is configured
func (s *Service) Enabled() bool {
	return len(s.pinHash) > 0
}

// Login checks the PIN and creates a session
func (s *Service) Login(pin string) (*Session, error) {
	if !s.Enabled() {
		return s.createSession(), nil
	}
	if err := bcrypt.CompareHashAndPassword(s.pinHash, []byte(pin)); err != nil {
		s.logger.Warn("staff login rejected")
		return nil, ErrInvalidCredentials
	}
	session := s.createSession()
	s.logger.Info("staff login", slog.Time("expires_at", session.ExpiresAt))
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

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

func (s *Service) createSession() *Session {
	now := s.clock.Now()
	session := &Session{
		Token:     tokenPrefix + s.random.String(tokenLength, random.Alphanumeric),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}
