package memory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	teams map[model.SessionCode]*model.Team
	logs  []model.RegistrationLog // oldest first

	feed *storage.Feed
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// NewWithLogger creates a new in-memory storage instance that logs feed activity
func NewWithLogger(logger *slog.Logger) *Storage {
	return &Storage{
		teams: make(map[model.SessionCode]*model.Team),
		feed:  storage.NewFeed(logger),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Team operations

func (s *Storage) GetTeam(ctx context.Context, code model.SessionCode) (*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[code]
	if !ok {
		return nil, model.ErrTeamNotFound
	}
	return team.Clone(), nil
}

func (s *Storage) TeamExists(ctx context.Context, code model.SessionCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.teams[code]
	return ok, nil
}

func (s *Storage) SaveTeam(ctx context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[team.SessionCode] = team.Clone()
	return nil
}

func (s *Storage) PatchPlayer(ctx context.Context, code model.SessionCode, playerID model.PlayerID, patch model.PlayerPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[code]
	if !ok {
		return model.ErrTeamNotFound
	}
	player := team.GetPlayer(playerID)
	if player == nil {
		return model.ErrPlayerNotFound
	}
	patch.Apply(player)
	return nil
}

func (s *Storage) SetTeamStatus(ctx context.Context, code model.SessionCode, status model.TeamStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[code]
	if !ok {
		return model.ErrTeamNotFound
	}
	team.Status = status
	if status == model.TeamStatusReadyForGameplay {
		team.StaffCompletedAt = &at
	}
	return nil
}

// Registration log operations

func (s *Storage) AppendLog(ctx context.Context, log model.RegistrationLog) error {
	s.mu.Lock()
	s.logs = append(s.logs, log)
	s.mu.Unlock()
	s.feed.Publish(log)
	return nil
}

func (s *Storage) RecentLogs(ctx context.Context, scope string, limit int) ([]model.RegistrationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	newest := make([]model.RegistrationLog, len(s.logs))
	for i, l := range s.logs {
		newest[len(s.logs)-1-i] = l
	}
	return storage.FilterLogs(newest, scope, limit), nil
}

func (s *Storage) SubscribeLogs(ctx context.Context, scope string, limit int) (<-chan []model.RegistrationLog, error) {
	updates := s.feed.Subscribe(ctx)
	initial, err := s.RecentLogs(ctx, scope, limit)
	if err != nil {
		return nil, err
	}
	return storage.Follow(ctx, initial, updates, scope, limit), nil
}

func (s *Storage) Close() error {
	return nil
}
