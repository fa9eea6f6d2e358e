package mocks

import (
	"context"
	"time"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/storage"
)

// FlakyStorage wraps a Storage and fails selected operations with the
// configured errors. Nil errors pass the call through.
type FlakyStorage struct {
	storage.Storage

	GetTeamErr       error
	TeamExistsErr    error
	SaveTeamErr      error
	PatchPlayerErr   error
	SetTeamStatusErr error
	AppendLogErr     error

	SaveTeamCalls    int
	PatchPlayerCalls int
	AppendLogCalls   int
}

// Ensure FlakyStorage implements Storage
var _ storage.Storage = (*FlakyStorage)(nil)

// NewFlakyStorage wraps inner
func NewFlakyStorage(inner storage.Storage) *FlakyStorage {
	return &FlakyStorage{Storage: inner}
}

func (s *FlakyStorage) GetTeam(ctx context.Context, code model.SessionCode) (*model.Team, error) {
	if s.GetTeamErr != nil {
		return nil, s.GetTeamErr
	}
	return s.Storage.GetTeam(ctx, code)
}

func (s *FlakyStorage) TeamExists(ctx context.Context, code model.SessionCode) (bool, error) {
	if s.TeamExistsErr != nil {
		return false, s.TeamExistsErr
	}
	return s.Storage.TeamExists(ctx, code)
}

func (s *FlakyStorage) SaveTeam(ctx context.Context, team *model.Team) error {
	s.SaveTeamCalls++
	if s.SaveTeamErr != nil {
		return s.SaveTeamErr
	}
	return s.Storage.SaveTeam(ctx, team)
}

func (s *FlakyStorage) PatchPlayer(ctx context.Context, code model.SessionCode, playerID model.PlayerID, patch model.PlayerPatch) error {
	s.PatchPlayerCalls++
	if s.PatchPlayerErr != nil {
		return s.PatchPlayerErr
	}
	return s.Storage.PatchPlayer(ctx, code, playerID, patch)
}

func (s *FlakyStorage) SetTeamStatus(ctx context.Context, code model.SessionCode, status model.TeamStatus, at time.Time) error {
	if s.SetTeamStatusErr != nil {
		return s.SetTeamStatusErr
	}
	return s.Storage.SetTeamStatus(ctx, code, status, at)
}

func (s *FlakyStorage) AppendLog(ctx context.Context, log model.RegistrationLog) error {
	s.AppendLogCalls++
	if s.AppendLogErr != nil {
		return s.AppendLogErr
	}
	return s.Storage.AppendLog(ctx, log)
}
