package storage

import (
	"context"
	"time"

	"github.com/mcoot/xrkiosk/internal/model"
)

// DefaultHistoryLimit is the number of registration logs shown on the staff lookup screen
const DefaultHistoryLimit = 10

// Storage defines the document store used by both kiosk flows
type Storage interface {
	// Team operations
	GetTeam(ctx context.Context, code model.SessionCode) (*model.Team, error)
	TeamExists(ctx context.Context, code model.SessionCode) (bool, error)
	SaveTeam(ctx context.Context, team *model.Team) error
	// PatchPlayer writes equipment fields of one player. Last write wins.
	PatchPlayer(ctx context.Context, code model.SessionCode, playerID model.PlayerID, patch model.PlayerPatch) error
	SetTeamStatus(ctx context.Context, code model.SessionCode, status model.TeamStatus, at time.Time) error

	// Registration log operations
	AppendLog(ctx context.Context, log model.RegistrationLog) error
	// RecentLogs returns the newest logs first. An empty scope or
	// model.DefaultStoreScope returns logs of every venue.
	RecentLogs(ctx context.Context, scope string, limit int) ([]model.RegistrationLog, error)
	// SubscribeLogs sends the current recent logs, then a fresh list every time a
	// matching log is appended. The channel is closed when ctx is done.
	SubscribeLogs(ctx context.Context, scope string, limit int) (<-chan []model.RegistrationLog, error)

	Close() error
}
