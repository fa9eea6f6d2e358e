// Package sqlite provides a SQLite-backed document store for single-venue installs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/storage"
	"github.com/mcoot/xrkiosk/internal/storage/sqlite/migrations"
)

// Store persists teams and registration logs in SQLite.
// Log subscriptions are served from an in-process feed, so every writer must
// share one Store.
type Store struct {
	sqlDB *sql.DB
	feed  *storage.Feed
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{
		sqlDB: sqlDB,
		feed:  storage.NewFeed(logger.With(slog.String("backend", "sqlite"))),
	}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Team operations

func (s *Store) GetTeam(ctx context.Context, code model.SessionCode) (*model.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		team             model.Team
		createdAt        int64
		completedAt      sql.NullInt64
		staffCompletedAt sql.NullInt64
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT session_code, team_name, max_players, store_id, selected_game, status,
		        created_at, completed_at, staff_completed_at
		   FROM teams WHERE session_code = ?`,
		string(code),
	)
	if err := row.Scan(
		&team.SessionCode,
		&team.TeamName,
		&team.MaxPlayers,
		&team.StoreID,
		&team.SelectedGame,
		&team.Status,
		&createdAt,
		&completedAt,
		&staffCompletedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	team.CreatedAt = fromMillis(createdAt)
	team.CompletedAt = fromNullMillis(completedAt)
	team.StaffCompletedAt = fromNullMillis(staffCompletedAt)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT data FROM players WHERE session_code = ? ORDER BY ordinal`,
		string(code),
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	team.Players = []model.Player{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		var player model.Player
		if err := json.Unmarshal([]byte(data), &player); err != nil {
			return nil, fmt.Errorf("decode player: %w", err)
		}
		team.Players = append(team.Players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return &team, nil
}

func (s *Store) TeamExists(ctx context.Context, code model.SessionCode) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var count int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE session_code = ?`, string(code))
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("team exists: %w", err)
	}
	return count > 0, nil
}

func (s *Store) SaveTeam(ctx context.Context, team *model.Team) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save team: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO teams (
		   session_code, team_name, max_players, store_id, selected_game, status,
		   created_at, completed_at, staff_completed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_code) DO UPDATE SET
		   team_name = excluded.team_name,
		   max_players = excluded.max_players,
		   store_id = excluded.store_id,
		   selected_game = excluded.selected_game,
		   status = excluded.status,
		   created_at = excluded.created_at,
		   completed_at = excluded.completed_at,
		   staff_completed_at = excluded.staff_completed_at`,
		string(team.SessionCode),
		team.TeamName,
		team.MaxPlayers,
		team.StoreID,
		team.SelectedGame,
		string(team.Status),
		toMillis(team.CreatedAt),
		nullMillis(team.CompletedAt),
		nullMillis(team.StaffCompletedAt),
	); err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE session_code = ?`, string(team.SessionCode)); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}
	for i := range team.Players {
		data, err := json.Marshal(team.Players[i])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (session_code, player_id, ordinal, data) VALUES (?, ?, ?, ?)`,
			string(team.SessionCode), string(team.Players[i].ID), i, string(data),
		); err != nil {
			return fmt.Errorf("insert player %s: %w", team.Players[i].ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) PatchPlayer(ctx context.Context, code model.SessionCode, playerID model.PlayerID, patch model.PlayerPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	exists, err := s.TeamExists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrTeamNotFound
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin patch player: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	row := tx.QueryRowContext(ctx,
		`SELECT data FROM players WHERE session_code = ? AND player_id = ?`,
		string(code), string(playerID),
	)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrPlayerNotFound
		}
		return fmt.Errorf("get player: %w", err)
	}

	var player model.Player
	if err := json.Unmarshal([]byte(data), &player); err != nil {
		return fmt.Errorf("decode player: %w", err)
	}
	patch.Apply(&player)
	updated, err := json.Marshal(player)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET data = ? WHERE session_code = ? AND player_id = ?`,
		string(updated), string(code), string(playerID),
	); err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return tx.Commit()
}

func (s *Store) SetTeamStatus(ctx context.Context, code model.SessionCode, status model.TeamStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var res sql.Result
	var err error
	if status == model.TeamStatusReadyForGameplay {
		res, err = s.sqlDB.ExecContext(ctx,
			`UPDATE teams SET status = ?, staff_completed_at = ? WHERE session_code = ?`,
			string(status), toMillis(at), string(code),
		)
	} else {
		res, err = s.sqlDB.ExecContext(ctx,
			`UPDATE teams SET status = ? WHERE session_code = ?`,
			string(status), string(code),
		)
	}
	if err != nil {
		return fmt.Errorf("set team status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set team status: %w", err)
	}
	if n == 0 {
		return model.ErrTeamNotFound
	}
	return nil
}

// Registration log operations

// AppendLog inserts the log. Appending the same log ID twice is a no-op.
func (s *Store) AppendLog(ctx context.Context, log model.RegistrationLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO registration_logs (
		   id, session_code, team_name, player_count, store_id, selected_game, status, completed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		string(log.SessionCode),
		log.TeamName,
		log.PlayerCount,
		log.StoreID,
		log.SelectedGame,
		log.Status,
		toMillis(log.CompletedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("append registration log: %w", err)
	}
	s.feed.Publish(log)
	return nil
}

func (s *Store) RecentLogs(ctx context.Context, scope string, limit int) ([]model.RegistrationLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}

	query := `SELECT id, session_code, team_name, player_count, store_id, selected_game, status, completed_at
	            FROM registration_logs`
	args := []any{}
	if scope != "" && scope != model.DefaultStoreScope {
		query += ` WHERE store_id = ?`
		args = append(args, scope)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registration logs: %w", err)
	}
	defer rows.Close()

	logs := []model.RegistrationLog{}
	for rows.Next() {
		var (
			log         model.RegistrationLog
			completedAt int64
		)
		if err := rows.Scan(
			&log.ID,
			&log.SessionCode,
			&log.TeamName,
			&log.PlayerCount,
			&log.StoreID,
			&log.SelectedGame,
			&log.Status,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan registration log: %w", err)
		}
		log.CompletedAt = fromMillis(completedAt)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration logs: %w", err)
	}
	return logs, nil
}

func (s *Store) SubscribeLogs(ctx context.Context, scope string, limit int) (<-chan []model.RegistrationLog, error) {
	updates := s.feed.Subscribe(ctx)
	initial, err := s.RecentLogs(ctx, scope, limit)
	if err != nil {
		return nil, err
	}
	return storage.Follow(ctx, initial, updates, scope, limit), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
