package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a new Redis storage instance
func New(cfg Config, logger *slog.Logger) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.LogRetention <= 0 {
		cfg.LogRetention = DefaultConfig().LogRetention
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "redis-storage")),
	}
}

// Client returns the underlying connection so other Redis-backed components can share it
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Team operations

func (s *Storage) GetTeam(ctx context.Context, code model.SessionCode) (*model.Team, error) {
	data, err := s.client.Get(ctx, teamKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTeamNotFound
		}
		return nil, err
	}

	var team model.Team
	if err := json.Unmarshal(data, &team); err != nil {
		return nil, err
	}

	order, err := s.client.LRange(ctx, teamOrderKey(code), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	team.Players = make([]model.Player, 0, len(order))
	if len(order) == 0 {
		return &team, nil
	}

	values, err := s.client.HMGet(ctx, teamPlayersKey(code), order...).Result()
	if err != nil {
		return nil, err
	}
	for i, val := range values {
		raw, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("team %s: player %s missing from hash", code, order[i])
		}
		var player model.Player
		if err := json.Unmarshal([]byte(raw), &player); err != nil {
			return nil, err
		}
		team.Players = append(team.Players, player)
	}
	return &team, nil
}

func (s *Storage) TeamExists(ctx context.Context, code model.SessionCode) (bool, error) {
	exists, err := s.client.Exists(ctx, teamKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) SaveTeam(ctx context.Context, team *model.Team) error {
	root := *team
	root.Players = nil
	data, err := json.Marshal(root)
	if err != nil {
		return err
	}

	order := make([]any, len(team.Players))
	players := make(map[string]any, len(team.Players))
	for i := range team.Players {
		p, err := json.Marshal(team.Players[i])
		if err != nil {
			return err
		}
		order[i] = string(team.Players[i].ID)
		players[string(team.Players[i].ID)] = p
	}

	// Use a transaction so readers never see a half-written roster
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, teamKey(team.SessionCode), data, s.cfg.TeamTTL)
	pipe.Del(ctx, teamPlayersKey(team.SessionCode), teamOrderKey(team.SessionCode))
	if len(order) > 0 {
		pipe.HSet(ctx, teamPlayersKey(team.SessionCode), players)
		pipe.RPush(ctx, teamOrderKey(team.SessionCode), order...)
		if s.cfg.TeamTTL > 0 {
			pipe.Expire(ctx, teamPlayersKey(team.SessionCode), s.cfg.TeamTTL)
			pipe.Expire(ctx, teamOrderKey(team.SessionCode), s.cfg.TeamTTL)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) PatchPlayer(ctx context.Context, code model.SessionCode, playerID model.PlayerID, patch model.PlayerPatch) error {
	exists, err := s.TeamExists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrTeamNotFound
	}

	raw, err := s.client.HGet(ctx, teamPlayersKey(code), string(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrPlayerNotFound
		}
		return err
	}

	var player model.Player
	if err := json.Unmarshal(raw, &player); err != nil {
		return err
	}
	patch.Apply(&player)

	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, teamPlayersKey(code), string(playerID), data).Err()
}

func (s *Storage) SetTeamStatus(ctx context.Context, code model.SessionCode, status model.TeamStatus, at time.Time) error {
	key := teamKey(code)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrTeamNotFound
		}
		return err
	}

	var team model.Team
	if err := json.Unmarshal(data, &team); err != nil {
		return err
	}
	team.Status = status
	if status == model.TeamStatusReadyForGameplay {
		team.StaffCompletedAt = &at
	}

	data, err = json.Marshal(team)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, redis.KeepTTL).Err()
}

// Registration log operations

func (s *Storage) AppendLog(ctx context.Context, log model.RegistrationLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, logsKey(), data)
	pipe.LTrim(ctx, logsKey(), 0, int64(s.cfg.LogRetention-1))
	pipe.Publish(ctx, logsChannel(), data)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) RecentLogs(ctx context.Context, scope string, limit int) ([]model.RegistrationLog, error) {
	values, err := s.client.LRange(ctx, logsKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	logs := make([]model.RegistrationLog, 0, len(values))
	for _, val := range values {
		var log model.RegistrationLog
		if err := json.Unmarshal([]byte(val), &log); err != nil {
			s.logger.Warn("skipping unreadable registration log", slog.String("error", err.Error()))
			continue
		}
		logs = append(logs, log)
	}
	return storage.FilterLogs(logs, scope, limit), nil
}

func (s *Storage) SubscribeLogs(ctx context.Context, scope string, limit int) (<-chan []model.RegistrationLog, error) {
	pubsub := s.client.Subscribe(ctx, logsChannel())
	// Wait for the subscription so no log appended after this call is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	initial, err := s.RecentLogs(ctx, scope, limit)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	updates := make(chan model.RegistrationLog)
	go func() {
		defer close(updates)
		defer func() { _ = pubsub.Close() }()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var log model.RegistrationLog
				if err := json.Unmarshal([]byte(msg.Payload), &log); err != nil {
					s.logger.Warn("skipping unreadable log message", slog.String("error", err.Error()))
					continue
				}
				select {
				case updates <- log:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return storage.Follow(ctx, initial, updates, scope, limit), nil
}
