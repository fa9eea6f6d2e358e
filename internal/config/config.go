// Package config loads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/xrkiosk/internal/model"
)

// Backend names accepted by STORAGE_TYPE and BLOB_TYPE
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config holds all server configuration parsed from environment variables.
type Config struct {
	// Server
	Host          string `env:"HOST" envDefault:"0.0.0.0"`
	Port          int    `env:"PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Document store
	StorageType string        `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string        `env:"REDIS_URL"`
	SQLitePath  string        `env:"SQLITE_PATH" envDefault:"xrkiosk.db"`
	TeamTTL     time.Duration `env:"TEAM_TTL" envDefault:"168h"`

	// Blob store
	BlobType string `env:"BLOB_TYPE" envDefault:"memory"`
	BlobDir  string `env:"BLOB_DIR" envDefault:"blobs"`

	// Registration kiosk
	StoreID           string   `env:"STORE_ID" envDefault:"nk1"`
	MaxPlayers        int      `env:"MAX_PLAYERS" envDefault:"6"`
	TermsVersion      string   `env:"TERMS_VERSION" envDefault:"v1"`
	TeamNameInputStep bool     `env:"TEAM_NAME_INPUT_STEP" envDefault:"false"`
	Games             []string `env:"GAMES" envSeparator:"," envDefault:"Zombie Storm"`

	// Staff
	StaffPINHash    string        `env:"STAFF_PIN_HASH"`
	StaffSessionTTL time.Duration `env:"STAFF_SESSION_TTL" envDefault:"12h"`
}

// Load parses environment variables into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown backends and settings a backend needs but lacks.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageType {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when STORAGE_TYPE=redis"))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORAGE_TYPE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_TYPE %q must be one of memory, redis, sqlite", c.StorageType))
	}

	switch c.BlobType {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when BLOB_TYPE=redis"))
		}
	case BackendFile:
		if c.BlobDir == "" {
			errs = append(errs, errors.New("BLOB_DIR is required when BLOB_TYPE=file"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLOB_TYPE %q must be one of memory, redis, file", c.BlobType))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if !model.ValidStoreID(c.StoreID) {
		errs = append(errs, fmt.Errorf("STORE_ID %q must be alphanumeric", c.StoreID))
	}
	if c.MaxPlayers < 1 || c.MaxPlayers > model.PaletteSize {
		errs = append(errs, fmt.Errorf("MAX_PLAYERS must be between 1 and %d", model.PaletteSize))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GameCatalog returns the configured titles with blanks removed
func (c *Config) GameCatalog() model.GameCatalog {
	games := make(model.GameCatalog, 0, len(c.Games))
	for _, g := range c.Games {
		if g = strings.TrimSpace(g); g != "" {
			games = append(games, g)
		}
	}
	if len(games) == 0 {
		return model.DefaultGameCatalog()
	}
	return games
}

// SlogLevel parses LOG_LEVEL
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
