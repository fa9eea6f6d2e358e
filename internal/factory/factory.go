package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/xrkiosk/internal/blob"
	fileblob "github.com/mcoot/xrkiosk/internal/blob/file"
	memoryblob "github.com/mcoot/xrkiosk/internal/blob/memory"
	redisblob "github.com/mcoot/xrkiosk/internal/blob/redis"
	"github.com/mcoot/xrkiosk/internal/config"
	"github.com/mcoot/xrkiosk/internal/dependencies/clock"
	"github.com/mcoot/xrkiosk/internal/dependencies/origin"
	"github.com/mcoot/xrkiosk/internal/dependencies/random"
	"github.com/mcoot/xrkiosk/internal/services/auth"
	"github.com/mcoot/xrkiosk/internal/services/kiosk"
	"github.com/mcoot/xrkiosk/internal/services/registration"
	"github.com/mcoot/xrkiosk/internal/services/staff"
	"github.com/mcoot/xrkiosk/internal/storage"
	"github.com/mcoot/xrkiosk/internal/storage/memory"
	redisstorage "github.com/mcoot/xrkiosk/internal/storage/redis"
	"github.com/mcoot/xrkiosk/internal/storage/sqlite"
)

// Backend type constants
const (
	StorageTypeMemory = config.BackendMemory
	StorageTypeRedis  = config.BackendRedis
	StorageTypeSQLite = config.BackendSQLite

	BlobTypeMemory = config.BackendMemory
	BlobTypeRedis  = config.BackendRedis
	BlobTypeFile   = config.BackendFile
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Blobs   *blob.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Origin origin.Resolver

	// Services
	RegistrationController *registration.Controller
	StaffController        *staff.Controller
	Kiosks                 *kiosk.Registry
	AuthService            *auth.Service

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the document store ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType or BlobType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// BlobType selects the artifact store ("memory", "redis" or "file")
	// If empty, defaults to "memory"
	BlobType string
	// BlobDir is the artifact directory (required if BlobType is "file")
	BlobDir string
	// PublicBaseURL prefixes artifact references
	PublicBaseURL string
	// Registration holds the kiosk settings
	Registration registration.Config
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// SessionIdleTimeout drops kiosk sessions nobody touched (optional)
	SessionIdleTimeout time.Duration
}

// ConfigFromEnv maps the parsed environment onto a factory Config
func ConfigFromEnv(c *config.Config, logger *slog.Logger) Config {
	cfg := Config{
		Logger:        logger,
		StorageType:   c.StorageType,
		SQLitePath:    c.SQLitePath,
		BlobType:      c.BlobType,
		BlobDir:       c.BlobDir,
		PublicBaseURL: c.PublicBaseURL,
		Registration: registration.Config{
			StoreID:           c.StoreID,
			MaxPlayers:        c.MaxPlayers,
			TermsVersion:      c.TermsVersion,
			TeamNameInputStep: c.TeamNameInputStep,
			Games:             c.GameCatalog(),
		},
		AuthConfig: auth.Config{
			PINHash:         c.StaffPINHash,
			SessionDuration: c.StaffSessionTTL,
		},
	}
	if c.RedisURL != "" {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.TeamTTL = c.TeamTTL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	// Create storage based on type
	var store storage.Storage
	var redisClient *redis.Client
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.NewWithLogger(logger)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
		redisClient = redisStore.Client()
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}
	closers = append(closers, store)

	// Create blob backend based on type
	var backend blob.Backend
	blobType := cfg.BlobType
	if blobType == "" {
		blobType = BlobTypeMemory
	}

	switch blobType {
	case BlobTypeMemory:
		backend = memoryblob.New()
	case BlobTypeFile:
		fileBackend, err := fileblob.New(cfg.BlobDir)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open blob dir: %w", err)
		}
		backend = fileBackend
	case BlobTypeRedis:
		if redisClient == nil {
			if cfg.RedisConfig == nil {
				closeAll()
				return nil, errors.New("RedisConfig required when BlobType is redis")
			}
			client, err := dialRedis(*cfg.RedisConfig)
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			redisClient = client
			closers = append(closers, client)
		}
		backend = redisblob.New(redisClient, 0)
	default:
		closeAll()
		return nil, errors.New("invalid BlobType: must be 'memory', 'redis' or 'file'")
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg.SessionDuration = auth.DefaultConfig().SessionDuration
	}

	app := newWithDependencies(dependencies{
		store:       store,
		blobs:       blob.New(backend, cfg.PublicBaseURL),
		clock:       clock.New(),
		random:      random.New(),
		origin:      origin.New(),
		reg:         cfg.Registration,
		auth:        authCfg,
		idleTimeout: cfg.SessionIdleTimeout,
		logger:      logger,
	})
	app.closers = closers
	return app, nil
}

func dialRedis(cfg redisstorage.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type dependencies struct {
	store       storage.Storage
	blobs       *blob.Store
	clock       clock.Clock
	random      random.Random
	origin      origin.Resolver
	reg         registration.Config
	auth        auth.Config
	idleTimeout time.Duration
	logger      *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(d dependencies) *App {
	regController := registration.NewController(d.reg, d.store, d.blobs, d.origin, d.clock, d.random, d.logger)
	staffController := staff.NewController(d.store, d.blobs, d.clock, d.logger)

	return &App{
		Storage:                d.store,
		Blobs:                  d.blobs,
		Clock:                  d.clock,
		Random:                 d.random,
		Origin:                 d.origin,
		RegistrationController: regController,
		StaffController:        staffController,
		Kiosks:                 kiosk.New(regController, staffController, d.clock, d.idleTimeout, d.logger),
		AuthService:            auth.New(d.clock, d.random, d.auth, d.logger),
	}
}

// Close releases the storage connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
