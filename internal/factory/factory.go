package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ravenkeep/townsquare/internal/dependencies/clock"
	"github.com/ravenkeep/townsquare/internal/dependencies/random"
	"github.com/ravenkeep/townsquare/internal/registry"
	"github.com/ravenkeep/townsquare/internal/registry/memory"
	redisregistry "github.com/ravenkeep/townsquare/internal/registry/redis"
	"github.com/ravenkeep/townsquare/internal/services/content"
	"github.com/ravenkeep/townsquare/internal/services/directory"
	"github.com/ravenkeep/townsquare/internal/services/identity"
	"github.com/ravenkeep/townsquare/internal/services/roles"
	"github.com/ravenkeep/townsquare/internal/services/session"
	"github.com/ravenkeep/townsquare/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	Store registry.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Directory *directory.Service
	Identity  *identity.Service
	Sessions  *session.Controller
	Roles     *roles.Broadcaster
	Content   *content.Service
	Manager   *ws.Manager
	WSHandler *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the registry backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisregistry.Config
	// EditionsDir is a directory of edition JSON files (optional)
	EditionsDir string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store registry.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisregistry.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(store, clock.New(), random.New(), logger)

	if cfg.EditionsDir != "" {
		if err := app.Content.LoadDir(cfg.EditionsDir); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store registry.Store, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	manager := ws.NewManager(logger)
	dir := directory.NewService(store, rnd, logger)
	ident := identity.NewService(store, logger)
	sessions := session.NewController(dir, ident, manager, logger)
	broadcaster := roles.NewBroadcaster(dir, ident, manager, logger)
	contentService := content.New()
	wsHandler := ws.NewHandler(manager, sessions, broadcaster, clk, logger)

	return &App{
		Store:     store,
		Clock:     clk,
		Random:    rnd,
		Directory: dir,
		Identity:  ident,
		Sessions:  sessions,
		Roles:     broadcaster,
		Content:   contentService,
		Manager:   manager,
		WSHandler: wsHandler,
	}
}
