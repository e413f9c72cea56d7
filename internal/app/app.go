package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/runstore"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	store    runstore.Store
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry, and
// run-history store.
func NewApp(outW io.Writer, config *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		if err := mod.Register(reg); err != nil {
			return nil, fmt.Errorf("registering modules: %w", err)
		}
	}
	logger.Debug("All node modules registered.", "count", len(modules))

	store, err := newStore(config.StorePath)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	logger.Debug("Run store opened.", "path", config.StorePath)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		registry: reg,
		store:    store,
	}, nil
}

// newStore selects the run-history backend from the configured path: empty
// keeps history in memory, a redis:// URL selects Redis, anything else is a
// SQLite database path.
func newStore(path string) (runstore.Store, error) {
	switch {
	case path == "":
		return runstore.NewMemoryStore(), nil
	case strings.HasPrefix(path, "redis://"):
		u, err := url.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("parsing redis store URL: %w", err)
		}
		password, _ := u.User.Password()
		return runstore.NewRedisStore(runstore.RedisOptions{
			Addr:     u.Host,
			Password: password,
		}), nil
	default:
		return runstore.NewSQLiteStore(path)
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Store returns the application's run store. This is primarily for testing.
func (a *App) Store() runstore.Store {
	return a.store
}

// Close releases the run store.
func (a *App) Close() error {
	return a.store.Close()
}
