package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/playgate/internal/api"
	"github.com/mcoot/playgate/internal/catalog"
	"github.com/mcoot/playgate/internal/dependencies/clock"
	"github.com/mcoot/playgate/internal/dependencies/random"
	"github.com/mcoot/playgate/internal/identity"
	"github.com/mcoot/playgate/internal/metrics"
	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/services/viewer"
	"github.com/mcoot/playgate/internal/sse"
	"github.com/mcoot/playgate/internal/storage"
	"github.com/mcoot/playgate/internal/storage/memory"
	redisstorage "github.com/mcoot/playgate/internal/storage/redis"
	"github.com/mcoot/playgate/internal/token"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Account storage, used by the local identity provider
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Identity identity.Provider
	Catalog  *catalog.Service
	Tokens   *token.Issuer
	Metrics  *metrics.Metrics
	Hubs     *sse.HubManager
	Viewers  *viewer.Manager

	tokenTTL time.Duration
	logger   *slog.Logger
	closers  []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// IdentityMode selects the identity provider, defaulting to accept-all
	IdentityMode identity.Mode
	// Local holds settings for the local identity provider
	Local identity.LocalConfig
	// Token holds viewer token settings. A random secret is generated when
	// Secret is empty, which invalidates tokens on restart.
	Token token.Config
	// Viewers holds viewer lifetime settings
	Viewers viewer.ManagerConfig
	// CatalogPath is an optional JSON file loaded on top of the built-in titles
	CatalogPath string
	// CatalogPages maps media IDs to saved detail pages to import
	CatalogPages map[string]string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	var closers []io.Closer
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
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	if cfg.Token.Secret == "" {
		logger.Warn("no token secret configured, generating one for this process")
		cfg.Token.Secret = rnd.String(48, secretAlphabet)
	}

	provider, err := newProvider(cfg, store, clk, logger)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, clk, rnd, provider, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = closers

	if cfg.CatalogPath != "" {
		if err := app.Catalog.LoadFromFile(cfg.CatalogPath); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}
	for id, path := range cfg.CatalogPages {
		if err := app.Catalog.LoadFromPage(model.MediaID(id), path); err != nil {
			return nil, fmt.Errorf("import page %s: %w", path, err)
		}
	}
	return app, nil
}

const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newProvider(cfg Config, store storage.Storage, clk clock.Clock, logger *slog.Logger) (identity.Provider, error) {
	switch cfg.IdentityMode {
	case "", identity.ModeAcceptAll:
		return identity.NewAcceptAll(clk), nil
	case identity.ModeLocal:
		localCfg := cfg.Local
		if localCfg.BcryptCost == 0 {
			localCfg = identity.DefaultLocalConfig()
		}
		return identity.NewLocal(store, clk, localCfg, logger), nil
	default:
		return nil, fmt.Errorf("invalid IdentityMode %q: must be %q or %q",
			cfg.IdentityMode, identity.ModeAcceptAll, identity.ModeLocal)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	provider identity.Provider,
	cfg Config,
	logger *slog.Logger,
) (*App, error) {
	tokenCfg := cfg.Token
	if tokenCfg.TTL == 0 {
		tokenCfg.TTL = token.DefaultConfig().TTL
	}
	tokens, err := token.NewIssuer(tokenCfg, clk)
	if err != nil {
		return nil, err
	}

	viewerCfg := cfg.Viewers
	if viewerCfg.IdleTTL == 0 {
		viewerCfg.IdleTTL = viewer.DefaultManagerConfig().IdleTTL
	}

	m := metrics.New()
	hubs := sse.NewHubManager(logger)
	viewers := viewer.NewManager(provider, clk, rnd, viewerCfg, m, logger)
	viewers.AddObserver(m)
	viewers.AddObserver(sse.NewBridge(hubs, logger))

	logger.Info("application wired",
		slog.String("identity_mode", string(identityModeOrDefault(cfg.IdentityMode))),
		slog.Duration("viewer_idle_ttl", viewerCfg.IdleTTL))

	return &App{
		Storage:  store,
		Clock:    clk,
		Random:   rnd,
		Identity: provider,
		Catalog:  catalog.NewSeeded(),
		Tokens:   tokens,
		Metrics:  m,
		Hubs:     hubs,
		Viewers:  viewers,
		tokenTTL: tokenCfg.TTL,
		logger:   logger,
	}, nil
}

func identityModeOrDefault(mode identity.Mode) identity.Mode {
	if mode == "" {
		return identity.ModeAcceptAll
	}
	return mode
}

// Router builds the HTTP handler serving the API and metrics
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:   a.logger,
		Viewers:  a.Viewers,
		Catalog:  a.Catalog,
		Tokens:   a.Tokens,
		TokenTTL: a.tokenTTL,
		Hubs:     a.Hubs,
		Metrics:  a.Metrics.Handler(),
	})
}

// Close stops every viewer and releases storage connections
func (a *App) Close() error {
	a.Viewers.CloseAll()
	a.Hubs.CloseAll()

	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
