package factory

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"

	"github.com/mcoot/playgate/internal/api"
	"github.com/mcoot/playgate/internal/identity"
	"github.com/mcoot/playgate/internal/services/viewer"
	redisstorage "github.com/mcoot/playgate/internal/storage/redis"
	"github.com/mcoot/playgate/internal/token"
)

// EnvConfig is the server configuration read from PLAYGATE_* variables
type EnvConfig struct {
	Host            string        `env:"PLAYGATE_HOST"`
	Port            int           `env:"PLAYGATE_PORT"             envDefault:"8080"`
	LogLevel        string        `env:"PLAYGATE_LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"PLAYGATE_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	StorageType       string `env:"PLAYGATE_STORAGE_TYPE"         envDefault:"memory"`
	RedisURL          string `env:"PLAYGATE_REDIS_URL"`
	RedisPoolSize     int    `env:"PLAYGATE_REDIS_POOL_SIZE"      envDefault:"10"`
	RedisMinIdleConns int    `env:"PLAYGATE_REDIS_MIN_IDLE_CONNS" envDefault:"2"`

	IdentityMode string `env:"PLAYGATE_IDENTITY_MODE" envDefault:"accept-all"`
	BcryptCost   int    `env:"PLAYGATE_BCRYPT_COST"`

	TokenSecret string        `env:"PLAYGATE_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"PLAYGATE_TOKEN_TTL"    envDefault:"24h"`

	ViewerIdleTTL time.Duration `env:"PLAYGATE_VIEWER_IDLE_TTL" envDefault:"30m"`
	ViewerSweep   time.Duration `env:"PLAYGATE_VIEWER_SWEEP"    envDefault:"1m"`
	AuthTimeout   time.Duration `env:"PLAYGATE_AUTH_TIMEOUT"    envDefault:"15s"`
	AuthInterval  time.Duration `env:"PLAYGATE_AUTH_INTERVAL"   envDefault:"6s"`
	AuthBurst     int           `env:"PLAYGATE_AUTH_BURST"      envDefault:"5"`

	CatalogPath string `env:"PLAYGATE_CATALOG_PATH"`
	// id=path pairs, comma separated
	CatalogPages map[string]string `env:"PLAYGATE_CATALOG_PAGES" envKeyValSeparator:"="`
}

// LoadEnvConfig reads EnvConfig from the environment
func LoadEnvConfig() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level name, defaulting to info
func (c EnvConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ServerConfig returns the HTTP server settings
func (c EnvConfig) ServerConfig() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.Host
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	if c.ShutdownTimeout != 0 {
		cfg.ShutdownTimeout = c.ShutdownTimeout
	}
	return cfg
}

// FactoryConfig converts the environment into factory settings
func (c EnvConfig) FactoryConfig(logger *slog.Logger) (Config, error) {
	cfg := Config{
		Logger:       logger,
		StorageType:  c.StorageType,
		IdentityMode: identity.Mode(c.IdentityMode),
		Token:        token.Config{Secret: c.TokenSecret, TTL: c.TokenTTL},
		Viewers: viewer.ManagerConfig{
			IdleTTL: c.ViewerIdleTTL,
			Viewer: viewer.Config{
				AuthTimeout: c.AuthTimeout,
				AuthRate:    rate.Every(c.AuthInterval),
				AuthBurst:   c.AuthBurst,
			},
		},
		CatalogPath:  c.CatalogPath,
		CatalogPages: c.CatalogPages,
	}
	if c.BcryptCost != 0 {
		cfg.Local = identity.LocalConfig{BcryptCost: c.BcryptCost}
	}

	if c.StorageType == StorageTypeRedis {
		if c.RedisURL == "" {
			return Config{}, fmt.Errorf("PLAYGATE_REDIS_URL required when PLAYGATE_STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.PoolSize = c.RedisPoolSize
		redisCfg.MinIdleConns = c.RedisMinIdleConns
		cfg.RedisConfig = &redisCfg
	}
	return cfg, nil
}
