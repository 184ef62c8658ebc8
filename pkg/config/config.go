// Package config loads the process configuration of a signed exchange server.
package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/defs"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/authentication"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/internal/logging"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/metrics"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/middleware/exchange"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/noncestore"
)

// PostgresDriver is the database/sql driver name used for the postgres nonce store.
// The driver must be registered by the binary, e.g. with a blank import of github.com/lib/pq.
const PostgresDriver = "postgres"

var sqlDriver = PostgresDriver

// Config is the YAML configuration of a signed exchange server.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	NonceStore NonceStoreConfig `yaml:"nonce_store"`
	Keys       KeysConfig       `yaml:"keys"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type LoggingConfig struct {
	Level   defs.LogLevel   `yaml:"level"`
	Handler defs.LogHandler `yaml:"handler"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type ExchangeConfig struct {
	AllowedClockSkew time.Duration `yaml:"allowed_clock_skew"`
	MaxBodySize      int64         `yaml:"max_body_size"`
	IncludeQuery     bool          `yaml:"include_query"`
}

// NonceStoreConfig selects where used nonces are remembered.
// DSN is required for the postgres store.
type NonceStoreConfig struct {
	Type          defs.NonceStoreType `yaml:"type"`
	DSN           string              `yaml:"dsn,omitempty"`
	TableName     string              `yaml:"table_name,omitempty"`
	PruneInterval time.Duration       `yaml:"prune_interval,omitempty"`
}

// KeysConfig points at the identities file and holds the default response signing key
// (secp256k1, hex or WIF).
type KeysConfig struct {
	File      string `yaml:"file"`
	ServerKey string `yaml:"server_key,omitempty"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace,omitempty"`
}

// Default returns the configuration used for every value missing from the file.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:   defs.LogLevelInfo,
			Handler: defs.JSONHandler,
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Exchange: ExchangeConfig{
			AllowedClockSkew: authentication.DefaultAllowedClockSkew,
			MaxBodySize:      authentication.DefaultMaxBodySize,
		},
		NonceStore: NonceStoreConfig{
			Type:          defs.NonceStoreMemory,
			TableName:     noncestore.DefaultTableName,
			PruneInterval: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: metrics.DefaultNamespace,
		},
	}
}

// Load reads and validates the YAML configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration, filling in defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes enum values and checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	level, err := defs.ParseLogLevelStr(string(c.Logging.Level))
	if err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	c.Logging.Level = level

	handler, err := defs.ParseHandlerTypeStr(string(c.Logging.Handler))
	if err != nil {
		errs = append(errs, fmt.Errorf("logging.handler: %w", err))
	}
	c.Logging.Handler = handler

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Exchange.AllowedClockSkew <= 0 {
		errs = append(errs, fmt.Errorf("exchange.allowed_clock_skew must be positive, got %s", c.Exchange.AllowedClockSkew))
	}
	if c.Exchange.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("exchange.max_body_size must be positive, got %d", c.Exchange.MaxBodySize))
	}

	storeType, err := defs.ParseNonceStoreTypeStr(string(c.NonceStore.Type))
	if err != nil {
		errs = append(errs, fmt.Errorf("nonce_store.type: %w", err))
	}
	c.NonceStore.Type = storeType
	if storeType == defs.NonceStorePostgres && c.NonceStore.DSN == "" {
		errs = append(errs, errors.New("nonce_store.dsn is required for postgres nonce store"))
	}
	if c.NonceStore.PruneInterval <= 0 {
		errs = append(errs, fmt.Errorf("nonce_store.prune_interval must be positive, got %s", c.NonceStore.PruneInterval))
	}

	if c.Keys.File == "" {
		errs = append(errs, errors.New("keys.file is required"))
	}

	return errors.Join(errs...)
}

// NewLogger creates the process logger writing to w.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(c.Logging.Level, c.Logging.Handler, w)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// ServerSigner parses the default response signing key. It returns nil when no key is configured.
func (c *Config) ServerSigner() (*keys.Secp256k1PrivateKey, error) {
	if c.Keys.ServerKey == "" {
		return nil, nil //nolint:nilnil // no server key is a valid configuration
	}
	key, err := keys.ParseSecp256k1PrivateKey(c.Keys.ServerKey)
	if err != nil {
		return nil, fmt.Errorf("keys.server_key: %w", err)
	}
	return key, nil
}

// KeyStore loads the identities file.
func (c *Config) KeyStore() (*keystore.MemoryStore, error) {
	store, err := keystore.LoadFile(c.Keys.File)
	if err != nil {
		return nil, fmt.Errorf("keys.file: %w", err)
	}
	return store, nil
}

// OpenNonceStore opens the configured nonce store. The returned cleanup releases its resources.
// The postgres store is migrated and pruned every PruneInterval until ctx is done.
func (c *Config) OpenNonceStore(ctx context.Context, log *slog.Logger) (noncestore.Store, func(), error) {
	switch c.NonceStore.Type {
	case defs.NonceStoreMemory:
		store := noncestore.NewMemoryStore()
		return store, store.Close, nil
	case defs.NonceStorePostgres:
		return c.openSQLNonceStore(ctx, logging.DefaultIfNil(log))
	default:
		return nil, nil, fmt.Errorf("unsupported nonce store type %q", c.NonceStore.Type)
	}
}

func (c *Config) openSQLNonceStore(ctx context.Context, log *slog.Logger) (noncestore.Store, func(), error) {
	db, err := sql.Open(sqlDriver, c.NonceStore.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open nonce database: %w", err)
	}

	store, err := noncestore.NewSQLStore(db, noncestore.WithTableName(c.NonceStore.TableName))
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create nonce store: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate nonce store: %w", err)
	}

	pruneCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		prune(pruneCtx, log, store, c.NonceStore.PruneInterval, 2*c.Exchange.AllowedClockSkew)
	}()

	cleanup := func() {
		cancel()
		<-done
		if err := db.Close(); err != nil {
			log.Warn("Failed to close nonce database", logging.Error(err))
		}
	}
	return store, cleanup, nil
}

func prune(ctx context.Context, log *slog.Logger, store *noncestore.SQLStore, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Prune(ctx, retention)
			if err != nil {
				log.WarnContext(ctx, "Failed to prune nonces", logging.Error(err))
				continue
			}
			log.DebugContext(ctx, "Pruned nonces", slog.Int64("removed", removed))
		}
	}
}

// ExchangeOptions translates the exchange section into middleware options.
func (c *Config) ExchangeOptions() []func(*exchange.Config) {
	return []func(*exchange.Config){
		exchange.WithAllowedClockSkew(c.Exchange.AllowedClockSkew),
		exchange.WithMaxBodySize(c.Exchange.MaxBodySize),
		exchange.WithIncludeQuery(c.Exchange.IncludeQuery),
	}
}
