package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/corey/colrecon/internal/adapters/registry"
	"github.com/corey/colrecon/internal/domain/history"
	"github.com/corey/colrecon/internal/domain/resolver"
)

// Storage backends. Each adapter registers itself under its kind.
const (
	BackendBBolt    = "bbolt"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DefaultTenant is used when no tenant is configured.
const DefaultTenant = "default"

// DefaultAddr is the review API listen address.
const DefaultAddr = "127.0.0.1:8750"

// ErrUnknownBackend is returned when the configured store kind has no adapter.
var ErrUnknownBackend = registry.ErrUnknownBackend

// Environment variables, highest precedence.
const (
	EnvStore         = "COLRECON_STORE"
	EnvDSN           = "COLRECON_DSN"
	EnvTenant        = "COLRECON_TENANT"
	EnvAliasDir      = "COLRECON_ALIAS_DIR"
	EnvAddr          = "COLRECON_ADDR"
	EnvPruneSchedule = "COLRECON_PRUNE_SCHEDULE"
	EnvLogLevel      = "COLRECON_LOG_LEVEL"
)

// Config is the resolved runtime configuration.
//
// Precedence, lowest first: DefaultConfig, the YAML config file, the project
// .env file, the process environment.
type Config struct {
	Store    string `yaml:"store"`
	DSN      string `yaml:"dsn"`
	Tenant   string `yaml:"tenant"`
	AliasDir string `yaml:"alias_dir"`
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	Retention Retention       `yaml:"retention"`
	Params    resolver.Params `yaml:"params"`
}

// Retention configures history pruning. An empty Schedule disables the
// scheduled prune in serve; `history prune` can still run it by hand.
type Retention struct {
	Schedule       string `yaml:"schedule"`
	history.Policy `yaml:",inline"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig(paths *Paths) Config {
	return Config{
		Store:    BackendBBolt,
		Tenant:   DefaultTenant,
		AliasDir: paths.AliasDir,
		Addr:     DefaultAddr,
		LogLevel: "info",
		Params:   resolver.DefaultParams(),
	}
}

// LoadConfig layers the config file, .env and environment over the defaults.
// configPath overrides paths.Config; an explicit path must exist, the default
// one is optional.
func LoadConfig(paths *Paths, configPath string) (Config, error) {
	cfg := DefaultConfig(paths)

	file, explicit := paths.Config, configPath != ""
	if explicit {
		file = configPath
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", file, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dotenv, err := godotenv.Read(paths.EnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read %s: %w", paths.EnvFile, err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	for key, dst := range map[string]*string{
		EnvStore:         &cfg.Store,
		EnvDSN:           &cfg.DSN,
		EnvTenant:        &cfg.Tenant,
		EnvAliasDir:      &cfg.AliasDir,
		EnvAddr:          &cfg.Addr,
		EnvPruneSchedule: &cfg.Retention.Schedule,
		EnvLogLevel:      &cfg.LogLevel,
	} {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	cfg.Store = strings.ToLower(cfg.Store)
	if cfg.DSN == "" {
		switch cfg.Store {
		case BackendBBolt:
			cfg.DSN = paths.DB
		case BackendSQLite:
			cfg.DSN = paths.SQLite
		}
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Store == "" {
		errs = append(errs, errors.New("store is required"))
	}
	if c.DSN == "" {
		errs = append(errs, fmt.Errorf("dsn is required for store %q", c.Store))
	}
	if c.Tenant == "" {
		errs = append(errs, errors.New("tenant is required"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(c.Retention.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("retention schedule %q: %w", c.Retention.Schedule, err))
		}
		if !c.Retention.Enabled() {
			errs = append(errs, errors.New("retention schedule set but max_age and keep_per_header are both zero"))
		}
	}
	if c.Retention.MaxAge < 0 || c.Retention.KeepPerHeader < 0 {
		errs = append(errs, errors.New("retention limits must not be negative"))
	}
	if err := c.Params.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
