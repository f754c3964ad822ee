// Package config loads taintview settings from a TOML file.
//
// The default location is $XDG_CONFIG_HOME/taintview/config.toml (falling
// back to ~/.config). A missing file is not an error: every setting has a
// default, and command-line flags override whatever the file sets.
//
//	policy = "TAINT_BRANCH"
//	strategy = "branch"
//
//	[canvas]
//	scale = 1200
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	[cache.redis]
//	addr = "localhost:6379"
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/taintview/pkg/cache"
	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/layout"
	"github.com/matzehuels/taintview/pkg/store"
	"github.com/matzehuels/taintview/pkg/taint"
	"github.com/matzehuels/taintview/pkg/trace"
)

// AppName names the config, cache and data directories.
const AppName = "taintview"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Trace schema modes.
const (
	SchemaAuto  = "auto"
	SchemaFull  = "full"
	SchemaShort = "short"
)

// Config is the whole settings file.
type Config struct {
	Policy   string `toml:"policy"`
	Strategy string `toml:"strategy"`
	Index    string `toml:"index"`
	Binary   string `toml:"binary"`

	Canvas Canvas `toml:"canvas"`
	Trace  Trace  `toml:"trace"`
	Cache  Cache  `toml:"cache"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Canvas holds layout tuning. Zero values fall back to layout defaults.
type Canvas struct {
	Width        float64 `toml:"width"`
	Height       float64 `toml:"height"`
	Scale        float64 `toml:"scale"`
	RowSlots     int     `toml:"row_slots"`
	RowHeight    float64 `toml:"row_height"`
	Seed         uint64  `toml:"seed"`
	Iterations   int     `toml:"iterations"`
	SingleBranch bool    `toml:"single_branch"`
}

// Trace selects the record column layout. Custom offsets win over Schema.
type Trace struct {
	Schema string        `toml:"schema"`
	Custom *trace.Schema `toml:"custom"`
}

// Cache selects the artifact cache.
type Cache struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	TTL     time.Duration     `toml:"ttl"` // zero keeps the per-stage lifetimes
	Redis   cache.RedisConfig `toml:"redis"`
}

// Store selects where snapshots are persisted.
type Store struct {
	Backend string            `toml:"backend"`
	Path    string            `toml:"path"`
	Mongo   store.MongoConfig `toml:"mongo"`
}

// Server configures `taintview serve`.
type Server struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Policy:   string(taint.PolicyDefault),
		Strategy: layout.Standard,
		Trace:    Trace{Schema: SchemaAuto},
		Cache:    Cache{Backend: CacheFile},
		Store:    Store{Backend: StoreSQLite},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Load reads path on top of the defaults. An empty path means [Path]; a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML into cfg and validates the result. Unknown keys are
// rejected so typos do not pass silently.
func Decode(data string, cfg *Config) error {
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown config key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks enumerations and the custom schema.
func (c Config) Validate() error {
	if _, err := taint.ParsePolicy(c.Policy); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidPolicy, err, "invalid policy %q", c.Policy)
	}
	if c.Strategy != "" && !layout.IsValid(c.Strategy) {
		return apperrors.New(apperrors.ErrCodeUnsupportedStrategy, "unknown strategy %q", c.Strategy)
	}
	switch c.Trace.Schema {
	case "", SchemaAuto, SchemaFull, SchemaShort:
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown trace schema %q", c.Trace.Schema)
	}
	if c.Trace.Custom != nil {
		if err := c.Trace.Custom.Validate(); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid custom schema")
		}
	}
	switch c.Cache.Backend {
	case "", CacheFile, CacheRedis, CacheNone:
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "cache.redis.addr is required")
	}
	switch c.Store.Backend {
	case "", StoreSQLite, StoreMongo:
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == StoreMongo && c.Store.Mongo.URI == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "store.mongo.uri is required")
	}
	return nil
}

// PolicyValue returns the parsed policy.
func (c Config) PolicyValue() taint.Policy {
	p, _ := taint.ParsePolicy(c.Policy)
	return p
}

// LayoutOptions converts the canvas section.
func (c Config) LayoutOptions() layout.Options {
	return layout.Options{
		Width:        c.Canvas.Width,
		Height:       c.Canvas.Height,
		Scale:        c.Canvas.Scale,
		RowSlots:     c.Canvas.RowSlots,
		RowHeight:    c.Canvas.RowHeight,
		Seed:         c.Canvas.Seed,
		Iterations:   c.Canvas.Iterations,
		Policy:       c.PolicyValue(),
		SingleBranch: c.Canvas.SingleBranch,
	}
}

// TraceOptions returns the builder options for the configured schema.
func (c Config) TraceOptions() []taint.Option {
	switch {
	case c.Trace.Custom != nil:
		return []taint.Option{taint.WithSchema(*c.Trace.Custom)}
	case c.Trace.Schema == SchemaFull:
		return []taint.Option{taint.WithSchema(trace.DefaultSchema)}
	case c.Trace.Schema == SchemaShort:
		return []taint.Option{taint.WithSchema(trace.ShortSchema)}
	}
	return nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the configured cache directory or the XDG default
// (~/.cache/taintview).
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// StorePath returns the configured SQLite path or the XDG default
// (~/.local/share/taintview/snapshots.db).
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snapshots.db"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}
