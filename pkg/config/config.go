// Package config loads flow's TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/flow/config.toml (falling back to
// ~/.config/flow/config.toml) unless a path is given explicitly. Every key
// is optional; missing keys keep the values from [Default].
//
//	[server]
//	addr = ":8080"
//	allowed_origins = ["http://localhost:5173"]
//
//	[storage]
//	backend = "file"
//	dir = "~/.local/share/flow/maps"
//	workspace_limit = 10
//
//	[editor]
//	autosave_window = "2s"
//	cursor_stale_after = "30s"
//
//	[collab]
//	backend = "redis"
//
//	[redis]
//	addr = "localhost:6379"
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/cooketh/flow/pkg/canvas"
	"github.com/cooketh/flow/pkg/collab"
	"github.com/cooketh/flow/pkg/errors"
	"github.com/cooketh/flow/pkg/storage"
)

// AppName names the configuration and cache directories.
const AppName = "flow"

// Config is the complete configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Redis     RedisConfig     `toml:"redis"`
	Mongo     MongoConfig     `toml:"mongo"`
	Editor    EditorConfig    `toml:"editor"`
	Collab    CollabConfig    `toml:"collab"`
	Cache     CacheConfig     `toml:"cache"`
	Generator GeneratorConfig `toml:"generator"`
}

// ServerConfig configures `flow serve`.
type ServerConfig struct {
	Addr           string        `toml:"addr" validate:"required"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	ReadTimeout    time.Duration `toml:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `toml:"write_timeout" validate:"gte=0"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend        string `toml:"backend" validate:"oneof=memory file redis mongo"`
	Dir            string `toml:"dir" validate:"required_if=Backend file"`
	WorkspaceLimit int    `toml:"workspace_limit" validate:"gte=0"`
}

// RedisConfig is shared by the redis store, the redis cache and the redis
// collaboration channel.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig configures the mongo store.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// EditorConfig holds interactive editing settings.
type EditorConfig struct {
	AutosaveWindow   time.Duration `toml:"autosave_window" validate:"gt=0"`
	CursorStaleAfter time.Duration `toml:"cursor_stale_after" validate:"gte=0"`
	UserName         string        `toml:"user_name"`
	Theme            string        `toml:"theme" validate:"oneof=light dark"`
}

// CollabConfig selects the presence transport.
type CollabConfig struct {
	Backend string `toml:"backend" validate:"oneof=hub redis"`
}

// CacheConfig configures the render artifact cache.
type CacheConfig struct {
	Backend string `toml:"backend" validate:"oneof=none file redis"`
	Dir     string `toml:"dir"`
}

// GeneratorConfig points at the optional generation endpoint. Without an
// endpoint the built-in fallback graph is used.
type GeneratorConfig struct {
	Endpoint string        `toml:"endpoint" validate:"omitempty,url"`
	APIKey   string        `toml:"api_key"`
	Timeout  time.Duration `toml:"timeout" validate:"gte=0"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Backend:        storage.BackendFile,
			Dir:            filepath.Join(dataHome(), AppName, "maps"),
			WorkspaceLimit: storage.DefaultLimit,
		},
		Redis: RedisConfig{Addr: "localhost:6379", Prefix: AppName + ":"},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   AppName,
			Collection: storage.DefaultMongoCollection,
		},
		Editor: EditorConfig{
			AutosaveWindow:   canvas.DefaultQuietWindow,
			CursorStaleAfter: collab.DefaultStaleAfter,
			Theme:            "light",
		},
		Collab:    CollabConfig{Backend: "hub"},
		Cache:     CacheConfig{Backend: "file", Dir: filepath.Join(cacheHome(), AppName)},
		Generator: GeneratorConfig{Timeout: 60 * time.Second},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/flow/config.toml.
func DefaultPath() string {
	return filepath.Join(configHome(), AppName, "config.toml")
}

// Load reads the file at path over [Default]. An empty path loads
// [DefaultPath] and tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open config")
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML from r over [Default] and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.New(errors.ErrCodeInvalidInput, "config %s: invalid value %v (%s)",
				strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config.")), fe.Value(), fe.Tag())
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "config")
	}
	return nil
}

// StoreConfig converts the storage, redis and mongo sections for
// [storage.Open].
func (c Config) StoreConfig() storage.Config {
	return storage.Config{
		Backend: c.Storage.Backend,
		Dir:     c.Storage.Dir,
		Redis: storage.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
		Mongo: storage.MongoConfig{
			URI:        c.Mongo.URI,
			Database:   c.Mongo.Database,
			Collection: c.Mongo.Collection,
		},
	}
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(home(), ".config")
}

func cacheHome() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(home(), ".cache")
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(home(), ".local", "share")
}

func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return h
}

func expandHome(p string) string {
	if p == "~" {
		return home()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home(), p[2:])
	}
	return p
}
