package cli

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/cooketh/flow/pkg/cache"
	"github.com/cooketh/flow/pkg/config"
	"github.com/cooketh/flow/pkg/generate"
	"github.com/cooketh/flow/pkg/pipeline"
	"github.com/cooketh/flow/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger and the default
// configuration. The configuration file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the configuration file chosen with --config.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.Instrument(cache.NewRedisCache(c.redisClient(), c.cfg.Redis.Prefix+"cache:")), nil
	}
	fc, err := cache.NewFileCache(c.cfg.Cache.Dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.Instrument(fc), nil
}

func (c *CLI) redisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.Addr,
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})
}

// openWorkspace opens the configured store.
func (c *CLI) openWorkspace(ctx context.Context) (*storage.Workspace, error) {
	s, err := storage.Open(ctx, c.cfg.StoreConfig())
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("opened store", "backend", c.cfg.Storage.Backend)
	return storage.NewWorkspace(s, c.cfg.Storage.WorkspaceLimit), nil
}

// newGenerator returns the generation service. Without a configured
// endpoint every prompt uses the built-in graph.
func (c *CLI) newGenerator() *generate.Service {
	var gen generate.Generator
	if c.cfg.Generator.Endpoint != "" {
		gen = generate.NewHTTPGenerator(c.cfg.Generator.Endpoint, c.cfg.Generator.APIKey,
			generate.WithHTTPClient(&http.Client{Timeout: c.cfg.Generator.Timeout}))
	}
	return generate.NewService(gen, generate.WithLogger(c.Logger))
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}
