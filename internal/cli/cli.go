// Package cli implements the sitestats command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/neonvariant/sitestats/pkg/buildinfo"
	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
)

// appName is the application name used for directories and display.
const appName = "sitestats"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "sitestats",
		Short:        "Sitestats collects public metrics for a website",
		Long:         `Sitestats fetches Docker Hub pulls, GitHub stars, and Google Analytics page views and publishes them as versioned JSON snapshots for a static site.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default sitestats.toml)")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the config file once and memoizes it for the process.
func (c *CLI) loadConfig() (*Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// newCache builds the HTTP response cache backend from the config. The
// default is an in-memory cache that lives for one process, so scheduled
// runs always see fresh data; file and redis backends are explicit opt-ins.
func (c *CLI) newCache(cmd *cobra.Command, cfg *Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "", BackendMemory:
		return cache.NewMemoryCache(), nil
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendFile:
		dir, err := c.cacheFileDir(cfg)
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	case BackendRedis:
		return cache.NewRedisCache(cmd.Context(), cfg.Redis)
	default:
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown cache backend %q", cfg.Cache.Backend)
	}
}

// cacheFileDir resolves the file-backend directory: the configured one, or
// the XDG standard location (~/.cache/sitestats/).
func (c *CLI) cacheFileDir(cfg *Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfiguration, err, "resolve cache dir")
	}
	return filepath.Join(home, ".cache", appName), nil
}
