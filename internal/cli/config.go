package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/httputil"
)

// defaultConfigPath is used when --config is not given. A missing default
// file is fine; a missing explicit one is an error.
const defaultConfigPath = "sitestats.toml"

// Cache backend names accepted in the config file.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config is the sitestats.toml file. Secrets never live here: the GitHub
// token comes from GITHUB_TOKEN and the analytics token from GA_ACCESS_TOKEN.
type Config struct {
	DataDir string `toml:"data_dir"`

	Cache struct {
		Backend    string `toml:"backend"`
		Dir        string `toml:"dir"`
		TTLSeconds int    `toml:"ttl_seconds"`
	} `toml:"cache"`

	Redis cache.RedisConfig `toml:"redis"`

	Retry struct {
		MaxAttempts int `toml:"max_attempts"`
		BaseDelayMS int `toml:"base_delay_ms"`
		MaxDelayMS  int `toml:"max_delay_ms"`
	} `toml:"retry"`

	DockerHub struct {
		Namespace string `toml:"namespace"`
	} `toml:"dockerhub"`

	GitHub struct {
		Owner string `toml:"owner"`
		Token string `toml:"-"` // GITHUB_TOKEN only
	} `toml:"github"`

	Analytics struct {
		PropertyID     string `toml:"property_id"`
		BlogPathPrefix string `toml:"blog_path_prefix"`
		AccessToken    string `toml:"-"` // GA_ACCESS_TOKEN only
	} `toml:"analytics"`

	Serve struct {
		Addr string `toml:"addr"`
	} `toml:"serve"`
}

// LoadConfig reads the config file at path, or the default path when path is
// empty. The default file may be absent; defaults and environment variables
// still apply.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			// No config file: env vars and flags carry everything.
		} else {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "load config %s", path)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Analytics.BlogPathPrefix == "" {
		c.Analytics.BlogPathPrefix = "/blog/"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("GA_ACCESS_TOKEN"); v != "" {
		c.Analytics.AccessToken = v
	}
}

// CacheTTL returns the configured response TTL, or zero to accept the cache
// package default.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// RetryPlan translates the retry section into a plan, leaving unset fields
// at their defaults.
func (c *Config) RetryPlan() httputil.RetryPlan {
	plan := httputil.DefaultRetryPlan()
	if c.Retry.MaxAttempts > 0 {
		plan.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.BaseDelayMS > 0 {
		plan.BaseDelay = time.Duration(c.Retry.BaseDelayMS) * time.Millisecond
	}
	if c.Retry.MaxDelayMS > 0 {
		plan.MaxDelay = time.Duration(c.Retry.MaxDelayMS) * time.Millisecond
	}
	return plan
}
