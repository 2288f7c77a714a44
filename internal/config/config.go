package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/shhac/agent-notion-sub000/pkg/connection"
	"github.com/shhac/agent-notion-sub000/pkg/constants"
)

// Environment variables overriding the file.
const (
	EnvConfigPath  = "NOTION_CONFIG"
	EnvBaseURL     = "NOTION_BASE_URL"
	EnvToken       = "NOTION_TOKEN"
	EnvUserID      = "NOTION_USER_ID"
	EnvSpaceID     = "NOTION_SPACE_ID"
	EnvTimeout     = "NOTION_TIMEOUT"
	EnvSlowTimeout = "NOTION_SLOW_TIMEOUT"
	EnvLogLevel    = "NOTION_LOG_LEVEL"
	EnvLogFile     = "NOTION_LOG_FILE"
)

// Duration reads "30s" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	BaseURL     string   `toml:"base_url"`
	Token       string   `toml:"token"`
	UserID      string   `toml:"user_id"`
	SpaceID     string   `toml:"space_id"`
	Timeout     Duration `toml:"timeout"`
	SlowTimeout Duration `toml:"slow_timeout"`
	LogLevel    string   `toml:"log_level"`
	LogFile     string   `toml:"log_file"`
}

func Default() *Config {
	return &Config{
		BaseURL:     constants.DefaultBaseURL,
		Timeout:     Duration{constants.DefaultTimeout},
		SlowTimeout: Duration{constants.DefaultSlowTimeout},
		LogLevel:    "info",
	}
}

// Load reads the TOML file at path over the defaults, then applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv loads the file named by NOTION_CONFIG, if any, and the environment.
func FromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		EnvBaseURL:  &c.BaseURL,
		EnvToken:    &c.Token,
		EnvUserID:   &c.UserID,
		EnvSpaceID:  &c.SpaceID,
		EnvLogLevel: &c.LogLevel,
		EnvLogFile:  &c.LogFile,
	}
	for env, field := range strs {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}

	for env, d := range map[string]*Duration{EnvTimeout: &c.Timeout, EnvSlowTimeout: &c.SlowTimeout} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		if err := d.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

func (c *Config) Credentials() connection.Credentials {
	return connection.Credentials{Token: c.Token, UserID: c.UserID, SpaceID: c.SpaceID}
}

// Connection builds the transport configuration.
func (c *Config) Connection(log zerolog.Logger) (*connection.Config, error) {
	if c.BaseURL == "" {
		return nil, constants.ErrNoBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", constants.ErrNoBaseURL, c.BaseURL)
	}

	cfg := connection.NewConfig(u, c.Credentials())
	if c.Timeout.Duration > 0 {
		cfg.Timeout = c.Timeout.Duration
	}
	if c.SlowTimeout.Duration > 0 {
		cfg.SlowTimeout = c.SlowTimeout.Duration
	}
	cfg.Logger = log
	return cfg, nil
}
