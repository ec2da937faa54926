package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything shelf reads at startup.
type Config struct {
	APIURL          string
	TokenFile       string
	LogFile         string
	LogLevel        string
	Proxy           string
	RequestTimeout  time.Duration
	RateLimit       float64
	MaxRetries      int
	RefreshInterval time.Duration

	// Token comes only from SHELF_TOKEN and bypasses the token file.
	Token string
}

const (
	defaultConfigPath     = "~/.config/shelf/config.toml"
	defaultAPIURL         = "https://api.marktube.tv"
	defaultTokenFile      = "~/.config/shelf/token"
	defaultLogFile        = "~/.local/state/shelf/shelf.log"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
	defaultMaxRetries     = 2
	defaultRateLimit      = 5

	dotEnvFile = ".env"
)

// Environment overrides, applied after the TOML file. Values may also come
// from a .env file in the working directory; real environment variables win.
const (
	EnvAPIURL  = "SHELF_API_URL"
	EnvToken   = "SHELF_TOKEN"
	EnvProxy   = "SHELF_PROXY"
	EnvLogFile = "SHELF_LOG_FILE"
)

type fileConfig struct {
	APIURL         string  `toml:"api_url"`
	TokenFile      string  `toml:"token_file"`
	LogFile        string  `toml:"log_file"`
	LogLevel       string  `toml:"log_level"`
	Proxy          string  `toml:"proxy"`
	RequestTimeout string  `toml:"request_timeout"`
	RateLimit      float64 `toml:"rate_limit"`
	MaxRetries     *int    `toml:"max_retries"`
	RefreshSeconds int     `toml:"refresh_seconds"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		TokenFile:      mustExpand(defaultTokenFile),
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		RequestTimeout: defaultRequestTimeout,
		RateLimit:      defaultRateLimit,
		MaxRetries:     defaultMaxRetries,
	}
}

// Load parses the config at path (or the default path), falling back to
// defaults when it is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if raw != nil {
		if err := cfg.merge(*raw); err != nil {
			return Config{}, err
		}
	}

	env, err := readDotEnv(dotEnvFile)
	if err != nil {
		return Config{}, err
	}
	cfg.applyEnv(env)
	return cfg, nil
}

func readFile(path string) (*fileConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &raw, nil
}

func (c *Config) merge(raw fileConfig) error {
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(raw.TokenFile); v != "" {
		c.TokenFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	c.Proxy = strings.TrimSpace(raw.Proxy)

	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("parse config: request_timeout %q is not a positive duration", v)
		}
		c.RequestTimeout = d
	}
	if raw.RateLimit < 0 {
		return fmt.Errorf("parse config: rate_limit must not be negative")
	}
	if raw.RateLimit > 0 {
		c.RateLimit = raw.RateLimit
	}
	if raw.MaxRetries != nil {
		if *raw.MaxRetries < 0 {
			return fmt.Errorf("parse config: max_retries must not be negative")
		}
		c.MaxRetries = *raw.MaxRetries
	}
	if raw.RefreshSeconds < 0 {
		return fmt.Errorf("parse config: refresh_seconds must not be negative")
	}
	c.RefreshInterval = time.Duration(raw.RefreshSeconds) * time.Second
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return env, nil
}

func (c *Config) applyEnv(dotenv map[string]string) {
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(v), true
		}
		v, ok := dotenv[key]
		return strings.TrimSpace(v), ok
	}

	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvToken); ok {
		c.Token = v
	}
	if v, ok := lookup(EnvProxy); ok {
		c.Proxy = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		if v == "" {
			c.LogFile = ""
		} else {
			c.LogFile = mustExpand(v)
		}
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
