// Package config provides client configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session storage backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds client configuration values loaded from file or environment variables.
type Config struct {
	APIBaseURL        string        `mapstructure:"API_BASE_URL"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	SessionStore      string        `mapstructure:"SESSION_STORE"`
	SessionFile       string        `mapstructure:"SESSION_FILE"`
	SessionDBPath     string        `mapstructure:"SESSION_DB_PATH"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	FeedPageSize      int           `mapstructure:"FEED_PAGE_SIZE"`
	DashboardPageSize int           `mapstructure:"DASHBOARD_PAGE_SIZE"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	TracingEnabled    bool          `mapstructure:"TRACING_ENABLED"`
	Env               string        `mapstructure:"APP_ENV"`

	// Development stub settings.
	DevServerPort      string `mapstructure:"DEVSERVER_PORT"`
	DevServerJWTSecret string `mapstructure:"DEVSERVER_JWT_SECRET"`
	DevServerSeedPosts int    `mapstructure:"DEVSERVER_SEED_POSTS"`
}

// LoadConfig loads configuration from photoshare.yml (working directory or
// ~/.photoshare) and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".photoshare"))
	}
	v.SetConfigName("photoshare")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.SessionStore = strings.ToLower(strings.TrimSpace(config.SessionStore))
	config.APIBaseURL = strings.TrimRight(strings.TrimSpace(config.APIBaseURL), "/")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	dataDir := defaultDataDir()

	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("REQUEST_TIMEOUT", 15*time.Second)
	v.SetDefault("SESSION_STORE", StoreFile)
	v.SetDefault("SESSION_FILE", filepath.Join(dataDir, "session.yml"))
	v.SetDefault("SESSION_DB_PATH", filepath.Join(dataDir, "session.db"))
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("FEED_PAGE_SIZE", 15)
	v.SetDefault("DASHBOARD_PAGE_SIZE", 6)
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DEVSERVER_PORT", "5000")
	v.SetDefault("DEVSERVER_JWT_SECRET", "photoshare-dev-secret-change-me")
	v.SetDefault("DEVSERVER_SEED_POSTS", 24)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "photoshare")
	}
	return ".photoshare"
}

// Validate ensures that required configuration values are present.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.FeedPageSize <= 0 || c.DashboardPageSize <= 0 {
		return errors.New("page sizes must be positive")
	}

	switch c.SessionStore {
	case StoreMemory:
	case StoreFile:
		if c.SessionFile == "" {
			return errors.New("SESSION_FILE is required for the file session store")
		}
	case StoreSQLite:
		if c.SessionDBPath == "" {
			return errors.New("SESSION_DB_PATH is required for the sqlite session store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.IsProduction() && strings.HasPrefix(c.APIBaseURL, "http://") {
		log.Println("WARNING: API_BASE_URL uses plain http in production; bearer tokens will travel unencrypted.")
	}

	return nil
}

// IsProduction reports whether the client runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
