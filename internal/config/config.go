package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings of the client and the devserver.
type Config struct {
	AppName     string
	Environment string
	API         APIConfig
	Session     SessionConfig
	Analytics   AnalyticsConfig
	Tracker     TrackerConfig
	Buffer      BufferConfig
	Monitor     MonitorConfig
	Redis       RedisConfig
	JWT         JWTConfig
	DevServer   DevServerConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type APIConfig struct {
	BaseURL  string
	Timeout  time.Duration
	MaxConns int
}

type SessionConfig struct {
	// Token is a static bearer token; it takes precedence over SessionID.
	Token string
	// SessionID names a login stored in Redis.
	SessionID string
	TTL       time.Duration
}

type AnalyticsConfig struct {
	RefreshInterval time.Duration
}

type TrackerConfig struct {
	QueueSize int
	Rate      float64
}

type BufferConfig struct {
	Enabled        bool
	Path           string
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
}

type MonitorConfig struct {
	Interval time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type DevServerConfig struct {
	Host string
	Port string
}

type ContextConfig struct {
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables, optionally seeded from the given
// .env files (".env" when none are named), and applies defaults.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load(".env")
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{
		AppName:     getString("APP_NAME", "taskpulse"),
		Environment: getString("APP_ENV", "development"),
		API: APIConfig{
			BaseURL:  strings.TrimRight(getString("API_BASE_URL", "http://localhost:5000/api"), "/"),
			Timeout:  getDuration("API_TIMEOUT", 10*time.Second),
			MaxConns: getInt("API_MAX_CONNS", 16),
		},
		Session: SessionConfig{
			Token:     os.Getenv("TASKPULSE_TOKEN"),
			SessionID: os.Getenv("SESSION_ID"),
			TTL:       getDuration("SESSION_TTL", 24*time.Hour),
		},
		Analytics: AnalyticsConfig{
			RefreshInterval: getDuration("ANALYTICS_REFRESH_INTERVAL", 5*time.Minute),
		},
		Tracker: TrackerConfig{
			QueueSize: getInt("TRACKER_QUEUE_SIZE", 256),
			Rate:      getFloat("TRACKER_RATE", 20),
		},
		Buffer: BufferConfig{
			Enabled:        getBool("BUFFER_ENABLED", false),
			Path:           getString("BOLTDB_PATH", "./data/events.db"),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "taskpulse"),
		},
		DevServer: DevServerConfig{
			Host: getString("DEVSERVER_HOST", "127.0.0.1"),
			Port: getString("DEVSERVER_PORT", "5000"),
		},
		Context: ContextConfig{
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL %q is not an absolute URL", c.API.BaseURL)
	}
	if c.Tracker.QueueSize <= 0 {
		return fmt.Errorf("TRACKER_QUEUE_SIZE must be positive, got %d", c.Tracker.QueueSize)
	}
	return nil
}

// DevServerAddress returns the listen address of the reference API.
func (c *Config) DevServerAddress() string {
	return fmt.Sprintf("%s:%s", c.DevServer.Host, c.DevServer.Port)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDuration accepts Go durations ("5m") and bare seconds ("300").
func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
