package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Geocoder GeocoderConfig
	Location LocationConfig
	Session  SessionConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type StoreConfig struct {
	Backend       string // "sqlite" | "redis"
	Collection    string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

type GeocoderConfig struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	RPS       int
}

type LocationConfig struct {
	HighAccuracy bool
	MaximumAge   time.Duration
	Timeout      time.Duration
}

type SessionConfig struct {
	IdleTimeout  time.Duration
	ReapInterval time.Duration
}

type LoggingConfig struct {
	Level string
}

// ClientConfig configures the nightpulse CLI.
type ClientConfig struct {
	StoreURL string
	Timeout  time.Duration
	Location LocationConfig
	Logging  LoggingConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "localhost"),
			Port:        getEnvInt("SERVER_PORT", 3000),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:4000"}),
		},
		Store: StoreConfig{
			Backend:       getEnv("STORE_BACKEND", "sqlite"),
			Collection:    getEnv("ALERTS_COLLECTION", "alerts"),
			DBPath:        getEnv("DB_PATH", "./data/nightpulse.db"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			RedisPrefix:   getEnv("REDIS_PREFIX", "nightpulse:"),
		},
		Geocoder: GeocoderConfig{
			URL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "NightPulse/1.0"),
			Timeout:   getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),
			RPS:       getEnvInt("GEOCODER_RPS", 1),
		},
		Location: loadLocation(),
		Session: SessionConfig{
			IdleTimeout:  getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			ReapInterval: getEnvDuration("SESSION_REAP_INTERVAL", time.Minute),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		StoreURL: getEnv("NIGHTPULSE_STORE_URL", "http://localhost:3000"),
		Timeout:  getEnvDuration("NIGHTPULSE_TIMEOUT", 15*time.Second),
		Location: loadLocation(),
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "warn"),
		},
	}

	if err := validateLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	if cfg.Location.Timeout < 0 {
		return nil, fmt.Errorf("location timeout must not be negative")
	}

	return cfg, nil
}

func loadLocation() LocationConfig {
	return LocationConfig{
		HighAccuracy: getEnvBool("LOCATION_HIGH_ACCURACY", true),
		MaximumAge:   getEnvDuration("LOCATION_MAX_AGE", 0),
		Timeout:      getEnvDuration("LOCATION_TIMEOUT", 10*time.Second),
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if err := validateLevel(c.Logging.Level); err != nil {
		return err
	}

	switch c.Store.Backend {
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite backend")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s", c.Store.Backend)
	}
	if c.Store.Collection == "" {
		return fmt.Errorf("alerts collection name must not be empty")
	}

	if c.Geocoder.RPS < 1 {
		return fmt.Errorf("geocoder rate limit must be at least 1 request per second")
	}
	if c.Location.Timeout < 0 || c.Location.MaximumAge < 0 {
		return fmt.Errorf("location durations must not be negative")
	}

	return nil
}

func validateLevel(level string) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[level] {
		return fmt.Errorf("invalid log level: %s", level)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
