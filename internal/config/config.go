package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Security  SecurityConfig
	Scheduler SchedulerConfig
	Adherence AdherenceConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Path string
}

type SecurityConfig struct {
	JWTSecret         string
	SessionDuration   time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	LoginRateLimit    int
	LoginRateWindow   time.Duration
	CSPEnabled        bool
	HSTSEnabled       bool
}

type SchedulerConfig struct {
	// TickInterval is the reminder polling cadence. It must stay well under
	// one minute so at least one tick lands inside every minute window.
	TickInterval time.Duration
}

type AdherenceConfig struct {
	WindowDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	sessionDuration, err := time.ParseDuration(getEnv("SESSION_DURATION", "336h"))
	if err != nil {
		sessionDuration = 336 * time.Hour
	}

	rateLimitWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		rateLimitWindow = 1 * time.Minute
	}

	loginRateWindow, err := time.ParseDuration(getEnv("LOGIN_RATE_WINDOW", "15m"))
	if err != nil {
		loginRateWindow = 15 * time.Minute
	}

	tickInterval, err := time.ParseDuration(getEnv("SCHEDULER_TICK", "10s"))
	if err != nil || tickInterval <= 0 || tickInterval >= time.Minute {
		tickInterval = 10 * time.Second
	}

	rateLimitReqs, _ := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "100"))
	loginRateLimit, _ := strconv.Atoi(getEnv("LOGIN_RATE_LIMIT", "5"))
	cspEnabled, _ := strconv.ParseBool(getEnv("CSP_ENABLED", "true"))
	hstsEnabled, _ := strconv.ParseBool(getEnv("HSTS_ENABLED", "true"))
	windowDays, _ := strconv.Atoi(getEnv("ADHERENCE_WINDOW_DAYS", "7"))
	if windowDays <= 0 {
		windowDays = 7
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/medimind.db"),
		},
		Security: SecurityConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			SessionDuration:   sessionDuration,
			RateLimitRequests: rateLimitReqs,
			RateLimitWindow:   rateLimitWindow,
			LoginRateLimit:    loginRateLimit,
			LoginRateWindow:   loginRateWindow,
			CSPEnabled:        cspEnabled,
			HSTSEnabled:       hstsEnabled,
		},
		Scheduler: SchedulerConfig{
			TickInterval: tickInterval,
		},
		Adherence: AdherenceConfig{
			WindowDays: windowDays,
		},
	}

	if cfg.Security.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

var ErrMissingJWTSecret = &ConfigError{"JWT_SECRET environment variable is required"}

type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
