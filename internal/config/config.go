// Package config loads Shelfwise configuration from flags, environment variables and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Engine EngineConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates on-disk state. The sqlite ledger, the recompute queue
// and the search index all live under BasePath.
type DataConfig struct {
	BasePath    string
	SeedGenres  bool // create the default genre set when the catalog is empty
	ReconcileOn bool // recompute every book's aggregates at startup
}

// DatabasePath is the sqlite file.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.BasePath, "shelfwise.db") }

// QueuePath is the badger directory for pending recomputes.
func (d DataConfig) QueuePath() string { return filepath.Join(d.BasePath, "queue") }

// SearchPath is the bleve index directory.
func (d DataConfig) SearchPath() string { return filepath.Join(d.BasePath, "search") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// EngineConfig tunes the aggregate, recommendation and social engines.
type EngineConfig struct {
	RecommendLimit        int           // default recommendation list size
	FeedLimit             int           // default activity feed size
	ActivityRetention     time.Duration // activities expire after this long
	RecomputeAttempts     int           // tries per recompute before queueing
	RecomputeBackoff      time.Duration // delay between recompute tries
	QueueSweepInterval    time.Duration // how often queued recomputes are drained
	ActivitySweepInterval time.Duration // how often expired activities are purged
	SocialAttempts        int           // tries per follow/unfollow unit
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Defaults.
func LoadConfig() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database, queue and search index")
	seedGenres := fs.String("seed-genres", "", "Create default genres on an empty catalog (default: true)")
	reconcile := fs.String("reconcile-on-start", "", "Recompute all book aggregates at startup (default: true)")

	serverName := fs.String("server-name", "", "Name for the server")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	origins := fs.String("allowed-origins", "", "Comma-separated CORS origins (default: *)")
	rateRPS := fs.String("rate-limit-rps", "", "Requests per second per client (default: 20)")
	rateBurst := fs.String("rate-limit-burst", "", "Burst size per client (default: 40)")

	recommendLimit := fs.String("recommend-limit", "", "Default recommendation count (default: 12)")
	feedLimit := fs.String("feed-limit", "", "Default activity feed size (default: 20)")
	retention := fs.String("activity-retention", "", "Activity retention window (default: 720h)")
	recomputeAttempts := fs.String("recompute-attempts", "", "Recompute attempts before queueing (default: 3)")
	recomputeBackoff := fs.String("recompute-backoff", "", "Delay between recompute attempts (default: 50ms)")
	queueSweep := fs.String("queue-sweep-interval", "", "Recompute queue drain interval (default: 30s)")
	activitySweep := fs.String("activity-sweep-interval", "", "Expired activity purge interval (default: 1h)")
	socialAttempts := fs.String("social-attempts", "", "Follow/unfollow attempts (default: 3)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env files are fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath:    getConfigValue(*dataPath, "DATA_PATH", ""),
			SeedGenres:  getBoolConfigValue(*seedGenres, "SEED_GENRES", true),
			ReconcileOn: getBoolConfigValue(*reconcile, "RECONCILE_ON_START", true),
		},
		Server: ServerConfig{
			Name:           getConfigValue(*serverName, "SERVER_NAME", "Shelfwise"),
			Port:           getConfigValue(*port, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*origins, "ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   getFloatConfigValue(*rateRPS, "RATE_LIMIT_RPS", 20),
			RateLimitBurst: getIntConfigValue(*rateBurst, "RATE_LIMIT_BURST", 40),
		},
		Engine: EngineConfig{
			RecommendLimit:    getIntConfigValue(*recommendLimit, "RECOMMEND_LIMIT", 12),
			FeedLimit:         getIntConfigValue(*feedLimit, "FEED_LIMIT", 20),
			RecomputeAttempts: getIntConfigValue(*recomputeAttempts, "RECOMPUTE_ATTEMPTS", 3),
			SocialAttempts:    getIntConfigValue(*socialAttempts, "SOCIAL_ATTEMPTS", 3),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Engine.ActivityRetention, *retention, "ACTIVITY_RETENTION", "720h"},
		{&cfg.Engine.RecomputeBackoff, *recomputeBackoff, "RECOMPUTE_BACKOFF", "50ms"},
		{&cfg.Engine.QueueSweepInterval, *queueSweep, "QUEUE_SWEEP_INTERVAL", "30s"},
		{&cfg.Engine.ActivitySweepInterval, *activitySweep, "ACTIVITY_SWEEP_INTERVAL", "1h"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and in range.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}

	e := c.Engine
	if e.RecommendLimit <= 0 || e.FeedLimit <= 0 {
		return errors.New("recommend and feed limits must be positive")
	}
	if e.RecomputeAttempts <= 0 || e.SocialAttempts <= 0 {
		return errors.New("retry attempts must be positive")
	}
	if e.ActivityRetention <= 0 {
		return errors.New("activity retention must be positive")
	}
	if e.QueueSweepInterval <= 0 || e.ActivitySweepInterval <= 0 {
		return errors.New("sweep intervals must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute. Empty paths take defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return filepath.Clean(abs), nil
}

func (c *Config) expandDataPath() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Data.BasePath, filepath.Join(home, "Shelfwise", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (any case) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	raw = strings.ToLower(raw)
	return raw == "true" || raw == "1" || raw == "yes"
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads KEY=value lines from path without overriding existing env vars.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- operator-supplied path
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
