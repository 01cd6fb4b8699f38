package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCredential is returned when a required API credential is absent
var ErrMissingCredential = errors.New("missing credential")

// ErrInvalid is returned when a configuration value is malformed
var ErrInvalid = errors.New("invalid configuration")

// Store backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for learnpath
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Store      StoreConfig
	Generation GenerationConfig
	Search     SearchConfig
	Catalog    CatalogConfig
	Sessions   SessionsConfig
	Janitor    JanitorConfig
	Auth       AuthConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// StoreConfig selects and configures the content store backend
type StoreConfig struct {
	Backend  string
	SQLite   SQLiteConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

// SQLiteConfig holds the local SQLite file location
type SQLiteConfig struct {
	Path string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN           string
	MaxConns      int
	MinConns      int
	MigrationsDir string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// GenerationConfig holds generative AI configuration
type GenerationConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// RPS caps outgoing generation calls; 0 disables limiting
	RPS float64
}

// SearchConfig holds video search configuration
type SearchConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// CatalogConfig holds hobby/level catalog configuration
type CatalogConfig struct {
	Dir string
}

// SessionsConfig holds learner session configuration
type SessionsConfig struct {
	TTL time.Duration
}

// JanitorConfig holds background maintenance configuration
type JanitorConfig struct {
	Interval        time.Duration
	PurgeLegacyKeys bool
}

// AuthConfig holds static API clients; empty disables authentication
type AuthConfig struct {
	Clients []ClientConfig
}

// ClientConfig is one static API client
type ClientConfig struct {
	Name        string
	Key         string
	Permissions []string
	// Disabled keeps a key known but rejected, marked by a leading "!" on the name
	Disabled bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	clients, err := parseClients(getEnv("AUTH_API_KEYS", ""))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", BackendSQLite),
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "./data/learnpath.db"),
			},
			Database: DatabaseConfig{
				DSN:           getEnv("DATABASE_DSN", ""),
				MaxConns:      getEnvAsInt("DATABASE_MAX_CONNS", 10),
				MinConns:      getEnvAsInt("DATABASE_MIN_CONNS", 1),
				MigrationsDir: getEnv("MIGRATIONS_DIR", ""),
			},
			Redis: RedisConfig{
				Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
				Prefix:   getEnv("REDIS_PREFIX", ""),
			},
		},
		Generation: GenerationConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout: getEnvAsDuration("GENERATION_TIMEOUT", 15*time.Second),
			RPS:     getEnvAsFloat("GENERATION_RPS", 0),
		},
		Search: SearchConfig{
			APIKey:  getEnv("YOUTUBE_API_KEY", ""),
			BaseURL: getEnv("YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3"),
			Timeout: getEnvAsDuration("SEARCH_TIMEOUT", 15*time.Second),
		},
		Catalog: CatalogConfig{
			Dir: getEnv("CATALOG_DIR", ""),
		},
		Sessions: SessionsConfig{
			TTL: getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Janitor: JanitorConfig{
			Interval:        getEnvAsDuration("JANITOR_INTERVAL", 5*time.Minute),
			PurgeLegacyKeys: getEnvAsBool("PURGE_LEGACY_KEYS", false),
		},
		Auth: AuthConfig{
			Clients: clients,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration that every command needs
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalid, c.Server.Port)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for the sqlite backend", ErrInvalid)
		}
	case BackendRedis:
		if c.Store.Redis.Address == "" {
			return fmt.Errorf("%w: REDIS_ADDRESS is required for the redis backend", ErrInvalid)
		}
	case BackendPostgres:
		if c.Store.Database.DSN == "" {
			return fmt.Errorf("%w: DATABASE_DSN is required for the postgres backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Store.Backend)
	}

	if c.Generation.Timeout <= 0 || c.Search.Timeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalid)
	}

	return nil
}

// RequireCredentials fails fast when either API credential is missing.
// Commands that generate content call it before wiring any client.
func (c *Config) RequireCredentials() error {
	var missing []string
	if strings.TrimSpace(c.Generation.APIKey) == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if strings.TrimSpace(c.Search.APIKey) == "" {
		missing = append(missing, "YOUTUBE_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseClients parses "name:key:perm1|perm2,!name2:key2:*"
func parseClients(raw string) ([]ClientConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var clients []ClientConfig
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("%w: AUTH_API_KEYS entry %q must be name:key:permissions", ErrInvalid, item)
		}
		name, disabled := strings.CutPrefix(parts[0], "!")
		if name == "" {
			return nil, fmt.Errorf("%w: AUTH_API_KEYS entry %q has an empty name", ErrInvalid, item)
		}
		clients = append(clients, ClientConfig{
			Name:        name,
			Key:         parts[1],
			Permissions: strings.Split(parts[2], "|"),
			Disabled:    disabled,
		})
	}
	return clients, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
