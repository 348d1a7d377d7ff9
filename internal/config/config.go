package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the CLI and the web client
type Config struct {
	// Backend API Configuration
	API APIConfig

	// Local storage Configuration
	Storage StorageConfig

	// Navigation guard Configuration
	Guard GuardConfig

	// Web client Configuration
	Web WebConfig

	// Weather Configuration
	Weather WeatherConfig

	// Sensor watch Configuration
	Watch WatchConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the sensor backend configuration
type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// StorageConfig holds durable client storage configuration
type StorageConfig struct {
	Dir                string
	CredentialsBackend string // file, keyring
}

// GuardConfig holds navigation guard configuration
type GuardConfig struct {
	Enforce    bool
	RoleSource string // cached, token
}

// WebConfig holds web client configuration
type WebConfig struct {
	Addr        string
	DatabaseURL string
	CORSOrigins []string

	// Idle browser clients kept in memory; evicted ones reload from the database
	MaxIdleClients int
	ClientIdleTTL  time.Duration
}

// WeatherConfig holds outdoor weather lookup configuration
type WeatherConfig struct {
	APIKey  string
	BaseURL string
}

// WatchConfig holds the sensor watch configuration
type WatchConfig struct {
	Schedule string // cron spec
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string // empty lets each binary pick its default
	Format string // json, console
	File   string // optional rotated log file
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

func (s source) get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return def
}

func (s source) bool(key string, def bool) bool {
	v := s.get(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Load loads configuration from environment variables and an optional YAML file
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	file, err := loadFile(os.Getenv("SENSORWATCH_CONFIG"))
	if err != nil {
		return nil, err
	}
	src := source{file: file}

	storageDir := src.get("STORAGE_DIR", "")
	if storageDir == "" {
		storageDir, err = defaultStorageDir()
		if err != nil {
			return nil, err
		}
	}

	timeout, err := time.ParseDuration(src.get("API_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}

	roleSource := strings.ToLower(src.get("ROLE_SOURCE", "cached"))
	if roleSource != "cached" && roleSource != "token" {
		return nil, fmt.Errorf("invalid ROLE_SOURCE '%s', must be one of: cached, token", roleSource)
	}

	credentials := strings.ToLower(src.get("CREDENTIALS_BACKEND", "file"))
	if credentials != "file" && credentials != "keyring" {
		return nil, fmt.Errorf("invalid CREDENTIALS_BACKEND '%s', must be one of: file, keyring", credentials)
	}

	maxIdle, err := strconv.Atoi(src.get("WEB_MAX_IDLE_CLIENTS", "1000"))
	if err != nil || maxIdle <= 0 {
		return nil, fmt.Errorf("invalid WEB_MAX_IDLE_CLIENTS '%s', must be a positive integer", src.get("WEB_MAX_IDLE_CLIENTS", ""))
	}

	idleTTL, err := time.ParseDuration(src.get("WEB_CLIENT_IDLE_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEB_CLIENT_IDLE_TTL: %w", err)
	}

	var origins []string
	for _, o := range strings.Split(src.get("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		API: APIConfig{
			URL:     strings.TrimRight(src.get("API_URL", "http://localhost:8000"), "/"),
			Timeout: timeout,
		},
		Storage: StorageConfig{
			Dir:                storageDir,
			CredentialsBackend: credentials,
		},
		Guard: GuardConfig{
			Enforce:    src.bool("GUARD_ENFORCE", true),
			RoleSource: roleSource,
		},
		Web: WebConfig{
			Addr:        src.get("WEB_ADDR", ":8080"),
			DatabaseURL: src.get("WEB_DATABASE_URL", "sensorwatch-web.sqlite"),
			CORSOrigins: origins,

			MaxIdleClients: maxIdle,
			ClientIdleTTL:  idleTTL,
		},
		Weather: WeatherConfig{
			APIKey:  src.get("WEATHER_API_KEY", ""),
			BaseURL: src.get("WEATHER_API_URL", "https://api.openweathermap.org/data/2.5/weather"),
		},
		Watch: WatchConfig{
			Schedule: src.get("WATCH_SCHEDULE", "@every 1m"),
		},
		Logging: LoggingConfig{
			Level:  src.get("LOG_LEVEL", ""),
			Format: src.get("LOG_FORMAT", "console"),
			File:   src.get("LOG_FILE", ""),
		},
	}, nil
}

// loadFile reads a flat KEY: value YAML document. An empty path yields no values.
func loadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return values, nil
}

// defaultStorageDir returns ~/.config/sensorwatch
func defaultStorageDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "sensorwatch"), nil
}
