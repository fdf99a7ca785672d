// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// APIKeyVars lists the environment variables consulted for the Gemini key, in
// priority order.
var APIKeyVars = []string{"API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Config holds all application configuration.
type Config struct {
	Addr            string
	LogLevel        string
	LogJSON         bool
	KeySelection    bool // enable the browser key-selection prompt
	AdminAPI        bool // mount /admin/key; it has no auth, keep it off public listeners
	ShutdownTimeout time.Duration
}

// LoadDotEnv loads a .env file if one exists. A missing file is not an error.
func LoadDotEnv(paths ...string) (bool, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false, nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return false, fmt.Errorf("load dotenv: %w", err)
	}
	return true, nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:            getEnv("ADDR", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogJSON:         getEnvBool("LOG_JSON", false),
		KeySelection:    getEnvBool("KEY_SELECTION", true),
		AdminAPI:        getEnvBool("ADMIN_API", false),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be > 0")
	}
	return nil
}

// ListenAddr accepts either a bare port ("8080") or a host:port.
func (c *Config) ListenAddr() string {
	if strings.Contains(c.Addr, ":") {
		return c.Addr
	}
	return ":" + c.Addr
}

// APIKey reads the Gemini key from the environment. It is evaluated on every
// call so a key exported after startup is picked up.
func APIKey() string {
	for _, k := range APIKeyVars {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
		return d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
