package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // shop timezone must resolve on slim images

	"gopkg.in/yaml.v3"
)

const (
	defaultPort     = "8585"
	defaultTimezone = "America/Argentina/Cordoba"
)

type Config struct {
	Port         string `yaml:"port"`
	DBPath       string `yaml:"db_path"`
	CookieDomain string `yaml:"cookie_domain"`
	CookieSecure bool   `yaml:"cookie_secure"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	ShopTimezone   string `yaml:"shop_timezone"`
	UploadDir      string `yaml:"upload_dir"`
	TemplateDir    string `yaml:"template_dir"`
	StaticDir      string `yaml:"static_dir"`
	LogLevel       string `yaml:"log_level"`
	TemplateReload bool   `yaml:"template_reload"`

	// Derived, never read from the file.
	CSRFKey    []byte         `yaml:"-"`
	SessionKey []byte         `yaml:"-"`
	Location   *time.Location `yaml:"-"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Port:         defaultPort,
		DBPath:       "./libros.db",
		GeminiModel:  "gemini-2.5-flash",
		ShopTimezone: defaultTimezone,
		UploadDir:    "uploads",
		TemplateDir:  "templates",
		StaticDir:    "static",
		LogLevel:     "info",
	}
}

// LoadConfig reads the optional YAML file named by CONFIG_FILE, then applies
// environment overrides.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			slog.Warn("Config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	cfg.CSRFKey = loadKey("CSRF_KEY")
	cfg.SessionKey = loadKey("SESSION_KEY")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT. Falling back to default.", "PORT", cfg.Port)
		cfg.Port = defaultPort
	}

	loc, err := time.LoadLocation(cfg.ShopTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid shop timezone %q: %w", cfg.ShopTimezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Port = getEnv("PORT", c.Port)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.CookieDomain = getEnv("COOKIE_DOMAIN", c.CookieDomain)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.ShopTimezone = getEnv("SHOP_TIMEZONE", c.ShopTimezone)
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.TemplateDir = getEnv("TEMPLATE_DIR", c.TemplateDir)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.TemplateReload = getEnvBool("TEMPLATE_RELOAD", c.TemplateReload)
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// loadKey decodes a base64 key of at least 32 bytes from env, or generates a
// throwaway one.
func loadKey(name string) []byte {
	raw := os.Getenv(name)
	if raw == "" {
		slog.Warn(name + " environment variable not set. Generating a random key for development. This key will change on each restart. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		slog.Warn(name + " is invalid or too short (min 32 bytes). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Ignoring invalid boolean", "key", key, "value", value)
		return defaultValue
	}
	return b
}

// generateRandomBytes generates a random byte slice of specified length
// Uses crypto/rand for secure random numbers.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to read random bytes", "error", err)
		// only reached if the OS entropy source is broken
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		padded := make([]byte, n)
		copy(padded, fallbackKey)
		return padded
	}
	return b
}
