package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pbaille/blog/internal/moderation"
	"gopkg.in/yaml.v3"
)

// Config represents application configuration
type Config struct {
	// SQLite path or postgres:// URL
	DB string

	// HTTP listen address
	Addr string

	// Application name used in alert headers
	AppName string

	LogLevel  string
	LogFormat string

	// Optional YAML file replacing the built-in keyword lists
	ModerationFile string
}

// Load reads .env if present, then environment variables
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables only
func FromEnv() *Config {
	dbPath := os.Getenv("BLOG_DB")
	if dbPath == "" {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, ".blog", "blog.db")
	}

	return &Config{
		DB:             dbPath,
		Addr:           envOr("BLOG_ADDR", ":8080"),
		AppName:        envOr("BLOG_APP_NAME", "blogApp"),
		LogLevel:       envOr("BLOG_LOG_LEVEL", "info"),
		LogFormat:      envOr("BLOG_LOG_FORMAT", "text"),
		ModerationFile: os.Getenv("BLOG_MODERATION_FILE"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// IsPostgres reports whether DB names a PostgreSQL database
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.DB, "postgres://") || strings.HasPrefix(c.DB, "postgresql://")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DB == "" {
		return &ConfigError{Field: "BLOG_DB", Message: "required"}
	}
	if c.AppName == "" {
		return &ConfigError{Field: "BLOG_APP_NAME", Message: "required"}
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return &ConfigError{Field: "BLOG_LOG_LEVEL", Message: err.Error()}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return &ConfigError{Field: "BLOG_LOG_FORMAT", Message: fmt.Sprintf("unknown log format %q", c.LogFormat)}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Logger builds the structured logger described by the configuration
func (c *Config) Logger(out io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch c.LogFormat {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("unknown log format: %#v", c.LogFormat)
	}
	return slog.New(handler), nil
}

// Moderation returns the keyword rules: the built-in ones, with any list
// present in ModerationFile replacing its default
func (c *Config) Moderation() (moderation.Config, error) {
	cfg := moderation.DefaultConfig()
	if c.ModerationFile == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(c.ModerationFile)
	if err != nil {
		return cfg, fmt.Errorf("read moderation file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse moderation file %s: %w", c.ModerationFile, err)
	}
	return cfg, nil
}
