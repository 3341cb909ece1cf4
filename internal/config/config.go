package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CONTENTDESK_SERVER_PORT
const EnvPrefix = "CONTENTDESK"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Viewer    ViewerConfig    `mapstructure:"viewer"`
	Editor    EditorConfig    `mapstructure:"editor"`
	Authoring AuthoringConfig `mapstructure:"authoring"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig contains the badger store configuration
type StorageConfig struct {
	Path          string        `mapstructure:"path"`
	AttachmentTTL time.Duration `mapstructure:"attachment_ttl"` // unpublished uploads expire after this
	GCInterval    time.Duration `mapstructure:"gc_interval"`    // value log GC; 0 disables
}

// SearchConfig contains search index configuration
type SearchConfig struct {
	IndexPath    string        `mapstructure:"index_path"`
	SyncInterval time.Duration `mapstructure:"sync_interval"` // 0 disables the background index check
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig contains author token configuration. When disabled, content
// is published under the default author.
type AuthConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// ViewerConfig contains detail page configuration
type ViewerConfig struct {
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	PlaceholderAfter time.Duration `mapstructure:"placeholder_after"` // render the skeleton if not loaded by then
}

// EditorConfig contains authoring form configuration
type EditorConfig struct {
	Categories     []string `mapstructure:"categories"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// AuthoringConfig is the byline used when no author is authenticated
type AuthoringConfig struct {
	DefaultAuthorName   string `mapstructure:"default_author_name"`
	DefaultAuthorAvatar string `mapstructure:"default_author_avatar"`
	DefaultAuthorBio    string `mapstructure:"default_author_bio"`
}

// Load loads configuration from file and environment variables.
// Priority: ENV vars > config file > defaults. With an empty configFile,
// config.yaml is looked up in ./configs and the working directory and is
// optional.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Storage defaults
	v.SetDefault("storage.path", "./data/content")
	v.SetDefault("storage.attachment_ttl", "24h")
	v.SetDefault("storage.gc_interval", "5m")

	// Search defaults
	v.SetDefault("search.index_path", "./data/search.bleve")
	v.SetDefault("search.sync_interval", "10m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_minute", 600)
	v.SetDefault("rate_limit.burst", 60)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_expiry", "24h")

	// Viewer defaults
	v.SetDefault("viewer.fetch_timeout", "5s")
	v.SetDefault("viewer.placeholder_after", "300ms")

	// Editor defaults
	v.SetDefault("editor.categories", []string{"Technology", "Science", "Programming", "Web Development"})
	v.SetDefault("editor.max_upload_bytes", 5<<20)

	// Authoring defaults
	v.SetDefault("authoring.default_author_name", "Content Desk")
	v.SetDefault("authoring.default_author_avatar", "")
	v.SetDefault("authoring.default_author_bio", "")
}

// validate validates the configuration
func validate(cfg *Config) error {
	// Validate server mode
	if cfg.Server.Mode != "debug" && cfg.Server.Mode != "release" && cfg.Server.Mode != "test" {
		return fmt.Errorf("server.mode must be 'debug', 'release' or 'test', got: %s", cfg.Server.Mode)
	}

	// Validate port
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", cfg.Server.Port)
	}

	// Validate JWT secret
	if cfg.Auth.Enabled {
		if len(cfg.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters long when auth is enabled")
		}
		if cfg.Auth.TokenExpiry <= 0 {
			return fmt.Errorf("auth.token_expiry must be positive")
		}
	}

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got: %s", cfg.Logging.Level)
	}

	// Validate logging format
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text', got: %s", cfg.Logging.Format)
	}

	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if cfg.Storage.AttachmentTTL <= 0 {
		return fmt.Errorf("storage.attachment_ttl must be positive")
	}
	if cfg.Storage.GCInterval < 0 {
		return fmt.Errorf("storage.gc_interval must not be negative")
	}

	if cfg.Search.IndexPath == "" {
		return fmt.Errorf("search.index_path is required")
	}
	if cfg.Search.SyncInterval < 0 {
		return fmt.Errorf("search.sync_interval must not be negative")
	}

	if cfg.RateLimit.RequestsPerMinute < 1 || cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.requests_per_minute and rate_limit.burst must be positive")
	}

	if cfg.Viewer.FetchTimeout <= 0 {
		return fmt.Errorf("viewer.fetch_timeout must be positive")
	}
	if cfg.Viewer.PlaceholderAfter < 0 {
		return fmt.Errorf("viewer.placeholder_after must not be negative")
	}

	if len(cfg.Editor.Categories) == 0 {
		return fmt.Errorf("editor.categories must not be empty")
	}
	if cfg.Editor.MaxUploadBytes < 1 {
		return fmt.Errorf("editor.max_upload_bytes must be positive")
	}

	if strings.TrimSpace(cfg.Authoring.DefaultAuthorName) == "" {
		return fmt.Errorf("authoring.default_author_name is required")
	}

	return nil
}
