// Package config provides configuration management for the Pantry Play agent.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Agent holds planner, executor and memory settings.
	Agent AgentConfig `mapstructure:"agent"`

	// LLM is the completion provider configuration.
	LLM LLMConfig `mapstructure:"llm"`

	// Storage is the persistence configuration.
	Storage StorageConfig `mapstructure:"storage"`

	// Metrics is the Prometheus configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the OpenTelemetry configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"env"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`

	HTTP      HTTPConfig      `mapstructure:"http"`
	CORS      CORSConfig      `mapstructure:"cors"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// RequestTimeout bounds a single API request, including every LLM call
	// made while processing it.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	MaxHeaderBytes int `mapstructure:"max_header_bytes"`

	// MaxUploadBytes limits document uploads.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"min=0"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// WebSocketConfig holds settings for the task event stream.
type WebSocketConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	MaxConnections int  `mapstructure:"max_connections" validate:"min=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Output string `mapstructure:"output"`
}

// AgentConfig holds orchestration settings.
type AgentConfig struct {
	// Namespace prefixes every storage key, one namespace per user profile.
	Namespace string `mapstructure:"namespace" validate:"required"`

	// MemoryCap is the maximum number of entries kept per memory kind.
	MemoryCap int `mapstructure:"memory_cap" validate:"min=1"`

	// RecentRecipes is how many recipes are fed back into planning context.
	RecentRecipes int `mapstructure:"recent_recipes" validate:"min=0"`

	// Deployment selects the rule table and handlers: pantry_play or
	// health_insights.
	Deployment string `mapstructure:"deployment" validate:"oneof=pantry_play health_insights"`
}

// LLMConfig holds completion provider settings.
type LLMConfig struct {
	// Provider selects the backend (openai).
	Provider string `mapstructure:"provider" validate:"oneof=openai"`

	Model       string        `mapstructure:"model" validate:"required"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"min=1"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// JSONMode asks the provider for a JSON object response.
	JSONMode bool `mapstructure:"json_mode"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Retry     RetryConfig     `mapstructure:"retry"`
}

// RateLimitConfig throttles outgoing completion requests.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`
	Burst             int     `mapstructure:"burst" validate:"min=0"`
}

// RetryConfig controls retries of transient provider failures.
type RetryConfig struct {
	MaxAttempts     uint          `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Type is the storage backend (memory, badger, redis, sqlite).
	Type string `mapstructure:"type" validate:"oneof=memory badger redis sqlite"`

	Badger BadgerConfig `mapstructure:"badger"`
	Redis  RedisConfig  `mapstructure:"redis"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// BadgerConfig holds BadgerDB-specific settings.
type BadgerConfig struct {
	Path              string `mapstructure:"path"`
	SyncWrites        bool   `mapstructure:"sync_writes"`
	ValueLogFileSize  int64  `mapstructure:"value_log_file_size"`
	NumVersionsToKeep int    `mapstructure:"num_versions_to_keep"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter (otlp).
	Exporter string            `mapstructure:"exporter" validate:"oneof=otlp"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
	Timeout  time.Duration     `mapstructure:"timeout"`

	// Sampler is one of always_on, always_off, traceidratio, parentbased_traceidratio.
	Sampler    string  `mapstructure:"sampler" validate:"oneof=always_on always_off traceidratio parentbased_traceidratio"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	return ValidateWithDetails(c)
}

// String returns a summary of the configuration without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s, LLM: %s/%s, Storage: %s}",
		c.App.Name, c.Server.Port, c.App.Environment, c.LLM.Provider, c.LLM.Model, c.Storage.Type)
}
