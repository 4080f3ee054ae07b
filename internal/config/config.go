package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Provider ProviderConfig `mapstructure:"provider"`
	Adapter  AdapterConfig  `mapstructure:"adapter"  validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Host     string `mapstructure:"host"      validate:"required"`
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// ProviderConfig paces the fixture-replaying provider stub.
type ProviderConfig struct {
	// StartDelay is how long a session start blocks.
	StartDelay time.Duration `mapstructure:"start_delay" validate:"min=0"`

	// ChunkDelay is the blocking wait per chunk advance.
	ChunkDelay time.Duration `mapstructure:"chunk_delay" validate:"min=0"`

	// Deterministic disables the stub's random start failures and
	// heartbeat chunks.
	Deterministic bool `mapstructure:"deterministic"`
}

// AdapterConfig tunes the provider stream adapter.
type AdapterConfig struct {
	MaxConcurrentStreams int           `mapstructure:"max_concurrent_streams" validate:"required,gt=0,lte=100"`
	QueuePollTimeout     time.Duration `mapstructure:"queue_poll_timeout"     validate:"required,gt=0"`
	StreamJoinTimeout    time.Duration `mapstructure:"stream_join_timeout"    validate:"required,gt=0"`
}

// CacheConfig sizes the TTL caches and the cross-process task store.
type CacheConfig struct {
	ResponseTTL  time.Duration `mapstructure:"response_ttl"  validate:"required,gt=0"`
	ResponseSize int           `mapstructure:"response_size" validate:"required,gt=0"`
	TaskTTL      time.Duration `mapstructure:"task_ttl"      validate:"required,gt=0"`
	TaskSize     int           `mapstructure:"task_size"     validate:"required,gt=0"`

	// TaskDir is the shared directory for cross-process task records.
	// Empty disables the durable path, leaving tasks visible only to the
	// process that created them.
	TaskDir string `mapstructure:"task_dir"`
}
