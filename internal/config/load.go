package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables (prefix FLYSEARCH_, dots replaced
// by underscores, e.g. FLYSEARCH_SERVER_PORT) take precedence over file
// values, which take precedence over defaults.
// Returns a populated Config struct or an error if loading/validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLYSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("provider.start_delay", "8s")
	v.SetDefault("provider.chunk_delay", "15s")
	v.SetDefault("provider.deterministic", false)

	v.SetDefault("adapter.max_concurrent_streams", 10)
	v.SetDefault("adapter.queue_poll_timeout", "100ms")
	v.SetDefault("adapter.stream_join_timeout", "1s")

	v.SetDefault("cache.response_ttl", "180s")
	v.SetDefault("cache.response_size", 100)
	v.SetDefault("cache.task_ttl", "1h")
	v.SetDefault("cache.task_size", 1000)
	v.SetDefault("cache.task_dir", "/tmp/flysearch-tasks")
}
