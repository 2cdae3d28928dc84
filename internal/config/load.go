package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables the application reads,
// e.g. IMAGEGEN_SERVER_PORT or IMAGEGEN_PROVIDER_ACCESS_KEY.
const envPrefix = "IMAGEGEN"

// Load reads configuration from environment variables and, if present,
// a config.yaml in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("storage.output_dir", "data/output")
	v.SetDefault("storage.history_file", "data/history.json")
	v.SetDefault("storage.max_history_size", 1000)
	// Secrets default to empty so viper binds their env variables
	// during Unmarshal; AutomaticEnv only covers known keys.
	v.SetDefault("provider.access_key", "")
	v.SetDefault("provider.secret_key", "")
	v.SetDefault("provider.region", "cn-beijing")
	v.SetDefault("runner.worker_count", 4)
	v.SetDefault("runner.queue_size", 100)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; environment and defaults apply.
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
