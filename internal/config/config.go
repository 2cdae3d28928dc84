package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	Provider ProviderConfig `mapstructure:"provider"`
	Runner   RunnerConfig   `mapstructure:"runner"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StorageConfig contains the file-backed storage settings: where
// decoded images are written and where the history collection lives.
type StorageConfig struct {
	OutputDir      string `mapstructure:"output_dir"       validate:"required"`
	HistoryFile    string `mapstructure:"history_file"     validate:"required"`
	MaxHistorySize int    `mapstructure:"max_history_size" validate:"required,gt=0"`
}

// ProviderConfig contains the image-generation provider credentials.
// When both keys are empty the application falls back to the mock
// provider.
type ProviderConfig struct {
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
}

// Configured reports whether real provider credentials are present.
func (c ProviderConfig) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// RunnerConfig contains the background worker-pool settings.
type RunnerConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"omitempty,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"omitempty,gt=0"`
}
