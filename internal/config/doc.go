// Package config defines the application configuration structure and
// its loading from environment variables and an optional config file.
package config
