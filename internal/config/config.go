package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STATEMENTS"

// Config holds all application configuration
type Config struct {
	// Bank forces a statement format; empty means auto-detect per file.
	Bank        string
	Workers     int
	LogLevel    string
	Trace       bool
	HTTPAddr    string
	OutputDir   string
	MaxUploadMB int
}

// Load reads the given .env files (".env" when none are named; missing files
// are skipped) and then STATEMENTS_* environment variables. Variables already
// set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %q: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("bank", "")
	v.SetDefault("workers", 1)
	v.SetDefault("log_level", "info")
	v.SetDefault("trace", false)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("output_dir", "")
	v.SetDefault("max_upload_mb", 20)

	cfg := &Config{
		Bank:        v.GetString("bank"),
		Workers:     v.GetInt("workers"),
		LogLevel:    v.GetString("log_level"),
		Trace:       v.GetBool("trace"),
		HTTPAddr:    v.GetString("http_addr"),
		OutputDir:   v.GetString("output_dir"),
		MaxUploadMB: v.GetInt("max_upload_mb"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid %s_WORKERS %d: must be at least 1", EnvPrefix, c.Workers)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("invalid %s_MAX_UPLOAD_MB %d: must be at least 1", EnvPrefix, c.MaxUploadMB)
	}
	return nil
}
