package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level insights configuration.
type Config struct {
	SessionsDir string    `mapstructure:"sessions_dir"`
	OutputDir   string    `mapstructure:"output_dir"`
	Gemini      Gemini    `mapstructure:"gemini"`
	Batch       Batch     `mapstructure:"batch"`
	Pipeline    Pipeline  `mapstructure:"pipeline"`
	Normalize   Normalize `mapstructure:"normalize"`
}

// Gemini configures the external analysis subprocess.
type Gemini struct {
	Command        string `mapstructure:"command"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffSeconds []int  `mapstructure:"backoff_seconds"`
}

// Batch configures batch planning limits.
type Batch struct {
	MaxSessions int `mapstructure:"max_sessions"`
	CharBudget  int `mapstructure:"char_budget"`
}

// Pipeline configures run execution.
type Pipeline struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Normalize configures transcript normalization limits.
type Normalize struct {
	MaxTurnChars    int   `mapstructure:"max_turn_chars"`
	MinSessionBytes int64 `mapstructure:"min_session_bytes"`
}

// FacetsDir returns the facet cache directory under the output dir.
func (c *Config) FacetsDir() string {
	return filepath.Join(c.OutputDir, "facets")
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults.
	v.SetDefault("sessions_dir", DefaultSessionsDir)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("gemini.command", DefaultGemini.Command)
	v.SetDefault("gemini.model", DefaultGemini.Model)
	v.SetDefault("gemini.timeout_seconds", DefaultGemini.TimeoutSeconds)
	v.SetDefault("gemini.max_retries", DefaultGemini.MaxRetries)
	v.SetDefault("gemini.backoff_seconds", DefaultGemini.BackoffSeconds)
	v.SetDefault("batch.max_sessions", DefaultBatch.MaxSessions)
	v.SetDefault("batch.char_budget", DefaultBatch.CharBudget)
	v.SetDefault("pipeline.concurrency", DefaultPipeline.Concurrency)
	v.SetDefault("normalize.max_turn_chars", DefaultNormalize.MaxTurnChars)
	v.SetDefault("normalize.min_session_bytes", DefaultNormalize.MinSessionBytes)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Expand paths.
	cfg.SessionsDir = expandPath(cfg.SessionsDir)
	cfg.OutputDir = expandPath(cfg.OutputDir)

	return &cfg, nil
}

// DBPath returns the full path to the run-history SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}
