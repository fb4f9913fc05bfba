package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configurable chronogen settings.
type Config struct {
	DefaultFormat         string `json:"default_format"` // "markdown" | "json"
	OutputDir             string `json:"output_dir"`
	SampleIntervalMs      int    `json:"sample_interval_ms"`
	InsightModel          string `json:"insight_model"`
	InsightAPIURL         string `json:"insight_api_url"`
	InsightTimeoutSeconds int    `json:"insight_timeout_seconds"`
	LogLevel              string `json:"log_level"`

	// APIKey is only ever read from the environment.
	APIKey string `json:"-"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		DefaultFormat:         "markdown",
		OutputDir:             ".",
		SampleIntervalMs:      10,
		InsightModel:          "gemini-2.5-flash",
		InsightAPIURL:         "https://generativelanguage.googleapis.com",
		InsightTimeoutSeconds: 30,
		LogLevel:              "info",
	}
}

// SampleInterval returns the sampling period as a duration.
func (c Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMs) * time.Millisecond
}

// InsightTimeout returns the insight HTTP timeout as a duration.
func (c Config) InsightTimeout() time.Duration {
	return time.Duration(c.InsightTimeoutSeconds) * time.Second
}

// LoadGlobal reads ~/.config/chronogen/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "chronogen", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .chronogenconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".chronogenconfig", false)
}

func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c == nil {
			continue
		}
		if c.DefaultFormat != "" {
			result.DefaultFormat = c.DefaultFormat
		}
		if c.OutputDir != "" {
			result.OutputDir = c.OutputDir
		}
		if c.SampleIntervalMs > 0 {
			result.SampleIntervalMs = c.SampleIntervalMs
		}
		if c.InsightModel != "" {
			result.InsightModel = c.InsightModel
		}
		if c.InsightAPIURL != "" {
			result.InsightAPIURL = c.InsightAPIURL
		}
		if c.InsightTimeoutSeconds > 0 {
			result.InsightTimeoutSeconds = c.InsightTimeoutSeconds
		}
		if c.LogLevel != "" {
			result.LogLevel = c.LogLevel
		}
	}
	return result
}

// ApplyEnv overlays environment settings on cfg. The API key comes from
// GEMINI_API_KEY, falling back to API_KEY.
func ApplyEnv(cfg Config) Config {
	v := viper.New()
	_ = v.BindEnv("api_key", "GEMINI_API_KEY", "API_KEY")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("insight_model", "CHRONOGEN_INSIGHT_MODEL")
	_ = v.BindEnv("insight_api_url", "CHRONOGEN_INSIGHT_API_URL")

	cfg.APIKey = v.GetString("api_key")
	if s := v.GetString("log_level"); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString("insight_model"); s != "" {
		cfg.InsightModel = s
	}
	if s := v.GetString("insight_api_url"); s != "" {
		cfg.InsightAPIURL = s
	}
	return cfg
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
