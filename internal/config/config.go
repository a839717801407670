// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Durations are configured as integer milliseconds or minutes and exposed
//   as time.Duration through accessor methods.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StepDurationMS is the initial delay between keyframes.
	StepDurationMS int `koanf:"step_duration_ms"`

	// MinStepDurationMS and MaxStepDurationMS bound runtime speed changes.
	MinStepDurationMS int `koanf:"min_step_duration_ms"`
	MaxStepDurationMS int `koanf:"max_step_duration_ms"`

	// DictionaryPath optionally replaces the built-in sign table with a YAML file.
	DictionaryPath string `koanf:"dictionary_path"`

	// MaxSessions caps concurrent playback sessions. Zero means unbounded.
	MaxSessions int `koanf:"max_sessions"`

	// SessionIdleTimeoutMS evicts sessions unused for this long. Zero disables eviction.
	SessionIdleTimeoutMS int `koanf:"session_idle_timeout_ms"`

	// StreamBufferSize bounds the per-subscriber frame queue.
	StreamBufferSize int `koanf:"stream_buffer_size"`

	// LiveKit credentials for video-call tokens.
	LiveKitURL       string `koanf:"livekit_url"`
	LiveKitAPIKey    string `koanf:"livekit_api_key"`
	LiveKitAPISecret string `koanf:"livekit_api_secret"`
	TokenTTLMinutes  int    `koanf:"token_ttl_minutes"`

	// PredictorURL is the gesture classifier endpoint. Empty disables /predict.
	PredictorURL       string `koanf:"predictor_url"`
	PredictorTimeoutMS int    `koanf:"predictor_timeout_ms"`

	// GIF search. An empty key disables /gifs.
	GiphyURL       string `koanf:"giphy_url"`
	GiphyAPIKey    string `koanf:"giphy_api_key"`
	GiphyTimeoutMS int    `koanf:"giphy_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		StepDurationMS:       1000,
		MinStepDurationMS:    500,
		MaxStepDurationMS:    2000,
		MaxSessions:          1000,
		SessionIdleTimeoutMS: 30 * 60 * 1000,
		StreamBufferSize:     64,
		TokenTTLMinutes:      120,
		PredictorTimeoutMS:   5000,
		GiphyURL:             "https://api.giphy.com/v1/gifs/search",
		GiphyTimeoutMS:       5000,
	}
}

// StepDuration returns the initial step duration.
func (c *Config) StepDuration() time.Duration { return ms(c.StepDurationMS) }

// MinStepDuration returns the lower step bound.
func (c *Config) MinStepDuration() time.Duration { return ms(c.MinStepDurationMS) }

// MaxStepDuration returns the upper step bound.
func (c *Config) MaxStepDuration() time.Duration { return ms(c.MaxStepDurationMS) }

// SessionIdleTimeout returns the idle eviction timeout.
func (c *Config) SessionIdleTimeout() time.Duration { return ms(c.SessionIdleTimeoutMS) }

// TokenTTL returns video-call token validity.
func (c *Config) TokenTTL() time.Duration { return time.Duration(c.TokenTTLMinutes) * time.Minute }

// PredictorTimeout returns the classifier call timeout.
func (c *Config) PredictorTimeout() time.Duration { return ms(c.PredictorTimeoutMS) }

// GiphyTimeout returns the GIF search timeout.
func (c *Config) GiphyTimeout() time.Duration { return ms(c.GiphyTimeoutMS) }

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.MinStepDurationMS <= 0:
		return fmt.Errorf("%w: min_step_duration_ms must be positive", ErrInvalidConfig)
	case c.MaxStepDurationMS < c.MinStepDurationMS:
		return fmt.Errorf("%w: max_step_duration_ms must not be below min_step_duration_ms", ErrInvalidConfig)
	case c.MaxSessions < 0:
		return fmt.Errorf("%w: max_sessions must not be negative", ErrInvalidConfig)
	case c.SessionIdleTimeoutMS < 0:
		return fmt.Errorf("%w: session_idle_timeout_ms must not be negative", ErrInvalidConfig)
	case c.StreamBufferSize <= 0:
		return fmt.Errorf("%w: stream_buffer_size must be positive", ErrInvalidConfig)
	case c.TokenTTLMinutes <= 0:
		return fmt.Errorf("%w: token_ttl_minutes must be positive", ErrInvalidConfig)
	case (c.LiveKitAPIKey == "") != (c.LiveKitAPISecret == ""):
		return fmt.Errorf("%w: livekit_api_key and livekit_api_secret must be set together", ErrInvalidConfig)
	}
	return nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
