// Package cli implements signctl, a command line client for the playback API.
package cli

import "time"

// Defaults.
const (
	DefaultBaseURL     = "http://localhost:9080"
	DefaultTimeout     = 10 * time.Second
	DefaultPlayTimeout = 2 * time.Minute
)

// Config holds client settings shared by every command.
type Config struct {
	BaseURL     string        // Base URL of the service
	Timeout     time.Duration // HTTP request timeout
	PlayTimeout time.Duration // Upper bound for one play run
	Verbose     bool          // Enable debug logging
}
