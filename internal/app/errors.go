package service

import "errors"

// Sentinel kinds returned by the service. Adapter errors are wrapped so
// callers can match on either.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrNotFound      = errors.New("not found")
	ErrCapacity      = errors.New("capacity reached")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotConfigured = errors.New("not configured")
	ErrUpstream      = errors.New("upstream failure")
)
