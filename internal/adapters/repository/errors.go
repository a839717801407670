package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound = errors.New("session not found")
	ErrCapacity = errors.New("session capacity reached")
	ErrExists   = errors.New("session already exists")
	ErrClosed   = errors.New("session store closed")
)
