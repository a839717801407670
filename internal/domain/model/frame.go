// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/signconnect/internal/domain/playback"
)

// Frame is one published playback change addressed to a session's
// subscribers. Fields mirror the stream message in the OpenAPI schema.
type Frame struct {
	SessionID string            `json:"session_id"`
	Snapshot  playback.Snapshot `json:"snapshot"`
	At        time.Time         `json:"at"`
}

// Seq returns the controller sequence number carried by the frame.
func (f Frame) Seq() uint64 { return f.Snapshot.Seq }

// Final reports whether the frame closes a sequence: the default pose was
// restored or the word was not recognized.
func (f Frame) Final() bool {
	switch f.Snapshot.Event {
	case playback.EventReset, playback.EventUnknown:
		return true
	default:
		return false
	}
}
