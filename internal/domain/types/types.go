// Package types contains the JSON views returned by the HTTP API.
package types

import (
	"time"

	"github.com/okian/signconnect/internal/domain/playback"
	"github.com/okian/signconnect/internal/domain/sign"
)

// Session is the view of one playback session.
type Session struct {
	ID       string            `json:"id"`
	Snapshot playback.Snapshot `json:"snapshot"`
}

// Sign is a dictionary entry.
type Sign struct {
	Word   string              `json:"word"`
	Frames []sign.PoseKeyframe `json:"frames"`
}

// Words lists the supported dictionary keys.
type Words struct {
	Words []string `json:"words"`
	Count int      `json:"count"`
}

// Token is a minted video-call access token.
type Token struct {
	Token     string    `json:"token"`
	URL       string    `json:"url,omitempty"`
	Identity  string    `json:"identity"`
	Room      string    `json:"room"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Prediction is an interpreted gesture classifier result.
type Prediction struct {
	Label        string `json:"label"`
	Word         string `json:"word,omitempty"`
	HandDetected bool   `json:"hand_detected"`
	Known        bool   `json:"known"`
}

// Gif is a GIF search result. URL is empty when nothing matched.
type Gif struct {
	Query string `json:"query"`
	URL   string `json:"url"`
}
