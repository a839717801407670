// Package livekit mints access tokens for the video-call rooms.
package livekit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/okian/signconnect/pkg/metrics"
)

// DefaultTTL is how long a token stays valid when no TTL is configured.
const DefaultTTL = 2 * time.Hour

// Sentinel errors.
var (
	ErrNotConfigured = errors.New("livekit credentials not configured")
	ErrInvalidGrant  = errors.New("identity and room are required")
)

// Token is a signed room access token.
type Token struct {
	JWT       string
	Identity  string
	Room      string
	URL       string
	ExpiresAt time.Time
}

// Issuer signs room-scoped tokens with an API key pair.
type Issuer struct {
	key    string
	secret string
	url    string
	ttl    time.Duration
	now    func() time.Time
}

// Option applies a configuration option to the Issuer.
type Option func(*Issuer)

// WithURL sets the server URL handed back to clients alongside tokens.
func WithURL(url string) Option {
	return func(i *Issuer) { i.url = url }
}

// WithTTL sets token validity.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer creates an issuer. A missing key or secret is not an error
// here; Issue reports ErrNotConfigured so the rest of the API keeps working.
func NewIssuer(key, secret string, opts ...Option) *Issuer {
	i := &Issuer{key: key, secret: secret, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Configured reports whether both API credentials are set.
func (i *Issuer) Configured() bool {
	return i.key != "" && i.secret != ""
}

// Issue mints a token letting identity join room with publish and
// subscribe rights.
func (i *Issuer) Issue(ctx context.Context, identity, room string) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	if !i.Configured() {
		metrics.RecordTokenError("not_configured")
		return Token{}, ErrNotConfigured
	}
	identity = strings.TrimSpace(identity)
	room = strings.TrimSpace(room)
	if identity == "" || room == "" {
		metrics.RecordTokenError("invalid_request")
		return Token{}, ErrInvalidGrant
	}

	canPublish := true
	canSubscribe := true
	grant := &auth.VideoGrant{
		RoomJoin:     true,
		Room:         room,
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}

	at := auth.NewAccessToken(i.key, i.secret)
	at.AddGrant(grant)
	at.SetIdentity(identity)
	at.SetValidFor(i.ttl)

	jwt, err := at.ToJWT()
	if err != nil {
		metrics.RecordTokenError("sign_failed")
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	metrics.RecordTokenIssued()

	return Token{
		JWT:       jwt,
		Identity:  identity,
		Room:      room,
		URL:       i.url,
		ExpiresAt: i.now().Add(i.ttl).UTC(),
	}, nil
}
