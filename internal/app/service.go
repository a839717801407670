// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/signconnect/internal/adapters/giphy"
	"github.com/okian/signconnect/internal/adapters/livekit"
	framequeue "github.com/okian/signconnect/internal/adapters/mq/queue"
	"github.com/okian/signconnect/internal/adapters/predictor"
	"github.com/okian/signconnect/internal/adapters/repository"
	"github.com/okian/signconnect/internal/domain/playback"
	"github.com/okian/signconnect/internal/domain/predict"
	"github.com/okian/signconnect/internal/domain/session"
	"github.com/okian/signconnect/internal/domain/sign"
	"github.com/okian/signconnect/internal/domain/types"
	"github.com/okian/signconnect/pkg/logger"
)

// TokenIssuer mints video-call tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, identity, room string) (livekit.Token, error)
}

// GifSearcher finds a demonstration GIF for a word.
type GifSearcher interface {
	Search(ctx context.Context, text string) (string, error)
}

// Service implements the API dependencies for sign playback.
type Service struct {
	mu sync.RWMutex

	// Core components
	dict      *sign.Dictionary
	store     repository.Store
	issuer    TokenIssuer
	predictor predict.Predictor
	gifs      GifSearcher
	scheduler playback.Scheduler
	newID     func() string

	// Configuration
	stepDuration     time.Duration
	minStep          time.Duration
	maxStep          time.Duration
	maxSessions      int
	idleTimeout      time.Duration
	sweepInterval    time.Duration
	streamBufferSize int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDictionary replaces the built-in sign table.
func WithDictionary(d *sign.Dictionary) Option {
	return func(s *Service) {
		if d != nil {
			s.dict = d
		}
	}
}

// WithStepDuration sets the initial step duration of new sessions.
func WithStepDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stepDuration = d
		}
	}
}

// WithStepBounds sets the clamp range for step durations.
func WithStepBounds(minStep, maxStep time.Duration) Option {
	return func(s *Service) {
		if minStep > 0 && maxStep >= minStep {
			s.minStep = minStep
			s.maxStep = maxStep
		}
	}
}

// WithMaxSessions caps concurrent sessions. Zero means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithIdleTimeout evicts sessions unused for d. Zero disables eviction.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.idleTimeout = d
		}
	}
}

// WithSweepInterval sets how often idle sessions are evicted.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithStreamBufferSize bounds each subscriber's frame queue.
func WithStreamBufferSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.streamBufferSize = n
		}
	}
}

// WithTokenIssuer sets the video-call token issuer.
func WithTokenIssuer(i TokenIssuer) Option {
	return func(s *Service) { s.issuer = i }
}

// WithPredictor sets the gesture classifier.
func WithPredictor(p predict.Predictor) Option {
	return func(s *Service) { s.predictor = p }
}

// WithGifSearcher sets the GIF search client.
func WithGifSearcher(g GifSearcher) Option {
	return func(s *Service) { s.gifs = g }
}

// WithScheduler sets the scheduler used by session controllers.
func WithScheduler(sch playback.Scheduler) Option {
	return func(s *Service) {
		if sch != nil {
			s.scheduler = sch
		}
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dict:             sign.Builtin(),
		scheduler:        playback.RuntimeScheduler,
		newID:            uuid.NewString,
		stepDuration:     playback.DefaultStepDuration,
		minStep:          playback.MinStepDuration,
		maxStep:          playback.MaxStepDuration,
		maxSessions:      1000,
		idleTimeout:      30 * time.Minute,
		sweepInterval:    time.Minute,
		streamBufferSize: 64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the session store and its idle sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting playback service...")

	s.store = repository.NewMemoryStore(ctx,
		repository.WithMaxSessions(s.maxSessions),
		repository.WithIdleTimeout(s.idleTimeout),
		repository.WithSweepInterval(s.sweepInterval),
	)

	s.started = true
	s.logger.Info(ctx, "playback service started",
		logger.Int("signs", s.dict.Len()),
		logger.Int("maxSessions", s.maxSessions),
		logger.Duration("stepDuration", s.stepDuration),
		logger.Duration("idleTimeout", s.idleTimeout),
	)
	return nil
}

// Stop closes every session. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping playback service...")

	if s.store != nil {
		_ = s.store.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "playback service stopped")
}

// log returns the service logger, falling back to the global one before Start.
func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get().Named("service")
	}
	return l
}

func (s *Service) sessions() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*session.Session, error) {
	store, err := s.sessions()
	if err != nil {
		return nil, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return sess, nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrCapacity):
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	case errors.Is(err, repository.ErrClosed):
		return fmt.Errorf("%w: %w", ErrNotStarted, err)
	default:
		return err
	}
}

func view(sess *session.Session, snap playback.Snapshot) types.Session {
	return types.Session{ID: sess.ID(), Snapshot: snap}
}

// CreateSession starts a new idle playback session.
func (s *Service) CreateSession(ctx context.Context) (types.Session, error) {
	store, err := s.sessions()
	if err != nil {
		return types.Session{}, err
	}

	sess := session.New(s.newID(), s.dict,
		playback.WithScheduler(s.scheduler),
		playback.WithStepBounds(s.minStep, s.maxStep),
		playback.WithStepDuration(s.stepDuration),
	)
	if err := store.Create(ctx, sess); err != nil {
		sess.Close()
		return types.Session{}, mapStoreError(err)
	}

	s.log().Debug(ctx, "session created", logger.String("session_id", sess.ID()))
	return view(sess, sess.Snapshot()), nil
}

// Session returns the current state of a session.
func (s *Service) Session(ctx context.Context, id string) (types.Session, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.Session{}, err
	}
	sess.Touch()
	return view(sess, sess.Snapshot()), nil
}

// Submit plays the first word of text on a session.
func (s *Service) Submit(ctx context.Context, id, text string) (types.Session, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.Session{}, err
	}
	snap := sess.Submit(ctx, text)
	s.log().Debug(ctx, "text submitted",
		logger.String("session_id", id),
		logger.String("word", snap.Word),
		logger.String("event", string(snap.Event)),
	)
	return view(sess, snap), nil
}

// SetSpeed changes a session's step duration.
func (s *Service) SetSpeed(ctx context.Context, id string, stepMS int) (types.Session, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.Session{}, err
	}
	sess.SetStepDuration(stepMS)
	return view(sess, sess.Snapshot()), nil
}

// DeleteSession tears a session down.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	store, err := s.sessions()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	s.log().Debug(ctx, "session deleted", logger.String("session_id", id))
	return nil
}

// Subscribe attaches a bounded frame queue to a session. The queue first
// receives the current state. cancel detaches and closes the queue.
func (s *Service) Subscribe(ctx context.Context, id string) (framequeue.Queue, func(), error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	q := framequeue.NewInMemoryQueue(
		framequeue.WithCapacity(s.streamBufferSize),
		framequeue.WithDropOldest(),
	)
	cancel := sess.Subscribe(q)
	return q, cancel, nil
}

// Words lists the supported dictionary keys.
func (s *Service) Words(_ context.Context) types.Words {
	words := s.dict.Words()
	return types.Words{Words: words, Count: len(words)}
}

// Sign returns the keyframes for a word or phrase.
func (s *Service) Sign(_ context.Context, word string) (types.Sign, error) {
	frames, ok := s.dict.Lookup(word)
	if !ok {
		return types.Sign{}, fmt.Errorf("%w: sign %q", ErrNotFound, sign.Normalize(word))
	}
	return types.Sign{Word: sign.Normalize(word), Frames: frames}, nil
}

// IssueToken mints a video-call token for identity in room.
func (s *Service) IssueToken(ctx context.Context, identity, room string) (types.Token, error) {
	if strings.TrimSpace(identity) == "" || strings.TrimSpace(room) == "" {
		return types.Token{}, fmt.Errorf("%w: identity and room are required", ErrInvalidInput)
	}
	if s.issuer == nil {
		return types.Token{}, fmt.Errorf("%w: token issuer", ErrNotConfigured)
	}

	tok, err := s.issuer.Issue(ctx, identity, room)
	switch {
	case errors.Is(err, livekit.ErrNotConfigured):
		return types.Token{}, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	case errors.Is(err, livekit.ErrInvalidGrant):
		return types.Token{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case err != nil:
		return types.Token{}, err
	}

	s.log().Info(ctx, "token issued",
		logger.String("identity", tok.Identity),
		logger.String("room", tok.Room),
	)
	return types.Token{
		Token:     tok.JWT,
		URL:       tok.URL,
		Identity:  tok.Identity,
		Room:      tok.Room,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// Predict classifies a camera frame and maps the label onto the dictionary.
func (s *Service) Predict(ctx context.Context, img predict.Image) (types.Prediction, error) {
	if len(img.Data) == 0 {
		return types.Prediction{}, fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}
	if s.predictor == nil {
		return types.Prediction{}, fmt.Errorf("%w: predictor", ErrNotConfigured)
	}

	label, err := s.predictor.Predict(ctx, img)
	switch {
	case errors.Is(err, predictor.ErrNotConfigured):
		return types.Prediction{}, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	case err != nil:
		s.log().Warn(ctx, "prediction failed", logger.Error(err))
		return types.Prediction{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	r := predict.Interpret(label, s.dict)
	return types.Prediction{
		Label:        r.Label,
		Word:         r.Word,
		HandDetected: r.HandDetected,
		Known:        r.Known,
	}, nil
}

// SearchGif returns a demonstration GIF for text.
func (s *Service) SearchGif(ctx context.Context, text string) (types.Gif, error) {
	if strings.TrimSpace(text) == "" {
		return types.Gif{}, fmt.Errorf("%w: q is required", ErrInvalidInput)
	}
	if s.gifs == nil {
		return types.Gif{}, fmt.Errorf("%w: gif search", ErrNotConfigured)
	}

	u, err := s.gifs.Search(ctx, text)
	switch {
	case errors.Is(err, giphy.ErrNotConfigured):
		return types.Gif{}, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	case errors.Is(err, giphy.ErrEmptyQuery):
		return types.Gif{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case err != nil:
		s.log().Warn(ctx, "gif search failed", logger.Error(err))
		return types.Gif{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return types.Gif{Query: giphy.Query(text), URL: u}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"signs":          s.dict.Len(),
		"maxSessions":    s.maxSessions,
		"stepDurationMs": s.stepDuration.Milliseconds(),
		"minStepMs":      s.minStep.Milliseconds(),
		"maxStepMs":      s.maxStep.Milliseconds(),
		"idleTimeoutMs":  s.idleTimeout.Milliseconds(),
		"tokens":         s.issuer != nil,
		"predictor":      s.predictor != nil,
		"gifs":           s.gifs != nil,
	}
	if s.started {
		stats["sessions"] = s.store.Count(context.Background())
	}
	return stats
}
