// Package session binds a playback controller to the renderers watching it.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/signconnect/internal/domain/model"
	"github.com/okian/signconnect/internal/domain/playback"
	"github.com/okian/signconnect/pkg/metrics"
)

// Subscriber receives the frames of one session. Enqueue must not block;
// a full subscriber drops the frame.
type Subscriber interface {
	Enqueue(ctx context.Context, f model.Frame) bool
	Close() error
}

// Session is one playback controller plus its subscribers.
type Session struct {
	id      string
	created time.Time
	ctrl    *playback.Controller

	lastSeen atomic.Int64 // unix nanos
	active   atomic.Bool  // a sequence is playing or holding

	subMu  sync.Mutex
	subs   map[uint64]Subscriber
	nextID uint64
	closed bool
}

// New creates a session with its own controller. Options are passed to
// playback.New; the session installs its own observer.
func New(id string, dict playback.Lookuper, opts ...playback.Option) *Session {
	s := &Session{
		id:      id,
		created: time.Now(),
		subs:    make(map[uint64]Subscriber),
	}
	s.lastSeen.Store(s.created.UnixNano())
	opts = append(opts, playback.WithObserver(s.publish))
	s.ctrl = playback.New(dict, opts...)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.created }

// Touch marks the session as used now.
func (s *Session) Touch() { s.lastSeen.Store(time.Now().UnixNano()) }

// LastSeen returns the last time the session was used.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Submit plays the first word of text.
func (s *Session) Submit(ctx context.Context, text string) playback.Snapshot {
	s.Touch()
	snap := s.ctrl.Submit(ctx, text)
	if snap.Event == playback.EventState {
		metrics.RecordSubmit(metrics.OutcomeEmpty)
	}
	return snap
}

// SetStepDuration sets the step duration in milliseconds and returns the
// clamped value in effect.
func (s *Session) SetStepDuration(ms int) time.Duration {
	s.Touch()
	return s.ctrl.SetStepDuration(ms)
}

// Snapshot returns the current playback state.
func (s *Session) Snapshot() playback.Snapshot {
	return s.ctrl.Snapshot()
}

// Subscribe registers sub and immediately enqueues the current state, so
// a new renderer never waits for the next change to draw. The returned
// cancel removes and closes sub and restarts the idle clock; it is safe to
// call more than once.
func (s *Session) Subscribe(sub Subscriber) (cancel func()) {
	s.Touch()

	var id uint64
	added := false
	s.ctrl.View(func(snap playback.Snapshot) {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if s.closed {
			return
		}
		s.nextID++
		id = s.nextID
		s.subs[id] = sub
		added = true
		sub.Enqueue(context.Background(), s.frame(snap))
	})

	if !added {
		_ = sub.Close()
		return func() {}
	}
	metrics.AddStreamSubscribers(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			_, ok := s.subs[id]
			delete(s.subs, id)
			s.subMu.Unlock()
			if ok {
				s.Touch()
				metrics.AddStreamSubscribers(-1)
				_ = sub.Close()
			}
		})
	}
}

// Subscribers returns the number of attached subscribers.
func (s *Session) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// Close stops playback and closes every subscriber. It is idempotent.
func (s *Session) Close() {
	s.ctrl.Close()
	if s.active.Swap(false) {
		metrics.AddActivePlaybacks(-1)
	}

	s.subMu.Lock()
	subs := s.subs
	s.subs = make(map[uint64]Subscriber)
	s.closed = true
	s.subMu.Unlock()

	for _, sub := range subs {
		metrics.AddStreamSubscribers(-1)
		_ = sub.Close()
	}
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	return s.ctrl.Closed()
}

// publish runs under the controller lock.
func (s *Session) publish(snap playback.Snapshot) {
	metrics.RecordFramePublished()
	switch snap.Event {
	case playback.EventStart:
		metrics.RecordSubmit(metrics.OutcomeRecognized)
		if snap.Interrupted {
			metrics.RecordPlaybackInterrupted()
		}
		if !s.active.Swap(true) {
			metrics.AddActivePlaybacks(1)
		}
	case playback.EventUnknown:
		metrics.RecordSubmit(metrics.OutcomeUnrecognized)
		if snap.Interrupted {
			metrics.RecordPlaybackInterrupted()
		}
		if s.active.Swap(false) {
			metrics.AddActivePlaybacks(-1)
		}
	case playback.EventReset:
		metrics.RecordPlaybackCompleted()
		if s.active.Swap(false) {
			metrics.AddActivePlaybacks(-1)
		}
	}

	f := s.frame(snap)
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		sub.Enqueue(context.Background(), f)
	}
}

func (s *Session) frame(snap playback.Snapshot) model.Frame {
	return model.Frame{SessionID: s.id, Snapshot: snap, At: time.Now()}
}
