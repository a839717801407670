package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/signconnect/internal/domain/session"
	"github.com/okian/signconnect/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultMaxSessions   = 1000
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// MemoryStore is a map-backed Store with a background idle sweeper.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	closed   bool

	maxSessions   int
	idleTimeout   time.Duration
	sweepInterval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store and starts its idle sweeper, which
// runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:      make(map[string]*session.Session),
		maxSessions:   defaultMaxSessions,
		idleTimeout:   defaultIdleTimeout,
		sweepInterval: defaultSweepInterval,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateActiveSessions(0)
	if s.idleTimeout > 0 {
		s.startSweeper(ctx)
	}
	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep(ctx, time.Now().Add(-s.idleTimeout))
			}
		}
	}()
}

// Create implements Store.Create.
func (s *MemoryStore) Create(ctx context.Context, sess *session.Session) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.sessions[sess.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrExists, sess.ID())
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		metrics.RecordSessionRejected()
		return fmt.Errorf("%w: limit %d", ErrCapacity, s.maxSessions)
	}

	s.sessions[sess.ID()] = sess
	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.Close()
	metrics.RecordSessionEvicted("deleted")
	metrics.UpdateActiveSessions(n)
	return nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep implements Store.Sweep.
func (s *MemoryStore) Sweep(_ context.Context, idleBefore time.Time) []string {
	var evicted []*session.Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.Subscribers() == 0 && sess.LastSeen().Before(idleBefore) {
			evicted = append(evicted, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	ids := make([]string, 0, len(evicted))
	for _, sess := range evicted {
		sess.Close()
		metrics.RecordSessionEvicted("idle")
		ids = append(ids, sess.ID())
	}
	if len(evicted) > 0 {
		metrics.UpdateActiveSessions(n)
	}
	return ids
}

// Close implements Store.Close. It is idempotent.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session.Session)
	s.closed = true
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
		metrics.RecordSessionEvicted("shutdown")
	}
	metrics.UpdateActiveSessions(0)
	return nil
}
