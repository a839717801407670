// Package playbacktest provides a manual clock for driving playback in tests.
package playbacktest

import (
	"sort"
	"sync"
	"time"

	"github.com/okian/signconnect/internal/domain/playback"
)

// Scheduler is a playback.Scheduler whose time only moves on Advance.
type Scheduler struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  uint64
	pending []*Timer
	fired   []*Timer
}

// Timer is a callback registered on a Scheduler.
type Timer struct {
	s       *Scheduler
	id      uint64
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

var _ playback.Scheduler = (*Scheduler)(nil)

// NewScheduler returns a scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// AfterFunc registers f to run when the clock reaches now+d.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) playback.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &Timer{s: s, id: s.nextID, at: s.now + d, f: f}
	s.pending = append(s.pending, t)
	return t
}

// Stop cancels the timer if it has not fired yet.
func (t *Timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.s.removeLocked(t)
	return true
}

// Fire runs the callback regardless of whether it was stopped. It models a
// runtime timer that fired concurrently with Stop.
func (t *Timer) Fire() {
	t.f()
}

// Now returns the elapsed virtual time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of timers waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Fired returns the timers that have already run, oldest first.
func (s *Scheduler) Fired() []*Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Timer(nil), s.fired...)
}

// Advance moves the clock forward by d, running due callbacks in order.
// Callbacks run without the scheduler lock so they may schedule again;
// timers they register inside the window also fire.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.nextDueLocked(target)
		if t == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.at
		t.fired = true
		s.removeLocked(t)
		s.fired = append(s.fired, t)
		s.mu.Unlock()

		t.f()
	}
}

func (s *Scheduler) nextDueLocked(target time.Duration) *Timer {
	if len(s.pending) == 0 {
		return nil
	}
	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].at == s.pending[j].at {
			return s.pending[i].id < s.pending[j].id
		}
		return s.pending[i].at < s.pending[j].at
	})
	if s.pending[0].at > target {
		return nil
	}
	return s.pending[0]
}

func (s *Scheduler) removeLocked(t *Timer) {
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}
