package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/signconnect/internal/adapters/mq/queue"
	"github.com/okian/signconnect/internal/domain/playback"
	"github.com/okian/signconnect/internal/domain/playback/playbacktest"
	"github.com/okian/signconnect/internal/domain/session"
	"github.com/okian/signconnect/internal/domain/sign"
)

func newSession(id string) *session.Session {
	return session.New(id, sign.Builtin(), playback.WithScheduler(playbacktest.NewScheduler()))
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithIdleTimeout(0))
	defer store.Close()

	if n := store.Count(ctx); n != 0 {
		t.Errorf("expected empty store, got %d", n)
	}

	s := newSession("a")
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Create(ctx, newSession("a")); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != s {
		t.Error("expected the stored session")
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !s.Closed() {
		t.Error("expected deleted session to be closed")
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_Capacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithMaxSessions(2), WithIdleTimeout(0))
	defer store.Close()

	for _, id := range []string{"a", "b"} {
		if err := store.Create(ctx, newSession(id)); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}
	if err := store.Create(ctx, newSession("c")); !errors.Is(err, ErrCapacity) {
		t.Errorf("expected ErrCapacity, got %v", err)
	}

	_ = store.Delete(ctx, "a")
	if err := store.Create(ctx, newSession("c")); err != nil {
		t.Errorf("expected room after delete, got %v", err)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithIdleTimeout(0))
	defer store.Close()

	idle := newSession("idle")
	_ = store.Create(ctx, idle)
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(2 * time.Millisecond)

	fresh := newSession("fresh")
	_ = store.Create(ctx, fresh)

	ids := store.Sweep(ctx, cutoff)
	if len(ids) != 1 || ids[0] != "idle" {
		t.Fatalf("expected only idle to be swept, got %v", ids)
	}
	if !idle.Closed() {
		t.Error("expected swept session to be closed")
	}
	if fresh.Closed() {
		t.Error("expected fresh session to stay open")
	}
	if n := store.Count(ctx); n != 1 {
		t.Errorf("expected 1 session left, got %d", n)
	}
}

func TestMemoryStore_SweepKeepsSubscribedSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithIdleTimeout(0))
	defer store.Close()

	watched := newSession("watched")
	_ = store.Create(ctx, watched)
	cancel := watched.Subscribe(queue.NewInMemoryQueue())
	time.Sleep(2 * time.Millisecond)

	if ids := store.Sweep(ctx, time.Now()); len(ids) != 0 {
		t.Fatalf("expected subscribed session to survive, got %v", ids)
	}
	if watched.Closed() {
		t.Fatal("expected subscribed session to stay open")
	}

	cutoff := time.Now()
	time.Sleep(2 * time.Millisecond)
	cancel()
	if ids := store.Sweep(ctx, cutoff); len(ids) != 0 {
		t.Fatalf("expected detaching to restart the idle clock, got %v", ids)
	}

	time.Sleep(2 * time.Millisecond)
	ids := store.Sweep(ctx, time.Now())
	if len(ids) != 1 || ids[0] != "watched" {
		t.Fatalf("expected idle unsubscribed session to be swept, got %v", ids)
	}
}

func TestMemoryStore_BackgroundSweeper(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx,
		WithIdleTimeout(5*time.Millisecond),
		WithSweepInterval(5*time.Millisecond),
	)
	defer store.Close()

	s := newSession("a")
	_ = store.Create(ctx, s)

	deadline := time.Now().Add(2 * time.Second)
	for store.Count(ctx) > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Count(ctx) != 0 {
		t.Fatal("expected idle session to be evicted by the sweeper")
	}
	if !s.Closed() {
		t.Error("expected evicted session to be closed")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithMaxSessions(0), WithIdleTimeout(0))
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("s-%d-%d", i, j)
				if err := store.Create(ctx, newSession(id)); err != nil {
					t.Errorf("create %s failed: %v", id, err)
					return
				}
				if j%2 == 0 {
					_ = store.Delete(ctx, id)
				}
			}
		}(i)
	}
	wg.Wait()

	if n := store.Count(ctx); n != 250 {
		t.Errorf("expected 250 sessions, got %d", n)
	}
}

func TestMemoryStore_CloseBehavior(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)

	s := newSession("a")
	_ = store.Create(ctx, s)

	if err := store.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
	if !s.Closed() {
		t.Error("expected session to be closed on store close")
	}
	if err := store.Create(ctx, newSession("b")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}

func TestMemoryStore_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore(context.Background(), WithIdleTimeout(0))
	defer store.Close()
	cancel()

	if err := store.Create(ctx, newSession("a")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
