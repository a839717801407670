// Package queue buffers playback frames between a session and a slow
// consumer.
//
// Enqueue never blocks: the controller publishes while holding its lock, so
// a full queue drops a frame instead of stalling playback.
package queue

import (
	"context"
	"sync"

	"github.com/okian/signconnect/internal/domain/model"
	"github.com/okian/signconnect/pkg/metrics"
)

const defaultCapacity = 64

// Frame is the payload type flowing through the queue.
type Frame = model.Frame

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a frame to the queue.
	// Returns false if the queue is closed or the frame was dropped.
	Enqueue(ctx context.Context, f Frame) bool

	// Dequeue returns a channel that receives frames as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Frame

	// Len returns the current number of queued frames.
	Len(ctx context.Context) int

	// Close stops accepting frames. It is idempotent.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	frames     chan Frame
	capacity   int
	dropOldest bool

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.frames = make(chan Frame, q.capacity)
	return q
}

// Enqueue adds a frame to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, f Frame) bool { //nolint:gocritic // hugeParam: Frame is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordStreamFrameDropped("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordStreamFrameDropped("context_cancelled")
		return false
	}

	select {
	case q.frames <- f:
		metrics.RecordStreamFrameEnqueued()
		return true
	default:
	}

	if !q.dropOldest {
		metrics.RecordStreamFrameDropped("queue_full")
		return false
	}

	// Make room by discarding the oldest frame. A concurrent consumer may
	// have taken it already, which also makes room.
	select {
	case <-q.frames:
		metrics.RecordStreamFrameDropped("evicted")
	default:
	}
	select {
	case q.frames <- f:
		metrics.RecordStreamFrameEnqueued()
		return true
	default:
		metrics.RecordStreamFrameDropped("queue_full")
		return false
	}
}

// Dequeue returns a channel that receives frames as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Frame {
	out := make(chan Frame)
	go func() {
		defer close(out)
		for f := range q.frames {
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued frames.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.frames)
}

// Close stops accepting frames and closes the dequeue side once drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.frames)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
