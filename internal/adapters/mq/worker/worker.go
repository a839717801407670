// Package worker drains frame queues into slow consumers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/signconnect/internal/adapters/mq/queue"
	"github.com/okian/signconnect/pkg/logger"
	"github.com/okian/signconnect/pkg/metrics"
)

// ErrStopped is returned by Run after Shutdown.
var ErrStopped = errors.New("forwarder stopped")

// Frame is what forwarders read off the queue.
type Frame = queue.Frame

// Queue defines how forwarders receive frames.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Frame
}

// Sink receives frames in order, e.g. a WebSocket connection.
type Sink interface {
	Send(ctx context.Context, f Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f Frame) error

// Send calls fn.
func (fn SinkFunc) Send(ctx context.Context, f Frame) error { return fn(ctx, f) } //nolint:gocritic // hugeParam: Frame is passed by value for channel semantics

// Forwarder moves frames from one queue to one sink.
type Forwarder struct {
	queue Queue
	sink  Sink
	name  string

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewForwarder creates a forwarder with configuration options.
func NewForwarder(q Queue, sink Sink, opts ...Option) *Forwarder {
	w := &Forwarder{
		queue:    q,
		sink:     sink,
		name:     "forwarder",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("forwarder"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "forwarder" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run sends frames until ctx is cancelled, Shutdown is called, the queue is
// closed or the sink fails. It returns nil when the queue was closed and
// drained, and the cause otherwise.
func (w *Forwarder) Run(ctx context.Context) error {
	defer close(w.done)

	frames := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdown:
			return ErrStopped
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if err := w.sink.Send(ctx, f); err != nil {
				metrics.RecordStreamSendError()
				metrics.RecordErrorByComponent("forwarder", "send_error")
				w.logger.Debug(ctx, "sink send failed",
					logger.String("session_id", f.SessionID),
					logger.Uint64("seq", f.Seq()),
					logger.Error(err),
				)
				return fmt.Errorf("send frame %d: %w", f.Seq(), err)
			}
			metrics.RecordStreamFrameSent()
		}
	}
}

// Shutdown stops the forwarder and waits for Run to return.
func (w *Forwarder) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
