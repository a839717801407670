package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/signconnect/internal/adapters/mq/queue"
	"github.com/okian/signconnect/internal/adapters/mq/worker"
	"github.com/okian/signconnect/internal/domain/model"
	"github.com/okian/signconnect/internal/domain/playback"
	logging "github.com/okian/signconnect/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockSink struct {
	mu     sync.Mutex
	frames []model.Frame
	failAt uint64
}

func (s *mockSink) Send(_ context.Context, f model.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt != 0 && f.Seq() == s.failAt {
		return errors.New("connection reset")
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *mockSink) seqs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, 0, len(s.frames))
	for _, f := range s.frames {
		out = append(out, f.Seq())
	}
	return out
}

func frame(seq uint64) model.Frame {
	return model.Frame{SessionID: "s-1", Snapshot: playback.Snapshot{Seq: seq}}
}

func run(w *worker.Forwarder, ctx context.Context) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	return errc
}

func TestForwarder(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a queue with buffered frames", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		ctx := context.Background()
		for i := uint64(1); i <= 3; i++ {
			q.Enqueue(ctx, frame(i))
		}
		sink := &mockSink{}

		convey.Convey("When the queue is closed", func() {
			w := worker.NewForwarder(q, sink, worker.WithName("test"))
			errc := run(w, ctx)
			_ = q.Close()

			convey.Convey("Then every frame should reach the sink in order", func() {
				convey.So(<-errc, convey.ShouldBeNil)
				convey.So(sink.seqs(), convey.ShouldResemble, []uint64{1, 2, 3})
			})
		})

		convey.Convey("When the sink fails", func() {
			sink.failAt = 2
			w := worker.NewForwarder(q, sink)
			err := <-run(w, ctx)

			convey.Convey("Then the forwarder should stop with the error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "connection reset")
				convey.So(sink.seqs(), convey.ShouldResemble, []uint64{1})
			})
		})

		convey.Convey("When the context is cancelled", func() {
			empty := queue.NewInMemoryQueue()
			cctx, cancel := context.WithCancel(ctx)
			w := worker.NewForwarder(empty, sink)
			errc := run(w, cctx)
			cancel()

			convey.Convey("Then Run should return the context error", func() {
				select {
				case err := <-errc:
					convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("timeout", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When Shutdown is called", func() {
			empty := queue.NewInMemoryQueue()
			w := worker.NewForwarder(empty, sink, worker.WithLogger(logging.Get()))
			errc := run(w, ctx)

			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.Convey("Then Run should stop and Shutdown should be repeatable", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(errors.Is(<-errc, worker.ErrStopped), convey.ShouldBeTrue)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When Shutdown times out because Run never started", func() {
			w := worker.NewForwarder(q, sink)
			sctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()

			convey.So(w.Shutdown(sctx), convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a SinkFunc", t, func() {
		var got uint64
		s := worker.SinkFunc(func(_ context.Context, f model.Frame) error {
			got = f.Seq()
			return nil
		})
		convey.So(s.Send(context.Background(), frame(9)), convey.ShouldBeNil)
		convey.So(got, convey.ShouldEqual, 9)
	})
}
