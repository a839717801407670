package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/signconnect/internal/adapters/giphy"
	"github.com/okian/signconnect/internal/adapters/livekit"
	"github.com/okian/signconnect/internal/adapters/mq/worker"
	"github.com/okian/signconnect/internal/adapters/predictor"
	service "github.com/okian/signconnect/internal/app"
	"github.com/okian/signconnect/internal/domain/model"
	"github.com/okian/signconnect/internal/domain/playback"
	"github.com/okian/signconnect/internal/domain/predict"
	"github.com/okian/signconnect/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with real adapters", t, func() {
		classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"prediction": predict.NoHandLabel})
		}))
		defer classifier.Close()

		gifs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer gifs.Close()

		svc := service.New(
			service.WithStepBounds(5*time.Millisecond, 50*time.Millisecond),
			service.WithStepDuration(5*time.Millisecond),
			service.WithTokenIssuer(livekit.NewIssuer("key", "secret-secret-secret-secret-secret")),
			service.WithPredictor(predictor.New(classifier.URL)),
			service.WithGifSearcher(giphy.New("key", giphy.WithURL(gifs.URL))),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a subscriber streams a full sequence", func() {
			view, err := svc.CreateSession(ctx)
			So(err, ShouldBeNil)
			q, unsubscribe, err := svc.Subscribe(ctx, view.ID)
			So(err, ShouldBeNil)

			frames := make(chan model.Frame, 16)
			fwd := worker.NewForwarder(q, worker.SinkFunc(func(_ context.Context, f model.Frame) error {
				frames <- f
				return nil
			}))
			done := make(chan error, 1)
			go func() { done <- fwd.Run(ctx) }()

			_, err = svc.Submit(ctx, view.ID, "hello")
			So(err, ShouldBeNil)

			var events []playback.Event
			timeout := time.After(5 * time.Second)
		collect:
			for {
				select {
				case f := <-frames:
					events = append(events, f.Snapshot.Event)
					if f.Final() {
						break collect
					}
				case <-timeout:
					break collect
				}
			}
			unsubscribe()

			Convey("Then it should see the initial state, every keyframe and the reset", func() {
				So(events, ShouldResemble, []playback.Event{
					playback.EventState,
					playback.EventStart,
					playback.EventAdvance,
					playback.EventAdvance,
					playback.EventReset,
				})
				So(<-done, ShouldBeNil)
			})
		})

		Convey("When a token is issued", func() {
			tok, err := svc.IssueToken(ctx, "alice", "room")
			So(err, ShouldBeNil)
			So(tok.Token, ShouldNotBeEmpty)
		})

		Convey("When the classifier sees no hand", func() {
			p, err := svc.Predict(ctx, predict.Image{Data: []byte("jpeg")})
			So(err, ShouldBeNil)
			So(p.HandDetected, ShouldBeFalse)
		})

		Convey("When no gif matches", func() {
			g, err := svc.SearchGif(ctx, "hello")
			So(err, ShouldBeNil)
			So(g.URL, ShouldBeEmpty)
		})
	})
}
