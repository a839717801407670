package cli_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/signconnect/internal/adapters/http/api"
	"github.com/okian/signconnect/internal/adapters/livekit"
	service "github.com/okian/signconnect/internal/app"
	"github.com/okian/signconnect/internal/cli"
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

// newTestServer runs the real API on fast real timers.
func newTestServer(t *testing.T, opts ...service.Option) *httptest.Server {
	t.Helper()
	opts = append([]service.Option{
		service.WithStepBounds(time.Millisecond, 50*time.Millisecond),
		service.WithStepDuration(2 * time.Millisecond),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	root := cli.NewRootCommand(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlay(t *testing.T) {
	Convey("Given a running playback service", t, func() {
		srv := newTestServer(t)
		cfg := &cli.Config{BaseURL: srv.URL, Timeout: 2 * time.Second, PlayTimeout: 5 * time.Second}

		Convey("When a known word is played", func() {
			var out bytes.Buffer
			err := cli.Play(context.Background(), cfg, "Hello world", cli.PlayOptions{}, &out)

			Convey("Then every keyframe and the reset should be printed", func() {
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out.String()), "\n")
				So(lines, ShouldHaveLength, 4)
				So(lines[0], ShouldStartWith, "[1/3] Right hand at head level")
				So(lines[2], ShouldStartWith, "[3/3] Return to starting position")
				So(lines[3], ShouldEqual, "[done] Neutral position")
			})
		})

		Convey("When an unknown word is played", func() {
			var out bytes.Buffer
			err := cli.Play(context.Background(), cfg, "banana", cli.PlayOptions{}, &out)

			Convey("Then the neutral fallback should be reported", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, `"banana" is not in the dictionary`)
			})
		})

		Convey("When a custom step is requested", func() {
			var out bytes.Buffer
			err := cli.Play(context.Background(), cfg, "yes", cli.PlayOptions{Step: 5 * time.Millisecond}, &out)

			Convey("Then playback should still complete", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "[done]")
			})
		})

		Convey("When the text is blank", func() {
			err := cli.Play(context.Background(), cfg, "   ", cli.PlayOptions{}, &bytes.Buffer{})

			Convey("Then nothing should be sent", func() {
				So(errors.Is(err, cli.ErrNothingToPlay), ShouldBeTrue)
			})
		})
	})
}

func TestCommands(t *testing.T) {
	Convey("Given a running playback service", t, func() {
		srv := newTestServer(t, service.WithTokenIssuer(livekit.NewIssuer("key", "secret-secret-secret-secret-secret", livekit.WithURL("wss://rtc.example.com"))))

		Convey("When words is run", func() {
			out, err := run("words", "--url", srv.URL)

			Convey("Then the dictionary should be listed one per line", func() {
				So(err, ShouldBeNil)
				So(strings.Split(strings.TrimSpace(out), "\n"), ShouldContain, "thank you")
			})
		})

		Convey("When play is run", func() {
			out, err := run("play", "no", "--url", srv.URL)

			Convey("Then the frames should be printed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "[done]")
			})
		})

		Convey("When token is run", func() {
			out, err := run("token", "--url", srv.URL, "--identity", "alice", "--room", "lobby")

			Convey("Then the token and server URL should be printed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "url: wss://rtc.example.com")
			})
		})

		Convey("When token is run without a room", func() {
			_, err := run("token", "--url", srv.URL, "--identity", "alice")

			Convey("Then the flag error should be returned", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the server answers with an error", func() {
			_, err := run("token", "--url", srv.URL, "--identity", "", "--room", "lobby")

			Convey("Then it should surface as an API error", func() {
				So(errors.Is(err, cli.ErrAPI), ShouldBeTrue)
			})
		})
	})
}
