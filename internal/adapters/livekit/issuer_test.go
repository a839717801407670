package livekit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/okian/signconnect/internal/adapters/livekit"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIssuer(t *testing.T) {
	Convey("Given an issuer with credentials", t, func() {
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		iss := livekit.NewIssuer("APIkey", "a-very-long-secret-used-for-signing",
			livekit.WithURL("wss://example.livekit.cloud"),
			livekit.WithTTL(30*time.Minute),
			livekit.WithClock(func() time.Time { return now }),
		)
		So(iss.Configured(), ShouldBeTrue)

		Convey("When a token is issued", func() {
			tok, err := iss.Issue(context.Background(), " alice ", "practice")

			Convey("Then it should carry the identity and a room grant", func() {
				So(err, ShouldBeNil)
				So(tok.Identity, ShouldEqual, "alice")
				So(tok.Room, ShouldEqual, "practice")
				So(tok.URL, ShouldEqual, "wss://example.livekit.cloud")
				So(tok.ExpiresAt, ShouldEqual, now.Add(30*time.Minute))

				v, err := auth.ParseAPIToken(tok.JWT)
				So(err, ShouldBeNil)
				So(v.APIKey(), ShouldEqual, "APIkey")

				grants, err := v.Verify("a-very-long-secret-used-for-signing")
				So(err, ShouldBeNil)
				So(grants.Identity, ShouldEqual, "alice")
				So(grants.Video, ShouldNotBeNil)
				So(grants.Video.RoomJoin, ShouldBeTrue)
				So(grants.Video.Room, ShouldEqual, "practice")
				So(*grants.Video.CanPublish, ShouldBeTrue)
				So(*grants.Video.CanSubscribe, ShouldBeTrue)
			})

			Convey("Then it should not verify with another secret", func() {
				v, err := auth.ParseAPIToken(tok.JWT)
				So(err, ShouldBeNil)
				_, err = v.Verify("some-other-secret-of-similar-length")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When identity or room is missing", func() {
			_, err := iss.Issue(context.Background(), "", "practice")
			So(errors.Is(err, livekit.ErrInvalidGrant), ShouldBeTrue)

			_, err = iss.Issue(context.Background(), "alice", "  ")
			So(errors.Is(err, livekit.ErrInvalidGrant), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := iss.Issue(ctx, "alice", "practice")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given an issuer without credentials", t, func() {
		iss := livekit.NewIssuer("", "")

		Convey("Then issuing should report it is not configured", func() {
			So(iss.Configured(), ShouldBeFalse)
			_, err := iss.Issue(context.Background(), "alice", "practice")
			So(errors.Is(err, livekit.ErrNotConfigured), ShouldBeTrue)
		})
	})
}
