package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/signconnect/internal/domain/sign"
	"github.com/okian/signconnect/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestViewEncoding(t *testing.T) {
	Convey("Given API views", t, func() {
		Convey("When a sign is encoded", func() {
			b, err := json.Marshal(types.Sign{Word: "yes", Frames: []sign.PoseKeyframe{sign.DefaultPose}})

			Convey("Then keyframes should use the wire field names", func() {
				So(err, ShouldBeNil)
				var raw map[string]any
				So(json.Unmarshal(b, &raw), ShouldBeNil)
				frames := raw["frames"].([]any)
				frame := frames[0].(map[string]any)
				So(frame["left_arm"], ShouldEqual, 30)
				So(frame["right_hand"], ShouldEqual, "relaxed")
				So(frame["description"], ShouldEqual, "Neutral position")
			})
		})

		Convey("When a token without url is encoded", func() {
			b, err := json.Marshal(types.Token{Token: "t", Identity: "a", Room: "r", ExpiresAt: time.Unix(0, 0).UTC()})

			Convey("Then the url should be omitted", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldNotContainSubstring, `"url"`)
				So(string(b), ShouldContainSubstring, `"expires_at":"1970-01-01T00:00:00Z"`)
			})
		})

		Convey("When an empty gif result is encoded", func() {
			b, err := json.Marshal(types.Gif{Query: "ASL hello"})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"query":"ASL hello","url":""}`)
		})
	})
}
