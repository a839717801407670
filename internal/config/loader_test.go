package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/signconnect/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		clearConfigEnvVars()
		t.Setenv(config.EnvEnvFile, filepath.Join(dir, "missing.env"))

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StepDurationMS, convey.ShouldEqual, 1000)
				convey.So(cfg.GiphyURL, convey.ShouldEqual, "https://api.giphy.com/v1/gifs/search")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("SIGNCONNECT_ADDR", ":8080")
			t.Setenv("SIGNCONNECT_STEP_DURATION_MS", "750")
			t.Setenv("SIGNCONNECT_MAX_SESSIONS", "5")
			t.Setenv("SIGNCONNECT_LIVEKIT_API_KEY", "key")
			t.Setenv("SIGNCONNECT_LIVEKIT_API_SECRET", "secret")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StepDurationMS, convey.ShouldEqual, 750)
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 5)
				convey.So(cfg.LiveKitAPIKey, convey.ShouldEqual, "key")
				convey.So(cfg.LiveKitAPISecret, convey.ShouldEqual, "secret")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeFile(t, dir, "config.yaml", `
addr: ":9090"
log_format: json
step_duration_ms: 1500
dictionary_path: /etc/signs.yaml
`)
			t.Setenv(config.EnvConfig, path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.StepDurationMS, convey.ShouldEqual, 1500)
				convey.So(cfg.DictionaryPath, convey.ShouldEqual, "/etc/signs.yaml")
			})

			convey.Convey("And env vars should take precedence over the file", func() {
				t.Setenv("SIGNCONNECT_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StepDurationMS, convey.ShouldEqual, 1500)
			})
		})

		convey.Convey("When a .env file is present", func() {
			envFile := writeFile(t, dir, "test.env", "SIGNCONNECT_GIPHY_API_KEY=from-dotenv\nSIGNCONNECT_ADDR=:6060\n")
			t.Setenv(config.EnvEnvFile, envFile)
			t.Setenv("SIGNCONNECT_ADDR", ":5050")
			t.Cleanup(clearConfigEnvVars)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fill unset variables only", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GiphyAPIKey, convey.ShouldEqual, "from-dotenv")
				convey.So(cfg.Addr, convey.ShouldEqual, ":5050")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			t.Setenv(config.EnvConfig, filepath.Join(dir, "nope.yaml"))
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the result is invalid", func() {
			t.Setenv("SIGNCONNECT_MAX_STEP_DURATION_MS", "100")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := config.Load(cctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

// clearConfigEnvVars drops every SIGNCONNECT_ variable left over from a
// previous Convey branch.
func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, config.EnvPrefix) {
			_ = os.Unsetenv(key)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
