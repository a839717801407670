package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/signconnect/internal/domain/model"
	"github.com/okian/signconnect/internal/domain/playback"
	"github.com/okian/signconnect/internal/domain/sign"
	"github.com/okian/signconnect/pkg/logger"
)

// ErrNothingToPlay is returned for blank input.
var ErrNothingToPlay = errors.New("nothing to play")

// PlayOptions tunes one play run.
type PlayOptions struct {
	Step time.Duration // zero keeps the server default
}

// Play creates a throwaway session, signs the first word of text and writes
// one line per frame to out until the pose is back to neutral.
func Play(ctx context.Context, cfg *Config, text string, opts PlayOptions, out io.Writer) error {
	if sign.FirstToken(text) == "" {
		return ErrNothingToPlay
	}
	if cfg.PlayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.PlayTimeout)
		defer cancel()
	}

	client := newHTTPClient(cfg)
	sess, err := client.createSession(ctx)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	log := logger.Get().Named("signctl")
	defer func() {
		// The parent context may be done already.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		if err := client.deleteSession(cleanupCtx, sess.ID); err != nil {
			log.Warn(cleanupCtx, "failed to delete session", logger.String("session_id", sess.ID), logger.Error(err))
		}
	}()

	if opts.Step > 0 {
		if err := client.setSpeed(ctx, sess.ID, opts.Step); err != nil {
			return fmt.Errorf("set speed: %w", err)
		}
	}

	wsURL, err := client.streamURL(sess.ID)
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer conn.Close()

	// Unblock ReadJSON when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	// The first frame is the state at subscribe time.
	var initial model.Frame
	if err := conn.ReadJSON(&initial); err != nil {
		return fmt.Errorf("read initial frame: %w", err)
	}
	log.Debug(ctx, "stream opened", logger.String("session_id", sess.ID), logger.Uint64("seq", initial.Seq()))

	if err := conn.WriteJSON(map[string]string{"type": "submit", "text": text}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	for {
		var f model.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("play %q: %w", text, ctxErr)
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if f.Seq() <= initial.Seq() || f.Snapshot.Event == playback.EventSpeed {
			continue
		}
		writeFrame(out, f)
		if f.Final() {
			return nil
		}
	}
}

func writeFrame(out io.Writer, f model.Frame) {
	s := f.Snapshot
	switch s.Event {
	case playback.EventUnknown:
		fmt.Fprintf(out, "%q is not in the dictionary; showing %s\n", s.Word, s.Pose.Description)
	case playback.EventReset:
		fmt.Fprintf(out, "[done] %s\n", s.Pose.Description)
	default:
		fmt.Fprintf(out, "[%d/%d] %s  left=%g°/%s right=%g°/%s\n",
			s.Step+1, s.Steps, s.Pose.Description,
			s.Pose.LeftArmAngle, s.Pose.LeftHandShape,
			s.Pose.RightArmAngle, s.Pose.RightHandShape)
	}
}
