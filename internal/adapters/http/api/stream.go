package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	framequeue "github.com/okian/signconnect/internal/adapters/mq/queue"
	"github.com/okian/signconnect/internal/adapters/mq/worker"
	"github.com/okian/signconnect/internal/domain/types"
	"github.com/okian/signconnect/pkg/logger"
)

// Stream defaults.
const (
	defaultWriteTimeout = 5 * time.Second
	defaultPingInterval = 30 * time.Second
	maxClientMessage    = 4 << 10
)

// Client message types accepted on the stream.
const (
	messageSubmit = "submit"
	messageSpeed  = "speed"
)

// StreamDependencies defines the interface for live frame streaming.
type StreamDependencies interface {
	Subscribe(ctx context.Context, id string) (framequeue.Queue, func(), error)
	Submit(ctx context.Context, id, text string) (types.Session, error)
	SetSpeed(ctx context.Context, id string, stepMS int) (types.Session, error)
}

// StreamOption configures the StreamHandler.
type StreamOption func(*StreamHandler)

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(d time.Duration) StreamOption {
	return func(h *StreamHandler) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) StreamOption {
	return func(h *StreamHandler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// StreamHandler upgrades GET /sessions/{id}/stream to a WebSocket and pushes
// every published frame to the client.
type StreamHandler struct {
	deps         StreamDependencies
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pingInterval time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies, opts ...StreamOption) *StreamHandler {
	h := &StreamHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		writeTimeout: defaultWriteTimeout,
		pingInterval: defaultPingInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// clientMessage is a control message sent by the browser.
type clientMessage struct {
	Type           string `json:"type"`
	Text           string `json:"text,omitempty"`
	StepDurationMS *int   `json:"step_duration_ms,omitempty"`
}

// HandleStream handles GET /sessions/{id}/stream.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	id := r.PathValue("id")

	// Subscribe before upgrading so a missing session is a plain 404.
	q, cancel, err := h.deps.Subscribe(r.Context(), id)
	if err != nil {
		fail(w, op, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		logger.Get().Named("api").Debug(r.Context(), "websocket upgrade failed",
			logger.String("session_id", id),
			logger.Error(WrapKind(op, ErrUpgrade, err)),
		)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxClientMessage)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	c := &streamConn{conn: conn, writeTimeout: h.writeTimeout}
	fwd := worker.NewForwarder(q, c, worker.WithName("stream"))

	go h.readLoop(ctx, stop, conn, id)
	go h.pingLoop(ctx, c)

	runErr := fwd.Run(ctx)
	switch {
	case runErr == nil:
		// Session closed, the queue drained.
		c.close(websocket.CloseNormalClosure, "session closed")
	case errors.Is(runErr, context.Canceled):
		c.close(websocket.CloseNormalClosure, "")
	default:
		c.close(websocket.CloseInternalServerErr, "stream failed")
	}
}

// readLoop applies client control messages until the connection ends.
func (h *StreamHandler) readLoop(ctx context.Context, stop context.CancelFunc, conn *websocket.Conn, id string) {
	defer stop()
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				continue
			}
			return
		}
		switch msg.Type {
		case messageSubmit:
			_, _ = h.deps.Submit(ctx, id, msg.Text)
		case messageSpeed:
			if msg.StepDurationMS != nil {
				_, _ = h.deps.SetSpeed(ctx, id, *msg.StepDurationMS)
			}
		}
	}
}

func (h *StreamHandler) pingLoop(ctx context.Context, c *streamConn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

// streamConn is the forwarder sink for one WebSocket connection.
type streamConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// Send writes one frame as a JSON text message.
func (c *streamConn) Send(_ context.Context, f worker.Frame) error { //nolint:gocritic // hugeParam: matches worker.Sink
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return Wrap("set write deadline", err)
	}
	if err := c.conn.WriteJSON(f); err != nil {
		return Wrap("write frame", err)
	}
	return nil
}

// ping and close use WriteControl, which is safe to call concurrently with
// the forwarder's writes.
func (c *streamConn) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *streamConn) close(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
}
