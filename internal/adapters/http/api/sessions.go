package api

import (
	"context"
	"net/http"

	"github.com/okian/signconnect/internal/domain/types"
)

// SessionDependencies defines the interface for playback session operations.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (types.Session, error)
	Session(ctx context.Context, id string) (types.Session, error)
	Submit(ctx context.Context, id, text string) (types.Session, error)
	SetSpeed(ctx context.Context, id string, stepMS int) (types.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// SessionHandler handles playback session requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// submitRequest mirrors the OpenAPI schema for POST /sessions/{id}/submit.
type submitRequest struct {
	Text string `json:"text"`
}

// speedRequest mirrors the OpenAPI schema for PUT /sessions/{id}/speed.
type speedRequest struct {
	StepDurationMS *int `json:"step_duration_ms"`
}

// HandleCreate handles POST /sessions.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	view, err := h.deps.CreateSession(r.Context())
	if err != nil {
		fail(w, op, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	view, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		fail(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSubmit handles POST /sessions/{id}/submit. Empty text is accepted
// and leaves the state unchanged.
func (h *SessionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, op, err)
		return
	}
	view, err := h.deps.Submit(r.Context(), r.PathValue("id"), req.Text)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleSpeed handles PUT /sessions/{id}/speed. Out-of-range values are
// clamped, not rejected.
func (h *SessionHandler) HandleSpeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_speed"
	var req speedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, op, err)
		return
	}
	if req.StepDurationMS == nil {
		fail(w, op, NewKind("missing step_duration_ms", ErrBadRequest))
		return
	}
	view, err := h.deps.SetSpeed(r.Context(), r.PathValue("id"), *req.StepDurationMS)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
