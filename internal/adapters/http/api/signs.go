package api

import (
	"context"
	"net/http"

	"github.com/okian/signconnect/internal/domain/types"
)

// SignDependencies defines the interface for dictionary reads.
type SignDependencies interface {
	Words(ctx context.Context) types.Words
	Sign(ctx context.Context, word string) (types.Sign, error)
}

// SignHandler handles dictionary requests.
type SignHandler struct {
	deps SignDependencies
}

// NewSignHandler creates a new sign handler.
func NewSignHandler(deps SignDependencies) *SignHandler {
	return &SignHandler{deps: deps}
}

// HandleList handles GET /signs.
func (h *SignHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Words(r.Context()))
}

// HandleGet handles GET /signs/{word}. Multi-word keys are matched as a
// whole phrase, e.g. /signs/thank%20you.
func (h *SignHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_sign"
	s, err := h.deps.Sign(r.Context(), r.PathValue("word"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
