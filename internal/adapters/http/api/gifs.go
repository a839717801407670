package api

import (
	"context"
	"net/http"

	"github.com/okian/signconnect/internal/domain/types"
)

// GifDependencies defines the interface for GIF search.
type GifDependencies interface {
	SearchGif(ctx context.Context, text string) (types.Gif, error)
}

// GifHandler handles GIF search requests.
type GifHandler struct {
	deps GifDependencies
}

// NewGifHandler creates a new GIF handler.
func NewGifHandler(deps GifDependencies) *GifHandler {
	return &GifHandler{deps: deps}
}

// HandleSearch handles GET /gifs?q=.
func (h *GifHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_gif"
	g, err := h.deps.SearchGif(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
