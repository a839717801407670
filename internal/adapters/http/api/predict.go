package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/signconnect/internal/domain/predict"
	"github.com/okian/signconnect/internal/domain/types"
)

// maxImageBytes bounds uploaded camera frames.
const maxImageBytes = 10 << 20

// PredictDependencies defines the interface for gesture classification.
type PredictDependencies interface {
	Predict(ctx context.Context, img predict.Image) (types.Prediction, error)
}

// PredictHandler handles classification requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict with a multipart "image" field.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	file, hdr, err := r.FormFile("image")
	if err != nil {
		fail(w, op, WrapKind("read image field", ErrBadRequest, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(w, op, WrapKind("read image", ErrBadRequest, err))
		return
	}

	p, err := h.deps.Predict(r.Context(), predict.Image{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		fail(w, op, fmt.Errorf("classify %s: %w", hdr.Filename, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
