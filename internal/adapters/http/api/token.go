package api

import (
	"context"
	"net/http"

	"github.com/okian/signconnect/internal/domain/types"
)

// TokenDependencies defines the interface for video-call token issuance.
type TokenDependencies interface {
	IssueToken(ctx context.Context, identity, room string) (types.Token, error)
}

// TokenHandler handles token requests.
type TokenHandler struct {
	deps TokenDependencies
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(deps TokenDependencies) *TokenHandler {
	return &TokenHandler{deps: deps}
}

// tokenRequest mirrors the OpenAPI schema for POST /token.
type tokenRequest struct {
	Identity string `json:"identity"`
	Room     string `json:"room"`
}

// HandleIssue handles POST /token.
func (h *TokenHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	const op = "api.issue_token"
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, op, err)
		return
	}
	tok, err := h.deps.IssueToken(r.Context(), req.Identity, req.Room)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}
