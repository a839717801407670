// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/signconnect/pkg/logger"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	StreamDependencies
	SignDependencies
	TokenDependencies
	PredictDependencies
	GifDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sessionHandler *SessionHandler
	streamHandler  *StreamHandler
	signHandler    *SignHandler
	tokenHandler   *TokenHandler
	predictHandler *PredictHandler
	gifHandler     *GifHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...StreamOption) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		sessionHandler: NewSessionHandler(deps),
		streamHandler:  NewStreamHandler(deps, opts...),
		signHandler:    NewSignHandler(deps),
		tokenHandler:   NewTokenHandler(deps),
		predictHandler: NewPredictHandler(deps),
		gifHandler:     NewGifHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionHandler.HandleCreate, "sessions_create"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleGet, "sessions_get"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleDelete, "sessions_delete"))
	mux.HandleFunc("POST /sessions/{id}/submit", MetricsMiddleware(s.sessionHandler.HandleSubmit, "sessions_submit"))
	mux.HandleFunc("PUT /sessions/{id}/speed", MetricsMiddleware(s.sessionHandler.HandleSpeed, "sessions_speed"))
	mux.HandleFunc("GET /sessions/{id}/stream", MetricsMiddleware(s.streamHandler.HandleStream, "sessions_stream"))

	mux.HandleFunc("GET /signs", MetricsMiddleware(s.signHandler.HandleList, "signs_list"))
	mux.HandleFunc("GET /signs/{word}", MetricsMiddleware(s.signHandler.HandleGet, "signs_get"))

	mux.HandleFunc("POST /token", MetricsMiddleware(s.tokenHandler.HandleIssue, "token"))
	mux.HandleFunc("POST /predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("GET /gifs", MetricsMiddleware(s.gifHandler.HandleSearch, "gifs"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Warn(context.Background(), "request failed",
			logger.Int("status", status),
			logger.String("code", code),
			logger.String("message", msg),
		)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
