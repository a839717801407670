// Package site serves the embedded browser demo.
package site

import (
	"context"
	"net/http"
)

// Register attaches the demo page and its assets to mux. It uses a GET
// catch-all, so more specific API routes registered on the same mux win.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", http.FileServer(FS()))
}
