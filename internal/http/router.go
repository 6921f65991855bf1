package http

import (
	nethttp "net/http"

	"github.com/preston-bernstein/match-overlay/internal/http/handlers"
)

// NewRouter registers the status routes on a ServeMux.
func NewRouter(handler *handlers.Handler) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/ready", handler.Ready)
	mux.HandleFunc("/state", handler.State)
	mux.HandleFunc("/", handler.NotFound)
	return mux
}
