package httpx

import (
	"net/http"

	"log/slog"

	"github.com/RexySaragih/beaver/internal/app"
	"github.com/RexySaragih/beaver/internal/store"
	"github.com/RexySaragih/beaver/internal/ws"
	"github.com/RexySaragih/beaver/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, st store.Store) http.Handler {
	mw := NewMiddleware(cfg)
	api := &RoomsAPI{Store: st, Log: logger}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Room lifecycle endpoints
	mux.Handle("/api/rooms", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			api.Create(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	mux.Handle("/api/rooms/{id}", http.HandlerFunc(api.Get))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
