// Package health serves the agent's liveness endpoint and the Prometheus
// metrics mount. It is a deliberately small surface: two GET routes, no
// authentication, intended for localhost or a trusted network only.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

// SnapshotFunc returns the current health view of the running agent.
type SnapshotFunc func() models.Health

// Server exposes GET /health and, when a metrics handler is supplied,
// GET /metrics.
type Server struct {
	srv *http.Server
}

// New builds the server. metricsHandler may be nil.
func New(addr string, snapshot SnapshotFunc, metricsHandler http.Handler) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot()); err != nil {
			slog.Error("health: encode response", "err", err)
		}
	})
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start listens in a new goroutine and returns immediately. Listen errors
// other than graceful shutdown are logged, not fatal; the agent keeps
// processing items without the endpoint.
func (s *Server) Start() {
	go func() {
		slog.Info("health endpoint listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health endpoint failed", "err", err)
		}
	}()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
