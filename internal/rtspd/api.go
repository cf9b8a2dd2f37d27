package rtspd

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type rootResponse struct {
	Message string `json:"message"`
}

// routes builds the HTTP control plane: greeting, health check and metrics
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", s.metrics.InstrumentHandler(http.HandlerFunc(s.handleRoot)))
	mux.Handle("GET /healthz", s.metrics.InstrumentHandler(http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	slog.Info("Root endpoint called")

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(rootResponse{Message: s.config.HTTP.Greeting}); err != nil {
		slog.Error("Failed to write root response", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("Healthy")); err != nil {
		slog.Error("Failed to write health response", "err", err)
	}
}
