package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/df07/go-sphere-raytracer/internal/logging"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// Server exposes the progress hub over HTTP:
//
//	/ws          websocket feed of tile and completion events
//	/api/health  liveness probe
//	/api/scenes  built-in scene catalogue
type Server struct {
	hub    *Hub
	logger *logging.Logger
	http   *http.Server
}

// NewServer creates a server listening on addr once started
func NewServer(addr string, hub *Hub, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	s := &Server{hub: hub, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routing table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.ServeWS)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	return mux
}

// Start listens in the background and returns the bound address
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return "", err
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("progress server stopped", logging.Error(err))
		}
	}()
	s.logger.Info("progress server listening", logging.String("addr", ln.Addr().String()))
	return ln.Addr().String(), nil
}

// Shutdown disconnects subscribers and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scene.ListScenes())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
