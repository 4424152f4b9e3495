// Package ops is the read-only operator surface: a health probe, a
// snapshot of open rides, and the live event feed. It observes the bot,
// it never drives it.
package ops

import (
	"context"
	"fmt"
	"net/http"

	"shuttle-bot/internal/shuttle/adapters/ws"
	"shuttle-bot/internal/shuttle/service"
	"shuttle-bot/pkg/auth"
	"shuttle-bot/pkg/logger"
)

// RideLister is the slice of the registry the ops API needs.
type RideLister interface {
	Snapshot() []service.RideView
}

type Server struct {
	logger logger.Logger
	jwt    *auth.JWTManager
	rides  RideLister
	hub    *ws.Hub
	srv    *http.Server
}

func NewServer(port int, jwt *auth.JWTManager, rides RideLister, hub *ws.Hub, log logger.Logger) *Server {
	s := &Server{
		logger: log,
		jwt:    jwt,
		rides:  rides,
		hub:    hub,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /rides", jwt.AuthMiddleware(operatorOnly(log, http.HandlerFunc(s.listRides))))
	mux.HandleFunc("GET /ws/feed", s.feed)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start blocks serving the ops API until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("ops_listening", fmt.Sprintf("Ops API serving on %s", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRides(w http.ResponseWriter, r *http.Request) {
	views := s.rides.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(views),
		"rides": views,
	})
}

// feed authenticates via a token query parameter, since websocket clients
// cannot set headers, then hands the request to the hub.
func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if claims.Role != auth.RoleOperator {
		writeError(w, http.StatusUnauthorized, "You do not have permission to access this resource")
		return
	}

	s.hub.HandleFeed(w, r)
}
