// Package introspect implements the session introspection HTTP surface of
// spec §4.7 ("added, replaces dropped ConnectRPC"): a plain net/http +
// encoding/json diagnostics endpoint serving the same operational need the
// teacher's generated ConnectRPC admin surface served, without requiring
// fabricated .proto-derived code (none exists anywhere in the retrieved
// reference pack for this domain).
package introspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dantte-lp/v2gsim/internal/registry"
)

// Server answers GET /v1/sessions, GET /v1/sessions/{peer} and
// GET /healthz. It never mutates session state -- the registry is the
// single writer, reached only from each session's own goroutine via
// session.Observer.
type Server struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// New builds the introspection mux. reg must not be nil.
func New(reg *registry.Registry, logger *slog.Logger) *Server {
	return &Server{reg: reg, logger: logger.With(slog.String("component", "introspect"))}
}

// Handler returns the http.Handler to mount alongside /metrics on the
// metrics HTTP server (spec §4.7: the same server answers both).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{peer}", s.handleGetSession)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// sessionView is the wire shape of one session in the introspection API.
type sessionView struct {
	Peer         string    `json:"peer"`
	Protocol     string    `json:"protocol,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	State        string    `json:"state"`
	Started      time.Time `json:"started"`
	LastActivity time.Time `json:"last_activity"`
}

func viewOf(e registry.Entry) sessionView {
	return sessionView{
		Peer:         e.Peer,
		Protocol:     e.Protocol,
		SessionID:    e.SessionID,
		State:        e.State,
		Started:      e.Started,
		LastActivity: e.LastActivity,
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	snap := s.reg.Snapshot()
	views := make([]sessionView, 0, len(snap))
	for _, e := range snap {
		views = append(views, viewOf(e))
	}
	s.writeJSON(w, r, http.StatusOK, views)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	peer := r.PathValue("peer")
	e, ok := s.reg.Get(peer)
	if !ok {
		s.writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "no such session"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, viewOf(e))
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WarnContext(r.Context(), "encode response", slog.String("error", err.Error()))
	}
}
