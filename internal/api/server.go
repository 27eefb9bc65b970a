package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bryanchriswhite/spacebar/internal/appicon"
	"github.com/bryanchriswhite/spacebar/internal/config"
	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/bryanchriswhite/spacebar/internal/notify"
	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	windowMgr *window.Manager
	configMgr *config.Manager
	signals   *notify.Hub
	power     *notify.PowerHub
	icons     *appicon.Cache
	upgrader  websocket.Upgrader
	port      int
}

// Options holds the optional collaborators of the server. Nil members
// disable the matching endpoints.
type Options struct {
	Signals *notify.Hub
	Power   *notify.PowerHub
	Icons   *appicon.Cache
}

// NewServer creates a new API server
func NewServer(windowMgr *window.Manager, configMgr *config.Manager, opts Options) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		windowMgr: windowMgr,
		configMgr: configMgr,
		signals:   opts.Signals,
		power:     opts.Power,
		icons:     opts.Icons,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the bar UI is served from another origin
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Workspace state
	api.HandleFunc("/spaces", s.handleGetSpaces).Methods("GET")
	api.HandleFunc("/spaces/{id}", s.handleGetSpace).Methods("GET")
	api.HandleFunc("/stream", s.handleStream)
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	// Focus commands
	api.HandleFunc("/spaces/{id}/focus", s.handleFocusSpace).Methods("POST")
	api.HandleFunc("/windows/{id}/focus", s.handleFocusWindow).Methods("POST")

	// Change signals and sleep/wake from external hooks
	api.HandleFunc("/signals/{name}", s.handleSignal).Methods("POST")
	api.HandleFunc("/power/{event}", s.handlePower).Methods("POST")

	// Application icons
	api.HandleFunc("/icons/{app}", s.handleIcon).Methods("GET")

	// Configuration
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")

	// Health check
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.PathPrefix("/").HandlerFunc(s.handleIndex)
}

// Handler returns the routes wrapped in the CORS middleware
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// SetPort sets the listen port used by Serve
func (s *Server) SetPort(port int) {
	s.port = port
}

// String names the service for the supervisor
func (s *Server) String() string {
	return "api-server"
}

// Serve listens until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context) error {
	log := logger.WithComponent("api")

	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", "http://"+srv.Addr).Msg("Starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("API server shutdown")
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HTTP Handlers

func (s *Server) handleGetSpaces(w http.ResponseWriter, r *http.Request) {
	snap := s.windowMgr.Current()
	if snap == nil {
		http.Error(w, "No snapshot yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetSpace(w http.ResponseWriter, r *http.Request) {
	id := window.SpaceID(mux.Vars(r)["id"])

	space, ok := s.windowMgr.Current().Space(id)
	if !ok {
		http.Error(w, fmt.Sprintf("Space %q not found", id), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, space)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	updates := s.windowMgr.SubscribeChan()
	defer s.windowMgr.Unsubscribe(updates)

	// The client never sends anything; reading only detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if current := s.windowMgr.Current(); current != nil {
		if err := conn.WriteJSON(current); err != nil {
			log.Debug().Err(err).Msg("WebSocket write error")
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		}
	}
}

// Status describes the scheduler for diagnostics
type Status struct {
	Backend   string    `json:"backend"`
	Push      bool      `json:"push"`
	State     string    `json:"state"`
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Spaces    int       `json:"spaces"`
	Windows   int       `json:"windows"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := Status{
		State:    s.windowMgr.State().String(),
		Failures: s.windowMgr.Failures(),
	}
	if p := s.windowMgr.Provider(); p != nil {
		st.Backend = p.Name()
		_, st.Push = p.Notifier()
	}
	if err := s.windowMgr.LastError(); err != nil {
		st.LastError = err.Error()
	}
	if snap := s.windowMgr.Current(); snap != nil {
		st.FetchedAt = snap.FetchedAt
		st.Spaces = len(snap.Spaces)
		st.Windows = snap.WindowCount()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleFocusSpace(w http.ResponseWriter, r *http.Request) {
	if s.windowMgr.Provider() == nil {
		http.Error(w, window.ErrNoProvider.Error(), http.StatusServiceUnavailable)
		return
	}

	id := window.SpaceID(mux.Vars(r)["id"])
	needWindow, _ := strconv.ParseBool(r.URL.Query().Get("window"))

	s.windowMgr.RequestFocusSpace(r.Context(), id, needWindow)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleFocusWindow(w http.ResponseWriter, r *http.Request) {
	if s.windowMgr.Provider() == nil {
		http.Error(w, window.ErrNoProvider.Error(), http.StatusServiceUnavailable)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid window id", http.StatusBadRequest)
		return
	}

	s.windowMgr.RequestFocusWindow(r.Context(), window.WindowID(id))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	if s.signals == nil {
		http.Error(w, "Signals are not enabled", http.StatusNotFound)
		return
	}

	name := mux.Vars(r)["name"]
	delivered := s.signals.Publish(name)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"signal":    name,
		"delivered": delivered,
	})
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	if s.power == nil {
		http.Error(w, "Power events are not enabled", http.StatusNotFound)
		return
	}

	ev, err := notify.ParsePowerEvent(mux.Vars(r)["event"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.power.Publish(ev) {
		http.Error(w, "Power event queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"event": ev.String()})
}

func (s *Server) handleIcon(w http.ResponseWriter, r *http.Request) {
	if s.icons == nil {
		http.NotFound(w, r)
		return
	}

	path, err := s.icons.Lookup(r.Context(), mux.Vars(r)["app"])
	if errors.Is(err, appicon.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/icns")
	w.Header().Set("Cache-Control", "max-age=86400")
	http.ServeFile(w, r, path)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.configMgr.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>spacebar</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 720px; margin: 40px auto; color: #333; }
        code { background: #f0f0f0; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>spacebar</h1>
    <ul>
        <li><a href="/api/spaces">/api/spaces</a> - current spaces and windows</li>
        <li><a href="/api/status">/api/status</a> - scheduler status</li>
        <li><code>ws://HOST/api/stream</code> - snapshot stream</li>
        <li><code>POST /api/spaces/{id}/focus?window=true</code> - focus a space</li>
        <li><code>POST /api/windows/{id}/focus</code> - focus a window</li>
        <li><code>POST /api/signals/{name}</code> - report a window manager change</li>
        <li><code>POST /api/power/{sleep|wake}</code> - report sleep and wake</li>
    </ul>
</body>
</html>`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(indexHTML))
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/api") {
		http.NotFound(w, r)
		return
	}
	http.Error(w, "Unknown API endpoint", http.StatusNotFound)
}
