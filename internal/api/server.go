// Package api exposes the running session to an external renderer over HTTP.
// GET endpoints read the island; POST endpoints feed player input.
// Every session access is serialized, so moves, previews and regeneration
// never overlap.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/homeward/internal/engine"
	"github.com/talgya/homeward/internal/persistence"
)

// Journal is the session history store the server reads and writes.
type Journal interface {
	engine.Recorder
	RecentSessions(limit int) ([]persistence.SessionRow, error)
	SessionMoves(sessionID string) ([]persistence.MoveRow, error)
}

// SessionFactory generates a fresh ready session.
type SessionFactory func() (*engine.Session, error)

// Server serves the current session over HTTP.
type Server struct {
	Port           int
	CORSOrigins    []string
	TrustedProxies ProxyList // Peers whose X-Forwarded-For is believed
	NewSession     SessionFactory
	Journal        Journal // Optional

	mu      sync.Mutex
	session *engine.Session
}

// NewServer creates a server around an already started session.
func NewServer(s *engine.Session, factory SessionFactory) *Server {
	return &Server{session: s, NewSession: factory}
}

// withSession runs fn while holding the session lock.
func (s *Server) withSession(fn func(sess *engine.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.session)
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	// Regeneration runs the whole retry loop; keep it rare per client.
	regenLimiter := NewRateLimiter(20, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", getOnly(s.handleStatus))
	mux.HandleFunc("/api/v1/map", getOnly(s.handleMap))
	mux.HandleFunc("/api/v1/player", getOnly(s.handlePlayer))
	mux.HandleFunc("/api/v1/preview", getOnly(s.handlePreview))
	mux.HandleFunc("/api/v1/sessions", getOnly(s.handleSessions))
	mux.HandleFunc("/api/v1/moves", getOnly(s.handleMoves))

	mux.HandleFunc("/api/v1/move", postOnly(s.handleMove))
	mux.HandleFunc("/api/v1/session", postOnly(RateLimitMiddleware(regenLimiter, s.TrustedProxies, s.handleRegenerate)))

	mux.HandleFunc("/api/v1/ws", s.handleWebSocket)

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine and returns the server so
// the caller can shut it down.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "journal", s.Journal != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed renderer origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp map[string]any
	s.withSession(func(sess *engine.Session) {
		resp = map[string]any{
			"name":    "Homeward",
			"session": sess.Status(),
			"player":  sess.PlayerView(),
		}
	})
	writeJSON(w, resp)
}

// handleMap returns tiles for the renderer. ?revealed=1 leaves out fogged tiles.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	revealedOnly, _ := strconv.ParseBool(r.URL.Query().Get("revealed"))

	var resp map[string]any
	s.withSession(func(sess *engine.Session) {
		resp = map[string]any{
			"width":     sess.Map.Width,
			"height":    sess.Map.Height,
			"tile_size": sess.Layout.TileSize,
			"tiles":     sess.Tiles(revealedOnly),
			"player":    sess.PlayerView(),
			"won":       sess.Won,
		}
	})
	writeJSON(w, resp)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	var p engine.PlayerView
	s.withSession(func(sess *engine.Session) {
		p = sess.PlayerView()
	})
	writeJSON(w, p)
}

// pointRequest is a target either in world pixels or in screen pixels with
// the viewport that maps them.
type pointRequest struct {
	X        *float64         `json:"x"`
	Y        *float64         `json:"y"`
	ScreenX  *float64         `json:"screen_x"`
	ScreenY  *float64         `json:"screen_y"`
	Viewport *engine.Viewport `json:"viewport"`
}

func (p pointRequest) world() (x, y float64, err error) {
	switch {
	case p.X != nil && p.Y != nil:
		return *p.X, *p.Y, nil
	case p.ScreenX != nil && p.ScreenY != nil && p.Viewport != nil:
		x, y = p.Viewport.ScreenToWorld(*p.ScreenX, *p.ScreenY)
		return x, y, nil
	}
	return 0, 0, errors.New("need x and y, or screen_x, screen_y and viewport")
}

type moveResponse struct {
	engine.MoveResult
	Player engine.PlayerView `json:"player"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	x, y, err := req.world()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, s.move(x, y))
}

func (s *Server) move(x, y float64) moveResponse {
	var resp moveResponse
	s.withSession(func(sess *engine.Session) {
		resp = moveResponse{MoveResult: sess.Move(x, y), Player: sess.PlayerView()}
	})
	return resp
}

type previewResponse struct {
	Q    int     `json:"q"`
	R    int     `json:"r"`
	X    float64 `json:"x"` // Cursor position: centre of the previewed tile
	Y    float64 `json:"y"`
	Show bool    `json:"show"`
}

func (s *Server) preview(x, y float64) previewResponse {
	var resp previewResponse
	s.withSession(func(sess *engine.Session) {
		target, ok := sess.Preview(x, y)
		cx, cy := sess.Layout.ToPixel(target)
		resp = previewResponse{Q: target.Q, R: target.R, X: cx, Y: cy, Show: ok}
	})
	return resp
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be numbers", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.preview(x, y))
}

// handleRegenerate replaces the session with a freshly generated island.
// The island is built without holding the session lock; only the swap is
// serialized with moves and previews.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if s.NewSession == nil {
		http.Error(w, "regeneration disabled", http.StatusForbidden)
		return
	}

	sess, err := s.NewSession()
	if err != nil {
		slog.Error("regeneration failed", "error", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if s.Journal != nil {
		sess.Attach(s.Journal)
	}
	status := sess.Status()

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	writeJSON(w, status)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	rows, err := s.Journal.RecentSessions(limit)
	if err != nil {
		slog.Error("journal read failed", "error", err)
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}

	type entry struct {
		persistence.SessionRow
		Started string `json:"started"`
	}
	entries := make([]entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entry{
			SessionRow: row,
			Started:    humanize.Time(time.Unix(row.StartedAt, 0)),
		})
	}
	writeJSON(w, entries)
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	id := r.URL.Query().Get("session")
	if id == "" {
		s.withSession(func(sess *engine.Session) { id = sess.ID })
	}

	rows, err := s.Journal.SessionMoves(id)
	if err != nil {
		slog.Error("journal read failed", "error", err)
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []persistence.MoveRow{}
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
