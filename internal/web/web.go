// Package web provides the HTTP API and the server-rendered timetable page.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"kaoqin/internal/config"
	"kaoqin/internal/importer"
	appLog "kaoqin/internal/log"
	"kaoqin/internal/semester"
	"kaoqin/internal/store"
	"kaoqin/internal/timetable"
)

// Server serves the admin API plus the /timetable page used both by
// browsers and by the headless snapshot capture.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	builder  *timetable.Builder
	calendar *semester.Calendar
	importer *importer.Service
	loc      *time.Location
	debug    bool
	mux      *http.ServeMux

	// CaptureFn, when set, re-renders the timetable snapshot on demand
	// (POST /api/preview). Wired in cmd/kaoqin.
	CaptureFn func(ctx context.Context) error

	// Cached result of store.HasUsers so the auth middleware does not hit
	// the database on every request.
	usersMu    sync.RWMutex
	usersCache *hasUsersCache
}

type hasUsersCache struct {
	hasUsers  bool
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store, builder *timetable.Builder,
	cal *semester.Calendar, imp *importer.Service, loc *time.Location, debug bool) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		builder:  builder,
		calendar: cal,
		importer: imp,
		loc:      loc,
		debug:    debug,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	if s.configAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
	}
	return s.authMiddleware(s.mux)
}

// configAuthEnabled reports whether file-based Basic Auth is configured.
func (s *Server) configAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// storeHasUsers reports whether any login account exists, with a short
// in-memory cache.
func (s *Server) storeHasUsers() bool {
	if s.store == nil {
		return false
	}

	const ttl = 30 * time.Second
	now := time.Now()

	s.usersMu.RLock()
	uc := s.usersCache
	s.usersMu.RUnlock()
	if uc != nil && now.Sub(uc.updatedAt) < ttl {
		return uc.hasUsers
	}

	has, err := s.store.HasUsers()
	if err != nil {
		appLog.Error("user count check failed", err)
		return uc != nil && uc.hasUsers
	}

	s.usersMu.Lock()
	s.usersCache = &hasUsersCache{hasUsers: has, updatedAt: time.Now()}
	s.usersMu.Unlock()
	return has
}

// authMiddleware guards all endpoints except /health with HTTP Basic Auth.
// Credentials are accepted from either the user store (bcrypt) or, as a
// bootstrap path, the config file. With neither configured, auth is off.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always exposed without authentication.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		hasUsers := s.storeHasUsers()
		if !hasUsers && !s.configAuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if ok {
			if s.configAuthEnabled() &&
				secureCompare(u, s.cfg.BasicAuth.Username) &&
				secureCompare(p, s.cfg.BasicAuth.Password) {
				next.ServeHTTP(w, r)
				return
			}
			if hasUsers {
				if _, err := s.store.VerifyUser(u, p); err == nil {
					next.ServeHTTP(w, r)
					return
				}
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="Kaoqin", charset="UTF-8"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer starts an HTTP server bound to cfg.Listen. Graceful shutdown
// is handled by the http.Server wrapper in cmd/kaoqin.
func StartServer(_ context.Context, s *Server) error {
	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "debug", s.debug)
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/timetable", http.StatusFound)
	})
	s.mux.HandleFunc("GET /timetable", s.handleTimetablePage)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("POST /api/preview", s.handlePreviewRefresh)

	s.mux.HandleFunc("GET /api/timetable", s.handleTimetable)

	s.mux.HandleFunc("GET /api/courses", s.handleCoursesList)
	s.mux.HandleFunc("DELETE /api/courses/{id}", s.handleCourseDelete)
	s.mux.HandleFunc("GET /api/semesters", s.handleSemesters)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	s.mux.HandleFunc("GET /api/students", s.handleStudentsList)
	s.mux.HandleFunc("POST /api/students", s.handleStudentSave)
	s.mux.HandleFunc("GET /api/students/{id}", s.handleStudentGet)
	s.mux.HandleFunc("PUT /api/students/{id}", s.handleStudentUpdate)
	s.mux.HandleFunc("DELETE /api/students/{id}", s.handleStudentDelete)

	s.mux.HandleFunc("GET /api/attendance", s.handleAttendanceList)
	s.mux.HandleFunc("POST /api/attendance", s.handleAttendanceSave)
	s.mux.HandleFunc("GET /api/attendance/stats", s.handleAttendanceStats)

	s.mux.HandleFunc("GET /api/leaves", s.handleLeavesList)
	s.mux.HandleFunc("POST /api/leaves", s.handleLeaveSave)
	s.mux.HandleFunc("GET /api/leaves/stats", s.handleLeaveStats)
	s.mux.HandleFunc("DELETE /api/leaves/{id}", s.handleLeaveDelete)

	s.mux.HandleFunc("POST /api/users", s.handleUserCreate)

	s.mux.HandleFunc("GET /api/stats", s.handleDashboardStats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last rendered PNG snapshot from disk. The path
// matches the capture pipeline in cmd/kaoqin/main.go:
//   - default: /var/lib/kaoqin/preview.png
//   - debug:   ./cache/preview.png
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.PreviewPath())
}

// PreviewPath is where the snapshot PNG lives on disk.
func (s *Server) PreviewPath() string {
	if s.debug {
		return "./cache/preview.png"
	}
	return "/var/lib/kaoqin/preview.png"
}

// handlePreviewRefresh re-renders the snapshot immediately.
func (s *Server) handlePreviewRefresh(w http.ResponseWriter, r *http.Request) {
	if s.CaptureFn == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot capture not configured")
		return
	}
	if err := s.CaptureFn(r.Context()); err != nil {
		appLog.Error("snapshot capture failed", err)
		writeError(w, http.StatusInternalServerError, "snapshot capture failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "path": "/preview.png"})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
