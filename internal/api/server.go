// Package api serves the latest frame, poller statistics and recorded tracks
// over HTTP, plus tsweb debug pages.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/mocap.stream/internal/capture"
	"github.com/banshee-data/mocap.stream/internal/db"
	"github.com/banshee-data/mocap.stream/internal/httputil"
	"github.com/banshee-data/mocap.stream/internal/monitoring"
	"github.com/banshee-data/mocap.stream/internal/units"
	"github.com/banshee-data/mocap.stream/internal/version"
)

// ANSI escape codes for request logging
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// FrameSource provides the most recent polled frame.
type FrameSource interface {
	Latest() (capture.Frame, bool)
	Stats() capture.Stats
}

// TrackStore reads recorded sessions. *db.DB implements it.
type TrackStore interface {
	Sessions() ([]db.Session, error)
	SubjectNames(sessionID string) ([]string, error)
	SubjectTrack(sessionID, subject string, limit int) ([]db.Pose, error)
}

var _ TrackStore = (*db.DB)(nil)

type Server struct {
	frames FrameSource
	store  TrackStore
	host   string
	units  string
}

// NewServer returns a Server. store may be nil when recording is disabled.
// units is the default position unit for responses.
func NewServer(frames FrameSource, store TrackStore, host, defaultUnits string) *Server {
	if !units.IsValid(defaultUnits) {
		defaultUnits = units.Meters
	}
	return &Server{frames: frames, store: store, host: host, units: defaultUnits}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Tracef(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/subjects", s.listSubjects)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/tracks", s.showTrack)
	return mux
}

// requestUnits returns the units query parameter or the server default.
func (s *Server) requestUnits(r *http.Request) (string, error) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return s.units, nil
	}
	if !units.IsValid(u) {
		return "", fmt.Errorf("invalid units %q: must be one of %s", u, units.GetValidUnitsString())
	}
	return u, nil
}

func (s *Server) listSubjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	u, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	frame, ok := s.frames.Latest()
	if !ok {
		httputil.ServiceUnavailable(w, "no frame received yet")
		return
	}

	view := frame.View(u)
	if name := r.URL.Query().Get("subject"); name != "" {
		filtered := view.Subjects[:0]
		for _, sv := range view.Subjects {
			if sv.Name == name {
				filtered = append(filtered, sv)
			}
		}
		if len(filtered) == 0 {
			httputil.NotFound(w, fmt.Sprintf("subject %q not in latest frame", name))
			return
		}
		view.Subjects = filtered
	}
	httputil.WriteJSONOK(w, view)
}

type statsResponse struct {
	Host    string        `json:"host"`
	Version string        `json:"version"`
	GitSHA  string        `json:"git_sha"`
	Stats   capture.Stats `json:"stats"`
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, statsResponse{
		Host:    s.host,
		Version: version.Version,
		GitSHA:  version.GitSHA,
		Stats:   s.frames.Stats(),
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.ServiceUnavailable(w, "recording is disabled")
		return
	}
	sessions, err := s.store.Sessions()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

type trackResponse struct {
	SessionID string    `json:"session_id"`
	Subject   string    `json:"subject"`
	Units     string    `json:"units"`
	Poses     []db.Pose `json:"poses"`
}

// showTrack returns one subject's poses for a session, or the session's
// subject names when no subject is given.
func (s *Server) showTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.ServiceUnavailable(w, "recording is disabled")
		return
	}

	q := r.URL.Query()
	session := q.Get("session")
	if session == "" {
		httputil.BadRequest(w, "missing 'session' parameter")
		return
	}
	u, err := s.requestUnits(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.BadRequest(w, "invalid 'limit' parameter")
		return
	}

	subject := q.Get("subject")
	if subject == "" {
		names, err := s.store.SubjectNames(session)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to list subjects: %v", err))
			return
		}
		if names == nil {
			names = []string{}
		}
		httputil.WriteJSONOK(w, map[string]any{"session_id": session, "subjects": names})
		return
	}

	poses, err := s.store.SubjectTrack(session, subject, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load track: %v", err))
		return
	}
	if len(poses) == 0 {
		httputil.NotFound(w, fmt.Sprintf("no poses for %q in session %s", subject, session))
		return
	}
	for i := range poses {
		poses[i].X = units.ConvertLength(poses[i].X, u)
		poses[i].Y = units.ConvertLength(poses[i].Y, u)
		poses[i].Z = units.ConvertLength(poses[i].Z, u)
	}
	httputil.WriteJSONOK(w, trackResponse{SessionID: session, Subject: subject, Units: u, Poses: poses})
}
