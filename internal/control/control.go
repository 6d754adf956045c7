// Package control exposes a playback controller over HTTP.
package control

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	framesync "github.com/jonoton/go-framesync"
)

// Player is the subset of *framesync.Controller the handlers use.
type Player interface {
	Load(source string) error
	Play()
	Stop() error
	Unload()
	SetOverlay(enabled bool)
	State() framesync.State
	Source() string
	SessionID() uuid.UUID
	CurrentFrame() int
	TotalFrames() int
	Progress() float64
	Metrics() framesync.Metrics
}

// Status is the JSON body returned by every endpoint.
type Status struct {
	Session     string            `json:"session,omitempty"`
	Source      string            `json:"source,omitempty"`
	State       string            `json:"state"`
	Frame       int               `json:"frame"`
	TotalFrames int               `json:"total_frames"`
	Progress    float64           `json:"progress"`
	Metrics     framesync.Metrics `json:"metrics"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type loadRequest struct {
	Source string `json:"source"`
}

type overlayRequest struct {
	Enabled bool `json:"enabled"`
}

// Server holds the handlers for one player.
type Server struct {
	player Player
	logger *slog.Logger
}

// NewRouter returns the control API:
//
//	GET  /ping
//	GET  /status
//	POST /load     {"source": "..."}
//	POST /play
//	POST /stop
//	POST /unload
//	PUT  /overlay  {"enabled": true}
func NewRouter(player Player, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{player: player, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)
	r.Get("/status", s.StatusHandler)
	r.Post("/load", s.LoadHandler)
	r.Post("/play", s.PlayHandler)
	r.Post("/stop", s.StopHandler)
	r.Post("/unload", s.UnloadHandler)
	r.Put("/overlay", s.OverlayHandler)

	return r
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) LoadHandler(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Source == "" {
		s.writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	if err := s.player.Load(req.Source); err != nil {
		s.logger.Warn("control: load failed",
			"source", req.Source,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		s.writeError(w, loadErrorStatus(err), err.Error())
		return
	}
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) PlayHandler(w http.ResponseWriter, r *http.Request) {
	if s.player.Source() == "" {
		s.writeError(w, http.StatusConflict, "nothing loaded")
		return
	}
	s.player.Play()
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) StopHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.player.Stop(); err != nil {
		s.logger.Error("control: stop failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) UnloadHandler(w http.ResponseWriter, r *http.Request) {
	s.player.Unload()
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) OverlayHandler(w http.ResponseWriter, r *http.Request) {
	var req overlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.player.SetOverlay(req.Enabled)
	s.writeStatus(w, http.StatusOK)
}

// loadErrorStatus maps load failures to HTTP status codes.
func loadErrorStatus(err error) int {
	switch {
	case errors.Is(err, framesync.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, framesync.ErrZeroLengthStream),
		errors.Is(err, framesync.ErrInvalidFrameRate),
		errors.Is(err, framesync.ErrFrameTooLarge),
		errors.Is(err, framesync.ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) status() Status {
	st := Status{
		Source:      s.player.Source(),
		State:       s.player.State().String(),
		Frame:       s.player.CurrentFrame(),
		TotalFrames: s.player.TotalFrames(),
		Progress:    s.player.Progress(),
		Metrics:     s.player.Metrics(),
	}
	if id := s.player.SessionID(); id != uuid.Nil {
		st.Session = id.String()
	}
	return st
}

func (s *Server) writeStatus(w http.ResponseWriter, code int) {
	s.writeJSON(w, code, s.status())
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("control: failed to encode response", "error", err)
	}
}
