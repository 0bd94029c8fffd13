package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/thoughtgraph/internal/interact"
	"github.com/lazypower/thoughtgraph/internal/viewer"
)

var (
	errNoViewer = errors.New("graph view is not configured")
	errClosed   = errors.New("server is closed")
)

// withView resolves the current view or answers 503.
func (s *Server) withView(w http.ResponseWriter) *viewer.View {
	if s.opts.NewView == nil {
		writeError(w, http.StatusServiceUnavailable, errNoViewer.Error())
		return nil
	}
	v := s.currentView()
	if v == nil {
		writeError(w, http.StatusServiceUnavailable, "graph view is not mounted")
		return nil
	}
	return v
}

func (s *Server) handleViewStatus(w http.ResponseWriter, r *http.Request) {
	if v := s.withView(w); v != nil {
		writeJSON(w, http.StatusOK, v.Stats())
	}
}

func (s *Server) handleViewFrame(w http.ResponseWriter, r *http.Request) {
	v := s.withView(w)
	if v == nil {
		return
	}
	f, err := v.Frame()
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleViewSVG(w http.ResponseWriter, r *http.Request) {
	v := s.withView(w)
	if v == nil {
		return
	}
	var buf bytes.Buffer
	if err := v.WriteSVG(&buf); err != nil {
		writeViewError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (s *Server) handleRemount(w http.ResponseWriter, r *http.Request) {
	v, err := s.MountView(r.Context())
	if errors.Is(err, errNoViewer) || errors.Is(err, errClosed) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, v.Stats())
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	v := s.withView(w)
	if v == nil {
		return
	}
	s.dragResult(w, v, v.DragStart(chi.URLParam(r, "nodeID")))
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	v := s.withView(w)
	if v == nil {
		return
	}
	var req struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.X == nil || req.Y == nil {
		writeError(w, http.StatusBadRequest, "x and y required")
		return
	}
	s.dragResult(w, v, v.DragMove(chi.URLParam(r, "nodeID"), *req.X, *req.Y))
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	v := s.withView(w)
	if v == nil {
		return
	}
	s.dragResult(w, v, v.DragEnd(chi.URLParam(r, "nodeID")))
}

func (s *Server) dragResult(w http.ResponseWriter, v *viewer.View, err error) {
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Stats())
}

func writeViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interact.ErrUnknownNode):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, viewer.ErrNotReady),
		errors.Is(err, interact.ErrDragActive),
		errors.Is(err, interact.ErrNotDragging):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
