package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
	"github.com/roach88/recordwire/internal/world"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Uptime    string            `json:"uptime,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// HomeView is one loaded home as served over HTTP.
type HomeView struct {
	Pos         string    `json:"pos"`
	Component   string    `json:"component"`
	Base        float64   `json:"base"`
	Capacity    float64   `json:"capacity"`
	SongRadius  float64   `json:"song_radius"`
	Counts      ir.Counts `json:"counts"`
	Connections []string  `json:"connections"`
}

// GainResponse is the body of GET /homes/{pos}/gain.
type GainResponse struct {
	Pos      string      `json:"pos"`
	Listener world.Point `json:"listener"`
	Gain     float64     `json:"gain"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "recordwire",
		Uptime:    time.Since(s.started).String(),
		Details: map[string]string{
			"go_version":     runtime.Version(),
			"engine_version": ir.EngineVersion,
			"catalog_digest": s.world.Registry().Digest(),
		},
	})
}

func (s *Server) handleHomes(w http.ResponseWriter, r *http.Request) {
	homes := s.world.Homes()
	views := make([]HomeView, 0, len(homes))
	for _, node := range homes {
		views = append(views, viewOf(node))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	node, ok := s.lookupHome(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(node))
}

func (s *Server) handleGain(w http.ResponseWriter, r *http.Request) {
	node, ok := s.lookupHome(w, r)
	if !ok {
		return
	}

	listener, err := parsePoint(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	gain, err := s.world.Gain(listener, node.Pos())
	if err != nil {
		writeWorldError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GainResponse{
		Pos:      node.Pos().String(),
		Listener: listener,
		Gain:     gain,
	})
}

// lookupHome resolves the {pos} parameter to a loaded home, writing the
// error response itself when it cannot.
func (s *Server) lookupHome(w http.ResponseWriter, r *http.Request) (*home.Node, bool) {
	pos, err := ir.ParsePos(chi.URLParam(r, "pos"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}

	node, err := s.world.Home(pos)
	if err != nil {
		writeWorldError(w, err)
		return nil, false
	}
	return node, true
}

func viewOf(node *home.Node) HomeView {
	snap := node.Network().Snapshot()
	conns := make([]string, 0, len(snap.Edges))
	for _, c := range snap.Edges {
		conns = append(conns, c.String())
	}
	return HomeView{
		Pos:         node.Pos().String(),
		Component:   node.Name(),
		Base:        snap.Base,
		Capacity:    snap.Capacity,
		SongRadius:  snap.SongRadius,
		Counts:      snap.Counts,
		Connections: conns,
	}
}

func parsePoint(r *http.Request) (world.Point, error) {
	q := r.URL.Query()
	var coords [3]float64
	for i, key := range []string{"x", "y", "z"} {
		raw := q.Get(key)
		if raw == "" {
			return world.Point{}, fmt.Errorf("query parameter %q is required", key)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return world.Point{}, fmt.Errorf("query parameter %q: %w", key, err)
		}
		coords[i] = v
	}
	return world.Point{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func writeWorldError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, world.ErrEmpty), errors.Is(err, world.ErrNotHome):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, world.ErrUnloaded):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
