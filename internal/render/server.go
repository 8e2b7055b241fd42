package render

import (
	"embed"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/lidarlog/internal/monitoring"
)

//go:embed static/index.html
var staticFS embed.FS

// HTTPSurface presents the point cloud in a browser. It serves an embedded
// canvas page that polls the point endpoint; pressing the page's stop button
// (or the surface failing) closes Done, which the session loop treats the
// same as a window-close signal.
type HTTPSurface struct {
	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	points  []Point
	updated time.Time

	done     chan struct{}
	doneOnce sync.Once
}

// NewHTTPSurface binds addr and starts serving. Pass "127.0.0.1:0" to let
// the OS pick a port; Addr reports the bound address.
func NewHTTPSurface(addr string) (*HTTPSurface, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &HTTPSurface{
		listener: ln,
		done:     make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/points", s.handlePoints)
	mux.HandleFunc("/api/stop", s.handleStop)
	s.server = &http.Server{Handler: mux}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("render surface stopped serving: %v", err)
		}
		s.signalDone()
	}()

	return s, nil
}

// Addr reports the bound listen address, for the startup banner.
func (s *HTTPSurface) Addr() string {
	return s.listener.Addr().String()
}

// Publish replaces the served point cloud with a copy of points.
func (s *HTTPSurface) Publish(points []Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points[:0], points...)
	s.updated = time.Now()
}

// Done is closed when the viewer asked to stop or the server failed.
func (s *HTTPSurface) Done() <-chan struct{} {
	return s.done
}

// Close shuts the server down. Safe to call more than once.
func (s *HTTPSurface) Close() error {
	s.signalDone()
	return s.server.Close()
}

func (s *HTTPSurface) signalDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *HTTPSurface) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

type pointsResponse struct {
	UpdatedNs   int64   `json:"updated_ns"`
	MaxRange    float64 `json:"max_range_mm"`
	RingSpacing float64 `json:"ring_spacing_mm"`
	Points      []Point `json:"points"`
}

func (s *HTTPSurface) handlePoints(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := pointsResponse{
		UpdatedNs:   s.updated.UnixNano(),
		MaxRange:    MaxRangeMM,
		RingSpacing: RingSpacingMM,
		Points:      append([]Point(nil), s.points...),
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		monitoring.Debugf("encode points response: %v", err)
	}
}

func (s *HTTPSurface) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.signalDone()
	w.WriteHeader(http.StatusNoContent)
}
