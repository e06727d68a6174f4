// Package httpapi serves read-only JSON views of spectra: listings,
// metadata, data ranges and calibrated axes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-spectra/spectrum"
)

var (
	errNotFound   = errors.New("spectrum not found")
	errBadRequest = errors.New("bad request")
)

// Server is the HTTP server for the spectra API.
type Server struct {
	store  *Store
	router *chi.Mux
	log    *zap.Logger

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// NewServer creates a Server over store.
func NewServer(store *Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		store:  store,
		router: chi.NewRouter(),
		log:    log,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/spectra", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{id}/metadata", s.handleMetadata)
		r.Get("/{id}/data", s.handleData)
		r.Get("/{id}/axis/{dim}", s.handleAxis)
	})
}

// Start begins listening for HTTP requests.
// It returns http.ErrServerClosed once Shutdown has been called, even
// if Shutdown ran first.
func (s *Server) Start(addr string, readTimeout time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: readTimeout,
		IdleTimeout: 60 * time.Second,
	}
	s.server = srv
	s.mu.Unlock()

	s.log.Info("server starting", zap.String("addr", addr))
	return srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SpectrumSummary is one element of the listing.
type SpectrumSummary struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions"`
	TotalHits  string `json:"total_hits"`
	Ready      bool   `json:"ready"`
}

// Bin is one nonzero bin of a data response. Count keeps full precision.
type Bin struct {
	Coords []uint16 `json:"coords"`
	Count  string   `json:"count"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list := s.store.List()
	out := make([]SpectrumSummary, 0, len(list))
	for _, c := range list {
		md := c.Metadata()
		out = append(out, SpectrumSummary{
			ID:         c.ID().String(),
			Type:       c.Type(),
			Name:       md.Name(),
			Dimensions: c.Dimensions(),
			TotalHits:  md.Precise(spectrum.AttrTotalHits).String(),
			Ready:      c.Ready(),
		})
	}
	s.writeJSON(w, r, out)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consumer(w, r)
	if !ok {
		return
	}
	md := c.Metadata()
	b, err := md.JSON()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(b))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

// handleData reads through Peek, so polling clients never consume a
// buffered spectrum's change buffer.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consumer(w, r)
	if !ok {
		return
	}
	ranges, err := parseRanges(r.URL.Query().Get("min"), r.URL.Query().Get("max"), c.Dimensions())
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	entries := c.Peek(ranges...)
	out := make([]Bin, len(entries))
	for i, e := range entries {
		out[i] = Bin{Coords: e.Coords, Count: e.Count.String()}
	}
	s.writeJSON(w, r, out)
}

func (s *Server) handleAxis(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consumer(w, r)
	if !ok {
		return
	}
	dim, err := strconv.Atoi(chi.URLParam(r, "dim"))
	if err != nil || dim < 0 || dim >= c.Dimensions() {
		s.respondError(w, r, fmt.Errorf("%w: axis %q", errBadRequest, chi.URLParam(r, "dim")), http.StatusBadRequest)
		return
	}
	axis := c.AxisValues(dim)
	if axis == nil {
		axis = []float64{}
	}
	s.writeJSON(w, r, axis)
}

func (s *Server) consumer(w http.ResponseWriter, r *http.Request) (*spectrum.Consumer, bool) {
	id := chi.URLParam(r, "id")
	c, ok := s.store.Get(id)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", errNotFound, id), http.StatusNotFound)
	}
	return c, ok
}

// parseRanges reads comma separated per-axis bounds. Missing bounds cover
// the full axis; a single value applies to every axis.
func parseRanges(minText, maxText string, dims int) ([]spectrum.Range, error) {
	mins, err := parseBounds(minText, dims, 0)
	if err != nil {
		return nil, err
	}
	maxs, err := parseBounds(maxText, dims, spectrum.FullRange.Max)
	if err != nil {
		return nil, err
	}
	ranges := make([]spectrum.Range, dims)
	for i := range ranges {
		if mins[i] > maxs[i] {
			return nil, fmt.Errorf("%w: axis %d min %d above max %d", errBadRequest, i, mins[i], maxs[i])
		}
		ranges[i] = spectrum.Range{Min: mins[i], Max: maxs[i]}
	}
	return ranges, nil
}

func parseBounds(text string, dims int, def uint16) ([]uint16, error) {
	out := make([]uint16, dims)
	if text == "" {
		for i := range out {
			out[i] = def
		}
		return out, nil
	}
	parts := strings.Split(text, ",")
	if len(parts) != 1 && len(parts) != dims {
		return nil, fmt.Errorf("%w: %d bounds for %d axes", errBadRequest, len(parts), dims)
	}
	for i := range out {
		p := parts[0]
		if len(parts) == dims {
			p = parts[i]
		}
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: bound %q", errBadRequest, p)
		}
		out[i] = uint16(v)
	}
	return out, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("json encode error", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	s.log.Info("request error",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: http.StatusText(status), Message: err.Error()})
}
