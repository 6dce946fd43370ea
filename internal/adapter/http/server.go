// Package http exposes the discovery API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motoatlas/shop-discovery-service/internal/domain"
	"github.com/motoatlas/shop-discovery-service/internal/observability"
)

// maxResultLimit caps the limit query parameter; larger requests are clamped,
// not rejected.
const maxResultLimit = 100

// ShopFinder answers discovery queries. Implemented by domain.Engine.
type ShopFinder interface {
	FindNearbyShops(ctx context.Context, query domain.DiscoveryQuery) ([]domain.RankedShopResult, error)
	ListShopCountries(ctx context.Context) ([]domain.CountryCount, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// MultiChecker combines readiness checkers; the first failure wins.
type MultiChecker []ReadinessChecker

func (m MultiChecker) CheckReadiness(ctx context.Context) error {
	for _, c := range m {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Server exposes the discovery API over HTTP.
type Server struct {
	httpServer *http.Server
	finder     ShopFinder
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with the discovery routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, finder ShopFinder, ready ReadinessChecker, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		finder:  finder,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /api/v1/shops/nearby", s.handleNearby)
	mux.HandleFunc("GET /api/v1/shops/countries", s.handleCountries)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query, err := parseNearbyQuery(r)
	if err != nil {
		s.metrics.DiscoveryRequests.WithLabelValues("nearby", "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	results, err := s.finder.FindNearbyShops(r.Context(), query)
	if err != nil {
		s.metrics.DiscoveryRequests.WithLabelValues("nearby", "error").Inc()
		s.logger.Error("nearby query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "shop lookup failed"})
		return
	}

	s.metrics.DiscoveryRequests.WithLabelValues("nearby", "ok").Inc()
	s.metrics.DiscoveryDuration.WithLabelValues("nearby").Observe(time.Since(start).Seconds())
	s.metrics.DiscoveryResults.Observe(float64(len(results)))

	// Zero matches is a valid response, served as an empty array rather
	// than null.
	if results == nil {
		results = []domain.RankedShopResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	catalogue, err := s.finder.ListShopCountries(r.Context())
	if err != nil {
		s.metrics.DiscoveryRequests.WithLabelValues("countries", "error").Inc()
		s.logger.Error("country catalogue failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "country lookup failed"})
		return
	}

	s.metrics.DiscoveryRequests.WithLabelValues("countries", "ok").Inc()
	s.metrics.DiscoveryDuration.WithLabelValues("countries").Observe(time.Since(start).Seconds())

	if catalogue == nil {
		catalogue = []domain.CountryCount{}
	}
	writeJSON(w, http.StatusOK, catalogue)
}

// parseNearbyQuery validates the request parameters the engine itself does
// not: coordinates must be finite and in range, distances positive, and the
// limit is clamped to a sane bound.
func parseNearbyQuery(r *http.Request) (domain.DiscoveryQuery, error) {
	params := r.URL.Query()

	lat, err := parseCoordinate(params.Get("lat"), 90)
	if err != nil {
		return domain.DiscoveryQuery{}, errors.New("lat must be a finite number in [-90, 90]")
	}
	lon, err := parseCoordinate(params.Get("lon"), 180)
	if err != nil {
		return domain.DiscoveryQuery{}, errors.New("lon must be a finite number in [-180, 180]")
	}

	query := domain.DiscoveryQuery{
		Latitude:  lat,
		Longitude: lon,
		Category:  params.Get("category"),
		Country:   params.Get("country"),
	}

	if raw := params.Get("max_distance_km"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
			return domain.DiscoveryQuery{}, errors.New("max_distance_km must be a positive number")
		}
		query.MaxDistanceKm = d
	}

	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return domain.DiscoveryQuery{}, errors.New("limit must be a positive integer")
		}
		query.ResultLimit = min(n, maxResultLimit)
	}

	return query, nil
}

func parseCoordinate(raw string, bound float64) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -bound || v > bound {
		return 0, errors.New("out of range")
	}
	return v, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
