// Package server exposes the dashboard over HTTP: filter menus, the report
// for a filter and selection, the per-region layer and the choropleth.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/riskmap/internal/boundary"
	"github.com/sells-group/riskmap/internal/config"
	"github.com/sells-group/riskmap/internal/dashboard"
	"github.com/sells-group/riskmap/internal/model"
)

// Server serves one immutable dashboard engine.
type Server struct {
	engine     *dashboard.Engine
	boundaries *boundary.Collection
	limiter    *rate.Limiter
	origins    []string
}

// New creates a Server. boundaries may be nil, which disables the
// choropleth endpoint. A zero rate limit disables limiting.
func New(engine *dashboard.Engine, boundaries *boundary.Collection, cfg config.ServerConfig) *Server {
	s := &Server{
		engine:     engine,
		boundaries: boundaries,
		origins:    cfg.AllowedOrigins,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(accessLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/filters", s.handleFilters)
		r.Get("/report", s.handleReport)
		r.Get("/regions", s.handleRegions)
		r.Get("/choropleth", s.handleChoropleth)
	})
	return r
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server: listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Filters())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Compute(q).Report)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := LayerRows(s.engine.Compute(q).Layer, s.boundaries)
	if raw := r.URL.Query().Get("tier"); raw != "" {
		var tier model.Tier
		if err := tier.UnmarshalText([]byte(raw)); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid tier %q", raw))
			return
		}
		rows = FilterTier(rows, tier)
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	if s.boundaries.Len() == 0 {
		writeError(w, http.StatusNotFound, "no boundaries loaded")
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fc, _ := s.boundaries.Choropleth(s.engine.Compute(q).Layer)

	data, err := json.Marshal(fc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode choropleth")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// LayerRows returns the layer in region order, adding an Unknown entry for
// every boundary region that has no data.
func LayerRows(layer dashboard.Layer, boundaries *boundary.Collection) []dashboard.RegionTier {
	merged := make(dashboard.Layer, len(layer)+boundaries.Len())
	for name, rt := range layer {
		merged[name] = rt
	}
	for _, name := range boundaries.Names() {
		if _, ok := merged[name]; !ok {
			merged[name] = layer.Lookup(name)
		}
	}
	return merged.Sorted()
}

// FilterTier keeps the rows classified as tier.
func FilterTier(rows []dashboard.RegionTier, tier model.Tier) []dashboard.RegionTier {
	out := make([]dashboard.RegionTier, 0, len(rows))
	for _, rt := range rows {
		if rt.Tier == tier {
			out = append(out, rt)
		}
	}
	return out
}

// parseQuery reads year, gender and region. An empty or "all" year selects
// every year.
func parseQuery(r *http.Request) (dashboard.Query, error) {
	v := r.URL.Query()
	q := dashboard.Query{Region: strings.TrimSpace(v.Get("region"))}

	gender, ok := model.LookupGenderFilter(v.Get("gender"))
	if !ok {
		return q, eris.Errorf("invalid gender %q", v.Get("gender"))
	}
	q.Gender = gender
	switch y := strings.TrimSpace(v.Get("year")); strings.ToLower(y) {
	case "", "all", "semua":
	default:
		year, err := strconv.Atoi(y)
		if err != nil || year < 0 {
			return q, eris.Errorf("invalid year %q", y)
		}
		q.Year = year
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
