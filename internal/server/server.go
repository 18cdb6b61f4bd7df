// Package server exposes the placement tracker over HTTP: CRUD for
// placements and cities, catalog listing, bulk import upload, coordinate
// validation, and GeoJSON export.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/importer"
	"github.com/andeanbev/oohtrack/internal/match"
	"github.com/andeanbev/oohtrack/internal/store"
)

// Server holds the HTTP API dependencies.
type Server struct {
	store     store.Store
	importer  *importer.Importer
	importCfg importer.Config
	router    chi.Router
}

// New creates a Server with all routes registered.
func New(st store.Store, imp *importer.Importer, importCfg importer.Config) *Server {
	if importCfg.Threshold <= 0 {
		importCfg.Threshold = match.DefaultThreshold
	}
	s := &Server{store: st, importer: imp, importCfg: importCfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/placements", func(r chi.Router) {
			r.Get("/", s.handleListPlacements)
			r.Post("/", s.handleCreatePlacement)
			r.Get("/{id}", s.handleGetPlacement)
			r.Put("/{id}", s.handleUpdatePlacement)
			r.Delete("/{id}", s.handleDeletePlacement)
		})

		r.Route("/cities", func(r chi.Router) {
			r.Get("/", s.handleListCities)
			r.Put("/", s.handleUpsertCity)
			r.Get("/search", s.handleSearchCities)
		})

		r.Get("/catalog/{kind}", s.handleListCatalog)
		r.Post("/import", s.handleImport)
		r.Post("/validate", s.handleValidate)
		r.Get("/export/geojson", s.handleExportGeoJSON)
	})

	s.router = r
	return s
}

// Router returns the underlying http.Handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
