package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/catalog"
	"github.com/andeanbev/oohtrack/internal/geo"
	"github.com/andeanbev/oohtrack/internal/match"
	"github.com/andeanbev/oohtrack/internal/model"
)

func (s *Server) handleListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.store.ListCities(r.Context())
	if err != nil {
		zap.L().Error("server: list cities", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if cities == nil {
		cities = []model.City{}
	}
	respondJSON(w, http.StatusOK, cities)
}

func (s *Server) handleUpsertCity(w http.ResponseWriter, r *http.Request) {
	var city model.City
	if err := json.NewDecoder(r.Body).Decode(&city); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	city.Name = match.Normalize(city.Name)
	if city.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	// Reject envelopes the bounds computation would refuse later.
	if _, err := geo.ComputeBounds(city); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if city.Region == "" {
		if cls := geo.ClassifyRegion(geo.Point{Lat: city.Lat, Lng: city.Lng}); cls.Region != nil {
			city.Region = cls.Region.Name
		}
	}

	saved, err := s.store.UpsertCity(r.Context(), city)
	if err != nil {
		zap.L().Error("server: upsert city", zap.String("name", city.Name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleSearchCities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}

	maxResults := 10
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "max must be a positive integer")
			return
		}
		maxResults = n
	}

	session, err := catalog.NewSession(r.Context(), s.store,
		catalog.WithThreshold(s.importCfg.Threshold))
	if err != nil {
		zap.L().Error("server: search session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	results := session.RankCities(query, maxResults)
	if results == nil {
		results = []model.City{}
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	kind := model.CatalogKind(chi.URLParam(r, "kind"))

	valid := false
	for _, k := range model.Kinds {
		if k == kind {
			valid = true
			break
		}
	}
	if !valid {
		respondError(w, http.StatusBadRequest, "unknown catalog kind")
		return
	}

	entities, err := s.store.ListCatalog(r.Context(), kind)
	if err != nil {
		zap.L().Error("server: list catalog", zap.String("kind", string(kind)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entities == nil {
		entities = []model.CatalogEntity{}
	}
	respondJSON(w, http.StatusOK, entities)
}
