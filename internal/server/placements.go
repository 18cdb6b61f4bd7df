package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/geo"
	"github.com/andeanbev/oohtrack/internal/model"
	"github.com/andeanbev/oohtrack/internal/store"
)

const dateFormat = "2006-01-02"

type placementRequest struct {
	BrandID    int64   `json:"brand_id"`
	CampaignID int64   `json:"campaign_id"`
	ProviderID int64   `json:"provider_id"`
	TypeID     int64   `json:"type_id"`
	StateID    int64   `json:"state_id"`
	CityID     int64   `json:"city_id"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	ImageURL   string  `json:"image_url"`
}

// toPlacement validates the request and converts it into a model
// placement. Geo checks run against the referenced city's envelope.
func (s *Server) toPlacement(r *http.Request, req placementRequest) (*model.Placement, int, string) {
	if req.Address == "" {
		return nil, http.StatusBadRequest, "address is required"
	}

	start, err := time.Parse(dateFormat, req.StartDate)
	if err != nil {
		return nil, http.StatusBadRequest, "start_date must be YYYY-MM-DD"
	}
	end, err := time.Parse(dateFormat, req.EndDate)
	if err != nil {
		return nil, http.StatusBadRequest, "end_date must be YYYY-MM-DD"
	}
	if end.Before(start) {
		return nil, http.StatusBadRequest, "end_date before start_date"
	}

	point := geo.Point{Lat: req.Lat, Lng: req.Lng}
	if !geo.IsWithinCountryExtent(point) {
		return nil, http.StatusUnprocessableEntity, "coordinates outside country extent"
	}

	city, code, msg := s.cityByID(r, req.CityID)
	if city == nil {
		return nil, code, msg
	}
	if err := geo.ValidateAddress(point, *city); err != nil {
		return nil, http.StatusUnprocessableEntity, err.Error()
	}

	return &model.Placement{
		BrandID:    req.BrandID,
		CampaignID: req.CampaignID,
		ProviderID: req.ProviderID,
		TypeID:     req.TypeID,
		StateID:    req.StateID,
		CityID:     city.ID,
		Address:    req.Address,
		Lat:        req.Lat,
		Lng:        req.Lng,
		StartDate:  start,
		EndDate:    end,
		ImageURL:   req.ImageURL,
	}, 0, ""
}

// cityByID resolves a city reference. The city table is small, so a
// scan over ListCities avoids widening the store interface.
func (s *Server) cityByID(r *http.Request, id int64) (*model.City, int, string) {
	cities, err := s.store.ListCities(r.Context())
	if err != nil {
		zap.L().Error("server: list cities", zap.Error(err))
		return nil, http.StatusInternalServerError, "internal error"
	}
	for _, c := range cities {
		if c.ID == id {
			return &c, 0, ""
		}
	}
	return nil, http.StatusBadRequest, "unknown city_id"
}

func (s *Server) handleCreatePlacement(w http.ResponseWriter, r *http.Request) {
	var req placementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	p, code, msg := s.toPlacement(r, req)
	if p == nil {
		respondError(w, code, msg)
		return
	}

	created, err := s.store.CreatePlacement(r.Context(), *p)
	if err != nil {
		zap.L().Error("server: create placement", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetPlacement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := s.store.GetPlacement(r.Context(), id)
	if err != nil {
		zap.L().Error("server: get placement", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if view == nil {
		respondError(w, http.StatusNotFound, "placement not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleListPlacements(w http.ResponseWriter, r *http.Request) {
	filter, errMsg := placementFilterFromQuery(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	views, err := s.store.ListPlacements(r.Context(), *filter)
	if err != nil {
		zap.L().Error("server: list placements", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if views == nil {
		views = []model.PlacementView{}
	}
	respondJSON(w, http.StatusOK, views)
}

func placementFilterFromQuery(r *http.Request) (*store.PlacementFilter, string) {
	var f store.PlacementFilter
	q := r.URL.Query()

	for name, dst := range map[string]**int64{
		"brand_id":    &f.BrandID,
		"campaign_id": &f.CampaignID,
		"city_id":     &f.CityID,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, name + " must be an integer"
		}
		*dst = &id
	}

	if raw := q.Get("active_on"); raw != "" {
		day, err := time.Parse(dateFormat, raw)
		if err != nil {
			return nil, "active_on must be YYYY-MM-DD"
		}
		f.ActiveOn = &day
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, "limit must be a non-negative integer"
		}
		f.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, "offset must be a non-negative integer"
		}
		f.Offset = n
	}

	return &f, ""
}

func (s *Server) handleUpdatePlacement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req placementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	p, code, msg := s.toPlacement(r, req)
	if p == nil {
		respondError(w, code, msg)
		return
	}
	p.ID = id

	if err := s.store.UpdatePlacement(r.Context(), *p); err != nil {
		respondError(w, http.StatusNotFound, "placement not found")
		return
	}

	view, err := s.store.GetPlacement(r.Context(), id)
	if err != nil {
		zap.L().Error("server: get placement after update", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeletePlacement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeletePlacement(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, "placement not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
