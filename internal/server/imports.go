package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/export"
	"github.com/andeanbev/oohtrack/internal/geo"
	"github.com/andeanbev/oohtrack/internal/match"
)

const maxImportSize = 32 << 20 // 32 MB

// handleImport accepts a multipart spreadsheet upload and runs the bulk
// import synchronously, returning the run summary with per-row failures.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close() //nolint:errcheck

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		respondError(w, http.StatusBadRequest, "file must be .csv or .xlsx")
		return
	}

	tmp, err := os.CreateTemp("", "oohtrack-import-*"+ext)
	if err != nil {
		zap.L().Error("server: create temp file", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		zap.L().Error("server: save upload", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := tmp.Close(); err != nil {
		zap.L().Error("server: close upload", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result, err := s.importer.Run(r.Context(), tmp.Name())
	if err != nil {
		zap.L().Error("server: import run", zap.String("file", header.Filename), zap.Error(err))
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	// Report the uploaded name, not the temp path.
	result.Run.Filename = header.Filename

	respondJSON(w, http.StatusOK, result)
}

type validateRequest struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type validateResponse struct {
	WithinCountry bool               `json:"within_country"`
	WithinCity    *bool              `json:"within_city,omitempty"`
	CityBounds    *geo.Bounds        `json:"city_bounds,omitempty"`
	Region        geo.Classification `json:"region"`
	Error         string             `json:"error,omitempty"`
}

// handleValidate checks a coordinate against the country extent, the
// named city's envelope, and the region table, without writing anything.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	point := geo.Point{Lat: req.Lat, Lng: req.Lng}
	resp := validateResponse{
		WithinCountry: geo.IsWithinCountryExtent(point),
		Region:        geo.ClassifyRegion(point),
	}

	if req.City != "" {
		name := match.DefaultCityAliases().Canonical(req.City)
		city, err := s.store.GetCityByName(r.Context(), name)
		if err != nil {
			zap.L().Error("server: get city", zap.String("name", name), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if city == nil {
			resp.Error = "unknown city: " + name
		} else {
			bounds, err := geo.ComputeBounds(*city)
			if err != nil {
				resp.Error = err.Error()
			} else {
				within := geo.IsWithinBounds(point, bounds)
				resp.WithinCity = &within
				resp.CityBounds = &bounds
			}
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleExportGeoJSON streams the filtered placement set as a GeoJSON
// FeatureCollection.
func (s *Server) handleExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	filter, errMsg := placementFilterFromQuery(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	views, err := s.store.ListPlacements(r.Context(), *filter)
	if err != nil {
		zap.L().Error("server: list placements for export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	if err := export.WriteGeoJSON(w, views); err != nil {
		zap.L().Error("server: write geojson", zap.Error(err))
	}
}
