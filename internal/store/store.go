// Package store persists cities, catalog entities, placements, and import
// runs. Two implementations exist: SQLite for single-operator installs and
// Postgres for the shared deployment.
package store

import (
	"context"
	"time"

	"github.com/andeanbev/oohtrack/internal/model"
)

// PlacementFilter specifies criteria for listing placements.
type PlacementFilter struct {
	BrandID    *int64     `json:"brand_id,omitempty"`
	CampaignID *int64     `json:"campaign_id,omitempty"`
	CityID     *int64     `json:"city_id,omitempty"`
	ActiveOn   *time.Time `json:"active_on,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

// Store defines the persistence interface for the placement tracker.
type Store interface {
	// Cities
	CreateCity(ctx context.Context, city model.City) (*model.City, error)
	UpsertCity(ctx context.Context, city model.City) (*model.City, error)
	GetCityByName(ctx context.Context, name string) (*model.City, error)
	ListCities(ctx context.Context) ([]model.City, error)

	// Catalog
	ListCatalog(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntity, error)
	CreateCatalogEntity(ctx context.Context, e model.CatalogEntity) (*model.CatalogEntity, error)

	// Placements
	CreatePlacement(ctx context.Context, p model.Placement) (*model.Placement, error)
	GetPlacement(ctx context.Context, id string) (*model.PlacementView, error)
	ListPlacements(ctx context.Context, f PlacementFilter) ([]model.PlacementView, error)
	UpdatePlacement(ctx context.Context, p model.Placement) error
	DeletePlacement(ctx context.Context, id string) error

	// Import runs
	CreateImportRun(ctx context.Context, filename string) (*model.ImportRun, error)
	FinishImportRun(ctx context.Context, run model.ImportRun) error
	AddRowFailure(ctx context.Context, f model.RowFailure) error
	ListRowFailures(ctx context.Context, runID string) ([]model.RowFailure, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
