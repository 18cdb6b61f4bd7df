// Package importer drives the bulk spreadsheet import: it parses rows,
// resolves catalog references through a session, validates coordinates
// against city bounds, and persists placements. Row failures are
// collected with a reason and the batch always runs to the end.
package importer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/catalog"
	"github.com/andeanbev/oohtrack/internal/fetcher"
	"github.com/andeanbev/oohtrack/internal/geo"
	"github.com/andeanbev/oohtrack/internal/match"
	"github.com/andeanbev/oohtrack/internal/model"
	"github.com/andeanbev/oohtrack/internal/store"
)

// Config controls import behavior.
type Config struct {
	Threshold       float64 `yaml:"threshold" mapstructure:"threshold"`
	DefaultRadiusKM float64 `yaml:"default_radius_km" mapstructure:"default_radius_km"`
	AliasFile       string  `yaml:"alias_file" mapstructure:"alias_file"`
	SheetName       string  `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// Submitter mirrors created placements to an external record endpoint.
// It receives the view form so the endpoint gets catalog names, not
// internal IDs.
type Submitter interface {
	Submit(ctx context.Context, v model.PlacementView) error
}

// Importer runs bulk imports against a store.
type Importer struct {
	store     store.Store
	cfg       Config
	submitter Submitter
}

// Option configures an Importer.
type Option func(*Importer)

// WithSubmitter mirrors each created placement to an external endpoint.
// Submission failures are logged, never counted as row failures.
func WithSubmitter(s Submitter) Option {
	return func(imp *Importer) { imp.submitter = s }
}

// New creates an Importer.
func New(st store.Store, cfg Config, opts ...Option) *Importer {
	if cfg.Threshold <= 0 {
		cfg.Threshold = match.DefaultThreshold
	}
	if cfg.DefaultRadiusKM <= 0 {
		cfg.DefaultRadiusKM = 30
	}
	imp := &Importer{store: st, cfg: cfg}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Result summarizes one import run.
type Result struct {
	Run      model.ImportRun    `json:"run"`
	Failures []model.RowFailure `json:"failures,omitempty"`
}

// Run imports every row of the spreadsheet at path. Rows are processed
// sequentially so catalog entities created for one row are visible to
// the rows after it.
func (imp *Importer) Run(ctx context.Context, path string) (*Result, error) {
	rows, err := imp.readRows(path)
	if err != nil {
		return nil, err
	}

	aliases := match.DefaultCityAliases()
	if imp.cfg.AliasFile != "" {
		aliases, err = match.LoadAliasFile(imp.cfg.AliasFile)
		if err != nil {
			return nil, err
		}
	}

	session, err := catalog.NewSession(ctx, imp.store,
		catalog.WithThreshold(imp.cfg.Threshold),
		catalog.WithCityAliases(aliases),
		catalog.WithDefaultCityRadius(imp.cfg.DefaultRadiusKM),
	)
	if err != nil {
		return nil, err
	}

	run, err := imp.store.CreateImportRun(ctx, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("run_id", run.ID), zap.String("file", run.Filename))
	log.Info("import started", zap.Int("rows", len(rows)))

	result := &Result{Run: *run}
	result.Run.Total = len(rows)

	for i, cells := range rows {
		rowNum := i + 2 // 1-based, after the header row

		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "import: cancelled")
		}

		if err := imp.processRow(ctx, session, rowNum, cells); err != nil {
			failure := model.RowFailure{RunID: run.ID, RowNum: rowNum, Reason: err.Error()}
			result.Failures = append(result.Failures, failure)
			result.Run.Failed++

			if storeErr := imp.store.AddRowFailure(ctx, failure); storeErr != nil {
				log.Warn("import: persist row failure", zap.Error(storeErr))
			}
			log.Warn("import: row rejected", zap.Int("row", rowNum), zap.String("reason", err.Error()))
			continue
		}
		result.Run.Created++
	}

	result.Run.Status = model.ImportStatusComplete
	if err := imp.store.FinishImportRun(ctx, result.Run); err != nil {
		return nil, err
	}

	log.Info("import complete",
		zap.Int("total", result.Run.Total),
		zap.Int("created", result.Run.Created),
		zap.Int("failed", result.Run.Failed),
	)
	return result, nil
}

func (imp *Importer) readRows(path string) ([][]string, error) {
	if imp.cfg.SheetName != "" && strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: imp.cfg.SheetName, SkipRows: 1})
	}
	return fetcher.ReadRows(path)
}

// processRow runs the per-row pipeline: parse, geo sanity, city
// resolution, address validation, catalog resolution, persist.
func (imp *Importer) processRow(ctx context.Context, session *catalog.Session, rowNum int, cells []string) error {
	row, err := ParseRow(rowNum, cells)
	if err != nil {
		return err
	}

	point := geo.Point{Lat: row.Lat, Lng: row.Lng}
	if !geo.IsWithinCountryExtent(point) {
		return eris.Errorf("point (%.4f, %.4f) outside country extent", point.Lat, point.Lng)
	}

	city, _, err := session.ResolveCity(ctx, row.City, point)
	if err != nil {
		return err
	}

	if err := geo.ValidateAddress(point, *city); err != nil {
		return err
	}

	// Region suggestion is informational only; a point in no region is
	// worth a warning but never blocks the row.
	if cls := geo.ClassifyRegion(point); cls.Region == nil {
		zap.L().Warn("import: point outside all known regions",
			zap.Int("row", rowNum),
			zap.Float64("lat", point.Lat),
			zap.Float64("lng", point.Lng),
		)
	}

	brand, _, err := session.Resolve(ctx, model.KindBrand, row.Brand, nil)
	if err != nil {
		return err
	}
	campaign, _, err := session.Resolve(ctx, model.KindCampaign, row.Campaign, &brand.ID)
	if err != nil {
		return err
	}
	provider, _, err := session.Resolve(ctx, model.KindProvider, row.Provider, nil)
	if err != nil {
		return err
	}
	oohType, _, err := session.Resolve(ctx, model.KindOOHType, row.Type, nil)
	if err != nil {
		return err
	}
	state, _, err := session.Resolve(ctx, model.KindState, row.State, nil)
	if err != nil {
		return err
	}

	placement, err := imp.store.CreatePlacement(ctx, model.Placement{
		BrandID:    brand.ID,
		CampaignID: campaign.ID,
		ProviderID: provider.ID,
		TypeID:     oohType.ID,
		StateID:    state.ID,
		CityID:     city.ID,
		Address:    row.Address,
		Lat:        row.Lat,
		Lng:        row.Lng,
		StartDate:  row.StartDate,
		EndDate:    row.EndDate,
		ImageURL:   row.ImageURL,
	})
	if err != nil {
		return err
	}

	if imp.submitter != nil {
		view := model.PlacementView{
			Placement: *placement,
			Brand:     brand.Name,
			Campaign:  campaign.Name,
			Provider:  provider.Name,
			Type:      oohType.Name,
			State:     state.Name,
			City:      city.Name,
		}
		if err := imp.submitter.Submit(ctx, view); err != nil {
			zap.L().Warn("import: record submission failed",
				zap.String("placement_id", placement.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}
