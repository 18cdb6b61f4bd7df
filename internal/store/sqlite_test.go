package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "oohtrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedEntity(t *testing.T, st *SQLiteStore, kind model.CatalogKind, name string, brandID *int64) *model.CatalogEntity {
	t.Helper()
	e, err := st.CreateCatalogEntity(context.Background(), model.CatalogEntity{Kind: kind, Name: name, BrandID: brandID})
	require.NoError(t, err)
	return e
}

// seedPlacement creates the full catalog chain plus one placement.
func seedPlacement(t *testing.T, st *SQLiteStore, start, end time.Time) *model.Placement {
	t.Helper()
	ctx := context.Background()

	city, err := st.CreateCity(ctx, model.City{Name: "BOGOTA DC", Lat: 4.711, Lng: -74.0721, RadiusKM: 45, Region: "Center"})
	require.NoError(t, err)

	brand := seedEntity(t, st, model.KindBrand, "AGUILA", nil)
	campaign := seedEntity(t, st, model.KindCampaign, "VIVE LA FIESTA", &brand.ID)
	provider := seedEntity(t, st, model.KindProvider, "JCDECAUX", nil)
	typ := seedEntity(t, st, model.KindOOHType, "VALLA", nil)
	state := seedEntity(t, st, model.KindState, "ACTIVA", nil)

	p, err := st.CreatePlacement(ctx, model.Placement{
		BrandID:    brand.ID,
		CampaignID: campaign.ID,
		ProviderID: provider.ID,
		TypeID:     typ.ID,
		StateID:    state.ID,
		CityID:     city.ID,
		Address:    "Calle 26 # 68-35",
		Lat:        4.6486,
		Lng:        -74.0987,
		StartDate:  start,
		EndDate:    end,
	})
	require.NoError(t, err)
	return p
}

func TestSQLiteCities(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.CreateCity(ctx, model.City{Name: "CALI", Lat: 3.4516, Lng: -76.532, RadiusKM: 30, Region: "Andes"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := st.GetCityByName(ctx, "CALI")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.InDelta(t, 30, got.RadiusKM, 1e-9)

	missing, err := st.GetCityByName(ctx, "LETICIA")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Upsert keeps the row identity and updates the envelope.
	updated, err := st.UpsertCity(ctx, model.City{Name: "CALI", Lat: 3.4516, Lng: -76.532, RadiusKM: 35, Region: "Andes"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.InDelta(t, 35, updated.RadiusKM, 1e-9)

	_, err = st.CreateCity(ctx, model.City{Name: "MEDELLIN", Lat: 6.2442, Lng: -75.5812, RadiusKM: 30})
	require.NoError(t, err)

	cities, err := st.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "CALI", cities[0].Name)
	assert.Equal(t, "MEDELLIN", cities[1].Name)
}

func TestSQLiteCatalogScopedUniqueness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	aguila := seedEntity(t, st, model.KindBrand, "AGUILA", nil)
	poker := seedEntity(t, st, model.KindBrand, "POKER", nil)

	// The same campaign name under two brands is two distinct rows.
	seedEntity(t, st, model.KindCampaign, "VERANO", &aguila.ID)
	seedEntity(t, st, model.KindCampaign, "VERANO", &poker.ID)

	_, err := st.CreateCatalogEntity(ctx, model.CatalogEntity{Kind: model.KindCampaign, Name: "VERANO", BrandID: &aguila.ID})
	assert.Error(t, err)

	campaigns, err := st.ListCatalog(ctx, model.KindCampaign)
	require.NoError(t, err)
	require.Len(t, campaigns, 2)
	require.NotNil(t, campaigns[0].BrandID)
	assert.Equal(t, aguila.ID, *campaigns[0].BrandID)

	brands, err := st.ListCatalog(ctx, model.KindBrand)
	require.NoError(t, err)
	assert.Len(t, brands, 2)
}

func TestSQLitePlacementLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	p := seedPlacement(t, st, start, end)
	require.NotEmpty(t, p.ID)

	view, err := st.GetPlacement(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "AGUILA", view.Brand)
	assert.Equal(t, "VIVE LA FIESTA", view.Campaign)
	assert.Equal(t, "BOGOTA DC", view.City)
	assert.Equal(t, "Calle 26 # 68-35", view.Address)

	p.Address = "Carrera 7 # 45-10"
	require.NoError(t, st.UpdatePlacement(ctx, *p))

	view, err = st.GetPlacement(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carrera 7 # 45-10", view.Address)

	require.NoError(t, st.DeletePlacement(ctx, p.ID))

	gone, err := st.GetPlacement(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.Error(t, st.DeletePlacement(ctx, p.ID))
	assert.Error(t, st.UpdatePlacement(ctx, *p))
}

func TestSQLiteListPlacementsFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	p := seedPlacement(t, st, start, end)

	all, err := st.ListPlacements(ctx, PlacementFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	byBrand, err := st.ListPlacements(ctx, PlacementFilter{BrandID: &p.BrandID})
	require.NoError(t, err)
	assert.Len(t, byBrand, 1)

	otherBrand := p.BrandID + 100
	none, err := st.ListPlacements(ctx, PlacementFilter{BrandID: &otherBrand})
	require.NoError(t, err)
	assert.Empty(t, none)

	during := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	active, err := st.ListPlacements(ctx, PlacementFilter{ActiveOn: &during})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	after := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	expired, err := st.ListPlacements(ctx, PlacementFilter{ActiveOn: &after})
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestSQLiteImportRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateImportRun(ctx, "placements.xlsx")
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusRunning, run.Status)

	require.NoError(t, st.AddRowFailure(ctx, model.RowFailure{RunID: run.ID, RowNum: 7, Reason: "invalid date"}))
	require.NoError(t, st.AddRowFailure(ctx, model.RowFailure{RunID: run.ID, RowNum: 3, Reason: "missing brand"}))

	failures, err := st.ListRowFailures(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, 3, failures[0].RowNum)
	assert.Equal(t, 7, failures[1].RowNum)

	run.Status = model.ImportStatusComplete
	run.Total = 10
	run.Created = 8
	run.Failed = 2
	require.NoError(t, st.FinishImportRun(ctx, *run))

	missing := *run
	missing.ID = "no-such-run"
	assert.Error(t, st.FinishImportRun(ctx, missing))
}
