package importer

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/model"
	"github.com/andeanbev/oohtrack/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// memStore is an in-memory store.Store for importer tests.
type memStore struct {
	cities     []model.City
	entities   []model.CatalogEntity
	placements []model.Placement
	runs       []model.ImportRun
	failures   []model.RowFailure
	nextID     int64
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateCity(_ context.Context, city model.City) (*model.City, error) {
	city.ID = m.id()
	m.cities = append(m.cities, city)
	return &city, nil
}

func (m *memStore) UpsertCity(ctx context.Context, city model.City) (*model.City, error) {
	for i, c := range m.cities {
		if c.Name == city.Name {
			city.ID = c.ID
			m.cities[i] = city
			return &city, nil
		}
	}
	return m.CreateCity(ctx, city)
}

func (m *memStore) GetCityByName(_ context.Context, name string) (*model.City, error) {
	for _, c := range m.cities {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListCities(_ context.Context) ([]model.City, error) {
	return append([]model.City(nil), m.cities...), nil
}

func (m *memStore) ListCatalog(_ context.Context, kind model.CatalogKind) ([]model.CatalogEntity, error) {
	var out []model.CatalogEntity
	for _, e := range m.entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) CreateCatalogEntity(_ context.Context, e model.CatalogEntity) (*model.CatalogEntity, error) {
	e.ID = m.id()
	m.entities = append(m.entities, e)
	return &e, nil
}

func (m *memStore) CreatePlacement(_ context.Context, p model.Placement) (*model.Placement, error) {
	p.ID = "p-" + strconv.FormatInt(m.id(), 10)
	m.placements = append(m.placements, p)
	return &p, nil
}

func (m *memStore) GetPlacement(context.Context, string) (*model.PlacementView, error) {
	return nil, nil
}

func (m *memStore) ListPlacements(context.Context, store.PlacementFilter) ([]model.PlacementView, error) {
	return nil, nil
}

func (m *memStore) UpdatePlacement(context.Context, model.Placement) error { return nil }
func (m *memStore) DeletePlacement(context.Context, string) error          { return nil }

func (m *memStore) CreateImportRun(_ context.Context, filename string) (*model.ImportRun, error) {
	run := model.ImportRun{
		ID:       "run-" + strconv.FormatInt(m.id(), 10),
		Filename: filename,
		Status:   model.ImportStatusRunning,
	}
	m.runs = append(m.runs, run)
	return &run, nil
}

func (m *memStore) FinishImportRun(_ context.Context, run model.ImportRun) error {
	for i, r := range m.runs {
		if r.ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	return eris.Errorf("run %s not found", run.ID)
}

func (m *memStore) AddRowFailure(_ context.Context, f model.RowFailure) error {
	m.failures = append(m.failures, f)
	return nil
}

func (m *memStore) ListRowFailures(_ context.Context, runID string) ([]model.RowFailure, error) {
	var out []model.RowFailure
	for _, f := range m.failures {
		if f.RunID == runID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

type recordingSubmitter struct {
	got  []model.PlacementView
	fail bool
}

func (r *recordingSubmitter) Submit(_ context.Context, v model.PlacementView) error {
	if r.fail {
		return eris.New("record endpoint unavailable")
	}
	r.got = append(r.got, v)
	return nil
}

const importHeader = "brand,campaign,provider,type,state,city,address,lat,lng,start_date,end_date,image_url\n"

func writeImportCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "placements.csv")
	content := importHeader + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_CreatesPlacementsAndCatalogs(t *testing.T) {
	st := &memStore{}
	path := writeImportCSV(t,
		"Aguila,Vive la Fiesta,JCDecaux,Valla,Activa,Bogotá,Calle 26 # 68-35,4.6486,-74.0987,2026-01-15,2026-03-15,",
		"Águila,Vive la Fiesta,JCDecaux,Mural,Activa,Bogota,Carrera 7 # 45-10,4.6320,-74.0660,2026-02-01,2026-04-01,",
	)

	result, err := New(st, Config{}).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Run.Total)
	assert.Equal(t, 2, result.Run.Created)
	assert.Equal(t, 0, result.Run.Failed)
	assert.Equal(t, model.ImportStatusComplete, result.Run.Status)
	assert.Empty(t, result.Failures)

	require.Len(t, st.placements, 2)
	// Diacritic and alias variants of the same brand and city fold together.
	assert.Equal(t, st.placements[0].BrandID, st.placements[1].BrandID)
	assert.Equal(t, st.placements[0].CityID, st.placements[1].CityID)

	brands, err := st.ListCatalog(context.Background(), model.KindBrand)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "AGUILA", brands[0].Name)

	cities, err := st.ListCities(context.Background())
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "BOGOTA DC", cities[0].Name)
	assert.InDelta(t, 30, cities[0].RadiusKM, 1e-9)
}

func TestRun_RowFailuresDoNotStopBatch(t *testing.T) {
	st := &memStore{
		cities: []model.City{
			{ID: 1, Name: "BOGOTA DC", Lat: 4.711, Lng: -74.0721, RadiusKM: 45, Region: "Center"},
		},
		nextID: 1,
	}
	path := writeImportCSV(t,
		// Outside Colombia entirely.
		"Aguila,Verano,JCDecaux,Valla,Activa,Bogotá,Calle 1,40.4168,-3.7038,2026-01-01,2026-02-01,",
		// Claims Bogotá but sits in Cartagena, far outside the city bounds.
		"Aguila,Verano,JCDecaux,Valla,Activa,Bogotá,Calle 2,10.3910,-75.4794,2026-01-01,2026-02-01,",
		// Fine.
		"Aguila,Verano,JCDecaux,Valla,Activa,Bogotá,Calle 3,4.6486,-74.0987,2026-01-01,2026-02-01,",
		// Unparseable date.
		"Aguila,Verano,JCDecaux,Valla,Activa,Bogotá,Calle 4,4.6486,-74.0987,pronto,2026-02-01,",
	)

	result, err := New(st, Config{}).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Run.Total)
	assert.Equal(t, 1, result.Run.Created)
	assert.Equal(t, 3, result.Run.Failed)
	require.Len(t, result.Failures, 3)

	assert.Equal(t, 2, result.Failures[0].RowNum)
	assert.Contains(t, result.Failures[0].Reason, "country extent")
	assert.Equal(t, 3, result.Failures[1].RowNum)
	assert.Contains(t, result.Failures[1].Reason, "outside bounds of")
	assert.Equal(t, 5, result.Failures[2].RowNum)

	persisted, err := st.ListRowFailures(context.Background(), result.Run.ID)
	require.NoError(t, err)
	assert.Len(t, persisted, 3)

	// The existing city keeps its stored center and radius.
	assert.InDelta(t, 45, st.cities[0].RadiusKM, 1e-9)
	assert.InDelta(t, 4.711, st.cities[0].Lat, 1e-9)
}

func TestRun_SubmitterReceivesPlacements(t *testing.T) {
	st := &memStore{}
	sub := &recordingSubmitter{}
	path := writeImportCSV(t,
		"Poker,Amigos,APX,Paradero,Activa,Medellín,Carrera 43A # 1-50,6.2442,-75.5812,2026-01-01,2026-06-30,",
	)

	result, err := New(st, Config{}, WithSubmitter(sub)).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Run.Created)
	require.Len(t, sub.got, 1)
	assert.Equal(t, st.placements[0].ID, sub.got[0].ID)
	assert.Equal(t, "POKER", sub.got[0].Brand)
	assert.Equal(t, "MEDELLIN", sub.got[0].City)
}

func TestRun_SubmitterFailureIsNotARowFailure(t *testing.T) {
	st := &memStore{}
	path := writeImportCSV(t,
		"Poker,Amigos,APX,Paradero,Activa,Medellín,Carrera 43A # 1-50,6.2442,-75.5812,2026-01-01,2026-06-30,",
	)

	result, err := New(st, Config{}, WithSubmitter(&recordingSubmitter{fail: true})).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Run.Created)
	assert.Equal(t, 0, result.Run.Failed)
	assert.Len(t, st.placements, 1)
}

func TestRun_MissingFile(t *testing.T) {
	st := &memStore{}
	_, err := New(st, Config{}).Run(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Empty(t, st.runs)
}
