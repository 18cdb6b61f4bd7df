package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/andeanbev/oohtrack/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cities (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	radius_km  REAL NOT NULL,
	region     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS catalog_entities (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	brand_id   INTEGER REFERENCES catalog_entities(id),
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_catalog_identity
	ON catalog_entities(kind, name, IFNULL(brand_id, 0));

CREATE TABLE IF NOT EXISTS placements (
	id          TEXT PRIMARY KEY,
	brand_id    INTEGER NOT NULL REFERENCES catalog_entities(id),
	campaign_id INTEGER NOT NULL REFERENCES catalog_entities(id),
	provider_id INTEGER NOT NULL REFERENCES catalog_entities(id),
	type_id     INTEGER NOT NULL REFERENCES catalog_entities(id),
	state_id    INTEGER NOT NULL REFERENCES catalog_entities(id),
	city_id     INTEGER NOT NULL REFERENCES cities(id),
	address     TEXT NOT NULL,
	lat         REAL NOT NULL,
	lng         REAL NOT NULL,
	start_date  DATETIME NOT NULL,
	end_date    DATETIME NOT NULL,
	image_url   TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_placements_city ON placements(city_id);
CREATE INDEX IF NOT EXISTS idx_placements_brand ON placements(brand_id);
CREATE INDEX IF NOT EXISTS idx_placements_campaign ON placements(campaign_id);
CREATE INDEX IF NOT EXISTS idx_placements_dates ON placements(start_date, end_date);

CREATE TABLE IF NOT EXISTS import_runs (
	id          TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	total       INTEGER NOT NULL DEFAULT 0,
	created     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS import_failures (
	run_id  TEXT NOT NULL REFERENCES import_runs(id),
	row_num INTEGER NOT NULL,
	reason  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_failures_run ON import_failures(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Cities

func (s *SQLiteStore) CreateCity(ctx context.Context, city model.City) (*model.City, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cities (name, lat, lng, radius_km, region, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		city.Name, city.Lat, city.Lng, city.RadiusKM, city.Region, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert city %s", city.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: city last insert id")
	}
	city.ID = id
	city.CreatedAt = now
	return &city, nil
}

func (s *SQLiteStore) UpsertCity(ctx context.Context, city model.City) (*model.City, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cities (name, lat, lng, radius_km, region, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET lat = excluded.lat, lng = excluded.lng,
		 radius_km = excluded.radius_km, region = excluded.region`,
		city.Name, city.Lat, city.Lng, city.RadiusKM, city.Region, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert city %s", city.Name)
	}
	return s.GetCityByName(ctx, city.Name)
}

func (s *SQLiteStore) GetCityByName(ctx context.Context, name string) (*model.City, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, lat, lng, radius_km, region, created_at FROM cities WHERE name = ?`, name)

	var c model.City
	err := row.Scan(&c.ID, &c.Name, &c.Lat, &c.Lng, &c.RadiusKM, &c.Region, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get city %s", name)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCities(ctx context.Context) ([]model.City, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lat, lng, radius_km, region, created_at FROM cities ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cities")
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Lat, &c.Lng, &c.RadiusKM, &c.Region, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city")
		}
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "sqlite: list cities iterate")
}

// Catalog

func (s *SQLiteStore) ListCatalog(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, brand_id, created_at FROM catalog_entities WHERE kind = ? ORDER BY id`,
		string(kind))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list catalog %s", kind)
	}
	defer rows.Close()

	var entities []model.CatalogEntity
	for rows.Next() {
		var e model.CatalogEntity
		var brandID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Name, &brandID, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan catalog entity")
		}
		if brandID.Valid {
			e.BrandID = &brandID.Int64
		}
		entities = append(entities, e)
	}
	return entities, eris.Wrap(rows.Err(), "sqlite: list catalog iterate")
}

func (s *SQLiteStore) CreateCatalogEntity(ctx context.Context, e model.CatalogEntity) (*model.CatalogEntity, error) {
	now := time.Now().UTC()
	var brandID any
	if e.BrandID != nil {
		brandID = *e.BrandID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_entities (kind, name, brand_id, created_at) VALUES (?, ?, ?, ?)`,
		string(e.Kind), e.Name, brandID, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert %s %s", e.Kind, e.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: catalog last insert id")
	}
	e.ID = id
	e.CreatedAt = now
	return &e, nil
}

// Placements

func (s *SQLiteStore) CreatePlacement(ctx context.Context, p model.Placement) (*model.Placement, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO placements (id, brand_id, campaign_id, provider_id, type_id, state_id, city_id,
		 address, lat, lng, start_date, end_date, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BrandID, p.CampaignID, p.ProviderID, p.TypeID, p.StateID, p.CityID,
		p.Address, p.Lat, p.Lng, p.StartDate, p.EndDate, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert placement")
	}
	return &p, nil
}

const placementViewSelect = `
SELECT p.id, p.brand_id, p.campaign_id, p.provider_id, p.type_id, p.state_id, p.city_id,
       p.address, p.lat, p.lng, p.start_date, p.end_date, p.image_url, p.created_at, p.updated_at,
       b.name, cam.name, prov.name, typ.name, st.name, c.name
FROM placements p
JOIN catalog_entities b    ON b.id = p.brand_id
JOIN catalog_entities cam  ON cam.id = p.campaign_id
JOIN catalog_entities prov ON prov.id = p.provider_id
JOIN catalog_entities typ  ON typ.id = p.type_id
JOIN catalog_entities st   ON st.id = p.state_id
JOIN cities c              ON c.id = p.city_id`

func scanPlacementView(row scannable) (*model.PlacementView, error) {
	var v model.PlacementView
	err := row.Scan(
		&v.ID, &v.BrandID, &v.CampaignID, &v.ProviderID, &v.TypeID, &v.StateID, &v.CityID,
		&v.Address, &v.Lat, &v.Lng, &v.StartDate, &v.EndDate, &v.ImageURL, &v.CreatedAt, &v.UpdatedAt,
		&v.Brand, &v.Campaign, &v.Provider, &v.Type, &v.State, &v.City,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *SQLiteStore) GetPlacement(ctx context.Context, id string) (*model.PlacementView, error) {
	row := s.db.QueryRowContext(ctx, placementViewSelect+` WHERE p.id = ?`, id)
	v, err := scanPlacementView(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get placement %s", id)
	}
	return v, nil
}

func (s *SQLiteStore) ListPlacements(ctx context.Context, f PlacementFilter) ([]model.PlacementView, error) {
	query := placementViewSelect + ` WHERE 1=1`
	var args []any

	if f.BrandID != nil {
		query += ` AND p.brand_id = ?`
		args = append(args, *f.BrandID)
	}
	if f.CampaignID != nil {
		query += ` AND p.campaign_id = ?`
		args = append(args, *f.CampaignID)
	}
	if f.CityID != nil {
		query += ` AND p.city_id = ?`
		args = append(args, *f.CityID)
	}
	if f.ActiveOn != nil {
		query += ` AND p.start_date <= ? AND p.end_date >= ?`
		args = append(args, *f.ActiveOn, *f.ActiveOn)
	}
	query += ` ORDER BY p.created_at DESC`

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if f.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list placements")
	}
	defer rows.Close()

	var views []model.PlacementView
	for rows.Next() {
		v, err := scanPlacementView(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan placement")
		}
		views = append(views, *v)
	}
	return views, eris.Wrap(rows.Err(), "sqlite: list placements iterate")
}

func (s *SQLiteStore) UpdatePlacement(ctx context.Context, p model.Placement) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE placements SET brand_id = ?, campaign_id = ?, provider_id = ?, type_id = ?,
		 state_id = ?, city_id = ?, address = ?, lat = ?, lng = ?, start_date = ?, end_date = ?,
		 image_url = ?, updated_at = ? WHERE id = ?`,
		p.BrandID, p.CampaignID, p.ProviderID, p.TypeID, p.StateID, p.CityID,
		p.Address, p.Lat, p.Lng, p.StartDate, p.EndDate, p.ImageURL, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update placement %s", p.ID)
	}
	return checkRowsAffected(res, "placement", p.ID)
}

func (s *SQLiteStore) DeletePlacement(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM placements WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete placement %s", id)
	}
	return checkRowsAffected(res, "placement", id)
}

// Import runs

func (s *SQLiteStore) CreateImportRun(ctx context.Context, filename string) (*model.ImportRun, error) {
	run := model.ImportRun{
		ID:        uuid.New().String(),
		Filename:  filename,
		Status:    model.ImportStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, filename, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Filename, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import run")
	}
	return &run, nil
}

func (s *SQLiteStore) FinishImportRun(ctx context.Context, run model.ImportRun) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE import_runs SET status = ?, total = ?, created = ?, failed = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), run.Total, run.Created, run.Failed, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish import run %s", run.ID)
	}
	return checkRowsAffected(res, "import run", run.ID)
}

func (s *SQLiteStore) AddRowFailure(ctx context.Context, f model.RowFailure) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_failures (run_id, row_num, reason) VALUES (?, ?, ?)`,
		f.RunID, f.RowNum, f.Reason,
	)
	return eris.Wrap(err, "sqlite: insert row failure")
}

func (s *SQLiteStore) ListRowFailures(ctx context.Context, runID string) ([]model.RowFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, row_num, reason FROM import_failures WHERE run_id = ? ORDER BY row_num`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list row failures")
	}
	defer rows.Close()

	var failures []model.RowFailure
	for rows.Next() {
		var f model.RowFailure
		if err := rows.Scan(&f.RunID, &f.RowNum, &f.Reason); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row failure")
		}
		failures = append(failures, f)
	}
	return failures, eris.Wrap(rows.Err(), "sqlite: list row failures iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}
