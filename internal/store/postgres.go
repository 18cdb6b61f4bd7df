package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/andeanbev/oohtrack/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cities (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	radius_km  DOUBLE PRECISION NOT NULL,
	region     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS catalog_entities (
	id         BIGSERIAL PRIMARY KEY,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	brand_id   BIGINT REFERENCES catalog_entities(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_catalog_identity
	ON catalog_entities(kind, name, COALESCE(brand_id, 0));

CREATE TABLE IF NOT EXISTS placements (
	id          TEXT PRIMARY KEY,
	brand_id    BIGINT NOT NULL REFERENCES catalog_entities(id),
	campaign_id BIGINT NOT NULL REFERENCES catalog_entities(id),
	provider_id BIGINT NOT NULL REFERENCES catalog_entities(id),
	type_id     BIGINT NOT NULL REFERENCES catalog_entities(id),
	state_id    BIGINT NOT NULL REFERENCES catalog_entities(id),
	city_id     BIGINT NOT NULL REFERENCES cities(id),
	address     TEXT NOT NULL,
	lat         DOUBLE PRECISION NOT NULL,
	lng         DOUBLE PRECISION NOT NULL,
	start_date  TIMESTAMPTZ NOT NULL,
	end_date    TIMESTAMPTZ NOT NULL,
	image_url   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
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
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS import_failures (
	run_id  TEXT NOT NULL REFERENCES import_runs(id),
	row_num INTEGER NOT NULL,
	reason  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_failures_run ON import_failures(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Cities

func (s *PostgresStore) CreateCity(ctx context.Context, city model.City) (*model.City, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO cities (name, lat, lng, radius_km, region) VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		city.Name, city.Lat, city.Lng, city.RadiusKM, city.Region,
	).Scan(&city.ID, &city.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert city %s", city.Name)
	}
	return &city, nil
}

func (s *PostgresStore) UpsertCity(ctx context.Context, city model.City) (*model.City, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO cities (name, lat, lng, radius_km, region) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET lat = EXCLUDED.lat, lng = EXCLUDED.lng,
		 radius_km = EXCLUDED.radius_km, region = EXCLUDED.region
		 RETURNING id, created_at`,
		city.Name, city.Lat, city.Lng, city.RadiusKM, city.Region,
	).Scan(&city.ID, &city.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert city %s", city.Name)
	}
	return &city, nil
}

func (s *PostgresStore) GetCityByName(ctx context.Context, name string) (*model.City, error) {
	var c model.City
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, lat, lng, radius_km, region, created_at FROM cities WHERE name = $1`,
		name,
	).Scan(&c.ID, &c.Name, &c.Lat, &c.Lng, &c.RadiusKM, &c.Region, &c.CreatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get city %s", name)
	}
	return &c, nil
}

func (s *PostgresStore) ListCities(ctx context.Context) ([]model.City, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, lat, lng, radius_km, region, created_at FROM cities ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cities")
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Lat, &c.Lng, &c.RadiusKM, &c.Region, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan city")
		}
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "postgres: list cities iterate")
}

// Catalog

func (s *PostgresStore) ListCatalog(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, name, brand_id, created_at FROM catalog_entities WHERE kind = $1 ORDER BY id`,
		string(kind))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list catalog %s", kind)
	}
	defer rows.Close()

	var entities []model.CatalogEntity
	for rows.Next() {
		var e model.CatalogEntity
		if err := rows.Scan(&e.ID, &e.Kind, &e.Name, &e.BrandID, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan catalog entity")
		}
		entities = append(entities, e)
	}
	return entities, eris.Wrap(rows.Err(), "postgres: list catalog iterate")
}

func (s *PostgresStore) CreateCatalogEntity(ctx context.Context, e model.CatalogEntity) (*model.CatalogEntity, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO catalog_entities (kind, name, brand_id) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		string(e.Kind), e.Name, e.BrandID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert %s %s", e.Kind, e.Name)
	}
	return &e, nil
}

// Placements

func (s *PostgresStore) CreatePlacement(ctx context.Context, p model.Placement) (*model.Placement, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO placements (id, brand_id, campaign_id, provider_id, type_id, state_id, city_id,
		 address, lat, lng, start_date, end_date, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at, updated_at`,
		p.ID, p.BrandID, p.CampaignID, p.ProviderID, p.TypeID, p.StateID, p.CityID,
		p.Address, p.Lat, p.Lng, p.StartDate, p.EndDate, p.ImageURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert placement")
	}
	return &p, nil
}

const pgPlacementViewSelect = `
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

func (s *PostgresStore) GetPlacement(ctx context.Context, id string) (*model.PlacementView, error) {
	row := s.pool.QueryRow(ctx, pgPlacementViewSelect+` WHERE p.id = $1`, id)

	var v model.PlacementView
	err := row.Scan(
		&v.ID, &v.BrandID, &v.CampaignID, &v.ProviderID, &v.TypeID, &v.StateID, &v.CityID,
		&v.Address, &v.Lat, &v.Lng, &v.StartDate, &v.EndDate, &v.ImageURL, &v.CreatedAt, &v.UpdatedAt,
		&v.Brand, &v.Campaign, &v.Provider, &v.Type, &v.State, &v.City,
	)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get placement %s", id)
	}
	return &v, nil
}

func (s *PostgresStore) ListPlacements(ctx context.Context, f PlacementFilter) ([]model.PlacementView, error) {
	query := pgPlacementViewSelect + ` WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.BrandID != nil {
		query += ` AND p.brand_id = ` + arg(*f.BrandID)
	}
	if f.CampaignID != nil {
		query += ` AND p.campaign_id = ` + arg(*f.CampaignID)
	}
	if f.CityID != nil {
		query += ` AND p.city_id = ` + arg(*f.CityID)
	}
	if f.ActiveOn != nil {
		ph := arg(*f.ActiveOn)
		query += ` AND p.start_date <= ` + ph + ` AND p.end_date >= ` + ph
	}
	query += ` ORDER BY p.created_at DESC`

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	if f.Offset > 0 {
		query += ` OFFSET ` + arg(f.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list placements")
	}
	defer rows.Close()

	var views []model.PlacementView
	for rows.Next() {
		var v model.PlacementView
		err := rows.Scan(
			&v.ID, &v.BrandID, &v.CampaignID, &v.ProviderID, &v.TypeID, &v.StateID, &v.CityID,
			&v.Address, &v.Lat, &v.Lng, &v.StartDate, &v.EndDate, &v.ImageURL, &v.CreatedAt, &v.UpdatedAt,
			&v.Brand, &v.Campaign, &v.Provider, &v.Type, &v.State, &v.City,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan placement")
		}
		views = append(views, v)
	}
	return views, eris.Wrap(rows.Err(), "postgres: list placements iterate")
}

func (s *PostgresStore) UpdatePlacement(ctx context.Context, p model.Placement) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE placements SET brand_id = $1, campaign_id = $2, provider_id = $3, type_id = $4,
		 state_id = $5, city_id = $6, address = $7, lat = $8, lng = $9, start_date = $10,
		 end_date = $11, image_url = $12, updated_at = now() WHERE id = $13`,
		p.BrandID, p.CampaignID, p.ProviderID, p.TypeID, p.StateID, p.CityID,
		p.Address, p.Lat, p.Lng, p.StartDate, p.EndDate, p.ImageURL, p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update placement %s", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("placement not found: %s", p.ID)
	}
	return nil
}

func (s *PostgresStore) DeletePlacement(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM placements WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete placement %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("placement not found: %s", id)
	}
	return nil
}

// Import runs

func (s *PostgresStore) CreateImportRun(ctx context.Context, filename string) (*model.ImportRun, error) {
	run := model.ImportRun{
		ID:       uuid.New().String(),
		Filename: filename,
		Status:   model.ImportStatusRunning,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO import_runs (id, filename, status) VALUES ($1, $2, $3) RETURNING started_at`,
		run.ID, run.Filename, string(run.Status),
	).Scan(&run.StartedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert import run")
	}
	return &run, nil
}

func (s *PostgresStore) FinishImportRun(ctx context.Context, run model.ImportRun) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE import_runs SET status = $1, total = $2, created = $3, failed = $4, finished_at = now() WHERE id = $5`,
		string(run.Status), run.Total, run.Created, run.Failed, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish import run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("import run not found: %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) AddRowFailure(ctx context.Context, f model.RowFailure) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_failures (run_id, row_num, reason) VALUES ($1, $2, $3)`,
		f.RunID, f.RowNum, f.Reason,
	)
	return eris.Wrap(err, "postgres: insert row failure")
}

func (s *PostgresStore) ListRowFailures(ctx context.Context, runID string) ([]model.RowFailure, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, row_num, reason FROM import_failures WHERE run_id = $1 ORDER BY row_num`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list row failures")
	}
	defer rows.Close()

	var failures []model.RowFailure
	for rows.Next() {
		var f model.RowFailure
		if err := rows.Scan(&f.RunID, &f.RowNum, &f.Reason); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row failure")
		}
		failures = append(failures, f)
	}
	return failures, eris.Wrap(rows.Err(), "postgres: list row failures iterate")
}

