// Package catalog resolves free-text names from import rows into catalog
// entities, creating new entries when nothing matches. A Session carries
// an explicit in-memory snapshot of the catalogs instead of hidden global
// state, so concurrent import jobs cannot observe each other's partial
// writes; entities created mid-run are visible to every later row of the
// same run.
package catalog

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/geo"
	"github.com/andeanbev/oohtrack/internal/match"
	"github.com/andeanbev/oohtrack/internal/model"
)

// Store is the persistence subset a Session needs.
type Store interface {
	ListCatalog(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntity, error)
	CreateCatalogEntity(ctx context.Context, e model.CatalogEntity) (*model.CatalogEntity, error)
	ListCities(ctx context.Context) ([]model.City, error)
	CreateCity(ctx context.Context, city model.City) (*model.City, error)
}

// Option configures a Session.
type Option func(*Session)

// WithThreshold overrides the fuzzy-match similarity threshold.
func WithThreshold(t float64) Option {
	return func(s *Session) { s.threshold = t }
}

// WithCityAliases installs the alias table applied to city names before
// matching.
func WithCityAliases(t *match.AliasTable) Option {
	return func(s *Session) { s.aliases = t }
}

// WithDefaultCityRadius sets the radius assigned to cities created on
// first reference.
func WithDefaultCityRadius(km float64) Option {
	return func(s *Session) { s.defaultRadiusKM = km }
}

// Session is a catalog resolution snapshot for one import run.
type Session struct {
	store           Store
	threshold       float64
	aliases         *match.AliasTable
	defaultRadiusKM float64

	entities map[model.CatalogKind][]model.CatalogEntity
	cities   []model.City
}

// NewSession loads a snapshot of every catalog plus the city table.
func NewSession(ctx context.Context, st Store, opts ...Option) (*Session, error) {
	s := &Session{
		store:           st,
		threshold:       match.DefaultThreshold,
		aliases:         match.DefaultCityAliases(),
		defaultRadiusKM: 30,
		entities:        make(map[model.CatalogKind][]model.CatalogEntity),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, kind := range model.Kinds {
		list, err := st.ListCatalog(ctx, kind)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: load %s", kind)
		}
		s.entities[kind] = list
	}

	cities, err := st.ListCities(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: load cities")
	}
	s.cities = cities

	return s, nil
}

// Resolve finds or creates the catalog entity for a raw name. For
// campaigns, brandID scopes both matching and creation: the same campaign
// name under two brands is two distinct entities. The second return
// reports whether a new entity was created.
func (s *Session) Resolve(ctx context.Context, kind model.CatalogKind, raw string, brandID *int64) (*model.CatalogEntity, bool, error) {
	name := match.Normalize(raw)
	if name == "" {
		return nil, false, eris.Errorf("catalog: empty %s name", kind)
	}

	candidates := s.candidates(kind, brandID)
	names := make([]string, len(candidates))
	for i, e := range candidates {
		names[i] = e.Name
	}

	if m, ok := match.FindMatch(name, names, s.threshold); ok {
		e := candidates[m.Index]
		if !m.Exact {
			zap.L().Debug("catalog: fuzzy match",
				zap.String("kind", string(kind)),
				zap.String("query", name),
				zap.String("matched", e.Name),
				zap.Float64("similarity", m.Similarity),
			)
		}
		return &e, false, nil
	}

	created, err := s.store.CreateCatalogEntity(ctx, model.CatalogEntity{
		Kind:    kind,
		Name:    name,
		BrandID: brandID,
	})
	if err != nil {
		return nil, false, eris.Wrapf(err, "catalog: create %s %s", kind, name)
	}
	s.entities[kind] = append(s.entities[kind], *created)

	zap.L().Info("catalog: created entity",
		zap.String("kind", string(kind)),
		zap.String("name", created.Name),
		zap.Int64("id", created.ID),
	)
	return created, true, nil
}

// candidates returns the matchable entities for a kind. Campaign
// candidates are restricted to the parent brand.
func (s *Session) candidates(kind model.CatalogKind, brandID *int64) []model.CatalogEntity {
	all := s.entities[kind]
	if kind != model.KindCampaign || brandID == nil {
		return all
	}
	var scoped []model.CatalogEntity
	for _, e := range all {
		if e.BrandID != nil && *e.BrandID == *brandID {
			scoped = append(scoped, e)
		}
	}
	return scoped
}

// ResolveCity finds or creates the city for a raw name. The alias table
// folds known spelling variants before matching. A city referenced for
// the first time is created with the row's coordinate as its center and
// the session's default radius; the region label comes from the coarse
// region classifier. Import never overwrites an existing city's center
// or radius.
func (s *Session) ResolveCity(ctx context.Context, raw string, p geo.Point) (*model.City, bool, error) {
	name := s.aliases.Canonical(raw)
	if name == "" {
		return nil, false, eris.New("catalog: empty city name")
	}

	names := make([]string, len(s.cities))
	for i, c := range s.cities {
		names[i] = c.Name
	}

	if m, ok := match.FindMatch(name, names, s.threshold); ok {
		c := s.cities[m.Index]
		return &c, false, nil
	}

	var region string
	if cls := geo.ClassifyRegion(p); cls.Region != nil {
		region = cls.Region.Name
	}

	created, err := s.store.CreateCity(ctx, model.City{
		Name:     name,
		Lat:      p.Lat,
		Lng:      p.Lng,
		RadiusKM: s.defaultRadiusKM,
		Region:   region,
	})
	if err != nil {
		return nil, false, eris.Wrapf(err, "catalog: create city %s", name)
	}
	s.cities = append(s.cities, *created)

	zap.L().Info("catalog: created city",
		zap.String("name", created.Name),
		zap.Float64("lat", created.Lat),
		zap.Float64("lng", created.Lng),
		zap.Float64("radius_km", created.RadiusKM),
		zap.String("region", created.Region),
	)
	return created, true, nil
}

// RankCities returns ranked city candidates for a search term, for
// human review in the API.
func (s *Session) RankCities(query string, maxResults int) []model.City {
	names := make([]string, len(s.cities))
	for i, c := range s.cities {
		names[i] = c.Name
	}
	ranked := match.RankSimilar(s.aliases.Canonical(query), names, s.threshold, maxResults)
	out := make([]model.City, len(ranked))
	for i, r := range ranked {
		out[i] = s.cities[r.Index]
	}
	return out
}
