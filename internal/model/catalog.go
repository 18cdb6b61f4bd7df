package model

import "time"

// CatalogKind identifies the catalog an entity belongs to.
type CatalogKind string

const (
	KindBrand    CatalogKind = "brand"
	KindCampaign CatalogKind = "campaign"
	KindProvider CatalogKind = "provider"
	KindOOHType  CatalogKind = "ooh_type"
	KindState    CatalogKind = "state"
)

// Kinds lists all catalog kinds in resolution order.
var Kinds = []CatalogKind{KindBrand, KindCampaign, KindProvider, KindOOHType, KindState}

// CatalogEntity maps a display name to a stable identifier.
// Campaigns are additionally scoped to a parent brand: uniqueness is
// (kind, name, brand_id), not name alone.
type CatalogEntity struct {
	ID        int64       `json:"id"`
	Kind      CatalogKind `json:"kind"`
	Name      string      `json:"name"`
	BrandID   *int64      `json:"brand_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// City is a reference city with its geo envelope. Name is stored in
// normalized uppercase form; center and radius define the allowed
// placement area.
type City struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	RadiusKM  float64   `json:"radius_km"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
