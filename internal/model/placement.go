// Package model holds the domain types shared across the oohtrack pipeline.
package model

import "time"

// Placement is a registered out-of-home advertising record: one billboard,
// bus-stop panel, mural, etc., tied to a brand campaign in a city.
type Placement struct {
	ID         string    `json:"id"`
	BrandID    int64     `json:"brand_id"`
	CampaignID int64     `json:"campaign_id"`
	ProviderID int64     `json:"provider_id"`
	TypeID     int64     `json:"type_id"`
	StateID    int64     `json:"state_id"`
	CityID     int64     `json:"city_id"`
	Address    string    `json:"address"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PlacementView is a Placement with catalog names resolved for display
// and export.
type PlacementView struct {
	Placement
	Brand    string `json:"brand"`
	Campaign string `json:"campaign"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
	State    string `json:"state"`
	City     string `json:"city"`
}

// ImportRow is one parsed spreadsheet row. It carries raw text fields
// until the importer resolves them into catalog IDs; it is never
// persisted as such.
type ImportRow struct {
	RowNum    int
	Brand     string
	Campaign  string
	Provider  string
	Type      string
	State     string
	City      string
	Address   string
	Lat       float64
	Lng       float64
	StartDate time.Time
	EndDate   time.Time
	ImageURL  string
}

// ImportStatus tracks the lifecycle of a bulk import run.
type ImportStatus string

const (
	ImportStatusRunning  ImportStatus = "running"
	ImportStatusComplete ImportStatus = "complete"
	ImportStatusFailed   ImportStatus = "failed"
)

// ImportRun records one bulk import execution.
type ImportRun struct {
	ID         string       `json:"id"`
	Filename   string       `json:"filename"`
	Status     ImportStatus `json:"status"`
	Total      int          `json:"total"`
	Created    int          `json:"created"`
	Failed     int          `json:"failed"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// RowFailure is a discarded import row and the reason it was rejected.
type RowFailure struct {
	RunID  string `json:"run_id"`
	RowNum int    `json:"row_num"`
	Reason string `json:"reason"`
}
