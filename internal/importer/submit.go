package importer

import (
	"context"

	"github.com/andeanbev/oohtrack/internal/model"
	"github.com/andeanbev/oohtrack/pkg/placementapi"
)

// RecordSubmitter adapts the placementapi client to the Submitter
// interface.
type RecordSubmitter struct {
	client placementapi.Client
}

// NewRecordSubmitter wraps a placementapi client.
func NewRecordSubmitter(c placementapi.Client) *RecordSubmitter {
	return &RecordSubmitter{client: c}
}

func (s *RecordSubmitter) Submit(ctx context.Context, v model.PlacementView) error {
	return s.client.SubmitRecord(ctx, placementapi.Record{
		ID:        v.ID,
		Brand:     v.Brand,
		Campaign:  v.Campaign,
		Provider:  v.Provider,
		Type:      v.Type,
		State:     v.State,
		City:      v.City,
		Address:   v.Address,
		Lat:       v.Lat,
		Lng:       v.Lng,
		StartDate: v.StartDate,
		EndDate:   v.EndDate,
	})
}
