package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/andeanbev/oohtrack/internal/model"
)

// WriteGeoJSON writes placements as a GeoJSON FeatureCollection, one
// Point feature per placement with lng/lat coordinate order.
func WriteGeoJSON(w io.Writer, views []model.PlacementView) error {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(views)),
	}
	for _, v := range views {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       v.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{v.Lng, v.Lat}),
			Properties: map[string]interface{}{
				"brand":      v.Brand,
				"campaign":   v.Campaign,
				"provider":   v.Provider,
				"type":       v.Type,
				"state":      v.State,
				"city":       v.City,
				"address":    v.Address,
				"start_date": v.StartDate.Format(dateFormat),
				"end_date":   v.EndDate.Format(dateFormat),
			},
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "export: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}
