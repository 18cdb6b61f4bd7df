package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/andeanbev/oohtrack/internal/model"
)

// Column layout of an import sheet, after the single header row.
const (
	colBrand = iota
	colCampaign
	colProvider
	colType
	colState
	colCity
	colAddress
	colLat
	colLng
	colStartDate
	colEndDate
	colImageURL
	minColumns = colEndDate + 1 // image URL is optional
)

// Date formats seen across vendor sheets. Day-first is the local
// convention for the slash format.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "2006/01/02"}

// ParseRow converts one spreadsheet row into an ImportRow. Field text is
// kept raw; only coordinates and dates are converted here.
func ParseRow(rowNum int, cells []string) (model.ImportRow, error) {
	row := model.ImportRow{RowNum: rowNum}

	if len(cells) < minColumns {
		return row, eris.Errorf("row has %d columns, need at least %d", len(cells), minColumns)
	}

	row.Brand = strings.TrimSpace(cells[colBrand])
	row.Campaign = strings.TrimSpace(cells[colCampaign])
	row.Provider = strings.TrimSpace(cells[colProvider])
	row.Type = strings.TrimSpace(cells[colType])
	row.State = strings.TrimSpace(cells[colState])
	row.City = strings.TrimSpace(cells[colCity])
	row.Address = strings.TrimSpace(cells[colAddress])

	for name, val := range map[string]string{
		"brand": row.Brand, "campaign": row.Campaign, "provider": row.Provider,
		"type": row.Type, "state": row.State, "city": row.City, "address": row.Address,
	} {
		if val == "" {
			return row, eris.Errorf("missing required field %q", name)
		}
	}

	var err error
	if row.Lat, err = parseCoord(cells[colLat]); err != nil {
		return row, eris.Wrap(err, "latitude")
	}
	if row.Lng, err = parseCoord(cells[colLng]); err != nil {
		return row, eris.Wrap(err, "longitude")
	}
	if row.StartDate, err = parseDate(cells[colStartDate]); err != nil {
		return row, eris.Wrap(err, "start date")
	}
	if row.EndDate, err = parseDate(cells[colEndDate]); err != nil {
		return row, eris.Wrap(err, "end date")
	}
	if row.EndDate.Before(row.StartDate) {
		return row, eris.Errorf("end date %s before start date %s",
			row.EndDate.Format("2006-01-02"), row.StartDate.Format("2006-01-02"))
	}

	if len(cells) > colImageURL {
		row.ImageURL = strings.TrimSpace(cells[colImageURL])
	}

	return row, nil
}

// parseCoord accepts both decimal point and the decimal comma that Excel
// produces under the es-CO locale.
func parseCoord(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.New("empty coordinate")
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("invalid coordinate %q", s)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("invalid date %q", s)
}
