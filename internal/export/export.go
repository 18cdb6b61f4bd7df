// Package export renders placement views into the formats the media team
// consumes: CSV for spreadsheets, XLSX for agency handoff, GeoJSON for
// the map tooling.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andeanbev/oohtrack/internal/model"
)

const dateFormat = "2006-01-02"

var header = []string{
	"id", "brand", "campaign", "provider", "type", "state", "city",
	"address", "lat", "lng", "start_date", "end_date", "image_url",
}

func record(v model.PlacementView) []string {
	return []string{
		v.ID, v.Brand, v.Campaign, v.Provider, v.Type, v.State, v.City,
		v.Address,
		strconv.FormatFloat(v.Lat, 'f', -1, 64),
		strconv.FormatFloat(v.Lng, 'f', -1, 64),
		v.StartDate.Format(dateFormat),
		v.EndDate.Format(dateFormat),
		v.ImageURL,
	}
}

// WriteCSV writes placements as CSV with a header row.
func WriteCSV(w io.Writer, views []model.PlacementView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, v := range views {
		if err := cw.Write(record(v)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteCSVFile writes placements as CSV to a file path.
func WriteCSVFile(path string, views []model.PlacementView) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteCSV(f, views); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// WriteXLSX writes placements to a single-sheet XLSX file.
func WriteXLSX(path string, views []model.PlacementView) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Placements")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, col := range header {
		hr.AddCell().SetString(col)
	}
	for _, v := range views {
		row := sheet.AddRow()
		for _, cell := range record(v) {
			row.AddCell().SetString(cell)
		}
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// WriteBoth writes the same placement set as CSV and XLSX concurrently.
// Either path may be empty to skip that format.
func WriteBoth(csvPath, xlsxPath string, views []model.PlacementView) error {
	var g errgroup.Group
	if csvPath != "" {
		g.Go(func() error { return WriteCSVFile(csvPath, views) })
	}
	if xlsxPath != "" {
		g.Go(func() error { return WriteXLSX(xlsxPath, views) })
	}
	return g.Wait()
}
