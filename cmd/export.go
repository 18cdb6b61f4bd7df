package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/export"
	"github.com/andeanbev/oohtrack/internal/store"
)

var (
	exportCSV      string
	exportXLSX     string
	exportGeoJSON  string
	exportBrandID  int64
	exportCityID   int64
	exportActiveOn string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export placements to CSV, XLSX, or GeoJSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if exportCSV == "" && exportXLSX == "" && exportGeoJSON == "" {
			return eris.New("at least one of --csv, --xlsx, --geojson is required")
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var filter store.PlacementFilter
		if exportBrandID > 0 {
			filter.BrandID = &exportBrandID
		}
		if exportCityID > 0 {
			filter.CityID = &exportCityID
		}
		if exportActiveOn != "" {
			day, err := time.Parse("2006-01-02", exportActiveOn)
			if err != nil {
				return eris.Errorf("--active-on must be YYYY-MM-DD, got %q", exportActiveOn)
			}
			filter.ActiveOn = &day
		}

		views, err := st.ListPlacements(ctx, filter)
		if err != nil {
			return err
		}

		if err := export.WriteBoth(exportCSV, exportXLSX, views); err != nil {
			return err
		}
		if exportGeoJSON != "" {
			f, err := os.Create(exportGeoJSON)
			if err != nil {
				return eris.Wrapf(err, "create %s", exportGeoJSON)
			}
			if err := export.WriteGeoJSON(f, views); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return eris.Wrapf(err, "close %s", exportGeoJSON)
			}
		}

		zap.L().Info("export complete",
			zap.Int("placements", len(views)),
			zap.String("csv", exportCSV),
			zap.String("xlsx", exportXLSX),
			zap.String("geojson", exportGeoJSON),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "CSV output path")
	exportCmd.Flags().StringVar(&exportXLSX, "xlsx", "", "XLSX output path")
	exportCmd.Flags().StringVar(&exportGeoJSON, "geojson", "", "GeoJSON output path")
	exportCmd.Flags().Int64Var(&exportBrandID, "brand-id", 0, "filter by brand ID")
	exportCmd.Flags().Int64Var(&exportCityID, "city-id", 0, "filter by city ID")
	exportCmd.Flags().StringVar(&exportActiveOn, "active-on", "", "filter by active date (YYYY-MM-DD)")
	rootCmd.AddCommand(exportCmd)
}
