package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/store"
)

var placementsCmd = &cobra.Command{
	Use:   "placements",
	Short: "Inspect registered placements",
}

var (
	listBrandID  int64
	listCityID   int64
	listActiveOn string
	listLimit    int
)

var placementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List placements with catalog names resolved",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var filter store.PlacementFilter
		filter.Limit = listLimit
		if listBrandID > 0 {
			filter.BrandID = &listBrandID
		}
		if listCityID > 0 {
			filter.CityID = &listCityID
		}
		if listActiveOn != "" {
			day, err := time.Parse("2006-01-02", listActiveOn)
			if err != nil {
				return eris.Errorf("--active-on must be YYYY-MM-DD, got %q", listActiveOn)
			}
			filter.ActiveOn = &day
		}

		views, err := st.ListPlacements(ctx, filter)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	},
}

var placementsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one placement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		view, err := st.GetPlacement(ctx, args[0])
		if err != nil {
			return err
		}
		if view == nil {
			return eris.Errorf("placement not found: %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	},
}

var placementsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a placement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeletePlacement(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("placement deleted", zap.String("id", args[0]))
		return nil
	},
}

func init() {
	placementsListCmd.Flags().Int64Var(&listBrandID, "brand-id", 0, "filter by brand ID")
	placementsListCmd.Flags().Int64Var(&listCityID, "city-id", 0, "filter by city ID")
	placementsListCmd.Flags().StringVar(&listActiveOn, "active-on", "", "filter by active date (YYYY-MM-DD)")
	placementsListCmd.Flags().IntVar(&listLimit, "limit", 0, "max rows (default 100)")

	placementsCmd.AddCommand(placementsListCmd, placementsGetCmd, placementsDeleteCmd)
	rootCmd.AddCommand(placementsCmd)
}
