package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/geo"
	"github.com/andeanbev/oohtrack/internal/match"
	"github.com/andeanbev/oohtrack/internal/model"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Manage the city reference table",
}

var citiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cities with their envelopes",
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

		cities, err := st.ListCities(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cities)
	},
}

var (
	cityName   string
	cityLat    float64
	cityLng    float64
	cityRadius float64
	cityRegion string
)

var citiesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a city envelope",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		city := model.City{
			Name:     match.Normalize(cityName),
			Lat:      cityLat,
			Lng:      cityLng,
			RadiusKM: cityRadius,
			Region:   cityRegion,
		}
		if city.Name == "" {
			return eris.New("--name is required")
		}
		if _, err := geo.ComputeBounds(city); err != nil {
			return err
		}
		if city.Region == "" {
			if cls := geo.ClassifyRegion(geo.Point{Lat: city.Lat, Lng: city.Lng}); cls.Region != nil {
				city.Region = cls.Region.Name
			}
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		saved, err := st.UpsertCity(ctx, city)
		if err != nil {
			return err
		}

		zap.L().Info("city saved",
			zap.Int64("id", saved.ID),
			zap.String("name", saved.Name),
			zap.Float64("radius_km", saved.RadiusKM),
			zap.String("region", saved.Region),
		)
		return nil
	},
}

var (
	suggestLat float64
	suggestLng float64
)

var citiesSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest a region for a coordinate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cls := geo.ClassifyRegion(geo.Point{Lat: suggestLat, Lng: suggestLng})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cls)
	},
}

func init() {
	citiesSetCmd.Flags().StringVar(&cityName, "name", "", "city name (required)")
	citiesSetCmd.Flags().Float64Var(&cityLat, "lat", 0, "center latitude")
	citiesSetCmd.Flags().Float64Var(&cityLng, "lng", 0, "center longitude")
	citiesSetCmd.Flags().Float64Var(&cityRadius, "radius", 30, "radius in kilometers")
	citiesSetCmd.Flags().StringVar(&cityRegion, "region", "", "region label (default from classifier)")
	_ = citiesSetCmd.MarkFlagRequired("name")

	citiesSuggestCmd.Flags().Float64Var(&suggestLat, "lat", 0, "latitude")
	citiesSuggestCmd.Flags().Float64Var(&suggestLng, "lng", 0, "longitude")
	_ = citiesSuggestCmd.MarkFlagRequired("lat")
	_ = citiesSuggestCmd.MarkFlagRequired("lng")

	citiesCmd.AddCommand(citiesListCmd, citiesSetCmd, citiesSuggestCmd)
	rootCmd.AddCommand(citiesCmd)
}
