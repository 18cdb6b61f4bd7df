package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andeanbev/oohtrack/internal/importer"
	"github.com/andeanbev/oohtrack/pkg/placementapi"
)

var (
	importFile      string
	importSheet     string
	importAliases   string
	importThreshold float64
	importMirror    bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import placements from an agency spreadsheet",
	Long:  "Reads a CSV or XLSX placement sheet, resolves brand/campaign/provider/type/state/city names against the catalogs (fuzzy, creating on miss), validates coordinates against city envelopes, and persists the rows. Rejected rows are recorded per run and never abort the batch.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		impCfg := importer.Config{
			Threshold:       cfg.Import.Threshold,
			DefaultRadiusKM: cfg.Import.DefaultRadiusKM,
			AliasFile:       cfg.Import.AliasFile,
			SheetName:       cfg.Import.SheetName,
		}
		if importThreshold > 0 {
			impCfg.Threshold = importThreshold
		}
		if importSheet != "" {
			impCfg.SheetName = importSheet
		}
		if importAliases != "" {
			impCfg.AliasFile = importAliases
		}

		var opts []importer.Option
		if importMirror && cfg.RecordAPI.URL != "" {
			client := placementapi.NewClient(cfg.RecordAPI.URL,
				placementapi.WithAPIKey(cfg.RecordAPI.Key),
				placementapi.WithRateLimit(cfg.RecordAPI.RateLimit),
			)
			opts = append(opts, importer.WithSubmitter(importer.NewRecordSubmitter(client)))
		}

		result, err := importer.New(st, impCfg, opts...).Run(ctx, importFile)
		if err != nil {
			return err
		}

		for _, f := range result.Failures {
			zap.L().Warn("rejected row",
				zap.Int("row", f.RowNum),
				zap.String("reason", f.Reason),
			)
		}
		zap.L().Info("import finished",
			zap.String("run_id", result.Run.ID),
			zap.Int("total", result.Run.Total),
			zap.Int("created", result.Run.Created),
			zap.Int("failed", result.Run.Failed),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().StringVar(&importAliases, "aliases", "", "path to city alias YAML file")
	importCmd.Flags().Float64Var(&importThreshold, "threshold", 0, "fuzzy match threshold override (0-1)")
	importCmd.Flags().BoolVar(&importMirror, "mirror", false, "mirror created placements to the record endpoint")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
