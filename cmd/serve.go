package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andeanbev/oohtrack/internal/importer"
	"github.com/andeanbev/oohtrack/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
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
		srv := server.New(st, importer.New(st, impCfg), impCfg)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		return srv.Run(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
