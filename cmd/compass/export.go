package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/careercompass/compass/internal/backup"
	"github.com/careercompass/compass/internal/config"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every tracked sheet as CSV to the configured backup bucket",
	Long: "Reads all sheets through the spreadsheet gateway and uploads each one " +
		"as a CSV object, then exits. Requires backup storage to be configured.",
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg.Log)

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}

	uploader, err := backup.NewUploader(cfg.Backup)
	if err != nil {
		return err
	}

	exportID, uploaded, err := backup.NewExporter(gateway, uploader).Export(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "export %s complete: %d sheets uploaded\n", exportID, uploaded)
	return nil
}
