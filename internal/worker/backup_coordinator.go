package worker

import (
	"context"
	"log/slog"
	"time"
)

// SheetExporter defines the export operation the backup coordinator drives.
// Implemented by backup.Exporter.
type SheetExporter interface {
	Export(ctx context.Context) (exportID string, uploaded int, err error)
}

// BackupCoordinator periodically exports every tracked sheet to object
// storage.
type BackupCoordinator struct {
	exporter SheetExporter
	interval time.Duration
}

// NewBackupCoordinator creates a coordinator for periodic CSV exports.
func NewBackupCoordinator(exporter SheetExporter, interval time.Duration) *BackupCoordinator {
	return &BackupCoordinator{
		exporter: exporter,
		interval: interval,
	}
}

// Run starts the backup coordinator loop. It blocks until ctx is cancelled.
// The first export waits for a full ticker interval; exporting reads every
// sheet, and doing that on every restart would burn remote quota.
func (c *BackupCoordinator) Run(ctx context.Context) {
	slog.Info("backup coordinator started",
		"component", "worker",
		"worker", "backup-coordinator",
		"interval", c.interval.String(),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("backup coordinator stopped",
				"component", "worker",
				"worker", "backup-coordinator",
			)
			return
		case <-ticker.C:
			exportID, uploaded, err := c.exporter.Export(ctx)
			if err != nil {
				slog.Error("backup export failed",
					"component", "worker",
					"worker", "backup-coordinator",
					"export_id", exportID,
					"error", err,
				)
				continue
			}
			slog.Info("backup export complete",
				"component", "worker",
				"worker", "backup-coordinator",
				"export_id", exportID,
				"sheets", uploaded,
			)
		}
	}
}
