package backup

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/careercompass/compass/internal/schema"
	"github.com/careercompass/compass/internal/store"
)

// Exporter reads every tracked sheet through the remote gateway and uploads
// each one as a CSV object. Exports are read-only with respect to the
// spreadsheet; a sheet that cannot be read is skipped, not fatal.
type Exporter struct {
	gw       store.Gateway
	uploader Uploader
	now      func() time.Time
}

// NewExporter creates an Exporter over the gateway and upload target.
func NewExporter(gw store.Gateway, uploader Uploader) *Exporter {
	return &Exporter{
		gw:       gw,
		uploader: uploader,
		now:      time.Now,
	}
}

// Export snapshots all sheets. It returns the export ID, the number of
// sheets uploaded, and the first upload error if any. Sheets that do not
// exist yet are logged and skipped so a partially provisioned spreadsheet
// still backs up.
func (e *Exporter) Export(ctx context.Context) (string, int, error) {
	if !e.uploader.Enabled() {
		return "", 0, ErrNotConfigured
	}

	exportID := ulid.MustNew(ulid.Timestamp(e.now()), ulid.DefaultEntropy()).String()
	date := e.now().UTC().Format(time.DateOnly)
	uploaded := 0

	for _, entity := range schema.All {
		rows, err := e.gw.ReadRange(ctx, entity.Range())
		if err != nil {
			slog.Warn("backup skipping sheet", "sheet", entity.Sheet, "error", err)
			continue
		}

		data, err := encodeCSV(rows)
		if err != nil {
			return exportID, uploaded, fmt.Errorf("encode %s: %w", entity.Sheet, err)
		}

		key := fmt.Sprintf("exports/%s/%s/%s.csv", date, exportID, entity.Sheet)
		if err := e.uploader.Upload(ctx, key, data, "text/csv"); err != nil {
			return exportID, uploaded, err
		}
		uploaded++
		slog.Info("backup uploaded sheet", "sheet", entity.Sheet, "key", key, "rows", len(rows))
	}

	return exportID, uploaded, nil
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
