package checkpoint

import (
	"encoding/json"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sync Records"

var exportColumns = []string{
	"module_name", "integration_name", "direction", "endpoint", "status",
	"last_sync_at", "created_at", "updated_at", "metadata",
}

// ExportXLSX writes the checkpoints as a spreadsheet, one row each.
func ExportXLSX(w io.Writer, records []SyncCheckpoint) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, col)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for rowIdx, rec := range records {
		row := []any{
			rec.ModuleName,
			rec.IntegrationName,
			string(rec.Direction),
			rec.Endpoint,
			string(rec.Status),
			formatTime(rec.LastSyncAt),
			formatTime(&rec.CreatedAt),
			formatTime(&rec.UpdatedAt),
			formatMetadata(rec.Metadata),
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, col, col, 20)
	}

	return f.Write(w)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatMetadata(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(raw)
}
