// Package export renders the audit log as delimited files for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ttakeda/budgetbot/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var columns = []string{
	"requester", "item", "link", "unit_price", "quantity",
	"amount", "decision", "approver", "budget", "decided_at",
}

// Exporter writes audit records as CSV or XLSX.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new Exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// WriteCSV writes a header row followed by one row per record.
func (e *Exporter) WriteCSV(w io.Writer, records []*entity.AuditRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write record %d: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the records to a single-sheet workbook.
func (e *Exporter) WriteXLSX(w io.Writer, records []*entity.AuditRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}

	for rowIdx, r := range records {
		values := []interface{}{
			r.Requester, r.ItemName, r.ItemLink, r.UnitPrice, r.Quantity,
			r.Amount, r.Decision, r.Approver, r.BudgetName,
			r.DecidedAt.Format(time.RFC3339),
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	e.logger.Info("Audit log exported", zap.Int("records", len(records)))
	return nil
}

func row(r *entity.AuditRecord) []string {
	return []string{
		r.Requester,
		r.ItemName,
		r.ItemLink,
		strconv.FormatInt(r.UnitPrice, 10),
		strconv.FormatInt(r.Quantity, 10),
		strconv.FormatInt(r.Amount, 10),
		r.Decision,
		r.Approver,
		r.BudgetName,
		r.DecidedAt.Format(time.RFC3339),
	}
}
