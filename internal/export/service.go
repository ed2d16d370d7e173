// Package export renders ledger rows as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// SheetName is the single sheet every export writes.
const SheetName = "Orders"

// Service produces XLSX bytes for a batch snapshot.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Headers returns the column titles: the document name then one column per field.
func Headers() []string {
	order := constants.FieldOrder()
	out := make([]string, 0, len(order)+1)
	out = append(out, "Document")
	for _, k := range order {
		out = append(out, k.Label())
	}
	return out
}

// RowsXLSX writes rows in order. Quantities that parse as decimals are stored
// as numbers; every other value is written exactly as held in the ledger.
func (s *Service) RowsXLSX(ctx context.Context, customerCode string, rows []entity.Row) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if _, err := f.NewSheet(SheetName); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	headers := Headers()
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(SheetName, "A1", last, bold)

	order := constants.FieldOrder()
	for r, row := range rows {
		line := r + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, line)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, row.DocumentName)
		for c, k := range order {
			v := row.Fields[k]
			if k == constants.FieldQuantity {
				if d, err := decimal.NewFromString(v); err == nil {
					cell, _ := excelize.CoordinatesToCellName(c+2, line)
					_ = f.SetCellFloat(SheetName, cell, d.InexactFloat64(), -1, 64)
					continue
				}
			}
			write(c+2, v)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 32) // document
	_ = f.SetColWidth(SheetName, "B", "C", 28) // customer, ship-to
	_ = f.SetColWidth(SheetName, "D", "F", 16)
	_ = f.SetColWidth(SheetName, "G", "H", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"customer", customerCode,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
