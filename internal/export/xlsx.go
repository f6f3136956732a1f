package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheetName = "Export"

type xlsxExporter struct{}

// NewXLSXExporter creates the spreadsheet exporter. It is registered only
// when the spreadsheet capability is enabled in configuration.
func NewXLSXExporter() Exporter {
	return &xlsxExporter{}
}

func (e *xlsxExporter) Format() string { return "xlsx" }

func (e *xlsxExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *xlsxExporter) Extension() string { return "xlsx" }

// Write emits a workbook with a bold header row and one row per record
func (e *xlsxExporter) Write(w io.Writer, records []*Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	columns := columnsFor(records)

	if len(columns) > 0 {
		headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}

		for col, name := range columns {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return fmt.Errorf("failed to resolve header cell: %w", err)
			}
			if err := f.SetCellValue(xlsxSheetName, cell, name); err != nil {
				return fmt.Errorf("failed to write header cell: %w", err)
			}
			if err := f.SetCellStyle(xlsxSheetName, cell, cell, headerStyle); err != nil {
				return fmt.Errorf("failed to style header cell: %w", err)
			}
		}

		for rowIdx, record := range records {
			for col, name := range columns {
				cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				if err != nil {
					return fmt.Errorf("failed to resolve cell: %w", err)
				}
				if err := f.SetCellValue(xlsxSheetName, cell, record.Get(name)); err != nil {
					return fmt.Errorf("failed to write cell: %w", err)
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}
