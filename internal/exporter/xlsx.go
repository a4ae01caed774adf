package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"plapulse/internal/dataset"
)

// xlsxSheet is the single sheet name used for workbook exports.
const xlsxSheet = "Records"

// WriteXLSX writes records as a single-sheet workbook in canonical column
// order. Indicator cells carry the raw source text, same as the CSV form.
func WriteXLSX(w io.Writer, schema dataset.Schema, records []dataset.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := schema.Columns()
	row := make([]interface{}, len(header))
	for i, name := range header {
		row[i] = name
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		row = row[:0]
		row = append(row, rec.Date.String())
		for _, field := range schema.Metrics {
			row = append(row, rec.Metrics[field.Name])
		}
		for _, field := range schema.Indicators {
			row = append(row, rec.Indicators[field.Name].Raw)
		}
		for _, field := range schema.Texts {
			row = append(row, rec.Texts[field.Name])
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("write record %s: %w", rec.Date, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
