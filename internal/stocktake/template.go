package stocktake

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/gutterguard/inventory/internal/config"
)

var templateHeader = []any{"id", "category", "type", "type_name", "colour", "width_mm", "length_m", "unit", "quantity"}

// WriteTemplate writes an XLSX count sheet with one tab per category and an
// empty quantity column. With no categories every section is included.
func WriteTemplate(w io.Writer, cat *config.Catalog, categories ...Category) error {
	if len(categories) == 0 {
		categories = Categories()
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, c := range categories {
		items, err := Items(cat, c)
		if err != nil {
			return err
		}
		sheet := c.Name()
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		if err := f.SetSheetRow(sheet, "A1", &templateHeader); err != nil {
			return fmt.Errorf("write header for %s: %w", sheet, err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("style header for %s: %w", sheet, err)
		}
		for r, it := range items {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			row := []any{it.ID, string(it.Category), it.Type, it.TypeName, it.Colour, blankInt(it.WidthMM), blankFloat(it.LengthM), it.Unit, ""}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, r+2, err)
			}
		}
		if err := f.SetColWidth(sheet, "A", "A", 34); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "D", "E", 22); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}

func blankInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func blankFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
