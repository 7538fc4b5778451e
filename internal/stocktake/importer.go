package stocktake

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gutterguard/inventory/internal/domain"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "(", "", ")", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// columnAliases maps normalised header names onto entry fields.
var columnAliases = map[string]string{
	"id":       "id",
	"itemid":   "id",
	"category": "category",
	"type":     "type",
	"typename": "type_name",
	"name":     "type_name",
	"colour":   "colour",
	"color":    "colour",
	"widthmm":  "width_mm",
	"width":    "width_mm",
	"lengthm":  "length_m",
	"length":   "length_m",
	"unit":     "unit",
	"quantity": "quantity",
	"qty":      "quantity",
	"count":    "quantity",
}

type columns map[string]int

func colIndex(header []string) (columns, error) {
	idx := make(columns)
	for i, h := range header {
		if field, ok := columnAliases[normalizeColumnName(h)]; ok {
			if _, dup := idx[field]; !dup {
				idx[field] = i
			}
		}
	}
	for _, required := range []string{"category", "quantity"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: missing %q column", domain.ErrInvalidInput, required)
		}
	}
	return idx, nil
}

func (c columns) get(row []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseRows turns a header plus rows into entries. Rows with an empty
// quantity were not counted and are skipped.
func parseRows(source string, rows [][]string) ([]Entry, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols, err := colIndex(rows[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var entries []Entry
	for n, row := range rows[1:] {
		line := n + 2
		qtyText := cols.get(row, "quantity")
		if qtyText == "" {
			continue
		}
		qty, err := parseCount(qtyText)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, line, err)
		}
		category, err := ParseCategory(cols.get(row, "category"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, line, err)
		}

		e := Entry{
			Item: Item{
				ID:       cols.get(row, "id"),
				Category: category,
				Type:     cols.get(row, "type"),
				TypeName: cols.get(row, "type_name"),
				Colour:   cols.get(row, "colour"),
				Unit:     cols.get(row, "unit"),
			},
			Quantity: qty,
		}
		if v := cols.get(row, "width_mm"); v != "" {
			if e.WidthMM, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("%s line %d: %w: width %q", source, line, domain.ErrInvalidInput, v)
			}
		}
		if v := cols.get(row, "length_m"); v != "" {
			if e.LengthM, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("%s line %d: %w: length %q", source, line, domain.ErrInvalidInput, v)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// parseCount accepts whole numbers, including spreadsheet style "12.0".
func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: count %d", domain.ErrInvalidQuantity, n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: count %q is not a whole number", domain.ErrInvalidInput, s)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: count %q", domain.ErrInvalidQuantity, s)
	}
	return int(f), nil
}

func ParseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows("csv", rows)
}

// ParseXLSX reads every sheet of a workbook; each sheet has its own header.
func ParseXLSX(r io.Reader) ([]Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	var entries []Entry
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
		}
		got, err := parseRows(sheet, rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, got...)
	}
	return entries, nil
}

// Parse picks the parser from the extension of name.
func Parse(name string, r io.Reader) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	}
	return nil, fmt.Errorf("%w: unsupported count sheet %s", domain.ErrInvalidInput, filepath.Base(name))
}

func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(path, file)
}

// ImportFiles parses count sheets concurrently and returns their entries in
// the order the paths were given.
func ImportFiles(ctx context.Context, paths []string) ([]Entry, error) {
	if len(paths) == 0 {
		return nil, errors.New("no count sheets given")
	}

	results := make([][]Entry, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, err := ParseFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			log.Debug().Str("file", path).Int("entries", len(entries)).Msg("stocktake: parsed count sheet")
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Entry
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
