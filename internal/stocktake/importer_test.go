package stocktake

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gutterguard/inventory/internal/domain"
)

const countedCSV = `Category,Item ID,Colour,Width (mm),Length-M,Qty
screws,screw_basalt,Basalt,,,4
screws,screw_dune,Dune,,,
mesh_4mm,mesh_4mm_250_10_monument,Monument,250,10,12.0
trims,trim_surfmist,Surfmist,,,0
`

func TestParseCSV(t *testing.T) {
	entries, err := ParseCSV(strings.NewReader(countedCSV))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, CategoryScrews, entries[0].Category)
	assert.Equal(t, "screw_basalt", entries[0].ID)
	assert.Equal(t, 4, entries[0].Quantity)

	assert.Equal(t, CategoryMesh4mm, entries[1].Category)
	assert.Equal(t, 250, entries[1].WidthMM)
	assert.Equal(t, 10.0, entries[1].LengthM)
	assert.Equal(t, 12, entries[1].Quantity)

	assert.Zero(t, entries[2].Quantity)
}

func TestParseCSV_Rejects(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want error
	}{
		{"missing quantity column", "category,colour\nscrews,Basalt\n", domain.ErrInvalidInput},
		{"negative count", "category,colour,quantity\nscrews,Basalt,-1\n", domain.ErrInvalidQuantity},
		{"fractional count", "category,colour,quantity\nscrews,Basalt,1.5\n", domain.ErrInvalidInput},
		{"unknown category", "category,colour,quantity\ncoils,Basalt,3\n", domain.ErrUnknownCategory},
		{"bad width", "category,colour,width_mm,quantity\nmesh_2mm,Basalt,wide,3\n", domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.csv))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func writeCountedXLSX(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"category", "type", "quantity"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"boxes", "small_tube", 30}))
	_, err := f.NewSheet("Trims")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Trims", "A1", &[]any{"colour", "category", "count"}))
	require.NoError(t, f.SetSheetRow("Trims", "A2", &[]any{"Monument", "trims", 120}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseXLSX_AllSheets(t *testing.T) {
	entries, err := ParseXLSX(bytes.NewReader(writeCountedXLSX(t)))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "small_tube", entries[0].Type)
	assert.Equal(t, 30, entries[0].Quantity)
	assert.Equal(t, "Monument", entries[1].Colour)
	assert.Equal(t, 120, entries[1].Quantity)
}

func TestImportFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "screws.csv")
	xlsxPath := filepath.Join(dir, "boxes.xlsx")
	require.NoError(t, os.WriteFile(csvPath, []byte(countedCSV), 0o644))
	require.NoError(t, os.WriteFile(xlsxPath, writeCountedXLSX(t), 0o644))

	entries, err := ImportFiles(context.Background(), []string{csvPath, xlsxPath})
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, CategoryScrews, entries[0].Category)
	assert.Equal(t, CategoryTrims, entries[4].Category)

	_, err = ImportFiles(context.Background(), []string{filepath.Join(dir, "notes.txt")})
	assert.Error(t, err)
}
