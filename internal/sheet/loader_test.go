package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook writes rows into a fresh xlsx file and returns its path.
func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, val))
		}
	}

	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad_HeadersOnFirstRow(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Nombres", "Apellidos", "Telefono"},
		{"Ana", "Lopez", "987654321"},
		{"Jose", "Perez", "912345678"},
	})

	table, mapping, err := Load(path)
	require.NoError(t, err)
	assert.True(t, mapping.Complete())
	assert.Equal(t, 0, mapping.Name)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, "Ana", Cell(table.Rows[0], mapping.Name))
}

func TestLoad_HeaderRowFallback(t *testing.T) {
	// Two junk rows before the real header at row index 2.
	path := writeWorkbook(t, [][]string{
		{"CERTIFICADOS 2024"},
		{""},
		{"Nombres", "Apellidos", "Celular"},
		{"Ana", "Lopez", "987654321"},
	})

	table, mapping, err := Load(path)
	require.NoError(t, err)
	assert.True(t, mapping.Complete())
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Ana", Cell(table.Rows[0], mapping.Name))
	assert.Equal(t, "987654321", Cell(table.Rows[0], mapping.Phone))
}

func TestLoad_HeaderBeyondScanWindow(t *testing.T) {
	// Header buried past the 8-row scan window: the best-effort first-row
	// load comes back with the mapping unresolved.
	rows := make([][]string, 0, 12)
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{"relleno"})
	}
	rows = append(rows, []string{"Nombres", "Apellidos", "Telefono"})
	rows = append(rows, []string{"Ana", "Lopez", "987654321"})
	path := writeWorkbook(t, rows)

	_, mapping, err := Load(path)
	require.NoError(t, err)
	assert.False(t, mapping.Complete())
}

func TestLoad_PhoneSniffWithoutHeaderKeyword(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Nombres", "Apellidos", "Contacto"},
		{"Ana", "Lopez", "987654321"},
		{"Jose", "Perez", "912345678"},
	})

	_, mapping, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, mapping.Phone)
}

func TestLoad_UnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a workbook"), 0o644))

	_, _, err := Load(path)
	require.Error(t, err)
	var sheetErr *Error
	assert.ErrorAs(t, err, &sheetErr)
	assert.Equal(t, path, sheetErr.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"))
	var sheetErr *Error
	assert.ErrorAs(t, err, &sheetErr)
}

func TestCell_Bounds(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, Unresolved))
}
