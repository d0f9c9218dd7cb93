package match

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Ana Lopez Diploma.pdf")
	touch(t, dir, "josé pérez.PDF")
	touch(t, dir, "notas.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	touch(t, filepath.Join(dir, "sub"), "Nested Person.pdf")

	entries, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "only top-level pdf files count")

	byKey := map[string]Entry{}
	for _, e := range entries {
		byKey[e.Key] = e
	}

	ana, ok := byKey["ANA LOPEZ"]
	require.True(t, ok)
	assert.Equal(t, "ANA", ana.FirstName)
	assert.Equal(t, "LOPEZ", ana.LastName)
	assert.Equal(t, filepath.Join(dir, "Ana Lopez Diploma.pdf"), ana.Path)

	_, ok = byKey["JOSE PEREZ"]
	assert.True(t, ok, "uppercase extension and diacritics still match")
}

func TestScan_MissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		filename string
		first    string
		last     string
	}{
		{"Ana Lopez Diploma.pdf", "ANA", "LOPEZ"},
		{"ÚNICA.pdf", "UNICA", ""},
		{"---.pdf", "", ""},
		{"maria-del-carmen quispe.pdf", "MARIA", "DEL"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			first, last := SplitName(tt.filename)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}

func TestSplitName_EmptyKeyMatchesNothing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "¡¡¡.pdf")

	entries, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].Key)
}
