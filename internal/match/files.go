// Package match derives name keys from certificate filenames so they can be
// joined against spreadsheet records.
package match

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"certsender/internal/normalize"
)

// Ext is the certificate file extension, compared case-insensitively.
const Ext = ".pdf"

// Entry is one certificate file with its derived join key.
type Entry struct {
	Key       string // normalized "FIRST LAST" key; empty keys match nothing
	Path      string
	FirstName string
	LastName  string
}

// Scan enumerates certificate files directly inside dir (non-recursive) and
// derives a join key from each basename: after normalization the first token
// is the first name and the second the last name; extra tokens are ignored.
func Scan(dir string) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan certificate directory %s: %w", dir, err)
	}

	var entries []Entry
	for _, item := range items {
		if item.IsDir() || !strings.EqualFold(filepath.Ext(item.Name()), Ext) {
			continue
		}
		first, last := SplitName(item.Name())
		entries = append(entries, Entry{
			Key:       normalize.JoinKey(first, last),
			Path:      filepath.Join(dir, item.Name()),
			FirstName: first,
			LastName:  last,
		})
	}
	return entries, nil
}

// SplitName extracts the first and last name tokens from a certificate
// filename. A basename yielding fewer tokens leaves the missing parts empty.
func SplitName(filename string) (first, last string) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	parts := strings.Fields(normalize.Key(base))
	switch {
	case len(parts) >= 2:
		return parts[0], parts[1]
	case len(parts) == 1:
		return parts[0], ""
	default:
		return "", ""
	}
}
