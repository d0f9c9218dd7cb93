// Package reconcile joins spreadsheet rows against the certificate file
// index into a unified recipient list.
package reconcile

import (
	"os"
	"strings"

	"certsender/internal/match"
	"certsender/internal/normalize"
	"certsender/internal/phone"
	"certsender/internal/sheet"
	"certsender/internal/types"
)

// Collision records a file-side join-key duplicate. Policy: the first file
// seen for a key is kept, later ones are reported and skipped.
type Collision struct {
	Key     string
	Kept    string
	Dropped string
}

// Result is the output of one Combine pass. Each pass fully replaces the
// previous recipient list; there is no incremental diffing.
type Result struct {
	Recipients []types.Recipient
	Collisions []Collision
}

// FoundCount returns how many recipients have a verified certificate.
func (r *Result) FoundCount() int {
	n := 0
	for _, rec := range r.Recipients {
		if rec.Found {
			n++
		}
	}
	return n
}

// Combine builds one Recipient per data row: the row's name columns produce
// the normalized join key, the phone column is formatted, and the key is
// left-joined against the certificate entries. Found is set only when the
// matched file still exists on disk at combine time, and new recipients are
// selected exactly when found.
func Combine(table *sheet.Table, mapping sheet.Mapping, entries []match.Entry) *Result {
	res := &Result{}

	index := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		if kept, dup := index[e.Key]; dup {
			res.Collisions = append(res.Collisions, Collision{Key: e.Key, Kept: kept, Dropped: e.Path})
			continue
		}
		index[e.Key] = e.Path
	}

	for _, row := range table.Rows {
		first := sheet.Cell(row, mapping.Name)
		last := sheet.Cell(row, mapping.LastName)
		rawPhone := sheet.Cell(row, mapping.Phone)

		key := normalize.JoinKey(first, last)
		path := ""
		if key != "" {
			path = index[key]
		}
		found := path != "" && fileExists(path)
		if !found {
			// A matched but since-deleted file is not-found, not a stale match.
			path = ""
		}

		display := strings.TrimSpace(first + " " + last)
		if display == "" {
			display = key
		}

		res.Recipients = append(res.Recipients, types.Recipient{
			FirstName: first,
			LastName:  last,
			RawPhone:  rawPhone,
			Phone:     phone.Format(rawPhone),
			Key:       key,
			FilePath:  path,
			Found:     found,
			Display:   display,
			Selected:  found,
		})
	}

	return res
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
