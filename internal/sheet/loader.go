package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"certsender/internal/normalize"
)

// headerScanRows is how many leading rows the fallback scans for a header.
const headerScanRows = 8

// Table holds one loaded sheet: the header row used for mapping plus the
// data rows below it.
type Table struct {
	Header []string
	Rows   [][]string
}

// Error represents a spreadsheet read failure (FILE_READ).
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sheet error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("sheet error for %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Load reads the first sheet of the workbook at path and infers the column
// mapping. Headers are assumed to be on the first row; when that leaves a
// role unresolved, the first rows are scanned for a row whose cells look like
// a header (name and last-name keywords together, or a phone keyword) and the
// sheet is re-sliced from there. If no header row is found the best-effort
// first-row load is returned as-is.
func Load(path string) (*Table, Mapping, error) {
	raw, err := readRows(path)
	if err != nil {
		return nil, NewMapping(), err
	}
	if len(raw) == 0 {
		return nil, NewMapping(), &Error{Path: path, Message: "sheet is empty"}
	}

	table := sliceAt(raw, 0)
	mapping := MapColumns(table.Header, table.Rows)
	if mapping.Complete() {
		return table, mapping, nil
	}

	if r, ok := findHeaderRow(raw); ok {
		table = sliceAt(raw, r)
		mapping = MapColumns(table.Header, table.Rows)
	}

	return table, mapping, nil
}

func readRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "failed to open workbook", Cause: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &Error{Path: path, Message: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &Error{Path: path, Message: "failed to read rows", Cause: err}
	}
	return rows, nil
}

// sliceAt treats raw[headerRow] as the header and everything below as data.
func sliceAt(raw [][]string, headerRow int) *Table {
	t := &Table{Header: raw[headerRow]}
	if headerRow+1 < len(raw) {
		t.Rows = raw[headerRow+1:]
	}
	return t
}

// findHeaderRow scans the first headerScanRows rows for one whose normalized
// cells collectively contain name and last-name keywords, or a phone keyword.
func findHeaderRow(raw [][]string) (int, bool) {
	limit := min(headerScanRows, len(raw))
	for r := 0; r < limit; r++ {
		hasName, hasLast, hasPhone := false, false, false
		for _, cell := range raw[r] {
			nc := normalize.Key(cell)
			if nc == "" {
				continue
			}
			hasName = hasName || headerMatches(RoleName, nc)
			hasLast = hasLast || headerMatches(RoleLastName, nc)
			hasPhone = hasPhone || headerMatches(RolePhone, nc)
		}
		if (hasName && hasLast) || hasPhone {
			return r, true
		}
	}
	return 0, false
}

// Cell returns row[col], tolerating ragged rows and unresolved columns.
func Cell(row []string, col int) string {
	if col == Unresolved || col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
