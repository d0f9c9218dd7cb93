// Package sheet loads recipient spreadsheets and infers which columns hold
// names and phone numbers, tolerating messy or inconsistently labeled files.
package sheet

import (
	"strings"

	"certsender/internal/normalize"
	"certsender/internal/phone"
)

// Role identifies a logical column the pipeline needs.
type Role int

const (
	RoleName Role = iota
	RoleLastName
	RolePhone
)

func (r Role) String() string {
	switch r {
	case RoleName:
		return "NAME"
	case RoleLastName:
		return "LAST_NAME"
	case RolePhone:
		return "PHONE"
	}
	return "UNKNOWN"
}

// Unresolved is the sentinel column index for a role no column was found for.
// "No column" is a first-class state, not a nil.
const Unresolved = -1

// Mapping assigns a column index to each logical role. At most one column is
// assigned per role.
type Mapping struct {
	Name     int
	LastName int
	Phone    int
}

// NewMapping returns a mapping with every role unresolved.
func NewMapping() Mapping {
	return Mapping{Name: Unresolved, LastName: Unresolved, Phone: Unresolved}
}

// Column returns the column index assigned to role.
func (m Mapping) Column(role Role) int {
	switch role {
	case RoleName:
		return m.Name
	case RoleLastName:
		return m.LastName
	case RolePhone:
		return m.Phone
	}
	return Unresolved
}

// Complete reports whether all three roles resolved.
func (m Mapping) Complete() bool {
	return m.Name != Unresolved && m.LastName != Unresolved && m.Phone != Unresolved
}

// UnresolvedRoles lists the roles no column could be inferred for.
func (m Mapping) UnresolvedRoles() []Role {
	var roles []Role
	for _, role := range []Role{RoleName, RoleLastName, RolePhone} {
		if m.Column(role) == Unresolved {
			roles = append(roles, role)
		}
	}
	return roles
}

// roleKeywords is the ranked keyword table per role. A header qualifies when
// its normalized text contains any keyword; within a role the first matching
// column in column order wins.
var roleKeywords = map[Role][]string{
	RoleName:     {"NOMB", "NOMBRE", "NAME"},
	RoleLastName: {"APELL", "APELLIDO", "LAST"},
	RolePhone:    {"TEL", "CEL", "NUM", "PHONE"},
}

// roleOrder is the assignment order for MapColumns.
var roleOrder = []Role{RoleName, RoleLastName, RolePhone}

const (
	// sniffSample is how many non-empty values per column content sniffing inspects.
	sniffSample = 40
	// sniffMinDigits and sniffMaxDigits bound plausible phone digit counts.
	sniffMinDigits = 6
	sniffMaxDigits = 13
	// sniffRatio is the minimum share of sampled values that must look like phones.
	sniffRatio = 0.5
)

// headerMatches reports whether a normalized header cell matches role.
func headerMatches(role Role, normalizedHeader string) bool {
	if normalizedHeader == "" {
		return false
	}
	for _, kw := range roleKeywords[role] {
		if strings.Contains(normalizedHeader, kw) {
			return true
		}
	}
	return false
}

// MapColumns infers the column for each role from the header row, falling
// back to content sniffing for the phone role when no header matches. Rows
// may be nil when only header matching is wanted.
func MapColumns(header []string, rows [][]string) Mapping {
	m := NewMapping()

	normalized := make([]string, len(header))
	for i, cell := range header {
		normalized[i] = normalize.Key(cell)
	}

	used := make(map[int]bool, len(roleOrder))
	for _, role := range roleOrder {
		for col, nc := range normalized {
			if used[col] {
				continue
			}
			if headerMatches(role, nc) {
				m.assign(role, col)
				used[col] = true
				break
			}
		}
	}

	if m.Phone == Unresolved {
		if col := SniffPhoneColumn(rows, len(header)); col != Unresolved {
			m.Phone = col
		}
	}

	return m
}

func (m *Mapping) assign(role Role, col int) {
	switch role {
	case RoleName:
		m.Name = col
	case RoleLastName:
		m.LastName = col
	case RolePhone:
		m.Phone = col
	}
}

// SniffPhoneColumn scans each column's first values and returns the first
// column where at least half of the sampled non-empty values have a
// phone-like digit count. Columns with no sampled values never qualify.
func SniffPhoneColumn(rows [][]string, width int) int {
	for col := 0; col < width; col++ {
		if columnLooksLikePhones(rows, col) {
			return col
		}
	}
	return Unresolved
}

func columnLooksLikePhones(rows [][]string, col int) bool {
	checked, qualified := 0, 0
	for _, row := range rows {
		if checked >= sniffSample {
			break
		}
		if col >= len(row) || row[col] == "" {
			continue
		}
		checked++
		n := len(phone.Digits(row[col]))
		if n >= sniffMinDigits && n <= sniffMaxDigits {
			qualified++
		}
	}
	if checked == 0 {
		return false
	}
	return float64(qualified)/float64(checked) >= sniffRatio
}
