package delivery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SnapshotMatch scans an HTML snapshot and returns the first locator in the
// chain that matches at least one element. This narrows a fallback chain to
// selectors that exist at all before any live visibility check is paid, and
// keeps selector evaluation testable without a browser.
func SnapshotMatch(html string, locs []Locator) (Locator, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Locator{}, false
	}
	for _, loc := range locs {
		if doc.Find(loc.Query).Length() > 0 {
			return loc, true
		}
	}
	return Locator{}, false
}

// SnapshotFilter returns the locators from the chain that match at least one
// element in the snapshot, preserving chain order.
func SnapshotFilter(html string, locs []Locator) []Locator {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var present []Locator
	for _, loc := range locs {
		if doc.Find(loc.Query).Length() > 0 {
			present = append(present, loc)
		}
	}
	return present
}
