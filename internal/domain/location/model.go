package location

import "strings"

// Location is the canonical sports venue merged from the map markers and
// the two menu-derived sources. Name is the natural key. Fields that a
// source did not provide stay nil.
type Location struct {
	Name       string
	Latitude   *float64
	Longitude  *float64
	DetailLink *string
	InternalID *string
	Sports     []string
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// NormalizeName is the comparison form used by fuzzy matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
