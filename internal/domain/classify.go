package domain

import "strings"

// ExtractPointCode returns the upper-cased first three characters of the
// trimmed point name.
func ExtractPointCode(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToUpper(string(r))
}

// ClassifyZone returns the first zone whose keyword occurs anywhere in the
// normalized name, or [ZoneUnknown].
func (l *Lookups) ClassifyZone(name string) string {
	n := normalizeForMatch(name)
	for _, g := range l.Zones {
		for _, k := range g.Keywords {
			if strings.Contains(n, k) {
				return g.Name
			}
		}
	}
	return ZoneUnknown
}

// Enrich derives code, zone, label and coordinates for a row.
func (l *Lookups) Enrich(row PointStatusRow) PointRecord {
	code := ExtractPointCode(row.PointName)
	lat, lon := l.Coordinate(code)
	return PointRecord{
		PointStatusRow: row,
		PointCode:      code,
		Zone:           l.ClassifyZone(row.PointName),
		StatusLabel:    StatusLabel(row.StatusCode),
		Latitude:       lat,
		Longitude:      lon,
	}
}
