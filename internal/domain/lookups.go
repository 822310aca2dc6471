package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lookups.yaml
var defaultLookupsYAML []byte

// ZoneUnknown is assigned when no zone keyword matches.
const ZoneUnknown = "Desconhecida"

// ZoneGroup is one zone label and the keywords that select it.
type ZoneGroup struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Lookups holds the static tables used for enrichment. A loaded Lookups is
// never mutated and may be shared across goroutines.
type Lookups struct {
	Coordinates map[string]string `yaml:"coordinates"`
	Zones       []ZoneGroup       `yaml:"zones"`
}

// LoadLookups decodes lookup tables from YAML and normalizes zone keywords so
// they compare against accent-stripped, lower-cased names.
func LoadLookups(r io.Reader) (*Lookups, error) {
	var l Lookups
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("decode lookups: %w", err)
	}
	for i, g := range l.Zones {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("decode lookups: zone %d has no name", i)
		}
		keywords := make([]string, 0, len(g.Keywords))
		for _, k := range g.Keywords {
			if k = normalizeForMatch(k); k != "" {
				keywords = append(keywords, k)
			}
		}
		l.Zones[i].Keywords = keywords
	}
	if l.Coordinates == nil {
		l.Coordinates = map[string]string{}
	}
	return &l, nil
}

// LoadLookupsFile reads lookup tables from path.
func LoadLookupsFile(path string) (*Lookups, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lookups: %w", err)
	}
	defer f.Close()
	return LoadLookups(f)
}

// DefaultLookups returns the embedded Fortaleza tables.
func DefaultLookups() *Lookups {
	l, err := LoadLookups(bytes.NewReader(defaultLookupsYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded lookups: %v", err))
	}
	return l
}

// Coordinate resolves a point code to latitude and longitude. Missing or
// malformed entries yield nil values.
func (l *Lookups) Coordinate(code string) (lat, lon *float64) {
	raw, ok := l.Coordinates[code]
	if !ok {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	lat = parseCoordinate(parts[0])
	if len(parts) > 1 {
		lon = parseCoordinate(parts[1])
	}
	return lat, lon
}

func parseCoordinate(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func normalizeForMatch(s string) string {
	return strings.TrimSpace(StripAccents(strings.ToLower(s)))
}
