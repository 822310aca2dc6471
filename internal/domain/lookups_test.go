package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLookups(t *testing.T) {
	l := DefaultLookups()

	require.Len(t, l.Zones, 3)
	assert.Equal(t, "Leste", l.Zones[0].Name)
	assert.Equal(t, "Centro", l.Zones[1].Name)
	assert.Equal(t, "Oeste", l.Zones[2].Name)
	assert.NotNil(t, l.Coordinates)
	assert.Empty(t, l.Coordinates)
}

func TestLoadLookups(t *testing.T) {
	t.Run("keywords normalized", func(t *testing.T) {
		l, err := LoadLookups(strings.NewReader(`
zones:
  - name: Norte
    keywords: ["  Caça ", "", "Ceará"]
`))
		require.NoError(t, err)
		require.Len(t, l.Zones, 1)
		assert.Equal(t, []string{"caca", "ceara"}, l.Zones[0].Keywords)
		assert.NotNil(t, l.Coordinates)
		assert.Equal(t, "Norte", l.ClassifyZone("Praia do Ceará"))
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := LoadLookups(strings.NewReader("zonas: []\n"))
		assert.Error(t, err)
	})

	t.Run("zone without name", func(t *testing.T) {
		_, err := LoadLookups(strings.NewReader("zones:\n  - keywords: [a]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "zone 0 has no name")
	})
}

func TestLoadLookupsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookups.yaml")
	require.NoError(t, os.WriteFile(path, []byte("coordinates:\n  ABC: \"1.5,2.5\"\n"), 0o600))

	l, err := LoadLookupsFile(path)
	require.NoError(t, err)
	lat, lon := l.Coordinate("ABC")
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, 1.5, *lat)
	assert.Equal(t, 2.5, *lon)

	_, err = LoadLookupsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCoordinate(t *testing.T) {
	l := &Lookups{Coordinates: map[string]string{
		"OK":  "-3.7, -38.5",
		"BAD": "north,south",
		"LAT": "-3.7",
		"HAF": "x,-38.5",
	}}

	tests := []struct {
		name   string
		code   string
		latNil bool
		lonNil bool
	}{
		{"valid", "OK", false, false},
		{"unparseable", "BAD", true, true},
		{"latitude only", "LAT", false, true},
		{"bad latitude", "HAF", true, false},
		{"missing", "NOPE", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := l.Coordinate(tt.code)
			assert.Equal(t, tt.latNil, lat == nil)
			assert.Equal(t, tt.lonNil, lon == nil)
		})
	}
}
