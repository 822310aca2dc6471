package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValues(t *testing.T) {
	lat, lon := -3.719848, -38.516272
	r := Record{
		PointCode:   "IRA",
		CollectedOn: "2024-03-01",
		PointName:   "Iracema",
		Zone:        "Centro",
		Status:      "Própria para banho",
		Latitude:    &lat,
		Longitude:   &lon,
		BulletinNo:  "12",
		Link:        "http://x/b.pdf",
		ExtractedAt: "2024-03-04 09:15:30",
	}

	values := r.Values()

	require.Len(t, values, len(Columns))
	assert.Equal(t, "IRA", values[0])
	assert.Equal(t, "-3.719848000000000", values[5])
	assert.Equal(t, "-38.516272000000001", values[6])
	assert.Equal(t, "2024-03-04 09:15:30", values[9])
}

func TestFormatCoordinate(t *testing.T) {
	v := 12345.5

	assert.Empty(t, FormatCoordinate(nil))
	assert.Equal(t, "12345.500000000000000", FormatCoordinate(&v))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Própria para banho", StatusLabel(StatusFit))
	assert.Equal(t, "Imprópria para banho", StatusLabel(StatusUnfit))
	assert.Empty(t, StatusLabel("X"))
}
