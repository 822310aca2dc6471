package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/csvfile"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
)

func exported(t *testing.T, records []domain.Record) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, csvfile.Write(&buf, records, true))
	return buf.String()
}

func goodRecord(day, name string) domain.Record {
	lat, lon := -3.719848, -38.516272
	return domain.Record{
		PointCode:   domain.ExtractPointCode(name),
		CollectedOn: day,
		PointName:   name,
		Zone:        "Centro",
		Status:      domain.StatusLabel(domain.StatusFit),
		Latitude:    &lat,
		Longitude:   &lon,
		BulletinNo:  "12",
		ExtractedAt: "2024-03-04 09:00:00",
	}
}

func TestValidate_CleanExport(t *testing.T) {
	data := exported(t, []domain.Record{
		goodRecord("2024-03-01", "Iracema"),
		goodRecord("2024-03-01", "Meireles"),
		goodRecord("2024-03-02", "Iracema"),
	})

	n, phases, err := validate(strings.NewReader(data), domain.DefaultLookups())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, p := range phases {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestValidate_ReportsViolations(t *testing.T) {
	bad := goodRecord("01/03/2024", "Iracema")
	bad.PointCode = "XYZ"
	bad.Status = "talvez"
	bad.Zone = "Norte"
	bad.ExtractedAt = "2024-03-04T09:00:00Z"

	data := exported(t, []domain.Record{bad, goodRecord("2024-03-02", "Meireles"), goodRecord("2024-03-02", "Meireles")})
	data = strings.Replace(data, "-3.719848000000000", "-3.72", 1)

	_, phases, err := validate(strings.NewReader(data), domain.DefaultLookups())
	require.NoError(t, err)
	require.Len(t, phases, 3)

	assert.True(t, phases[0].passed())
	fields := strings.Join(phases[1].errors, "\n")
	for _, want := range []string{"data_coleta", "data_extracao", "unknown status", "unknown zona", "id_ponto", "latitude"} {
		assert.Contains(t, fields, want)
	}
	require.Len(t, phases[2].errors, 1)
	assert.Contains(t, phases[2].errors[0], "line 4: duplicates line 3")
}

func TestValidate_WrongHeader(t *testing.T) {
	_, phases, err := validate(strings.NewReader("data_coleta,id_ponto\n"), domain.DefaultLookups())
	require.NoError(t, err)
	assert.False(t, phases[0].passed())
}

func TestValidate_EmptyFile(t *testing.T) {
	_, _, err := validate(strings.NewReader(""), domain.DefaultLookups())
	assert.Error(t, err)
}
