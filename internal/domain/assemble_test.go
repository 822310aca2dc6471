package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testHeader = "GOVERNO DO ESTADO DO CEARÁ SEMACE Boletim Nº 12 Período: 01/03/2024 a 03/03/2024 Tipos de amostras: água do mar"
	testLink   = "https://www.semace.ce.gov.br/wp-content/uploads/boletim-12.pdf"
)

type fakeDocument struct {
	text      string
	textErr   error
	tables    []Table
	tablesErr error
}

func (d fakeDocument) FirstPageText() (string, error) { return d.text, d.textErr }
func (d fakeDocument) Tables() ([]Table, error)       { return d.tables, d.tablesErr }

func twoPointTables() []Table {
	return []Table{{
		{"Nome", "Status"},
		{"Iracema", "P"},
		{"Praia do Futuro", "I"},
	}}
}

func TestAssemble_EndToEnd(t *testing.T) {
	fixedTime := time.Date(2024, 3, 4, 9, 15, 30, 500, time.Local)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	a := NewAssembler(nil)
	b, err := a.Assemble(fakeDocument{text: testHeader, tables: twoPointTables()}, testLink)

	require.NoError(t, err)
	assert.False(t, b.Skipped())
	assert.Equal(t, SkipNone, b.Skip)
	assert.Equal(t, BulletinMetadata{Number: "12", PeriodRaw: "01/03/2024 a 03/03/2024"}, b.Metadata)
	assert.Equal(t, fixedTime, b.ExtractedAt)
	require.Len(t, b.Records, 6)

	days := []string{"2024-03-01", "2024-03-01", "2024-03-02", "2024-03-02", "2024-03-03", "2024-03-03"}
	for i, r := range b.Records {
		assert.Equal(t, days[i], r.CollectedOn)
		assert.Equal(t, "12", r.BulletinNo)
		assert.Equal(t, testLink, r.Link)
		assert.Equal(t, "2024-03-04 09:15:30", r.ExtractedAt)
	}

	iracema := b.Records[0]
	assert.Equal(t, "IRA", iracema.PointCode)
	assert.Equal(t, "Iracema", iracema.PointName)
	assert.Equal(t, "Centro", iracema.Zone)
	assert.Equal(t, "Própria para banho", iracema.Status)
	assert.Nil(t, iracema.Latitude)

	futuro := b.Records[1]
	assert.Equal(t, "PRA", futuro.PointCode)
	assert.Equal(t, "Praia do Futuro", futuro.PointName)
	assert.Equal(t, "Leste", futuro.Zone)
	assert.Equal(t, "Imprópria para banho", futuro.Status)
	assert.Nil(t, futuro.Latitude)
	assert.Nil(t, futuro.Longitude)
}

func TestAssemble_DefaultLink(t *testing.T) {
	b, err := NewAssembler(nil).Assemble(fakeDocument{text: testHeader, tables: twoPointTables()}, "")

	require.NoError(t, err)
	require.NotEmpty(t, b.Records)
	for _, r := range b.Records {
		assert.Empty(t, r.Link)
	}
}

func TestAssemble_InjectedLookups(t *testing.T) {
	l := &Lookups{
		Coordinates: map[string]string{"IRA": "1,2"},
		Zones:       []ZoneGroup{{Name: "Teste", Keywords: []string{"iracema"}}},
	}

	b, err := NewAssembler(l).Assemble(fakeDocument{text: testHeader, tables: twoPointTables()}, "")

	require.NoError(t, err)
	require.Len(t, b.Records, 6)
	assert.Equal(t, "Teste", b.Records[0].Zone)
	assert.Equal(t, ZoneUnknown, b.Records[1].Zone)
	require.NotNil(t, b.Records[0].Latitude)
	assert.Equal(t, 1.0, *b.Records[0].Latitude)
	assert.Same(t, l, NewAssembler(l).Lookups())
}

func TestAssemble_Skips(t *testing.T) {
	tests := []struct {
		name string
		doc  fakeDocument
		skip SkipReason
	}{
		{
			name: "metadata not found",
			doc:  fakeDocument{text: "Relatório sem cabeçalho", tables: twoPointTables()},
			skip: SkipNoMetadata,
		},
		{
			name: "no tables",
			doc:  fakeDocument{text: testHeader},
			skip: SkipNoRows,
		},
		{
			name: "only noise rows",
			doc:  fakeDocument{text: testHeader, tables: []Table{{{"Nome", "Status"}, {"Fonte: SEMACE", "P"}}}},
			skip: SkipNoRows,
		},
		{
			name: "period not expandable",
			doc:  fakeDocument{text: "Nº 12 Período: 03/03/2024 a 01/03/2024", tables: twoPointTables()},
			skip: SkipBadPeriod,
		},
		{
			name: "period garbage",
			doc:  fakeDocument{text: "Nº 12 Período: semana 9", tables: twoPointTables()},
			skip: SkipBadPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewAssembler(nil).Assemble(tt.doc, testLink)

			require.NoError(t, err)
			assert.True(t, b.Skipped())
			assert.Equal(t, tt.skip, b.Skip)
			assert.Empty(t, b.Records)
		})
	}
}

func TestAssemble_ExtractionErrors(t *testing.T) {
	boom := errors.New("corrupt xref table")

	t.Run("first page", func(t *testing.T) {
		_, err := NewAssembler(nil).Assemble(fakeDocument{textErr: boom}, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExtraction)
		assert.Contains(t, err.Error(), "corrupt xref table")
	})

	t.Run("tables", func(t *testing.T) {
		b, err := NewAssembler(nil).Assemble(fakeDocument{text: testHeader, tablesErr: boom}, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExtraction)
		assert.Equal(t, "12", b.Metadata.Number)
		assert.Empty(t, b.Records)
	})
}
