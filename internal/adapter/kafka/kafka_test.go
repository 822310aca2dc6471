package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
)

func testRecord() domain.Record {
	lat, lon := -3.719848, -38.516272
	return domain.Record{
		PointCode:   "IRA",
		CollectedOn: "2024-03-01",
		PointName:   "Iracema",
		Zone:        "Centro",
		Status:      "Própria para banho",
		Latitude:    &lat,
		Longitude:   &lon,
		BulletinNo:  "12",
		Link:        "https://www.semace.ce.gov.br/b12.pdf",
		ExtractedAt: "2024-03-04 09:15:30",
	}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(testRecord(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, []byte("12|IRA|2024-03-01"), msg.Key)
	assert.JSONEq(t, `{
		"id_ponto": "IRA",
		"data_coleta": "2024-03-01",
		"nome_praia": "Iracema",
		"zona": "Centro",
		"status": "Própria para banho",
		"latitude": -3.719848,
		"longitude": -38.516272,
		"numero_boletim": "12",
		"link_boletim": "https://www.semace.ce.gov.br/b12.pdf",
		"data_extracao": "2024-03-04 09:15:30"
	}`, string(msg.Value))

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "numero_boletim", msg.Headers[0].Key)
	assert.Equal(t, []byte("12"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[1].Value)
	assert.Equal(t, "data_extracao", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-03-04 09:15:30"), msg.Headers[2].Value)
}

func TestSerializeToMessage_NullCoordinates(t *testing.T) {
	r := testRecord()
	r.Latitude, r.Longitude = nil, nil

	msg, err := serializeToMessage(r, "")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Contains(t, decoded, "latitude")
	assert.Nil(t, decoded["latitude"])
	assert.Nil(t, decoded["longitude"])
}

func TestWriter_LoadEmptyBulletinIsNoop(t *testing.T) {
	w := NewWriter([]string{"127.0.0.1:1"}, "beach-water-quality", slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.NoError(t, w.Load(context.Background(), domain.Bulletin{Skip: domain.SkipNoRows}))
}
