package ftparchive

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFiles(t *testing.T) {
	names := []string{
		"BOLETIM_FORTALEZA_2019_12.pdf",
		"boletim_fortaleza_2019_03.PDF",
		"BOLETIM_CAUCAIA_2019_03.pdf",
		"BOLETIM_FORTALEZA_2019_04.docx",
		"leiame.txt",
	}

	assert.Equal(t, []string{
		"BOLETIM_FORTALEZA_2019_12.pdf",
		"boletim_fortaleza_2019_03.PDF",
	}, SelectFiles(names, "FORTALEZA"))

	assert.Len(t, SelectFiles(names, ""), 3)
	assert.Empty(t, SelectFiles(nil, "FORTALEZA"))
}

func TestLink(t *testing.T) {
	tests := []struct {
		addr, dir, name, want string
	}{
		{"ftp.example.test:21", "/boletins/2019", "B 01.pdf", "ftp://ftp.example.test/boletins/2019/B%2001.pdf"},
		{"ftp.example.test:2121", "boletins", "b.pdf", "ftp://ftp.example.test:2121/boletins/b.pdf"},
		{"ftp.example.test", "/", "b.pdf", "ftp://ftp.example.test/b.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Link(tt.addr, tt.dir, tt.name))
		})
	}
}

func TestSource_FetchUnreachable(t *testing.T) {
	s := NewSource(Config{Addr: "127.0.0.1:1", Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp dial")
}
