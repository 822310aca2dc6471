// Package csvfile appends bulletin records to a CSV export.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
)

// bom marks the file as UTF-8 for spreadsheet tools.
const bom = "\ufeff"

// Writer appends records to a CSV file, writing the header only when the file
// is new or empty. It implements pipeline.Loader.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter creates a Writer for path. The file is created on first load.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Load appends the bulletin's records.
func (w *Writer) Load(_ context.Context, b domain.Bulletin) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat csv: %w", err)
	}

	werr := Write(f, b.Records, info.Size() == 0)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Write renders records in the fixed column order. With header set, the BOM
// and header row are written first, even when records is empty.
func Write(w io.Writer, records []domain.Record, header bool) error {
	if header {
		if _, err := io.WriteString(w, bom); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(domain.Columns); err != nil {
			return err
		}
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
