// Package pdf implements domain.Document on top of tabula for text and table
// extraction, with a pdfcpu validation pass before any parsing.
package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
)

// ErrNoPages is returned for a structurally valid PDF without pages.
var ErrNoPages = errors.New("pdf has no pages")

// Document is a bulletin PDF on disk. First-page text is read once and cached
// so metadata can be probed before the full assembly without parsing twice.
type Document struct {
	path  string
	pages int

	textOnce sync.Once
	text     string
	textErr  error
}

var _ domain.Document = (*Document)(nil)

// Open validates the file at path and returns a Document for it.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, pdfmodel.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.PageCount < 1 {
		return nil, ErrNoPages
	}
	return &Document{path: path, pages: ctx.PageCount}, nil
}

// OpenReader spools r to a temporary file and opens it. The returned cleanup
// removes the file and is safe to call when err is non-nil.
func OpenReader(r io.Reader) (doc *Document, cleanup func(), err error) {
	f, err := os.CreateTemp("", "boletim-*.pdf")
	if err != nil {
		return nil, func() {}, fmt.Errorf("create temp pdf: %w", err)
	}
	cleanup = func() { _ = os.Remove(f.Name()) }

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return nil, cleanup, fmt.Errorf("spool pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, cleanup, fmt.Errorf("spool pdf: %w", err)
	}

	doc, err = Open(f.Name())
	return doc, cleanup, err
}

// FirstPageText returns the plain text of page one.
func (d *Document) FirstPageText() (string, error) {
	d.textOnce.Do(func() {
		text, _, err := tabula.Open(d.path).Pages(1).Text()
		if err != nil {
			d.textErr = fmt.Errorf("first page text: %w", err)
			return
		}
		d.text = text
	})
	return d.text, d.textErr
}

// Tables runs geometric table detection over every page, in page order, and
// rebuilds each detected region into a name/status grid.
func (d *Document) Tables() ([]domain.Table, error) {
	r, err := reader.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("open reader: %w", err)
	}
	defer r.Close()

	detector := tables.NewGeometricDetector()
	var out []domain.Table
	for i := 0; i < d.pages; i++ {
		page, err := pageModel(r, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		found, err := detector.Detect(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: detect tables: %w", i+1, err)
		}
		for _, t := range found {
			if grid := convertTable(t, page.RawText); len(grid) > 0 {
				out = append(out, grid)
			}
		}
	}
	return out, nil
}

// pageModel builds the positioned-fragment page the table detectors consume.
func pageModel(r *reader.Reader, index int) (*model.Page, error) {
	page, err := r.GetPage(index)
	if err != nil {
		return nil, err
	}
	width, err := page.Width()
	if err != nil {
		return nil, err
	}
	height, err := page.Height()
	if err != nil {
		return nil, err
	}
	fragments, err := r.ExtractTextFragments(page)
	if err != nil {
		return nil, err
	}

	p := model.NewPage(width, height)
	p.Number = index + 1
	for _, f := range fragments {
		p.RawText = append(p.RawText, model.TextFragment{
			Text:     f.Text,
			BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}
	return p, nil
}

// Parse spools r to disk and assembles the bulletin it contains. Failures to
// open the PDF wrap domain.ErrExtraction.
func Parse(r io.Reader, a *domain.Assembler, link string) (domain.Bulletin, error) {
	doc, cleanup, err := OpenReader(r)
	defer cleanup()
	if err != nil {
		return domain.Bulletin{}, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}
	return a.Assemble(doc, link)
}
