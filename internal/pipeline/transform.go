package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
)

// Opener opens the PDF capability for a file on disk.
type Opener func(path string) (domain.Document, error)

// BulletinTransformer implements Transformer with the domain assembler,
// probing the header first so already loaded bulletins skip table extraction.
type BulletinTransformer struct {
	assembler *domain.Assembler
	open      Opener
	deduper   Deduper
	logger    *slog.Logger
}

// NewTransformer creates a BulletinTransformer. Pass a nil deduper to
// assemble every document.
func NewTransformer(assembler *domain.Assembler, open Opener, deduper Deduper, logger *slog.Logger) *BulletinTransformer {
	return &BulletinTransformer{
		assembler: assembler,
		open:      open,
		deduper:   deduper,
		logger:    logger,
	}
}

func (t *BulletinTransformer) Transform(ctx context.Context, doc SourceDocument) (domain.Bulletin, error) {
	d, err := t.open(doc.Path)
	if err != nil {
		return domain.Bulletin{}, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	if t.deduper != nil {
		text, err := d.FirstPageText()
		if err != nil {
			return domain.Bulletin{}, fmt.Errorf("%w: first page: %v", domain.ErrExtraction, err)
		}
		if meta, ok := domain.ExtractMetadata(text); ok {
			known, err := t.deduper.Known(ctx, meta.Number)
			switch {
			case err != nil:
				t.logger.Warn("duplicate check failed", "error", err, "document", doc.Name, "bulletin", meta.Number)
			case known:
				return domain.Bulletin{Metadata: meta}, ErrDuplicate
			}
		}
	}

	return t.assembler.Assemble(d, doc.Link)
}
