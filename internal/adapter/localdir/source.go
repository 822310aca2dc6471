// Package localdir reads bulletin PDFs from the local filesystem.
package localdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/pipeline"
)

// Dir is a pipeline.Source listing every PDF in one directory.
type Dir struct {
	path string
}

// NewDir creates a Source for the PDFs directly under path.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Fetch returns the directory's PDFs sorted by file name. Local files have
// no public link.
func (d *Dir) Fetch(_ context.Context) ([]pipeline.SourceDocument, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", d.path, err)
	}

	var docs []pipeline.SourceDocument
	for _, e := range entries {
		if e.IsDir() || !IsPDF(e.Name()) {
			continue
		}
		docs = append(docs, pipeline.SourceDocument{
			Name: e.Name(),
			Path: filepath.Join(d.path, e.Name()),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Files is a pipeline.Source over an explicit list of paths, in the given order.
type Files []pipeline.SourceDocument

// File builds a one-document Source with an optional public link.
func File(path, link string) Files {
	return Files{{Name: filepath.Base(path), Path: path, Link: link}}
}

func (f Files) Fetch(_ context.Context) ([]pipeline.SourceDocument, error) {
	return f, nil
}

// IsPDF reports whether name carries a .pdf extension, ignoring case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
