package domain

import (
	"errors"
	"strconv"
	"time"
)

// ErrExtraction wraps failures of the PDF capability itself. It is the only
// error the assembler returns; data-quality problems are reported as skips.
var ErrExtraction = errors.New("document extraction failed")

// Table is one extracted grid of cell strings (rows x columns). Rows may be
// ragged; a cell may hold several newline-separated entries.
type Table [][]string

// Document is the narrow view of a bulletin that the PDF capability provides.
type Document interface {
	// FirstPageText returns the plain text of the first page.
	FirstPageText() (string, error)

	// Tables returns every grid table found in the document, in page order.
	Tables() ([]Table, error)
}

// Status codes accepted in the status column.
const (
	StatusFit   = "P"
	StatusUnfit = "I"
)

var statusLabels = map[string]string{
	StatusFit:   "Própria para banho",
	StatusUnfit: "Imprópria para banho",
}

// StatusLabel maps a status code to its human-readable label.
func StatusLabel(code string) string {
	return statusLabels[code]
}

// PointStatusRow is a reconstructed (point name, status) pair.
type PointStatusRow struct {
	PointName  string
	StatusCode string
}

// PointRecord is a row enriched with code, zone, label and coordinates.
type PointRecord struct {
	PointStatusRow
	PointCode   string
	Zone        string
	StatusLabel string
	Latitude    *float64
	Longitude   *float64
}

// BulletinMetadata holds the header fields parsed from the first page.
type BulletinMetadata struct {
	Number    string `json:"numero_boletim"`
	PeriodRaw string `json:"periodo"`
}

// Record is one output row: a point on one collection day.
type Record struct {
	PointCode   string   `json:"id_ponto"`
	CollectedOn string   `json:"data_coleta"`
	PointName   string   `json:"nome_praia"`
	Zone        string   `json:"zona"`
	Status      string   `json:"status"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	BulletinNo  string   `json:"numero_boletim"`
	Link        string   `json:"link_boletim"`
	ExtractedAt string   `json:"data_extracao"`
}

// Columns is the fixed output column order.
var Columns = []string{
	"id_ponto",
	"data_coleta",
	"nome_praia",
	"zona",
	"status",
	"latitude",
	"longitude",
	"numero_boletim",
	"link_boletim",
	"data_extracao",
}

// Values renders the record as strings in [Columns] order. Coordinates use
// fixed-point notation with 15 decimals so no locale formatting can creep in;
// missing coordinates become empty strings.
func (r Record) Values() []string {
	return []string{
		r.PointCode,
		r.CollectedOn,
		r.PointName,
		r.Zone,
		r.Status,
		FormatCoordinate(r.Latitude),
		FormatCoordinate(r.Longitude),
		r.BulletinNo,
		r.Link,
		r.ExtractedAt,
	}
}

// FormatCoordinate renders a coordinate for text export.
func FormatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 15, 64)
}

// SkipReason explains why a document produced no records.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipNoMetadata SkipReason = "metadata_not_found"
	SkipNoRows     SkipReason = "no_valid_rows"
	SkipBadPeriod  SkipReason = "period_not_expandable"
)

// Bulletin is the outcome of assembling one document.
type Bulletin struct {
	Metadata    BulletinMetadata `json:"metadata"`
	Records     []Record         `json:"records"`
	Skip        SkipReason       `json:"skip,omitempty"`
	ExtractedAt time.Time        `json:"-"`
}

// Skipped reports whether the document yielded no records.
func (b Bulletin) Skipped() bool {
	return b.Skip != SkipNone
}

// Layouts used in the output.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)
