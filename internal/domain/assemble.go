package domain

import "fmt"

// Assembler produces the final record set for one document.
type Assembler struct {
	lookups *Lookups
}

// NewAssembler creates an Assembler over read-only lookup tables. A nil
// lookups uses [DefaultLookups].
func NewAssembler(lookups *Lookups) *Assembler {
	if lookups == nil {
		lookups = DefaultLookups()
	}
	return &Assembler{lookups: lookups}
}

// Lookups returns the tables the assembler enriches with.
func (a *Assembler) Lookups() *Lookups {
	return a.lookups
}

// Assemble extracts metadata and rows from doc and expands them into one
// record per point per day of the bulletin period. Data problems are reported
// through Bulletin.Skip with no records; an error is returned only when the
// document itself cannot be read, and it wraps [ErrExtraction].
func (a *Assembler) Assemble(doc Document, link string) (Bulletin, error) {
	text, err := doc.FirstPageText()
	if err != nil {
		return Bulletin{}, fmt.Errorf("%w: first page: %v", ErrExtraction, err)
	}
	meta, ok := ExtractMetadata(text)
	if !ok {
		return Bulletin{Skip: SkipNoMetadata}, nil
	}

	tables, err := doc.Tables()
	if err != nil {
		return Bulletin{Metadata: meta}, fmt.Errorf("%w: tables: %v", ErrExtraction, err)
	}
	rows := BuildRows(tables)
	if len(rows) == 0 {
		return Bulletin{Metadata: meta, Skip: SkipNoRows}, nil
	}

	days := ExpandPeriod(meta.PeriodRaw)
	if len(days) == 0 {
		return Bulletin{Metadata: meta, Skip: SkipBadPeriod}, nil
	}

	now := clock.Now()
	return Bulletin{
		Metadata:    meta,
		Records:     a.expand(rows, days, meta.Number, link, now.Format(TimestampLayout)),
		ExtractedAt: now,
	}, nil
}

// expand crosses enriched rows with days: all points for the first day, then
// all points for the next, keeping row order within each day.
func (a *Assembler) expand(rows []PointStatusRow, days []string, number, link, extractedAt string) []Record {
	points := make([]PointRecord, len(rows))
	for i, r := range rows {
		points[i] = a.lookups.Enrich(r)
	}

	records := make([]Record, 0, len(points)*len(days))
	for _, day := range days {
		for _, p := range points {
			records = append(records, Record{
				PointCode:   p.PointCode,
				CollectedOn: day,
				PointName:   p.PointName,
				Zone:        p.Zone,
				Status:      p.StatusLabel,
				Latitude:    p.Latitude,
				Longitude:   p.Longitude,
				BulletinNo:  number,
				Link:        link,
				ExtractedAt: extractedAt,
			})
		}
	}
	return records
}
