// Command validate checks an exported bulletin CSV for schema and integrity
// problems: column order, date and timestamp layouts, status and zone
// vocabularies, point codes, coordinate precision and duplicate rows.
//
// Usage:
//
//	go run ./cmd/validate -csv data/balneabilidade.csv [-lookups lookups.yaml]
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
)

var coordinatePattern = regexp.MustCompile(`^-?\d+\.\d{15}$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the exported CSV")
	lookupsPath := flag.String("lookups", "", "lookup tables YAML (default: embedded tables)")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if code := run(*csvPath, *lookupsPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, lookupsPath string) int {
	lookups := domain.DefaultLookups()
	if lookupsPath != "" {
		l, err := domain.LoadLookupsFile(lookupsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		lookups = l
	}

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open csv: %v\n", err)
		return 1
	}
	defer f.Close()

	fmt.Println("=== Bulletin CSV Validation ===")
	fmt.Println()

	rows, phases, err := validate(f, lookups)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}
	fmt.Printf("\nRecords: %d\n", rows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validate reads the whole CSV and runs every phase. It returns the number of
// data rows. An error means the file could not be read as CSV at all.
func validate(r io.Reader, lookups *domain.Lookups) (int, []*phase, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	all, err := cr.ReadAll()
	if err != nil {
		return 0, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return 0, nil, errors.New("empty csv")
	}

	header := all[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	rows := all[1:]

	return len(rows), []*phase{
		validateHeader(header),
		validateFields(rows, lookups),
		validateUniqueness(rows),
	}, nil
}

func validateHeader(header []string) *phase {
	p := &phase{name: "Header"}
	if !slices.Equal(header, domain.Columns) {
		p.errorf("header = %v, want %v", header, domain.Columns)
	}
	return p
}

const (
	colPointCode = iota
	colCollectedOn
	colPointName
	colZone
	colStatus
	colLatitude
	colLongitude
	colBulletinNo
	colLink
	colExtractedAt
)

func validateFields(rows [][]string, lookups *domain.Lookups) *phase {
	p := &phase{name: "Field rules"}

	zones := []string{domain.ZoneUnknown}
	for _, g := range lookups.Zones {
		zones = append(zones, g.Name)
	}
	statuses := []string{domain.StatusLabel(domain.StatusFit), domain.StatusLabel(domain.StatusUnfit)}

	for i, row := range rows {
		line := i + 2
		if len(row) != len(domain.Columns) {
			p.errorf("line %d: %d fields, want %d", line, len(row), len(domain.Columns))
			continue
		}
		if _, err := time.Parse(domain.DateLayout, row[colCollectedOn]); err != nil {
			p.errorf("line %d: data_coleta %q is not YYYY-MM-DD", line, row[colCollectedOn])
		}
		if _, err := time.Parse(domain.TimestampLayout, row[colExtractedAt]); err != nil {
			p.errorf("line %d: data_extracao %q is not YYYY-MM-DD HH:MM:SS", line, row[colExtractedAt])
		}
		if !slices.Contains(statuses, row[colStatus]) {
			p.errorf("line %d: unknown status %q", line, row[colStatus])
		}
		if !slices.Contains(zones, row[colZone]) {
			p.errorf("line %d: unknown zona %q", line, row[colZone])
		}
		if want := domain.ExtractPointCode(row[colPointName]); row[colPointCode] != want {
			p.errorf("line %d: id_ponto %q, want %q for %q", line, row[colPointCode], want, row[colPointName])
		}
		for _, c := range []int{colLatitude, colLongitude} {
			if v := row[c]; v != "" && !coordinatePattern.MatchString(v) {
				p.errorf("line %d: %s %q is not a 15-decimal number", line, domain.Columns[c], v)
			}
		}
		if row[colBulletinNo] == "" {
			p.errorf("line %d: empty numero_boletim", line)
		}
	}
	return p
}

func validateUniqueness(rows [][]string) *phase {
	p := &phase{name: "Uniqueness"}
	first := make(map[string]int, len(rows))
	for i, row := range rows {
		if len(row) != len(domain.Columns) {
			continue
		}
		key := row[colBulletinNo] + "|" + row[colCollectedOn] + "|" + row[colPointName]
		if prev, dup := first[key]; dup {
			p.errorf("line %d: duplicates line %d (%s, %s, %s)", i+2, prev, row[colBulletinNo], row[colCollectedOn], row[colPointName])
			continue
		}
		first[key] = i + 2
	}
	return p
}
