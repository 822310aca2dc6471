package domain

import "strings"

// BuildRows reconstructs (point name, status) pairs from extracted tables.
// Only the first two columns of a table are read. Within a row, a single
// status broadcasts to every name; otherwise names and statuses are zipped
// by position and the longer list is truncated. Noise rows are dropped and
// names are de-duplicated after whitespace collapsing, first occurrence wins.
func BuildRows(tables []Table) []PointStatusRow {
	var rows []PointStatusRow
	seen := make(map[string]struct{})

	add := func(name, status string) {
		if IsNoiseRow(name, status) {
			return
		}
		name = CollapseWhitespace(name)
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		rows = append(rows, PointStatusRow{PointName: name, StatusCode: status})
	}

	for _, t := range tables {
		if tableWidth(t) < 2 {
			continue
		}
		for _, row := range t {
			names := splitNames(cell(row, 0))
			statuses := splitStatuses(cell(row, 1))
			if len(names) == 0 || len(statuses) == 0 {
				continue
			}

			if len(statuses) == 1 && len(names) > 1 {
				for _, n := range names {
					add(n, statuses[0])
				}
				continue
			}
			for i := 0; i < len(names) && i < len(statuses); i++ {
				add(names[i], statuses[i])
			}
		}
	}
	return rows
}

// tableWidth is the widest row of t, so ragged grids from the table engine
// still count as two-column tables.
func tableWidth(t Table) int {
	w := 0
	for _, row := range t {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "\n") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitStatuses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "\n") {
		if tok := CleanStatusToken(part); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
