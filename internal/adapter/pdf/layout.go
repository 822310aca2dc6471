package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/tabula/model"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
)

// Tolerances in PDF points.
const (
	baselineTolerance = 2.0 // fragments whose baselines differ by less share a text line
	wordGap           = 4.0 // fragments on a line closer than this belong to the same run
	tightGap          = 0.5 // runs closer than this are glued without a space
	columnTolerance   = 6.0 // run left edges within this distance open the same column
)

// statusColumn is the grid column that anchors logical rows.
const statusColumn = 1

type textLine struct {
	y     float64
	mid   float64
	frags []model.TextFragment
}

type run struct {
	left float64
	text string
}

type cellLine struct {
	mid  float64
	text string
}

// convertTable rebuilds a detected table from the page fragments inside its
// bounding box. The detector's own grid splits text into gap columns and gap
// rows, so only its region is trusted here.
//
// Columns open at left edges shared by at least two text lines. Every line of
// the status column anchors one output row; lines of the other columns join
// the anchor closest to them vertically, top to bottom, separated by "\n".
// A status printed once beside several names therefore yields one row whose
// name cell lists all of them.
func convertTable(t *model.Table, fragments []model.TextFragment) domain.Table {
	lines := groupLines(fragmentsWithin(t.BBox, fragments))
	if len(lines) == 0 {
		return nil
	}

	runsByLine := make([][]run, len(lines))
	for i, l := range lines {
		runsByLine[i] = mergeRuns(l.frags)
	}
	starts := columnStarts(runsByLine)

	columns := make([][]cellLine, len(starts))
	for i, runs := range runsByLine {
		texts := make([]string, len(starts))
		for _, r := range runs {
			c := columnOf(r.left, starts)
			texts[c] = joinText(texts[c], r.text)
		}
		for c, text := range texts {
			if text != "" {
				columns[c] = append(columns[c], cellLine{mid: lines[i].mid, text: text})
			}
		}
	}

	if len(starts) <= statusColumn || len(columns[statusColumn]) == 0 {
		grid := make(domain.Table, 0, len(lines))
		for _, cl := range columns[0] {
			grid = append(grid, []string{cl.text})
		}
		return grid
	}

	anchors := columns[statusColumn]
	grid := make(domain.Table, len(anchors))
	for i, a := range anchors {
		grid[i] = make([]string, len(starts))
		grid[i][statusColumn] = a.text
	}
	for c, col := range columns {
		if c == statusColumn {
			continue
		}
		for _, cl := range col {
			row := nearestAnchor(cl.mid, anchors)
			if grid[row][c] != "" {
				grid[row][c] += "\n"
			}
			grid[row][c] += cl.text
		}
	}
	return grid
}

func fragmentsWithin(box model.BBox, fragments []model.TextFragment) []model.TextFragment {
	var out []model.TextFragment
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		if box.Contains(f.BBox.Center()) {
			out = append(out, f)
		}
	}
	return out
}

// groupLines buckets fragments by baseline, top of the page first.
func groupLines(fragments []model.TextFragment) []textLine {
	sorted := make([]model.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y != sorted[j].BBox.Y {
			return sorted[i].BBox.Y > sorted[j].BBox.Y
		}
		return sorted[i].BBox.X < sorted[j].BBox.X
	})

	var lines []textLine
	for _, f := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1].y-f.BBox.Y) < baselineTolerance {
			lines[n-1].frags = append(lines[n-1].frags, f)
			continue
		}
		lines = append(lines, textLine{y: f.BBox.Y, frags: []model.TextFragment{f}})
	}

	for i := range lines {
		var sum float64
		for _, f := range lines[i].frags {
			sum += f.BBox.Center().Y
		}
		lines[i].mid = sum / float64(len(lines[i].frags))
	}
	return lines
}

// mergeRuns glues the fragments of one line into runs of nearby text.
func mergeRuns(frags []model.TextFragment) []run {
	sorted := make([]model.TextFragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].BBox.X < sorted[j].BBox.X })

	var runs []run
	right := math.Inf(-1)
	for _, f := range sorted {
		text := strings.TrimSpace(f.Text)
		gap := f.BBox.Left() - right
		switch {
		case len(runs) > 0 && gap <= tightGap:
			runs[len(runs)-1].text += text
		case len(runs) > 0 && gap <= wordGap:
			runs[len(runs)-1].text += " " + text
		default:
			runs = append(runs, run{left: f.BBox.Left(), text: text})
		}
		right = math.Max(right, f.BBox.Right())
	}
	return runs
}

// columnStarts clusters run left edges. A cluster becomes a column only when
// runs from two or more lines share it, so captions spanning the table do not
// open columns of their own.
func columnStarts(runsByLine [][]run) []float64 {
	type edge struct {
		x    float64
		line int
	}
	var edges []edge
	for i, runs := range runsByLine {
		for _, r := range runs {
			edges = append(edges, edge{x: r.left, line: i})
		}
	}
	if len(edges) == 0 {
		return []float64{0}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].x < edges[j].x })

	type cluster struct {
		x     float64
		lines map[int]struct{}
	}
	var clusters []cluster
	for _, e := range edges {
		n := len(clusters)
		if n == 0 || e.x-clusters[n-1].x > columnTolerance {
			clusters = append(clusters, cluster{x: e.x, lines: map[int]struct{}{}})
			n++
		}
		clusters[n-1].lines[e.line] = struct{}{}
	}

	var starts []float64
	for _, c := range clusters {
		if len(c.lines) >= 2 {
			starts = append(starts, c.x)
		}
	}
	if len(starts) == 0 {
		for _, c := range clusters {
			starts = append(starts, c.x)
		}
	}
	return starts
}

// columnOf returns the rightmost column opening at or before x. Text left of
// the first column falls into it.
func columnOf(x float64, starts []float64) int {
	col := 0
	for i, s := range starts {
		if x+columnTolerance >= s {
			col = i
		}
	}
	return col
}

// nearestAnchor picks the anchor closest to mid. Ties go to the upper one.
func nearestAnchor(mid float64, anchors []cellLine) int {
	best, bestDist := 0, math.Inf(1)
	for i, a := range anchors {
		if d := math.Abs(a.mid - mid); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func joinText(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
