package domain

import (
	"strings"
	"time"
)

const (
	periodSeparator  = " a "
	periodDateLayout = "2/1/2006"
)

// ExpandPeriod turns "dd/mm/yyyy a dd/mm/yyyy", zero padding optional, into every calendar day from
// start to end inclusive, as YYYY-MM-DD strings. It returns nil when the
// string does not split into exactly two dates, either date fails to parse,
// or start is after end.
func ExpandPeriod(period string) []string {
	parts := strings.Split(period, periodSeparator)
	if len(parts) != 2 {
		return nil
	}
	start, err := time.Parse(periodDateLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return nil
	}
	end, err := time.Parse(periodDateLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}
