package domain

import "strings"

const (
	numberMarker      = "Nº"
	periodMarker      = "Período:"
	sampleTypesMarker = "Tipos de amostras:"
)

// ExtractMetadata locates the bulletin number and raw period in first-page
// text. ok is false when either marker is missing, the period marker does not
// follow the number marker, or either field comes out empty.
func ExtractMetadata(firstPage string) (meta BulletinMetadata, ok bool) {
	text := CollapseWhitespace(firstPage)

	numIdx := strings.Index(text, numberMarker)
	if numIdx < 0 {
		return BulletinMetadata{}, false
	}
	rel := strings.Index(text[numIdx:], periodMarker)
	if rel < 0 {
		return BulletinMetadata{}, false
	}
	perIdx := numIdx + rel

	// Some bulletins render "Nº" as "No"; the stray "o" is dropped here.
	number := strings.TrimSpace(text[numIdx+len(numberMarker) : perIdx])
	number = strings.ReplaceAll(number, "o", "")

	rest := text[perIdx+len(periodMarker):]
	if i := strings.Index(rest, sampleTypesMarker); i >= 0 {
		rest = rest[:i]
	}
	period := normalizePeriod(strings.TrimSpace(rest))

	if number == "" || period == "" {
		return BulletinMetadata{}, false
	}
	return BulletinMetadata{Number: number, PeriodRaw: period}, true
}

// normalizePeriod folds "<d1> de <m> de <y> a ..." style text back into
// "<token0> a <token2>". Text that does not fit is returned unchanged.
func normalizePeriod(raw string) string {
	tokens := strings.Fields(strings.ReplaceAll(raw, " de ", "/"))
	if len(tokens) >= 3 && strings.EqualFold(tokens[1], "a") {
		return tokens[0] + " a " + tokens[2]
	}
	return raw
}
