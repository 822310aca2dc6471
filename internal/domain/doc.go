// Package domain models SEMACE beach water-quality ("balneabilidade") bulletins
// and turns their extracted text and tables into per-day, per-point records.
//
// # Data Source
//
// SEMACE publishes a weekly PDF bulletin for the beaches of Fortaleza. The first
// page carries the bulletin number and the sampling period; the body is one or
// more tables listing each monitoring point with its status. A PDF capability
// (see [Document]) turns the file into first-page text and grids of cell strings
// before anything in this package runs.
//
// # Bulletin Conventions
//
// Header:
//
//	"... Boletim Nº 23 Período: 01/03/2024 a 03/03/2024 Tipos de amostras: ..."
//	The number sits between "Nº" and "Período:". Lowercase "o" glyphs are
//	stripped from it because some bulletins render "Nº" as "No" and the "o"
//	leaks into the number.
//	The period sits between "Período:" and the optional "Tipos de amostras:".
//	Verbose forms such as "01 de março de 2024 a ..." are folded back to
//	"<start> a <end>" when possible.
//
// Tables:
//
//	Column 0 holds point names, column 1 holds status tokens. Table engines
//	often merge several visual rows into one cell separated by newlines, and a
//	single status cell may span several names:
//
//	  "Praia do Futuro I\nPraia do Futuro II" | "P"       -> both P (fan-out)
//	  "Iracema\nMeireles"                     | "P\nI"    -> zipped by position
//
//	Only "P" (própria, fit for bathing) and "I" (imprópria) are valid statuses.
//	Repeated headers and footer text are dropped by keyword (see [IsNoiseRow]).
//
// # Enrichment
//
// Each point gets a three-letter code (upper-cased name prefix) used to look up
// coordinates, and a zone (Leste, Centro, Oeste, Desconhecida) from keyword
// groups matched against the accent-stripped, lower-cased name. Both tables are
// injected through [Lookups].
//
// # Output
//
// One [Record] per point per calendar day of the period, in the fixed column
// order of [Columns]. A document whose metadata, rows, or period cannot be
// recovered yields no records at all, with a [SkipReason] describing why.
package domain
