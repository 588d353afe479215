// Package normalizer implements spec.md §4.3: per-language text/URL/date
// canonicalization, ID cleanup, publication/grant/criteria canonicalization,
// and study-to-dataset expansion.
package normalizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

var (
	zeroWidthPattern = regexp.MustCompile(`[\x{200B}\x{200C}\x{200D}\x{FEFF}]`)
	nbspPattern      = regexp.MustCompile(`[\x{00A0}\x{3000}]`)
	spacesRunPattern = regexp.MustCompile(`[ \t]+`)
	colonPattern     = regexp.MustCompile(`\s*[:：]\s*`)
	openParenPattern = regexp.MustCompile(`(\S)\(`)

	dashVariants = strings.NewReplacer(
		"‐", "-", "‑", "-", "‒", "-", "–", "-",
		"—", "-", "―", "-", "−", "-",
	)
	smartQuotes = strings.NewReplacer(
		"‘", "'", "’", "'", "“", "\"", "”", "\"",
	)
)

// NormalizeText applies spec.md §4.3.1 to s for the given language.
// It is idempotent: NormalizeText(NormalizeText(s, lang), lang) == NormalizeText(s, lang).
func NormalizeText(s string, lang domain.Lang) string {
	s = norm.NFC.String(s)
	s = zeroWidthPattern.ReplaceAllString(s, "")
	s = nbspPattern.ReplaceAllString(s, " ")
	s = smartQuotes.Replace(s)
	s = dashVariants.Replace(s)

	s = strings.ReplaceAll(s, "（", "(")
	s = strings.ReplaceAll(s, "）", ")")
	s = strings.ReplaceAll(s, "／", "/")

	s = colonPattern.ReplaceAllString(s, ": ")

	if lang == domain.LangJA {
		s = strings.ReplaceAll(s, "\n", " ")
	} else {
		s = strings.ReplaceAll(s, "\n", "")
	}

	s = openParenPattern.ReplaceAllString(s, "$1 (")
	s = spacesRunPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	return s
}

// EmptyCellValue reports whether a raw cell value counts as empty per
// spec.md §4.2 ("Empty cells (empty string or \"-\") -> null").
func EmptyCellValue(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || t == "-"
}

var footnoteMarkerPattern = regexp.MustCompile(`^(\s*(※|\*)\d?\s*)+`)

// StripFootnoteMarker removes a leading footnote marker (※, *, optionally
// followed by a digit) from a cell value (spec.md §4.2).
func StripFootnoteMarker(s string) string {
	return footnoteMarkerPattern.ReplaceAllString(s, "")
}

var (
	headerPunctPattern  = regexp.MustCompile(`[\s　]+`)
	headerStripPattern  = regexp.MustCompile(`[.,:：；;!！?？\-ー—/／()（）]`)
)

// CanonicalHeaderKey reduces a table header to a comparison key that is
// case-, whitespace-, and punctuation-insensitive, after NFKC folding
// (spec.md §4.2).
func CanonicalHeaderKey(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = headerStripPattern.ReplaceAllString(s, "")
	s = headerPunctPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
