package label

import (
	"regexp"
	"strings"
)

// fractionReplacer maps fraction glyphs and the curly apostrophe to ASCII.
var fractionReplacer = strings.NewReplacer(
	"½", " 1/2",
	"⅓", " 1/3",
	"⅔", " 2/3",
	"’", "'",
)

// ocrFix is a context-scoped correction for a known OCR confusion.
type ocrFix struct {
	pattern *regexp.Regexp
	repl    string
}

// ocrFixes are applied in order. Each pattern is anchored to the label
// context it belongs to so unrelated text is left alone, and every
// replacement is a fixed point of its own pattern.
var ocrFixes = []ocrFix{
	// 0/O confusion in "CAMPUS 00s"
	{regexp.MustCompile(`(?i)\bCAMPUS\s*(?:OOS|0OS|O0S|0+S)\b`), "CAMPUS 00s"},
	// S/5 confusion in the GUM5 color code
	{regexp.MustCompile(`(?i)\bGUMS\b`), "GUM5"},
	// 1/I confusion in article codes such as IE3675
	{regexp.MustCompile(`\b1([A-Z]\d{4,6})\b`), "I$1"},
}

// NormalizeFractions replaces fraction glyphs with " 1/2", " 1/3", " 2/3"
// and the curly apostrophe with "'".
func NormalizeFractions(s string) string {
	return fractionReplacer.Replace(s)
}

// CollapseSpace collapses whitespace runs to a single space and trims.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize pre-cleans raw OCR text for pattern matching. It is idempotent.
func Normalize(raw string) string {
	t := CollapseSpace(NormalizeFractions(raw))
	for _, fix := range ocrFixes {
		t = fix.pattern.ReplaceAllString(t, fix.repl)
	}
	return t
}
