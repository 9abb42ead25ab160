package label

import (
	"regexp"
	"strings"
)

// colorWindow is how far past the article code the color search looks first.
const colorWindow = 150

// barcodeLength is the EAN-13 digit count.
const barcodeLength = 13

var (
	// base (feature){0,2} (target)?
	reModel = regexp.MustCompile(`(?i)\b(?:STAN\s*SMITH|SAMBA|GAZELLE|SUPERSTAR|CAMPUS|FORUM)` +
		`(?:\s+(?:00S|OG|II|2|ADV|BOLD|INDOOR|MID|LOW|HI|CL)){0,2}` +
		`(?:\s+(?:J|K|C|W|M|EL|CF))?\b`)

	// IE3675, M20325, HQ4327; one space may split letters from digits
	reArticle = regexp.MustCompile(`\b([A-Z]{1,2}) ?(\d{4,6})\b`)

	// 1E3675 when normalization did not repair it
	reArticleMisreadI = regexp.MustCompile(`\b1([A-Z]) ?(\d{4,6})\b`)

	// CBLACK/FTWWHT/GUM5
	reColor = regexp.MustCompile(`\b[A-Z0-9]{3,}(?:/[A-Z0-9]{3,}){1,3}\b`)

	// F 42 1/2, FR 38 2/3
	reSizeAnchored = regexp.MustCompile(`(?i)\bFR?\b[^0-9]*(3[0-9]|4[0-6])(?: ?(1/2|1/3|2/3))?\b`)
	reSizeBare     = regexp.MustCompile(`\b(3[0-9]|4[0-6])(?: ?(1/2|1/3|2/3))?\b`)

	reBarcode = regexp.MustCompile(`\b\d{13}\b`)

	// 4056 0154 56123, 4056015 | 456123; gaps wider than three runes end the run
	reBarcodeSpaced = regexp.MustCompile(`(?:\d\D{0,3}){13,16}`)

	reNonDigit = regexp.MustCompile(`\D`)
)

// Parser extracts Fields from OCR text under a fixed acceptance threshold.
type Parser struct {
	threshold int
}

// NewParser returns a Parser whose status decisions use threshold.
func NewParser(threshold int) *Parser {
	return &Parser{threshold: threshold}
}

// Threshold returns the acceptance threshold of p.
func (p *Parser) Threshold() int {
	return p.threshold
}

// ParseFields extracts fields with DefaultThreshold.
func ParseFields(general, digits string) Fields {
	return NewParser(DefaultThreshold).Parse(RawText{General: general, Digits: digits})
}

// Parse extracts all fields from one engine's transcription. It always
// returns a complete Fields value; missing fields are empty strings.
func (p *Parser) Parse(raw RawText) Fields {
	t := Normalize(raw.General)
	d := CollapseSpace(raw.Digits)

	f := Fields{
		Model:  ExtractModel(t),
		SizeFR: ExtractSize(t),
	}

	var articleAt int
	f.ArticleCode, articleAt = extractArticle(t)
	f.Color = extractColor(t, articleAt)
	f.Barcode = ExtractBarcode(d, t)

	return f.Rescore(p.threshold)
}

// ExtractModel returns the canonical model name found in normalized text.
func ExtractModel(t string) string {
	span := reModel.FindString(t)
	if span == "" {
		return ""
	}
	return NormalizeModel(span)
}

// ExtractArticleCode returns the first article code in normalized text.
func ExtractArticleCode(t string) string {
	code, _ := extractArticle(t)
	return code
}

// extractArticle returns the article code and the byte offset it starts at,
// or -1 when there is none.
func extractArticle(t string) (string, int) {
	if m := reArticle.FindStringSubmatchIndex(t); m != nil {
		return t[m[2]:m[3]] + t[m[4]:m[5]], m[0]
	}
	if m := reArticleMisreadI.FindStringSubmatchIndex(t); m != nil {
		return "I" + t[m[2]:m[3]] + t[m[4]:m[5]], m[0]
	}
	return "", -1
}

// ExtractColor returns the first color-way code in normalized text.
func ExtractColor(t string) string {
	_, at := extractArticle(t)
	return extractColor(t, at)
}

// extractColor prefers a color printed right after the article code at
// articleAt and falls back to the first color anywhere in t.
func extractColor(t string, articleAt int) string {
	color := ""
	if articleAt >= 0 {
		end := min(articleAt+colorWindow, len(t))
		color = reColor.FindString(t[articleAt:end])
	}
	if color == "" {
		color = reColor.FindString(t)
	}
	if strings.HasSuffix(strings.ToUpper(color), "GUMS") {
		color = color[:len(color)-1] + "5"
	}
	return color
}

// ExtractSize returns the French size, preferring one under an F or FR
// column marker. Fractions are rendered as "42 1/2".
func ExtractSize(t string) string {
	t = NormalizeFractions(t)
	m := reSizeAnchored.FindStringSubmatch(t)
	if m == nil {
		m = reSizeBare.FindStringSubmatch(t)
	}
	if m == nil {
		return ""
	}
	if m[2] != "" {
		return m[1] + " " + m[2]
	}
	return m[1]
}

// ExtractBarcode returns an EAN-13 found in the digits transcription, or a
// spaced run of digits found in either transcription.
func ExtractBarcode(digits, general string) string {
	if bc := reBarcode.FindString(digits); bc != "" {
		return bc
	}

	for _, s := range []string{digits, general} {
		m := reBarcodeSpaced.FindString(s)
		if m == "" {
			continue
		}
		if clean := reNonDigit.ReplaceAllString(m, ""); len(clean) >= barcodeLength {
			return clean[:barcodeLength]
		}
	}
	return ""
}

// IsRetailBarcode reports whether code is a plain 12 digit UPC-A or 13
// digit EAN-13 payload.
func IsRetailBarcode(code string) bool {
	if len(code) != 12 && len(code) != barcodeLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
