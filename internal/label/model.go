package label

import (
	"strings"
)

// TokenKind classifies a word of a model name.
type TokenKind int

const (
	TokenUnknown TokenKind = iota
	TokenBase
	TokenFeature
	TokenTarget
)

// String implements fmt.Stringer.
func (k TokenKind) String() string {
	switch k {
	case TokenBase:
		return "base"
	case TokenFeature:
		return "feature"
	case TokenTarget:
		return "target"
	default:
		return "unknown"
	}
}

// Token is one classified, canonicalized word of a model name.
type Token struct {
	Kind TokenKind
	Text string
}

const (
	maxFeatures = 2
	maxTargets  = 1
)

// baseNames maps each accepted spelling of a base model to its canonical form.
var baseNames = map[string]string{
	"STANSMITH": "STAN SMITH",
	"SAMBA":     "SAMBA",
	"GAZELLE":   "GAZELLE",
	"SUPERSTAR": "SUPERSTAR",
	"CAMPUS":    "CAMPUS",
	"FORUM":     "FORUM",
}

// featureNames maps feature modifiers to their canonical form.
var featureNames = map[string]string{
	"00S":    "00s",
	"OG":     "OG",
	"II":     "II",
	"2":      "II",
	"ADV":    "ADV",
	"BOLD":   "BOLD",
	"INDOOR": "INDOOR",
	"MID":    "MID",
	"LOW":    "LOW",
	"HI":     "HI",
	"CL":     "CL",
}

// targetNames is the audience modifier set, disjoint from featureNames.
var targetNames = map[string]bool{
	"J": true, "K": true, "C": true, "W": true, "M": true, "EL": true, "CF": true,
}

// TokenizeModel splits a matched model span into classified tokens. The
// span is upper-cased and split on whitespace; "STAN SMITH" is read as a
// single base token whatever the spacing between its two words.
func TokenizeModel(span string) []Token {
	words := strings.Fields(strings.ToUpper(span))
	tokens := make([]Token, 0, len(words))

	for i := 0; i < len(words); i++ {
		w := words[i]
		if w == "STAN" && i+1 < len(words) && words[i+1] == "SMITH" {
			w = "STANSMITH"
			i++
		}

		switch {
		case baseNames[w] != "":
			tokens = append(tokens, Token{Kind: TokenBase, Text: baseNames[w]})
		case featureNames[w] != "":
			tokens = append(tokens, Token{Kind: TokenFeature, Text: featureNames[w]})
		case targetNames[w]:
			tokens = append(tokens, Token{Kind: TokenTarget, Text: w})
		default:
			tokens = append(tokens, Token{Kind: TokenUnknown, Text: w})
		}
	}
	return tokens
}

// AssembleModel rebuilds a canonical model name from tokens in the order
// base, features, target. Only the first base, the first two features and
// the first target are kept; unknown tokens are dropped, as are consecutive
// duplicates in the result. Without a base token the result is empty.
func AssembleModel(tokens []Token) string {
	var base string
	var features, targets []string

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenBase:
			if base == "" {
				base = tok.Text
			}
		case TokenFeature:
			if len(features) < maxFeatures {
				features = append(features, tok.Text)
			}
		case TokenTarget:
			if len(targets) < maxTargets {
				targets = append(targets, tok.Text)
			}
		}
	}
	if base == "" {
		return ""
	}

	parts := append([]string{base}, features...)
	parts = append(parts, targets...)

	out := []string{parts[0]}
	for _, p := range parts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// NormalizeModel canonicalizes a raw model span, e.g. "gazelle 2 el" to
// "GAZELLE II EL".
func NormalizeModel(span string) string {
	return AssembleModel(TokenizeModel(span))
}
