// Package label turns noisy OCR transcriptions of shoe-box labels into
// structured product fields.
//
// The package is pure: it performs no I/O and holds no global mutable state.
// Every extraction rule is best-effort and independent, so a field that
// cannot be found is reported as an empty string and only lowers the
// confidence score. Parsing never fails.
package label

// DefaultThreshold is the acceptance threshold used when none is configured.
const DefaultThreshold = 75

// FieldPoints is the score contribution of each scored field.
const FieldPoints = 25

// Status is the routing decision derived from a confidence score.
type Status string

const (
	// StatusOK marks a label whose score reached the acceptance threshold.
	StatusOK Status = "OK"

	// StatusReview marks a label that needs a human look.
	StatusReview Status = "REVIEW"
)

// StatusFor returns the routing status for score under threshold.
func StatusFor(score, threshold int) Status {
	if score >= threshold {
		return StatusOK
	}
	return StatusReview
}

// RawText is one OCR engine's transcription of a label image.
type RawText struct {
	// General is the unrestricted transcription.
	General string `json:"general"`

	// Digits is a digits-biased transcription (digits plus separators).
	Digits string `json:"digits"`
}

// Fields holds the product attributes extracted from a label.
type Fields struct {
	Model       string `json:"model"`
	ArticleCode string `json:"articleCode"`
	Color       string `json:"color"`
	SizeFR      string `json:"sizeFR"`
	Barcode     string `json:"barcode"`

	// Score is the confidence score, always a multiple of FieldPoints in 0..100.
	Score int `json:"confidenceScore"`

	// Status is StatusOK iff Score >= the threshold used to build Fields.
	Status Status `json:"status"`
}

// FieldScore returns the score earned by the fields currently present.
// SizeFR never contributes.
func (f Fields) FieldScore() int {
	score := 0
	for _, v := range []string{f.Model, f.ArticleCode, f.Color, f.Barcode} {
		if v != "" {
			score += FieldPoints
		}
	}
	return score
}

// Rescore recomputes Score from the present fields and Status from threshold.
func (f Fields) Rescore(threshold int) Fields {
	f.Score = f.FieldScore()
	f.Status = StatusFor(f.Score, threshold)
	return f
}

// Merge fills every empty field of primary from secondary. Fields already
// present in primary are kept even when secondary disagrees. The merged
// score is the higher of the two pass scores and the status is derived from
// it under threshold.
func Merge(primary, secondary Fields, threshold int) Fields {
	out := primary
	if out.Model == "" {
		out.Model = secondary.Model
	}
	if out.ArticleCode == "" {
		out.ArticleCode = secondary.ArticleCode
	}
	if out.Color == "" {
		out.Color = secondary.Color
	}
	if out.SizeFR == "" {
		out.SizeFR = secondary.SizeFR
	}
	if out.Barcode == "" {
		out.Barcode = secondary.Barcode
	}

	out.Score = max(primary.Score, secondary.Score)
	out.Status = StatusFor(out.Score, threshold)
	return out
}
