// Package ocr provides the OCR engines used to read shoe-box label photos.
//
// Two tiers are available:
//   - TesseractEngine: free, local, lower accuracy. Runs an unrestricted pass
//     and a digits-only pass over a preprocessed copy of the image.
//   - GoogleVisionOCRService / DocumentAIOCRService: paid cloud calls with
//     higher accuracy. The digits transcription is derived from the general
//     text by blanking every non-digit.
//
// BarcodeScanner decodes 1D retail symbols (EAN-13, UPC-A, EAN-8, Code 128)
// directly from the pixels as a zero-cost supplement to text recognition.
//
// Supported inputs: JPEG, PNG, GIF, BMP, TIFF, WebP, and HEIC/HEIF through an
// external converter (magick, heif-convert or sips).
//
// Cloud limits:
//   - Maximum image size: 20MB per synchronous request
package ocr

import (
	"context"
	"strings"
	"sync"
	"time"

	"labelscan/internal/label"
)

// Engine transcribes a label image into general and digits-only text.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (label.RawText, error)
}

// OCRResult contains the results of a cloud OCR call with metadata.
type OCRResult struct {
	// Text is the full transcription in reading order.
	Text string `json:"text"`

	// Confidence is the average page confidence (0.0 to 1.0), when reported.
	Confidence float32 `json:"confidence"`

	// LanguageCodes contains the detected languages.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// Engine names the service that produced the result.
	Engine string `json:"engine"`

	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// RawText converts the result into a general/digits transcription pair.
func (r *OCRResult) RawText() label.RawText {
	return label.RawText{General: r.Text, Digits: DigitsOnly(r.Text)}
}

// DigitsOnly replaces every non-digit rune of s with a space.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return ' '
	}, s)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, imagePath string) (label.RawText, error)

// Recognize calls f.
func (f EngineFunc) Recognize(ctx context.Context, imagePath string) (label.RawText, error) {
	return f(ctx, imagePath)
}

// LazyEngine defers building an Engine until its first Recognize call, so
// cloud clients and credentials are only touched when a label actually
// needs escalation. A failed build is retried on the next call.
type LazyEngine struct {
	build func(ctx context.Context) (Engine, error)

	mu     sync.Mutex
	engine Engine
}

// NewLazyEngine returns a LazyEngine that builds its engine with build.
func NewLazyEngine(build func(ctx context.Context) (Engine, error)) *LazyEngine {
	return &LazyEngine{build: build}
}

// Recognize builds the engine if needed and delegates to it.
func (l *LazyEngine) Recognize(ctx context.Context, imagePath string) (label.RawText, error) {
	const op = "LazyEngine.Recognize"

	l.mu.Lock()
	if l.engine == nil {
		engine, err := l.build(ctx)
		if err != nil {
			l.mu.Unlock()
			return label.RawText{}, WrapOCRError(op, err, "failed to initialize OCR engine")
		}
		l.engine = engine
	}
	engine := l.engine
	l.mu.Unlock()

	return engine.Recognize(ctx, imagePath)
}

// Built reports whether the underlying engine has been constructed.
func (l *LazyEngine) Built() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine != nil
}
