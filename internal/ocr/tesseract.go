package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"labelscan/internal/label"
	"labelscan/internal/logger"
)

// digitsWhitelist restricts the digits-biased pass to numerals.
const digitsWhitelist = "0123456789"

// TesseractConfig configures the local Tesseract engine.
type TesseractConfig struct {
	Language       string // default "eng"
	TessdataPrefix string // optional tessdata directory
	HeicConverter  string
}

// TesseractEngine implements Engine with a local Tesseract installation.
type TesseractEngine struct {
	config TesseractConfig
	images ImageLoader
	run    passFunc
	log    zerolog.Logger
}

// passFunc runs one recognition over the image at path, restricted to
// whitelist when it is not empty.
type passFunc func(ctx context.Context, path, whitelist string) (string, error)

// NewTesseractEngine creates the local OCR engine.
func NewTesseractEngine(config TesseractConfig) *TesseractEngine {
	if config.Language == "" {
		config.Language = "eng"
	}
	e := &TesseractEngine{
		config: config,
		images: ImageLoader{HeicConverter: config.HeicConverter},
		log:    logger.WithComponent("tesseract"),
	}
	e.run = e.pass
	return e
}

// Recognize runs an unrestricted pass and a digits-only pass over a
// preprocessed copy of the image. Both passes use a single uniform text
// block layout. A failed digits pass leaves Digits empty and keeps the
// general text.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (label.RawText, error) {
	const op = "TesseractEngine.Recognize"
	start := time.Now()

	img, err := e.images.Open(ctx, imagePath)
	if err != nil {
		return label.RawText{}, WrapOCRError(op, err, "failed to load image")
	}

	prepared, cleanup, err := writeTempPNG(PrepareForOCR(img), "labelscan-ocr-*.png")
	defer cleanup()
	if err != nil {
		return label.RawText{}, WrapOCRError(op, err, "failed to write preprocessed image")
	}

	general, err := e.run(ctx, prepared, "")
	if err != nil {
		return label.RawText{}, WrapOCRError(op, err, "general pass")
	}

	digits, err := e.run(ctx, prepared, digitsWhitelist)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return label.RawText{}, WrapOCRError(op, ctxErr, "digits pass")
		}
		e.log.Warn().
			Err(err).
			Str("file", imagePath).
			Msg("Digits pass failed, keeping general text")
		digits = ""
	}

	e.log.Debug().
		Str("file", imagePath).
		Int("general_chars", len(general)).
		Int("digits_chars", len(digits)).
		Dur("duration", time.Since(start)).
		Msg("Tesseract passes completed")

	return label.RawText{General: general, Digits: digits}, nil
}

// pass runs one Tesseract recognition, optionally restricted to whitelist.
func (e *TesseractEngine) pass(ctx context.Context, path, whitelist string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.config.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.config.TessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(e.config.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if whitelist != "" {
		if err := client.SetWhitelist(whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOCRFailed, err)
	}
	return text, nil
}
