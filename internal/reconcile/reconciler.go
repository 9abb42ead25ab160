// Package reconcile combines a free local OCR pass with an optional paid
// cloud OCR pass into one set of label fields.
//
// The local engine always runs. Its failures are logged and treated as
// "nothing found". A local barcode decoder supplements a missing barcode.
// The cloud engine is only called when the local result is not good enough,
// and its failures are returned to the caller.
package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"labelscan/internal/label"
	"labelscan/internal/logger"
)

// Engine transcribes a label image into general and digits-only text.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (label.RawText, error)
}

// BarcodeScanner decodes a barcode directly from the image pixels.
type BarcodeScanner interface {
	Scan(ctx context.Context, imagePath string) (string, error)
}

// Options controls the acceptance and escalation policy.
type Options struct {
	// Threshold is the minimum score for StatusOK.
	Threshold int

	// RequireBarcode forces cloud escalation when no barcode was found locally.
	RequireBarcode bool
}

// DefaultOptions returns the default policy: threshold 75, barcode required.
func DefaultOptions() Options {
	return Options{Threshold: label.DefaultThreshold, RequireBarcode: true}
}

// Reconciler implements the local-first, cloud-fallback extraction strategy.
type Reconciler struct {
	local   Engine
	cloud   Engine
	barcode BarcodeScanner
	parser  *label.Parser
	opts    Options
	log     zerolog.Logger
}

// New creates a Reconciler. cloud and barcode may be nil.
func New(local, cloud Engine, barcode BarcodeScanner, opts Options) *Reconciler {
	return &Reconciler{
		local:   local,
		cloud:   cloud,
		barcode: barcode,
		parser:  label.NewParser(opts.Threshold),
		opts:    opts,
		log:     logger.WithComponent("reconciler"),
	}
}

// Options returns the policy the Reconciler was built with.
func (r *Reconciler) Options() Options {
	return r.opts
}

// Extract reads the label at imagePath. Only a cloud OCR failure is
// returned as an error.
func (r *Reconciler) Extract(ctx context.Context, imagePath string) (label.Fields, error) {
	const op = "Reconciler.Extract"

	log := r.log.With().Str("file", imagePath).Logger()

	var raw label.RawText
	if r.local != nil {
		var err error
		raw, err = r.local.Recognize(ctx, imagePath)
		if err != nil {
			log.Warn().Err(err).Msg("Local OCR failed, continuing with empty text")
			raw = label.RawText{}
		}
	}

	fields := r.parser.Parse(raw)

	if fields.Barcode == "" && r.barcode != nil {
		if code := r.scanBarcode(ctx, imagePath, log); code != "" {
			fields.Barcode = code
			fields = fields.Rescore(r.opts.Threshold)
		}
	}

	log.Debug().
		Int("score", fields.Score).
		Str("status", string(fields.Status)).
		Msg("Local pass completed")

	if !r.shouldEscalate(fields) {
		return fields, nil
	}

	log.Info().
		Int("local_score", fields.Score).
		Bool("barcode_missing", fields.Barcode == "").
		Msg("Escalating to cloud OCR")

	cloudRaw, err := r.cloud.Recognize(ctx, imagePath)
	if err != nil {
		return label.Fields{}, fmt.Errorf("%s: cloud OCR: %w", op, err)
	}

	cloudFields := r.parser.Parse(cloudRaw)
	merged := label.Merge(fields, cloudFields, r.opts.Threshold)

	log.Debug().
		Int("cloud_score", cloudFields.Score).
		Int("final_score", merged.Score).
		Str("status", string(merged.Status)).
		Msg("Cloud pass merged")

	return merged, nil
}

// shouldEscalate reports whether fields justify a paid cloud call.
func (r *Reconciler) shouldEscalate(fields label.Fields) bool {
	if r.cloud == nil {
		return false
	}
	if fields.Score < r.opts.Threshold {
		return true
	}
	return fields.Barcode == "" && r.opts.RequireBarcode
}

// scanBarcode returns the decoded barcode when it is a plain 12 or 13
// digit retail code, and "" otherwise.
func (r *Reconciler) scanBarcode(ctx context.Context, imagePath string, log zerolog.Logger) string {
	code, err := r.barcode.Scan(ctx, imagePath)
	if err != nil {
		log.Debug().Err(err).Msg("Barcode scan found nothing")
		return ""
	}
	if !label.IsRetailBarcode(code) {
		log.Debug().Str("barcode", code).Msg("Ignoring non-retail barcode")
		return ""
	}
	return code
}
