// Package batch drives one pass over the pending label photos: fetch,
// extract, route to the accepted or review bucket, and record one ledger
// row per extracted item in a single batched write.
//
// Items are processed sequentially. A failure on one item is recorded in
// its Outcome and never aborts the rest of the batch.
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"labelscan/internal/logger"
)

// DefaultBatchLimit is the number of items processed when no limit is given.
const DefaultBatchLimit = 20

// Config holds batch settings.
type Config struct {
	// BatchLimit is used when ProcessBatch is called with limit <= 0.
	BatchLimit int

	// TempDir is the parent of the per-item scratch directories. Empty
	// means os.TempDir.
	TempDir string
}

// Processor runs batches against a Source, an Extractor and a Ledger.
type Processor struct {
	source    Source
	extractor Extractor
	ledger    Ledger
	config    Config
	now       func() time.Time
	log       zerolog.Logger
}

// NewProcessor validates its collaborators and returns a Processor.
func NewProcessor(source Source, extractor Extractor, ledger Ledger, config Config) (*Processor, error) {
	switch {
	case source == nil:
		return nil, ErrNoSource
	case extractor == nil:
		return nil, ErrNoExtractor
	case ledger == nil:
		return nil, ErrNoLedger
	}
	if config.BatchLimit <= 0 {
		config.BatchLimit = DefaultBatchLimit
	}

	return &Processor{
		source:    source,
		extractor: extractor,
		ledger:    ledger,
		config:    config,
		now:       time.Now,
		log:       logger.WithComponent("batch"),
	}, nil
}

// WithClock replaces the clock used for row timestamps.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// ProcessBatch processes up to limit pending items. Rows are prepared for
// every extracted item, including items whose move fails, and appended in
// one call at the end. A listing failure aborts the batch. A ledger
// failure is returned as *LedgerError together with the full report.
func (p *Processor) ProcessBatch(ctx context.Context, limit int) (*Report, error) {
	const op = "Processor.ProcessBatch"

	if limit <= 0 {
		limit = p.config.BatchLimit
	}

	runID := uuid.NewString()
	log := logger.ForRun(p.log, runID)

	items, err := p.source.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: list pending items: %w", op, err)
	}
	if len(items) > limit {
		items = items[:limit]
	}

	log.Info().Int("items", len(items)).Int("limit", limit).Msg("Starting batch")

	report := &Report{RunID: runID, Results: make([]Outcome, 0, len(items))}
	ts := p.now().Format(TimestampLayout)

	for _, item := range items {
		outcome, row := p.processItem(ctx, item, ts, log)
		report.Results = append(report.Results, outcome)
		if row != nil {
			report.Rows = append(report.Rows, *row)
		}
	}
	report.Processed = len(report.Results)

	ok, review, failed := report.Summary()
	log.Info().
		Int("processed", report.Processed).
		Int("ok", ok).
		Int("review", review).
		Int("failed", failed).
		Msg("Batch completed")

	if len(report.Rows) == 0 {
		return report, nil
	}

	if err := p.ledger.AppendRows(ctx, report.Rows); err != nil {
		log.Error().Err(err).Int("rows", len(report.Rows)).Msg("Ledger append failed")
		return report, &LedgerError{Rows: len(report.Rows), Err: err}
	}

	log.Info().Int("rows", len(report.Rows)).Msg("Ledger rows appended")
	return report, nil
}

// processItem handles one item inside its own scratch directory. The
// returned row is nil when extraction did not produce fields.
func (p *Processor) processItem(ctx context.Context, item Item, ts string, log zerolog.Logger) (Outcome, *Row) {
	log = logger.ForItem(log, item.ID, item.Name)
	outcome := Outcome{File: item.Name}

	dir, err := os.MkdirTemp(p.config.TempDir, "labelscan-item-*")
	if err != nil {
		outcome.Err = fmt.Errorf("create scratch dir: %w", err)
		log.Error().Err(err).Msg("Failed to create scratch directory")
		return outcome, nil
	}
	defer os.RemoveAll(dir)

	path, err := p.source.Fetch(ctx, item, dir)
	if err != nil {
		outcome.Err = fmt.Errorf("fetch: %w", err)
		log.Error().Err(err).Msg("Failed to fetch item")
		return outcome, nil
	}

	fields, err := p.extractor.Extract(ctx, path)
	if err != nil {
		outcome.Err = fmt.Errorf("extract: %w", err)
		log.Error().Err(err).Msg("Failed to extract fields")
		return outcome, nil
	}

	row := &Row{Timestamp: ts, File: item.Name, Fields: fields}

	bucket := BucketFor(fields.Status)
	if err := p.source.Move(ctx, item, bucket); err != nil {
		outcome.Err = fmt.Errorf("move to %s: %w", bucket, err)
		log.Error().Err(err).Str("bucket", string(bucket)).Msg("Failed to move item")
		return outcome, row
	}

	outcome.Status = fields.Status
	outcome.Score = fields.Score

	log.Info().
		Int("score", fields.Score).
		Str("status", string(fields.Status)).
		Str("bucket", string(bucket)).
		Msg("Item processed")

	return outcome, row
}
