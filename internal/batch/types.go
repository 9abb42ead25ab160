package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"labelscan/internal/label"
)

var (
	// ErrNoSource is returned when a Processor is built without a Source.
	ErrNoSource = errors.New("batch: no source configured")

	// ErrNoLedger is returned when a Processor is built without a Ledger.
	ErrNoLedger = errors.New("batch: no ledger configured")

	// ErrNoExtractor is returned when a Processor is built without an Extractor.
	ErrNoExtractor = errors.New("batch: no extractor configured")
)

// Item is one pending label photo in the source collection.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bucket is a routing destination.
type Bucket string

const (
	BucketAccepted Bucket = "accepted"
	BucketReview   Bucket = "review"
)

// BucketFor maps an extraction status to its destination.
func BucketFor(status label.Status) Bucket {
	if status == label.StatusOK {
		return BucketAccepted
	}
	return BucketReview
}

// Source lists, downloads and routes pending items.
type Source interface {
	ListPending(ctx context.Context, limit int) ([]Item, error)

	// Fetch stores the item's bytes inside dir and returns the local path.
	Fetch(ctx context.Context, item Item, dir string) (string, error)

	Move(ctx context.Context, item Item, bucket Bucket) error
}

// Ledger persists extraction rows.
type Ledger interface {
	AppendRows(ctx context.Context, rows []Row) error
}

// Extractor turns a local image into label fields.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (label.Fields, error)
}

// NopLedger discards rows.
type NopLedger struct{}

// AppendRows implements Ledger.
func (NopLedger) AppendRows(ctx context.Context, rows []Row) error { return nil }

// TimestampLayout formats the batch timestamp written to every row.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the ledger column order.
var Header = []string{"Timestamp", "File", "Model", "Article", "Color", "SizeFR", "Barcode", "Score", "Status"}

// Row is one ledger entry.
type Row struct {
	Timestamp string
	File      string
	Fields    label.Fields
}

// Values returns the row cells in Header order. Score is numeric.
func (r Row) Values() []interface{} {
	return []interface{}{
		r.Timestamp,
		r.File,
		r.Fields.Model,
		r.Fields.ArticleCode,
		r.Fields.Color,
		r.Fields.SizeFR,
		r.Fields.Barcode,
		r.Fields.Score,
		string(r.Fields.Status),
	}
}

// Strings returns the row cells as text.
func (r Row) Strings() []string {
	return []string{
		r.Timestamp,
		r.File,
		r.Fields.Model,
		r.Fields.ArticleCode,
		r.Fields.Color,
		r.Fields.SizeFR,
		r.Fields.Barcode,
		strconv.Itoa(r.Fields.Score),
		string(r.Fields.Status),
	}
}

// Outcome is the per-item result of a batch. Exactly one of Err or
// Status/Score is meaningful.
type Outcome struct {
	File   string
	Status label.Status
	Score  int
	Err    error
}

// OK reports whether the item was extracted and routed.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// MarshalJSON renders {"file","status","score"} or {"file","error"}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(struct {
			File  string `json:"file"`
			Error string `json:"error"`
		}{o.File, o.Err.Error()})
	}
	return json.Marshal(struct {
		File   string       `json:"file"`
		Status label.Status `json:"status"`
		Score  int          `json:"score"`
	}{o.File, o.Status, o.Score})
}

// Report is the result of one ProcessBatch call.
type Report struct {
	RunID     string    `json:"runId"`
	Processed int       `json:"processed"`
	Results   []Outcome `json:"results"`
	Rows      []Row     `json:"-"`
}

// Summary counts outcomes by kind.
func (r *Report) Summary() (ok, review, failed int) {
	for _, o := range r.Results {
		switch {
		case o.Err != nil:
			failed++
		case o.Status == label.StatusOK:
			ok++
		default:
			review++
		}
	}
	return ok, review, failed
}

// LedgerError reports a failed batched ledger write. The report returned
// alongside it is complete.
type LedgerError struct {
	Rows int
	Err  error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("batch: append %d ledger rows: %v", e.Rows, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
