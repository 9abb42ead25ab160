// Package folder implements a batch source over local directories: an inbox
// of label photos and the accepted and review directories they are routed to.
package folder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"labelscan/internal/batch"
	"labelscan/internal/logger"
	"labelscan/internal/ocr"
)

// ErrMissingDirectory is returned when a required directory is not configured.
var ErrMissingDirectory = errors.New("folder: directory not configured")

// Config names the three directories of a folder source.
type Config struct {
	Inbox    string
	Accepted string
	Review   string
}

// Source is a batch.Source backed by the local filesystem. Item IDs are
// paths relative to the inbox.
type Source struct {
	config Config
	log    zerolog.Logger
}

// NewSource validates config and creates the destination directories.
func NewSource(config Config) (*Source, error) {
	const op = "folder.NewSource"

	for name, dir := range map[string]string{"inbox": config.Inbox, "accepted": config.Accepted, "review": config.Review} {
		if dir == "" {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrMissingDirectory, name)
		}
	}

	info, err := os.Stat(config.Inbox)
	if err != nil {
		return nil, fmt.Errorf("%s: inbox: %w", op, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: inbox %s is not a directory", op, config.Inbox)
	}

	for _, dir := range []string{config.Accepted, config.Review} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Source{config: config, log: logger.WithComponent("folder-source")}, nil
}

// ListPending returns up to limit image files of the inbox, sorted by name.
func (s *Source) ListPending(ctx context.Context, limit int) ([]batch.Item, error) {
	const op = "folder.ListPending"

	entries, err := os.ReadDir(s.config.Inbox)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && ocr.IsImageFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	items := make([]batch.Item, 0, len(names))
	for _, name := range names {
		items = append(items, batch.Item{ID: name, Name: name})
	}

	s.log.Debug().Int("count", len(items)).Str("inbox", s.config.Inbox).Msg("Listed pending images")
	return items, nil
}

// Fetch copies the item into dir.
func (s *Source) Fetch(ctx context.Context, item batch.Item, dir string) (string, error) {
	const op = "folder.Fetch"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	src, err := os.Open(filepath.Join(s.config.Inbox, item.ID))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer src.Close()

	out := filepath.Join(dir, filepath.Base(item.Name))
	dst, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("%s: copy %s: %w", op, item.Name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Move renames the item from the inbox into the bucket's directory.
func (s *Source) Move(ctx context.Context, item batch.Item, bucket batch.Bucket) error {
	const op = "folder.Move"

	var destDir string
	switch bucket {
	case batch.BucketAccepted:
		destDir = s.config.Accepted
	case batch.BucketReview:
		destDir = s.config.Review
	default:
		return fmt.Errorf("%s: unknown bucket %q", op, bucket)
	}

	from := filepath.Join(s.config.Inbox, item.ID)
	to := filepath.Join(destDir, filepath.Base(item.ID))
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().Str("file", item.Name).Str("bucket", string(bucket)).Msg("Moved image")
	return nil
}
