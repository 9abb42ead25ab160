// Package drive implements the batch source over Google Drive folders: an
// inbox folder of label photos and the processed and review folders they
// are moved to.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"labelscan/internal/batch"
	"labelscan/internal/gcp"
	"labelscan/internal/logger"
)

// ErrMissingFolder is returned when a required folder ID is not configured.
var ErrMissingFolder = errors.New("drive: folder ID not configured")

// Folders holds the Drive folder IDs used by a batch.
type Folders struct {
	Inbox     string
	Processed string
	Review    string
}

// File is a Drive file listed in the inbox.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// Service handles Google Drive operations
type Service struct {
	driveService *drive.Service
	folders      Folders
	log          zerolog.Logger
}

// NewDriveService creates a Drive client authorized with the service account.
func NewDriveService(ctx context.Context, creds gcp.Credentials, folders Folders) (*Service, error) {
	const op = "NewDriveService"

	if folders.Inbox == "" {
		return nil, fmt.Errorf("%s: %w: DRIVE_INBOX_FOLDER_ID", op, ErrMissingFolder)
	}

	opt, err := creds.HTTPClientOption(ctx, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewDriveServiceWithOptions(ctx, folders, opt)
}

// NewDriveServiceWithOptions creates a service with explicit client options (for testing).
func NewDriveServiceWithOptions(ctx context.Context, folders Folders, opts ...option.ClientOption) (*Service, error) {
	const op = "NewDriveServiceWithOptions"

	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create drive service: %w", op, err)
	}

	return &Service{
		driveService: driveService,
		folders:      folders,
		log:          logger.WithComponent("drive"),
	}, nil
}

// inboxQuery selects non-trashed images directly inside folderID.
func inboxQuery(folderID string) string {
	return fmt.Sprintf("'%s' in parents and mimeType contains 'image/' and trashed=false", folderID)
}

// ListImages returns up to pageSize images of the inbox folder.
func (s *Service) ListImages(ctx context.Context, pageSize int) ([]File, error) {
	const op = "ListImages"

	call := s.driveService.Files.List().
		Q(inboxQuery(s.folders.Inbox)).
		Fields("files(id, name, mimeType)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if pageSize > 0 {
		call = call.PageSize(int64(pageSize))
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list inbox %s: %w", op, s.folders.Inbox, err)
	}

	files := make([]File, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, File{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
	}

	s.log.Debug().
		Str("folder", s.folders.Inbox).
		Int("count", len(files)).
		Msg("Listed inbox images")

	return files, nil
}

// ListPending implements batch.Source.
func (s *Service) ListPending(ctx context.Context, limit int) ([]batch.Item, error) {
	files, err := s.ListImages(ctx, limit)
	if err != nil {
		return nil, err
	}

	items := make([]batch.Item, 0, len(files))
	for _, f := range files {
		items = append(items, batch.Item{ID: f.ID, Name: f.Name})
	}
	return items, nil
}

// Fetch downloads the file content into dir.
func (s *Service) Fetch(ctx context.Context, item batch.Item, dir string) (string, error) {
	const op = "Fetch"

	resp, err := s.driveService.Files.Get(item.ID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("%s: failed to download %s: %w", op, item.Name, err)
	}
	defer resp.Body.Close()

	name := filepath.Base(item.Name)
	if name == "." || name == string(filepath.Separator) {
		name = item.ID
	}
	out := filepath.Join(dir, name)

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		return "", fmt.Errorf("%s: failed to write %s: %w", op, item.Name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().Str("file", item.Name).Int64("bytes", n).Msg("Downloaded image")
	return out, nil
}

// Move re-parents the file into the bucket's folder.
func (s *Service) Move(ctx context.Context, item batch.Item, bucket batch.Bucket) error {
	const op = "Move"

	var dest string
	switch bucket {
	case batch.BucketAccepted:
		dest = s.folders.Processed
	case batch.BucketReview:
		dest = s.folders.Review
	default:
		return fmt.Errorf("%s: unknown bucket %q", op, bucket)
	}
	if dest == "" {
		return fmt.Errorf("%s: %w: %s", op, ErrMissingFolder, bucket)
	}

	file, err := s.driveService.Files.Get(item.ID).Fields("parents").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to read parents of %s: %w", op, item.Name, err)
	}

	_, err = s.driveService.Files.Update(item.ID, &drive.File{}).
		AddParents(dest).
		RemoveParents(strings.Join(file.Parents, ",")).
		Fields("id, parents").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%s: failed to move %s: %w", op, item.Name, err)
	}

	s.log.Debug().
		Str("file", item.Name).
		Str("bucket", string(bucket)).
		Str("folder", dest).
		Msg("Moved image")

	return nil
}
