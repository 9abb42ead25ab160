package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageSizeBytes is the maximum image size for a synchronous cloud request (20MB).
	MaxImageSizeBytes = 20 * 1024 * 1024

	// minOCRHeight is the height small photos are upscaled to before local OCR.
	minOCRHeight = 1200
)

// ImageExtensions lists the file extensions accepted as label photos.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".heic", ".heif"}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ImageLoader opens label photos, converting HEIC/HEIF to PNG first.
type ImageLoader struct {
	// HeicConverter is one of "magick", "heif-convert" or "sips".
	HeicConverter string
}

// decodablePath returns a path the standard decoders can read. For HEIC
// inputs it converts to a temporary PNG; cleanup must always be called.
func (l ImageLoader) decodablePath(ctx context.Context, path string) (string, func(), error) {
	if !isHEIC(path) {
		return path, func() {}, nil
	}
	return convertHEICtoPNG(ctx, l.HeicConverter, path)
}

// Open decodes the image at path, honoring EXIF orientation.
func (l ImageLoader) Open(ctx context.Context, path string) (image.Image, error) {
	const op = "ImageLoader.Open"

	src, cleanup, err := l.decodablePath(ctx, path)
	defer cleanup()
	if err != nil {
		return nil, WrapOCRError(op, ErrUnsupportedImage, err.Error())
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, WrapOCRError(op, ErrUnsupportedImage, fmt.Sprintf("failed to decode %s: %v", filepath.Base(path), err))
	}
	return img, nil
}

// ReadBytes returns the image bytes to upload to a cloud engine. HEIC
// inputs are converted to PNG because the cloud engines do not accept them.
func (l ImageLoader) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	const op = "ImageLoader.ReadBytes"

	src, cleanup, err := l.decodablePath(ctx, path)
	defer cleanup()
	if err != nil {
		return nil, WrapOCRError(op, ErrUnsupportedImage, err.Error())
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image")
	}
	if len(data) == 0 {
		return nil, WrapOCRError(op, ErrEmptyImage, filepath.Base(path))
	}
	if len(data) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}
	return data, nil
}

// PrepareForOCR returns a grayscale, contrast-boosted, sharpened copy of
// img, upscaled when it is too small for reliable recognition.
func PrepareForOCR(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 25)
	out = imaging.Sharpen(out, 1.0)
	if out.Bounds().Dy() < minOCRHeight {
		out = imaging.Resize(out, 0, minOCRHeight, imaging.Lanczos)
	}
	return out
}

// writeTempPNG saves img to a temporary PNG and returns its path with a
// cleanup func that removes it.
func writeTempPNG(img image.Image, pattern string) (string, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", func() {}, err
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	if err := imaging.Save(img, path); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return path, cleanup, nil
}
