package ocr_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelscan/internal/label"
	"labelscan/internal/ocr"
)

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"4056015456123", "4056015456123"},
		{"F 42 1/2", "  42 1 2"},
		{"IE3675", "  3675"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ocr.DigitsOnly(tt.in), tt.in)
	}
}

func TestOCRResult_RawText(t *testing.T) {
	r := &ocr.OCRResult{Text: "GAZELLE\n4056015456123"}

	assert.Equal(t, label.RawText{
		General: "GAZELLE\n4056015456123",
		Digits:  "        4056015456123",
	}, r.RawText())
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, ocr.IsImageFile("label.JPG"))
	assert.True(t, ocr.IsImageFile("dir/label.heic"))
	assert.True(t, ocr.IsImageFile("label.webp"))
	assert.False(t, ocr.IsImageFile("label.pdf"))
	assert.False(t, ocr.IsImageFile("README"))
}

func TestLazyEngine_RetriesFailedBuild(t *testing.T) {
	calls := 0
	lazy := ocr.NewLazyEngine(func(ctx context.Context) (ocr.Engine, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("no credentials")
		}
		return ocr.EngineFunc(func(ctx context.Context, path string) (label.RawText, error) {
			return label.RawText{General: path}, nil
		}), nil
	})

	_, err := lazy.Recognize(context.Background(), "a.jpg")
	require.Error(t, err)
	var ocrErr *ocr.OCRError
	assert.True(t, errors.As(err, &ocrErr))
	assert.False(t, lazy.Built())

	raw, err := lazy.Recognize(context.Background(), "b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", raw.General)
	assert.True(t, lazy.Built())

	_, err = lazy.Recognize(context.Background(), "c.jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWrapOCRError(t *testing.T) {
	assert.NoError(t, ocr.WrapOCRError("op", nil, ""))

	err := ocr.WrapOCRError("Scan", ocr.ErrNoBarcode, "label.jpg")
	assert.ErrorIs(t, err, ocr.ErrNoBarcode)
	assert.Equal(t, "ocr: Scan failed: label.jpg: no barcode found", err.Error())

	// Already wrapped errors keep their original operation.
	again := ocr.WrapOCRError("Outer", err, "ignored")
	assert.Same(t, err, again)
}

func TestOCRError_Is(t *testing.T) {
	err := ocr.NewOCRError("Recognize", fmt.Errorf("vision: %w", ocr.ErrQuotaExceeded), "")

	assert.True(t, err.Is(ocr.ErrQuotaExceeded))
	assert.False(t, err.Is(ocr.ErrNoBarcode))
	assert.ErrorIs(t, fmt.Errorf("batch: %w", err), ocr.ErrQuotaExceeded)
}

func TestPrepareForOCR_UpscalesSmallImages(t *testing.T) {
	src := imaging.New(200, 100, color.White)

	out := ocr.PrepareForOCR(src)

	assert.Equal(t, 1200, out.Bounds().Dy())
	assert.Equal(t, 2400, out.Bounds().Dx())
}

func TestPrepareForOCR_KeepsLargeImages(t *testing.T) {
	src := imaging.New(900, 1600, color.White)

	out := ocr.PrepareForOCR(src)

	assert.Equal(t, image.Rect(0, 0, 900, 1600), out.Bounds())
}

func TestImageLoader_OpenAndReadBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label.png")
	require.NoError(t, imaging.Save(imaging.New(40, 20, color.Black), path))

	loader := ocr.ImageLoader{}

	img, err := loader.Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	data, err := loader.ReadBytes(context.Background(), path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestImageLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	loader := ocr.ImageLoader{HeicConverter: "paint"}

	empty := filepath.Join(dir, "empty.jpg")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err := loader.ReadBytes(context.Background(), empty)
	assert.ErrorIs(t, err, ocr.ErrEmptyImage)

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = loader.Open(context.Background(), garbage)
	assert.ErrorIs(t, err, ocr.ErrUnsupportedImage)

	heic := filepath.Join(dir, "label.heic")
	require.NoError(t, os.WriteFile(heic, []byte("heic"), 0o644))
	_, err = loader.Open(context.Background(), heic)
	assert.ErrorIs(t, err, ocr.ErrUnsupportedImage)
}

func TestBarcodeScanner_ScanImage(t *testing.T) {
	matrix, err := oned.NewEAN13Writer().Encode("4006381333931", gozxing.BarcodeFormat_EAN_13, 400, 150, nil)
	require.NoError(t, err)

	scanner := ocr.NewBarcodeScanner("")
	code, err := scanner.ScanImage(context.Background(), matrix)

	require.NoError(t, err)
	assert.Equal(t, "4006381333931", code)
}

func TestBarcodeScanner_Code128RetailPayload(t *testing.T) {
	matrix, err := oned.NewCode128Writer().Encode("4006381333931", gozxing.BarcodeFormat_CODE_128, 500, 150, nil)
	require.NoError(t, err)

	code, err := ocr.NewBarcodeScanner("").ScanImage(context.Background(), matrix)

	require.NoError(t, err)
	assert.Equal(t, "4006381333931", code)
}

func TestBarcodeScanner_SkipsNonRetailSymbols(t *testing.T) {
	matrix, err := oned.NewCode128Writer().Encode("LBL-2024-0001", gozxing.BarcodeFormat_CODE_128, 500, 150, nil)
	require.NoError(t, err)

	_, err = ocr.NewBarcodeScanner("").ScanImage(context.Background(), matrix)

	assert.ErrorIs(t, err, ocr.ErrNoBarcode)
}

func TestBarcodeScanner_NoBarcode(t *testing.T) {
	scanner := ocr.NewBarcodeScanner("")

	_, err := scanner.ScanImage(context.Background(), imaging.New(300, 120, color.White))

	assert.ErrorIs(t, err, ocr.ErrNoBarcode)
}

func TestBarcodeScanner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ocr.NewBarcodeScanner("").ScanImage(ctx, imaging.New(10, 10, color.White))

	assert.ErrorIs(t, err, context.Canceled)
}
