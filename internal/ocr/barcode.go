package ocr

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/rs/zerolog"

	"labelscan/internal/label"
	"labelscan/internal/logger"
)

// BarcodeScanner decodes 1D retail barcodes from label photos.
type BarcodeScanner struct {
	images  ImageLoader
	readers []gozxing.Reader
	log     zerolog.Logger
}

// NewBarcodeScanner creates a scanner for EAN-13, UPC-A, EAN-8 and Code 128.
func NewBarcodeScanner(heicConverter string) *BarcodeScanner {
	return &BarcodeScanner{
		images: ImageLoader{HeicConverter: heicConverter},
		readers: []gozxing.Reader{
			oned.NewEAN13Reader(),
			oned.NewUPCAReader(),
			oned.NewEAN8Reader(),
			oned.NewCode128Reader(),
		},
		log: logger.WithComponent("barcode"),
	}
}

// Scan returns the first 12 or 13 digit retail payload found in the image
// at path. Other symbols (EAN-8 codes, Code 128 tracking labels) are
// skipped and the search goes on. It tries the original photo, a
// preprocessed copy and a rotated copy for labels photographed sideways.
// ErrNoBarcode is returned when no retail code decodes.
func (s *BarcodeScanner) Scan(ctx context.Context, path string) (string, error) {
	const op = "BarcodeScanner.Scan"

	img, err := s.images.Open(ctx, path)
	if err != nil {
		return "", WrapOCRError(op, err, "failed to load image")
	}
	return s.ScanImage(ctx, img)
}

// ScanImage is Scan for an already decoded image.
func (s *BarcodeScanner) ScanImage(ctx context.Context, img image.Image) (string, error) {
	const op = "BarcodeScanner.ScanImage"

	variants := []func() image.Image{
		func() image.Image { return img },
		func() image.Image { return PrepareForOCR(img) },
		func() image.Image { return imaging.Rotate90(img) },
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	for i, variant := range variants {
		if err := ctx.Err(); err != nil {
			return "", WrapOCRError(op, err, "scan cancelled")
		}

		bmp, err := gozxing.NewBinaryBitmapFromImage(variant())
		if err != nil {
			s.log.Debug().Err(err).Int("variant", i).Msg("Failed to create bitmap")
			continue
		}

		for _, reader := range s.readers {
			result, err := reader.Decode(bmp, hints)
			if err != nil {
				continue
			}
			text := result.GetText()
			if !label.IsRetailBarcode(text) {
				s.log.Debug().
					Str("format", result.GetBarcodeFormat().String()).
					Str("text", text).
					Int("variant", i).
					Msg("Skipping non-retail symbol")
				continue
			}
			s.log.Debug().
				Str("format", result.GetBarcodeFormat().String()).
				Int("variant", i).
				Msg("Barcode decoded")
			return text, nil
		}
	}

	return "", NewOCRError(op, ErrNoBarcode, "")
}
