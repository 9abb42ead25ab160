package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"labelscan/internal/config"
	"labelscan/internal/gcp"
	"labelscan/internal/ocr"
	"labelscan/internal/reconcile"
)

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// cloudCloser closes whichever cloud client the lazy engine ended up building.
type cloudCloser struct {
	mu     sync.Mutex
	closer io.Closer
}

func (c *cloudCloser) set(closer io.Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closer = closer
}

func (c *cloudCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// newCloudEngine returns a lazily built cloud OCR engine for the configured
// service, or nil when cloud OCR is disabled.
func newCloudEngine(cfg *config.Config, closer *cloudCloser, log zerolog.Logger) *ocr.LazyEngine {
	images := ocr.ImageLoader{HeicConverter: cfg.HeicConverter}
	creds := cfg.Credentials()

	switch cfg.CloudOCREngine {
	case config.CloudEngineVision:
		return ocr.NewLazyEngine(func(ctx context.Context) (ocr.Engine, error) {
			log.Debug().Msg("Creating Google Vision client")
			svc, err := ocr.NewGoogleVisionOCRService(ctx, creds, images)
			if err != nil {
				return nil, err
			}
			closer.set(svc)
			return svc, nil
		})
	case config.CloudEngineDocumentAI:
		docCfg := ocr.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		}
		return ocr.NewLazyEngine(func(ctx context.Context) (ocr.Engine, error) {
			log.Debug().Msg("Creating Document AI client")
			svc, err := ocr.NewDocumentAIOCRService(ctx, docCfg, creds, images)
			if err != nil {
				return nil, err
			}
			closer.set(svc)
			return svc, nil
		})
	default:
		return nil
	}
}

// newReconciler wires the local engine, the barcode scanner and the
// optional cloud engine. The returned closer releases the cloud client.
func newReconciler(cfg *config.Config, noCloud bool, log zerolog.Logger) (*reconcile.Reconciler, io.Closer) {
	local := ocr.NewTesseractEngine(ocr.TesseractConfig{
		Language:       cfg.TesseractLang,
		TessdataPrefix: cfg.TessdataPrefix,
		HeicConverter:  cfg.HeicConverter,
	})
	scanner := ocr.NewBarcodeScanner(cfg.HeicConverter)
	closer := &cloudCloser{}

	var cloud reconcile.Engine
	if !noCloud {
		if engine := newCloudEngine(cfg, closer, log); engine != nil {
			cloud = engine
		}
	}

	log.Debug().
		Str("cloud_engine", cfg.CloudOCREngine).
		Bool("cloud_enabled", cloud != nil).
		Int("threshold", cfg.ScoreOKThreshold).
		Bool("require_barcode", cfg.RequireBarcode).
		Msg("Reconciler configured")

	return reconcile.New(local, cloud, scanner, cfg.Extraction()), closer
}

// handleOCRError provides user-friendly error messages for extraction failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Label extraction failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image is too large for cloud OCR (maximum 20MB). Try resizing the photo")
	case errors.Is(err, ocr.ErrEmptyImage):
		return fmt.Errorf("image file is empty")
	case errors.Is(err, ocr.ErrUnsupportedImage):
		return fmt.Errorf("image could not be decoded. HEIC photos need HEIC_CONVERTER (magick, heif-convert or sips) installed: %w", err)
	case errors.Is(err, gcp.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Export GOOGLE_CREDENTIALS with inline JSON:\n" +
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n" +
			"3. Set CLOUD_OCR_ENGINE=none or pass --no-cloud to run local OCR only")
	case errors.Is(err, ocr.ErrInvalidConfiguration):
		return fmt.Errorf("cloud OCR is misconfigured: %w", err)
	case errors.Is(err, ocr.ErrInvalidCredentials),
		strings.Contains(errStr, "Unauthenticated"),
		strings.Contains(errStr, "invalid_grant"),
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Check that the service account is valid "+
			"and has the 'Cloud Vision API User' or 'Document AI API User' role: %w", err)
	case errors.Is(err, ocr.ErrQuotaExceeded),
		strings.Contains(errStr, "RESOURCE_EXHAUSTED"),
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("cloud OCR quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues or service unavailability: %w", err)
	default:
		return fmt.Errorf("label extraction failed: %w", err)
	}
}
