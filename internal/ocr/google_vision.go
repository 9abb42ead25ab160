package ocr

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"labelscan/internal/gcp"
	"labelscan/internal/label"
	"labelscan/internal/logger"
)

// GoogleVisionOCRService implements Engine using Google Cloud Vision text detection.
type GoogleVisionOCRService struct {
	client *vision.ImageAnnotatorClient
	images ImageLoader
	log    zerolog.Logger
}

// NewGoogleVisionOCRService creates a Vision client from creds. Without
// explicit credentials the client uses Application Default Credentials.
func NewGoogleVisionOCRService(ctx context.Context, creds gcp.Credentials, images ImageLoader) (*GoogleVisionOCRService, error) {
	const op = "NewGoogleVisionOCRService"

	client, err := vision.NewImageAnnotatorClient(ctx, creds.ClientOptions()...)
	if err != nil {
		if !creds.IsSet() {
			return nil, WrapOCRError(op, gcp.ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return NewGoogleVisionOCRServiceWithClient(client, images), nil
}

// NewGoogleVisionOCRServiceWithClient creates a service with an explicit client (for testing).
func NewGoogleVisionOCRServiceWithClient(client *vision.ImageAnnotatorClient, images ImageLoader) *GoogleVisionOCRService {
	return &GoogleVisionOCRService{
		client: client,
		images: images,
		log:    logger.WithComponent("google-vision"),
	}
}

// Recognize implements Engine.
func (g *GoogleVisionOCRService) Recognize(ctx context.Context, imagePath string) (label.RawText, error) {
	result, err := g.RecognizeWithMetadata(ctx, imagePath)
	if err != nil {
		return label.RawText{}, err
	}
	return result.RawText(), nil
}

// RecognizeWithMetadata runs text detection on the image and returns the
// transcription with confidence and language metadata. An image with no
// detectable text yields an empty transcription, not an error.
func (g *GoogleVisionOCRService) RecognizeWithMetadata(ctx context.Context, imagePath string) (*OCRResult, error) {
	const op = "RecognizeWithMetadata"
	startTime := time.Now()

	content, err := g.images.ReadBytes(ctx, imagePath)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	imageResp := resp.Responses[0]
	if imageResp.Error != nil && imageResp.Error.Message != "" {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", imageResp.Error.Message))
	}

	result := visionResult(imageResp)
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	g.log.Debug().
		Str("file", imagePath).
		Int("chars", len(result.Text)).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Vision text detection completed")

	return result, nil
}

// visionResult extracts the transcription and metadata from a single image
// response. The first text annotation holds the whole text block.
func visionResult(resp *visionpb.AnnotateImageResponse) *OCRResult {
	result := &OCRResult{Engine: "vision"}

	if len(resp.TextAnnotations) > 0 {
		result.Text = resp.TextAnnotations[0].Description
	} else if resp.FullTextAnnotation != nil {
		result.Text = resp.FullTextAnnotation.Text
	}

	if resp.FullTextAnnotation == nil {
		return result
	}

	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)

	for _, page := range resp.FullTextAnnotation.Pages {
		if page.Confidence > 0 {
			confidenceSum += page.Confidence
			confidenceCount++
		}
		if page.Property == nil {
			continue
		}
		for _, lang := range page.Property.DetectedLanguages {
			if lang.LanguageCode != "" && !languageSet[lang.LanguageCode] {
				languageSet[lang.LanguageCode] = true
				result.LanguageCodes = append(result.LanguageCodes, lang.LanguageCode)
			}
		}
	}

	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	return result
}

// Close closes the underlying Vision client.
func (g *GoogleVisionOCRService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
