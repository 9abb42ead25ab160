package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelscan/internal/config"
	"labelscan/internal/gcp"
	"labelscan/internal/reconcile"
)

var envKeys = []string{
	"SCORE_OK_THRESHOLD", "REQUIRE_BARCODE", "BATCH_LIMIT", "CLOUD_OCR_ENGINE",
	"TESSERACT_LANG", "TESSDATA_PREFIX", "HEIC_CONVERTER",
	"GOOGLE_CREDENTIALS", "GOOGLE_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS",
	"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION", "DOCUMENT_AI_PROCESSOR_ID",
	"DRIVE_INBOX_FOLDER_ID", "DRIVE_PROCESSED_FOLDER_ID", "DRIVE_REVIEW_FOLDER_ID",
	"SHEET_ID", "GOOGLE_SHEET_URL", "GOOGLE_SHEET_WORKSHEET",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, reconcile.Options{Threshold: 75, RequireBarcode: true}, cfg.Extraction())
	assert.Equal(t, 20, cfg.BatchLimit)
	assert.Equal(t, config.CloudEngineVision, cfg.CloudOCREngine)
	assert.Equal(t, "eng", cfg.TesseractLang)
	assert.Equal(t, "magick", cfg.HeicConverter)
	assert.Equal(t, "us", cfg.GoogleCloudLocation)
	assert.Equal(t, "stderr", cfg.GetLoggerConfig().Output)
	assert.False(t, cfg.Credentials().IsSet())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCORE_OK_THRESHOLD", "50")
	t.Setenv("REQUIRE_BARCODE", "no")
	t.Setenv("BATCH_LIMIT", "5")
	t.Setenv("CLOUD_OCR_ENGINE", "DocumentAI")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", `{"type":"service_account"}`)
	t.Setenv("GOOGLE_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, reconcile.Options{Threshold: 50, RequireBarcode: false}, cfg.Extraction())
	assert.Equal(t, 5, cfg.BatchLimit)
	assert.Equal(t, config.CloudEngineDocumentAI, cfg.CloudOCREngine)
	assert.Equal(t, gcp.Credentials{JSON: `{"type":"service_account"}`}, cfg.Credentials())
	assert.NoError(t, cfg.RequireSheet())
}

func TestLoad_SheetIDWinsOverURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "sheet-id", cfg.SheetRef)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SCORE_OK_THRESHOLD", "101"},
		{"SCORE_OK_THRESHOLD", "-1"},
		{"BATCH_LIMIT", "0"},
		{"CLOUD_OCR_ENGINE", "azure"},
		{"HEIC_CONVERTER", "paint"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestRequireDrive(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRIVE_INBOX_FOLDER_ID", "inbox")
	t.Setenv("DRIVE_PROCESSED_FOLDER_ID", "done")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.RequireDrive(), "DRIVE_REVIEW_FOLDER_ID")

	cfg.DriveReviewFolderID = "review"
	assert.NoError(t, cfg.RequireDrive())
}
