package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"labelscan/internal/gcp"
	"labelscan/internal/label"
	"labelscan/internal/logger"
	"labelscan/internal/reconcile"
)

// Cloud OCR engine names accepted in CLOUD_OCR_ENGINE.
const (
	CloudEngineVision     = "vision"
	CloudEngineDocumentAI = "documentai"
	CloudEngineNone       = "none"
)

type Config struct {
	// Extraction policy
	ScoreOKThreshold int
	RequireBarcode   bool
	BatchLimit       int

	// OCR engines
	CloudOCREngine string
	TesseractLang  string
	TessdataPrefix string
	HeicConverter  string

	// Google Cloud Configuration
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Google Drive Configuration
	DriveInboxFolderID     string
	DriveProcessedFolderID string
	DriveReviewFolderID    string

	// Google Sheets Configuration
	SheetRef             string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		ScoreOKThreshold:       getEnvAsInt("SCORE_OK_THRESHOLD", label.DefaultThreshold),
		RequireBarcode:         getEnvAsBool("REQUIRE_BARCODE", true),
		BatchLimit:             getEnvAsInt("BATCH_LIMIT", 20),
		CloudOCREngine:         strings.ToLower(getEnv("CLOUD_OCR_ENGINE", CloudEngineVision)),
		TesseractLang:          getEnv("TESSERACT_LANG", "eng"),
		TessdataPrefix:         getEnv("TESSDATA_PREFIX", ""),
		HeicConverter:          getEnv("HEIC_CONVERTER", "magick"),
		GoogleCredentialsJSON:  getEnv("GOOGLE_CREDENTIALS", getEnv("GOOGLE_CREDENTIALS_JSON", "")),
		GoogleCredentialsFile:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCloudProject:     getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:    getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:  getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DriveInboxFolderID:     getEnv("DRIVE_INBOX_FOLDER_ID", ""),
		DriveProcessedFolderID: getEnv("DRIVE_PROCESSED_FOLDER_ID", ""),
		DriveReviewFolderID:    getEnv("DRIVE_REVIEW_FOLDER_ID", ""),
		SheetRef:               getEnv("SHEET_ID", getEnv("GOOGLE_SHEET_URL", "")),
		GoogleSheetWorksheet:   getEnv("GOOGLE_SHEET_WORKSHEET", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:          getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:              getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.ScoreOKThreshold < 0 || c.ScoreOKThreshold > 100 {
		return fmt.Errorf("SCORE_OK_THRESHOLD must be between 0 and 100, got %d", c.ScoreOKThreshold)
	}
	if c.BatchLimit <= 0 {
		return fmt.Errorf("BATCH_LIMIT must be positive, got %d", c.BatchLimit)
	}
	switch c.CloudOCREngine {
	case CloudEngineVision, CloudEngineDocumentAI, CloudEngineNone:
	default:
		return fmt.Errorf("CLOUD_OCR_ENGINE must be one of vision | documentai | none, got %q", c.CloudOCREngine)
	}
	switch c.HeicConverter {
	case "magick", "heif-convert", "sips":
	default:
		return fmt.Errorf("HEIC_CONVERTER must be one of magick | heif-convert | sips, got %q", c.HeicConverter)
	}
	return nil
}

// RequireDrive checks the folder IDs needed to process a Drive inbox.
func (c *Config) RequireDrive() error {
	if c.DriveInboxFolderID == "" {
		return fmt.Errorf("DRIVE_INBOX_FOLDER_ID is required")
	}
	if c.DriveProcessedFolderID == "" {
		return fmt.Errorf("DRIVE_PROCESSED_FOLDER_ID is required")
	}
	if c.DriveReviewFolderID == "" {
		return fmt.Errorf("DRIVE_REVIEW_FOLDER_ID is required")
	}
	return nil
}

// RequireSheet checks that a ledger spreadsheet is configured.
func (c *Config) RequireSheet() error {
	if c.SheetRef == "" {
		return fmt.Errorf("SHEET_ID or GOOGLE_SHEET_URL is required")
	}
	return nil
}

// Credentials returns the configured service-account credentials.
func (c *Config) Credentials() gcp.Credentials {
	return gcp.Credentials{JSON: c.GoogleCredentialsJSON, File: c.GoogleCredentialsFile}
}

// Extraction returns the acceptance and escalation policy.
func (c *Config) Extraction() reconcile.Options {
	return reconcile.Options{
		Threshold:      c.ScoreOKThreshold,
		RequireBarcode: c.RequireBarcode,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvAsBool accepts 1/0, true/false, yes/no and on/off.
func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
