package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"labelscan/internal/config"
	"labelscan/internal/label"
	"labelscan/internal/logger"
	"labelscan/internal/ocr"
)

var extractCmd = &cobra.Command{
	Use:   "extract [image-file]",
	Short: "Extract label fields from one photo",
	Long: `Run the local-first extraction on a single label photo and print the
model, article code, color-way, French size, barcode, score and status.

Cloud OCR (CLOUD_OCR_ENGINE) is only called when the local score is below
SCORE_OK_THRESHOLD or the barcode is missing while REQUIRE_BARCODE is set.`,
	Example: `  # Extract fields from a photo
  labelscan extract label.jpg

  # Local OCR only, JSON output
  labelscan extract label.heic --no-cloud --json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// ExtractOutput represents the JSON output structure when --json flag is used
type ExtractOutput struct {
	label.Fields
	FileName           string `json:"file_name"`
	ProcessingDuration string `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("no-cloud", false, "Never escalate to cloud OCR")
	extractCmd.Flags().Bool("json", false, "Output as JSON")
	extractCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	noCloud, _ := cmd.Flags().GetBool("no-cloud")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]
	if err := validateImageFile(imagePath, log); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	reconciler, closer := newReconciler(cfg, noCloud, log)
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close cloud OCR client")
		}
	}()

	start := time.Now()
	fields, err := reconciler.Extract(ctx, imagePath)
	if err != nil {
		return handleOCRError(err, log)
	}
	duration := time.Since(start)

	log.Info().
		Str("file", imagePath).
		Int("score", fields.Score).
		Str("status", string(fields.Status)).
		Dur("duration", duration).
		Msg("Extraction completed")

	if jsonOutput {
		data, err := json.MarshalIndent(ExtractOutput{
			Fields:             fields,
			FileName:           filepath.Base(imagePath),
			ProcessingDuration: duration.String(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printFields(fields)
	return nil
}

// validateImageFile checks that the path is a readable, non-empty image.
func validateImageFile(path string, log zerolog.Logger) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file not found: %s", path)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied accessing image file: %s", path)
		}
		return fmt.Errorf("error accessing image file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path is not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("image file is empty: %s", path)
	}
	if !ocr.IsImageFile(path) {
		log.Warn().
			Str("file", path).
			Msg("File does not have a known image extension")
	}
	return nil
}

func printFields(f label.Fields) {
	fmt.Printf("Model:    %s\n", f.Model)
	fmt.Printf("Article:  %s\n", f.ArticleCode)
	fmt.Printf("Color:    %s\n", f.Color)
	fmt.Printf("Size FR:  %s\n", f.SizeFR)
	fmt.Printf("Barcode:  %s\n", f.Barcode)
	fmt.Printf("Score:    %d\n", f.Score)
	fmt.Printf("Status:   %s\n", f.Status)
}
