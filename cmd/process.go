package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"labelscan/internal/batch"
	"labelscan/internal/config"
	"labelscan/internal/drive"
	"labelscan/internal/folder"
	"labelscan/internal/logger"
	"labelscan/internal/sheets"
	"labelscan/internal/workbook"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a batch of pending label photos",
	Long: `Process up to --limit pending label photos: download, extract fields,
move each photo to the accepted or review folder, and append one ledger row
per extracted photo in a single write.

A failure on one photo is reported in its result and does not stop the batch.
Only a failed ledger write fails the command, after all photos are handled.

Sources:
  drive  - Google Drive folders DRIVE_INBOX_FOLDER_ID, DRIVE_PROCESSED_FOLDER_ID
           and DRIVE_REVIEW_FOLDER_ID (default)
  folder - local directories given by --inbox, --accepted and --review

Ledgers:
  sheets - Google Sheet SHEET_ID or GOOGLE_SHEET_URL (default)
  xlsx   - local workbook at --xlsx
  none   - no ledger

Required environment variables for Google services:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Process the Drive inbox with the default limit (BATCH_LIMIT)
  labelscan process

  # Process 5 photos and print the results as JSON
  labelscan process --limit 5 --json

  # Process local folders into a workbook ledger
  labelscan process --source folder --inbox ./inbox --accepted ./processed \
    --review ./review --ledger xlsx --xlsx labels.xlsx`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Int("limit", 0, "Maximum photos to process (default: BATCH_LIMIT)")
	processCmd.Flags().String("source", "drive", "Photo source (drive, folder)")
	processCmd.Flags().String("inbox", "", "Inbox directory for --source folder")
	processCmd.Flags().String("accepted", "", "Accepted directory for --source folder")
	processCmd.Flags().String("review", "", "Review directory for --source folder")
	processCmd.Flags().String("ledger", "sheets", "Ledger (sheets, xlsx, none)")
	processCmd.Flags().String("xlsx", "labels.xlsx", "Workbook path for --ledger xlsx")
	processCmd.Flags().Bool("no-cloud", false, "Never escalate to cloud OCR")
	processCmd.Flags().Bool("json", false, "Output as JSON")
	processCmd.Flags().Int("timeout", 1800, "Processing timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	limit, _ := cmd.Flags().GetInt("limit")
	sourceKind, _ := cmd.Flags().GetString("source")
	ledgerKind, _ := cmd.Flags().GetString("ledger")
	noCloud, _ := cmd.Flags().GetBool("no-cloud")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	source, err := createSource(ctx, cmd, cfg, sourceKind)
	if err != nil {
		return err
	}

	ledger, err := createLedger(ctx, cmd, cfg, ledgerKind)
	if err != nil {
		return err
	}

	reconciler, closer := newReconciler(cfg, noCloud, log)
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close cloud OCR client")
		}
	}()

	processor, err := batch.NewProcessor(source, reconciler, ledger, batch.Config{BatchLimit: cfg.BatchLimit})
	if err != nil {
		return err
	}

	log.Info().
		Str("source", sourceKind).
		Str("ledger", ledgerKind).
		Int("limit", limit).
		Msg("Starting batch processing")

	report, err := processor.ProcessBatch(ctx, limit)
	if report != nil {
		if outErr := outputReport(report, jsonOutput, log); outErr != nil {
			return outErr
		}
	}
	if err != nil {
		var ledgerErr *batch.LedgerError
		if errors.As(err, &ledgerErr) {
			return fmt.Errorf("photos were processed and moved but the ledger write failed: %w", err)
		}
		return handleOCRError(err, log)
	}

	return nil
}

// createSource builds the batch source selected by --source.
func createSource(ctx context.Context, cmd *cobra.Command, cfg *config.Config, kind string) (batch.Source, error) {
	switch kind {
	case "drive":
		if err := cfg.RequireDrive(); err != nil {
			return nil, err
		}
		return drive.NewDriveService(ctx, cfg.Credentials(), drive.Folders{
			Inbox:     cfg.DriveInboxFolderID,
			Processed: cfg.DriveProcessedFolderID,
			Review:    cfg.DriveReviewFolderID,
		})
	case "folder":
		inbox, _ := cmd.Flags().GetString("inbox")
		accepted, _ := cmd.Flags().GetString("accepted")
		review, _ := cmd.Flags().GetString("review")
		return folder.NewSource(folder.Config{Inbox: inbox, Accepted: accepted, Review: review})
	default:
		return nil, fmt.Errorf("invalid source: %s (must be 'drive' or 'folder')", kind)
	}
}

// createLedger builds the ledger selected by --ledger.
func createLedger(ctx context.Context, cmd *cobra.Command, cfg *config.Config, kind string) (batch.Ledger, error) {
	switch kind {
	case "sheets":
		if err := cfg.RequireSheet(); err != nil {
			return nil, err
		}
		return sheets.NewSheetsService(ctx, cfg.Credentials(), cfg.SheetRef, cfg.GoogleSheetWorksheet)
	case "xlsx":
		path, _ := cmd.Flags().GetString("xlsx")
		return workbook.NewLedger(path, cfg.GoogleSheetWorksheet), nil
	case "none":
		return batch.NopLedger{}, nil
	default:
		return nil, fmt.Errorf("invalid ledger: %s (must be 'sheets', 'xlsx' or 'none')", kind)
	}
}

// outputReport prints the batch report as JSON or as a text summary.
func outputReport(report *batch.Report, jsonOutput bool, log zerolog.Logger) error {
	if jsonOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}

	ok, review, failed := report.Summary()
	fmt.Printf("Processed %d photos: %d OK, %d REVIEW, %d failed\n\n", report.Processed, ok, review, failed)
	for _, o := range report.Results {
		if o.Err != nil {
			fmt.Printf("  ✗ %-40s %v\n", o.File, o.Err)
			continue
		}
		fmt.Printf("  ✓ %-40s %-6s %3d\n", o.File, o.Status, o.Score)
	}
	return nil
}
