package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"labelscan/internal/config"
	"labelscan/internal/label"
	"labelscan/internal/logger"
)

var parseCmd = &cobra.Command{
	Use:   "parse [text-file|-]",
	Short: "Parse label fields from raw OCR text",
	Long: `Run the field parser on a raw OCR transcription without any OCR call.
Useful to check how a noisy transcription is normalized and scored.

The text is read from the file argument, or from stdin when the argument is
"-" or missing. --digits supplies a separate digits-only transcription.`,
	Example: `  # Parse a saved transcription
  labelscan parse label.txt

  # Parse from stdin with a digits transcription
  tesseract label.jpg - | labelscan parse - --digits digits.txt --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().String("digits", "", "File with the digits-only transcription")
	parseCmd.Flags().Bool("normalized", false, "Print the normalized text before the fields")
	parseCmd.Flags().Bool("json", false, "Output as JSON")
}

func runParse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("parse")

	digitsPath, _ := cmd.Flags().GetString("digits")
	showNormalized, _ := cmd.Flags().GetBool("normalized")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var general []byte
	if len(args) == 0 || args[0] == "-" {
		general, err = io.ReadAll(cmd.InOrStdin())
	} else {
		general, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read text: %w", err)
	}

	var digits []byte
	if digitsPath != "" {
		digits, err = os.ReadFile(digitsPath)
		if err != nil {
			return fmt.Errorf("failed to read digits text: %w", err)
		}
	}

	raw := label.RawText{General: string(general), Digits: string(digits)}
	fields := label.NewParser(cfg.ScoreOKThreshold).Parse(raw)

	log.Debug().
		Int("chars", len(raw.General)).
		Int("score", fields.Score).
		Msg("Parsed raw text")

	if jsonOutput {
		data, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if showNormalized {
		fmt.Printf("Normalized: %s\n\n", label.Normalize(raw.General))
	}
	printFields(fields)
	return nil
}
