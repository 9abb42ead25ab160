package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"labelscan/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "labelscan",
	Short: "Read shoe-box labels from photos and file them by confidence",
	Long: `labelscan extracts model, article code, color-way, French size and EAN-13
barcode from photos of shoe-box labels.

A free local Tesseract pass runs first. A paid cloud OCR pass (Google Cloud
Vision or Document AI) runs only when the local result scores below the
acceptance threshold or the barcode is still missing. Each photo is then moved
to an accepted or review folder and recorded as one ledger row.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
