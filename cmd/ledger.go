package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"labelscan/internal/config"
	"labelscan/internal/logger"
	"labelscan/internal/sheets"
	"labelscan/internal/workbook"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the most recent ledger rows",
	Long: `Print the last --rows rows of the ledger, read from the Google Sheet
(SHEET_ID or GOOGLE_SHEET_URL) or from a local workbook with --xlsx.`,
	Example: `  labelscan ledger
  labelscan ledger --rows 5 --xlsx labels.xlsx`,
	Args: cobra.NoArgs,
	RunE: runLedger,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.Flags().Int("rows", 20, "Number of rows to show")
	ledgerCmd.Flags().String("xlsx", "", "Read a local workbook instead of the Google Sheet")
	ledgerCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

func runLedger(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ledger")

	n, _ := cmd.Flags().GetInt("rows")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var header []string
	var rows [][]string

	if xlsxPath != "" {
		header, rows, err = workbook.NewLedger(xlsxPath, cfg.GoogleSheetWorksheet).LastRows(n)
	} else {
		if err := cfg.RequireSheet(); err != nil {
			return err
		}

		ctx, cancel := createContextWithTimeout(timeoutSecs, log)
		defer cancel()

		var svc *sheets.Service
		svc, err = sheets.NewSheetsService(ctx, cfg.Credentials(), cfg.SheetRef, cfg.GoogleSheetWorksheet)
		if err != nil {
			return err
		}
		header, rows, err = svc.LastRows(ctx, n)
	}
	if err != nil {
		return err
	}

	if len(header) == 0 {
		fmt.Println("Ledger is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}
