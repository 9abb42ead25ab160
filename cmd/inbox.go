package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"labelscan/internal/config"
	"labelscan/internal/drive"
	"labelscan/internal/logger"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List the pending photos of the Drive inbox",
	Long: `List the images waiting in DRIVE_INBOX_FOLDER_ID without processing them.
Useful to check folder sharing and credentials before running a batch.`,
	Example: `  labelscan inbox
  labelscan inbox --limit 10 --json`,
	Args: cobra.NoArgs,
	RunE: runInbox,
}

// InboxOutput represents the JSON output structure when --json flag is used
type InboxOutput struct {
	Folder string       `json:"folder"`
	Count  int          `json:"count"`
	Files  []drive.File `json:"files"`
}

func init() {
	rootCmd.AddCommand(inboxCmd)

	inboxCmd.Flags().Int("limit", 50, "Maximum files to list")
	inboxCmd.Flags().Bool("json", false, "Output as JSON")
	inboxCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

func runInbox(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("inbox")

	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DriveInboxFolderID == "" {
		return fmt.Errorf("DRIVE_INBOX_FOLDER_ID is required")
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	svc, err := drive.NewDriveService(ctx, cfg.Credentials(), drive.Folders{Inbox: cfg.DriveInboxFolderID})
	if err != nil {
		return err
	}

	files, err := svc.ListImages(ctx, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(InboxOutput{
			Folder: cfg.DriveInboxFolderID,
			Count:  len(files),
			Files:  files,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%d pending photos in %s\n\n", len(files), cfg.DriveInboxFolderID)
	for _, f := range files {
		fmt.Printf("  %-36s %-12s %s\n", f.ID, f.MimeType, f.Name)
	}
	return nil
}
