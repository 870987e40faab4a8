package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local library state",
	Long: `Status reports the size of the local library, how many papers have
downloaded PDFs and extracted text, and the last sync position.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	stats, err := apiClient.Store.Stats()
	if err != nil {
		return fmt.Errorf("read library stats: %w", err)
	}

	credentials, err := apiClient.Creds.Retrieve()
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"stats":     stats,
			"logged_in": credentials.Valid(),
		})
		return nil
	}

	printInfo("Library status:")
	printInfo("   Papers:           %d", stats.Papers)
	printInfo("   With PDF:         %d", stats.WithAttachment)
	printInfo("   With full text:   %d", stats.WithFullText)
	printInfo("   Library version:  %d", stats.CursorVersion)
	if stats.LastSyncTime.IsZero() {
		printInfo("   Last sync:        never")
	} else {
		printInfo("   Last sync:        %s", stats.LastSyncTime.Local().Format("2006-01-02 15:04:05"))
	}

	if credentials.Valid() {
		printInfo("   Account:          user %s", credentials.UserID)
	} else {
		printWarning("   Account:          not logged in (run 'litsync login')")
	}

	return nil
}
