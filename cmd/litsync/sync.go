package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwaldner/litsync/internal/models"
	"github.com/jwaldner/litsync/internal/services/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the remote library to local storage",
	Long: `Sync fetches records changed since the last successful cycle,
upserts their metadata, downloads new PDF attachments, and extracts
text from PDFs that have none yet.

One failing record never aborts the cycle; failures are listed in
the summary.`,
	Example: `  litsync sync
  litsync sync --no-attachments
  litsync sync --json`,
	RunE: runSync,
}

var (
	syncNoAttachments bool
	syncNoExtract     bool
)

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncNoAttachments, "no-attachments", false,
		"Skip PDF attachment downloads")
	syncCmd.Flags().BoolVar(&syncNoExtract, "no-extract", false,
		"Skip the text extraction pass")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		printWarning("\nSync interrupted, cancelling...")
		cancel()
	}()

	if syncNoAttachments {
		cfg.Sync.DownloadAttachments = false
	}
	if syncNoExtract {
		cfg.Sync.ExtractText = false
	}
	service := apiClient.NewSyncService()

	if jsonOutput {
		return runSyncJSON(ctx, service)
	}
	return runSyncInteractive(ctx, service)
}

func runSyncInteractive(ctx context.Context, service *sync.Service) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range service.Events() {
			switch event.Phase {
			case sync.PhaseMetadata:
				printInfo("[%d/%d] %s", event.Current, event.Total, event.RecordTitle)
			case sync.PhaseDownloading:
				printInfo("        downloading PDF for %s", event.RecordTitle)
			case sync.PhaseExtracting:
				printInfo("[%d/%d] extracting %s", event.Current, event.Total, event.RecordTitle)
			case sync.PhaseError:
				printError("%v", event.Err)
			}
		}
	}()

	start := time.Now()
	result := service.Run(ctx)
	<-done

	printSummary(result, time.Since(start))

	if result.Failed() && result.Imported == 0 && result.Updated == 0 {
		return fmt.Errorf("sync failed")
	}
	return nil
}

func runSyncJSON(ctx context.Context, service *sync.Service) error {
	result := service.Run(ctx)

	printJSON(map[string]interface{}{
		"success":         !result.Failed(),
		"imported":        result.Imported,
		"updated":         result.Updated,
		"pdfs_downloaded": result.PDFsDownloaded,
		"library_version": result.LibraryVersion,
		"errors":          result.Errors,
	})

	if result.Failed() && result.Imported == 0 && result.Updated == 0 {
		return fmt.Errorf("sync failed")
	}
	return nil
}

func printSummary(result *models.SyncResult, duration time.Duration) {
	printInfo("\nSync summary:")
	printInfo("   Imported:   %d", result.Imported)
	printInfo("   Updated:    %d", result.Updated)
	printInfo("   PDFs:       %d", result.PDFsDownloaded)
	printInfo("   Version:    %d", result.LibraryVersion)
	printInfo("   Duration:   %s", duration.Round(time.Second))

	if len(result.Errors) > 0 {
		printWarning("   Errors: %d", len(result.Errors))
		for _, msg := range result.Errors {
			printWarning("    - %s", msg)
		}
	} else {
		printSuccess("Sync completed successfully")
	}
}
