package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Prune old events from the audit feed",
	Long: `Delete domain events older than the retention window.

Events within the window are never touched, so derived state remains
replayable across that span. Deletion runs in batches to keep database
locks short.

Examples:
  dayfold cleanup
  DAYFOLD_EVENT_RETENTION_DAYS=90 dayfold cleanup`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		deleted, err := store.CleanupEventsByAge(ctx, cfg.EventRetentionDays, cfg.EventCleanupBatchSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		if deleted == 0 {
			fmt.Printf("%s\n", gray("Nothing to prune"))
			return
		}
		fmt.Printf("%s Pruned %d event(s) older than %d days\n", green("✓"), deleted, cfg.EventRetentionDays)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
