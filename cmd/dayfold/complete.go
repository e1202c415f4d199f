package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark a task completed on a day's plan",
	Long: `Mark a task's entry completed on the given day's plan (default today).

Completing a task on a closed day is rejected; completing an
already-completed task is a harmless no-op.

Examples:
  dayfold complete t-42
  dayfold complete t-42 --date 2025-03-14`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		taskID := args[0]

		date, err := dateFlag(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		plan, err := store.FindDailyPlan(ctx, owner, date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if plan == nil {
			fmt.Fprintf(os.Stderr, "Error: no plan for %s (run 'dayfold today' first)\n", date)
			os.Exit(1)
		}

		if err := withRetry(func() error {
			return engine.CompleteTask(ctx, plan.ID, taskID)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Completed %s on %s\n", green("✓"), taskID, date)
	},
}

func init() {
	completeCmd.Flags().StringP("date", "d", "", "Day the completion belongs to (default today)")
	rootCmd.AddCommand(completeCmd)
}
