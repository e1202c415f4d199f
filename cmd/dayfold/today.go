package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dayfold/dayfold/internal/types"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Materialize and show today's plan",
	Long: `Materialize today's daily plan from the weekly plan and display it.

If the plan already exists it is shown unchanged. Use --date to look at a
different day; past days without a plan cannot be created.

Examples:
  dayfold today
  dayfold today --date 2025-03-14`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		date, err := dateFlag(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var plan *types.DailyPlan
		err = withRetry(func() error {
			var innerErr error
			plan, innerErr = engine.MaterializeDay(ctx, owner, date)
			return innerErr
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		displayDailyPlan(plan)
	},
}

// dateFlag resolves --date, defaulting to the clock's today.
func dateFlag(cmd *cobra.Command) (types.Date, error) {
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return clk.Today(), nil
	}
	date, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", raw, err)
	}
	return date, nil
}

func displayDailyPlan(plan *types.DailyPlan) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	header := fmt.Sprintf("=== %s (%s) ===", plan.Date, plan.Date.Weekday())
	fmt.Printf("\n%s\n\n", cyan(header))

	if plan.Closed {
		fmt.Printf("%s closed at %.0f%%\n\n", yellow("⏹"), plan.CompletionRatio()*100)
	}

	if len(plan.Entries) == 0 {
		fmt.Printf("  %s\n\n", gray("Nothing planned"))
		return
	}

	ctx := context.Background()
	for _, entry := range plan.Entries {
		title := entry.TaskID
		if task, err := store.GetTask(ctx, entry.TaskID); err == nil && task != nil {
			title = task.Title
		}
		if entry.Status == types.EntryCompleted {
			fmt.Printf("  %s %s %s\n", green("✓"), title, gray("("+entry.TaskID+")"))
		} else {
			fmt.Printf("  %s %s %s\n", gray("○"), title, gray("("+entry.TaskID+")"))
		}
	}
	fmt.Printf("\n  Plan: %s\n\n", gray(plan.ID))
}

func init() {
	todayCmd.Flags().StringP("date", "d", "", "Date to materialize (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(todayCmd)
}
