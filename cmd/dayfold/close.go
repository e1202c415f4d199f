package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close a day, freezing it into history",
	Long: `Close the given day's plan (default today).

Closing computes the day's completion ratio, records the DayClosed fact,
and freezes the plan permanently: entries can never change again and the
day can never be reopened. Goal snapshots and streak updates follow from
the recorded fact. Closing an already-closed day does nothing.

Examples:
  dayfold close
  dayfold close --date 2025-03-14`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

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
			fmt.Fprintf(os.Stderr, "Error: no plan for %s; nothing to close\n", date)
			os.Exit(1)
		}
		if plan.Closed {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray(fmt.Sprintf("%s is already closed", date)))
			return
		}

		ratio := plan.CompletionRatio()
		if err := withRetry(func() error {
			return engine.CloseDay(ctx, plan.ID)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		if ratio == 1.0 {
			fmt.Printf("%s Closed %s: perfect day\n", green("✓"), date)
		} else {
			fmt.Printf("%s Closed %s: %.0f%% complete\n", yellow("⏹"), date, ratio*100)
		}
	},
}

func init() {
	closeCmd.Flags().StringP("date", "d", "", "Day to close (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(closeCmd)
}
