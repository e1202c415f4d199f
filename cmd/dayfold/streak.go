package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show the current streak",
	Long: `Display current and longest streaks.

A streak counts consecutive perfect days: every planned task done and the
day closed. Streaks are derived purely from closed-day history; there is
no way to set them by hand.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		state, err := store.GetStreakState(ctx, owner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if state == nil {
			fmt.Printf("%s\n", gray("No days closed yet"))
			return
		}

		yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
		fmt.Printf("\n  %s current streak: %d day(s)\n", yellow("🔥"), state.CurrentStreak)
		fmt.Printf("     longest streak: %d day(s)\n", state.LongestStreak)
		fmt.Printf("     %s\n\n", gray("last evaluated "+state.LastEvaluatedDate.String()))
	},
}

func init() {
	rootCmd.AddCommand(streakCmd)
}
