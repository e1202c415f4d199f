package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/types"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage goals and key results",
}

var goalAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a goal with key results",
	Long: `Create a goal with one or more key results.

Key results are given as --kr "title:type:target[:weight]" where type is
accumulative, habit, or milestone. Accumulative key results advance by
their increment per linked completion; habit ones flag the current
period; milestone ones jump to target on the first completion.

Examples:
  dayfold goal add "Run a marathon" --horizon quarter \
      --start 2025-01-01 --end 2025-03-31 \
      --kr "Long runs:accumulative:10" --kr "Weekly yoga:habit:1:0.5"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		horizon, _ := cmd.Flags().GetString("horizon")
		startRaw, _ := cmd.Flags().GetString("start")
		endRaw, _ := cmd.Flags().GetString("end")
		krSpecs, _ := cmd.Flags().GetStringArray("kr")

		start, err := types.ParseDate(startRaw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --start: %v\n", err)
			os.Exit(1)
		}
		end, err := types.ParseDate(endRaw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --end: %v\n", err)
			os.Exit(1)
		}

		goalID := "g-" + uuid.New().String()[:8]
		goal := &types.Goal{
			ID:        goalID,
			OwnerID:   owner,
			Title:     args[0],
			Horizon:   types.Horizon(horizon),
			Status:    types.GoalActive,
			StartDate: start,
			EndDate:   end,
		}
		for _, spec := range krSpecs {
			kr, err := parseKeyResultSpec(goalID, spec)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			goal.KeyResults = append(goal.KeyResults, *kr)
		}

		if err := store.CreateGoal(ctx, goal); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s Created %s: %s\n", green("✓"), goal.ID, goal.Title)
		for _, kr := range goal.KeyResults {
			fmt.Printf("  %s %s (%s, target %g)\n", gray(kr.ID), kr.Title, kr.Type, kr.TargetValue)
		}
	},
}

// parseKeyResultSpec parses "title:type:target[:weight]"
func parseKeyResultSpec(goalID, spec string) (*types.KeyResult, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return nil, fmt.Errorf("key result spec %q must be title:type:target[:weight]", spec)
	}

	target, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid target in %q: %w", spec, err)
	}
	weight := 1.0
	if len(parts) == 4 {
		weight, err = strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", spec, err)
		}
	}

	return &types.KeyResult{
		ID:          "kr-" + uuid.New().String()[:8],
		GoalID:      goalID,
		Title:       parts[0],
		Type:        types.KeyResultType(parts[1]),
		TargetValue: target,
		Increment:   1,
		Weight:      weight,
	}, nil
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active goals with progress",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		goals, err := store.ListActiveGoals(ctx, owner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		if len(goals) == 0 {
			fmt.Printf("%s\n", gray("No active goals"))
			return
		}

		for _, goal := range goals {
			fmt.Printf("\n%s %s %s\n", cyan(goal.ID), goal.Title,
				gray(fmt.Sprintf("(%s, %s → %s)", goal.Horizon, goal.StartDate, goal.EndDate)))
			fmt.Printf("  progress %s\n", progressBar(goal.Progress()))
			for _, kr := range goal.KeyResults {
				fmt.Printf("  %s %-30s %g / %g\n", gray(kr.ID), kr.Title, kr.CurrentValue, kr.TargetValue)
			}
		}
		fmt.Println()
	},
}

func progressBar(fraction float64) string {
	const width = 20
	filled := int(fraction * width)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %.0f%%", bar, fraction*100)
}

var goalCompleteCmd = &cobra.Command{
	Use:   "complete <goal-id>",
	Short: "Mark a goal completed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		transitionGoal(args[0], types.GoalCompleted)
	},
}

var goalAbandonCmd = &cobra.Command{
	Use:   "abandon <goal-id>",
	Short: "Abandon a goal",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		transitionGoal(args[0], types.GoalAbandoned)
	},
}

// transitionGoal applies a one-way status change and records the fact.
func transitionGoal(goalID string, status types.GoalStatus) {
	ctx := context.Background()

	goal, err := store.GetGoal(ctx, goalID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if goal == nil {
		fmt.Fprintf(os.Stderr, "Error: goal %s not found\n", goalID)
		os.Exit(1)
	}

	event, err := events.NewGoalStatusChangedEvent(owner, clk.Now(), events.GoalStatusChangedData{
		GoalID:     goalID,
		FromStatus: string(goal.Status),
		ToStatus:   string(status),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := withRetry(func() error {
		return store.UpdateGoalStatus(ctx, goalID, status, event)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := bus.Publish(ctx, event); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Goal %s is now %s\n", green("✓"), goalID, status)
}

func init() {
	goalAddCmd.Flags().String("horizon", "quarter", "Goal horizon: week, month, quarter, year")
	goalAddCmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	goalAddCmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	goalAddCmd.Flags().StringArray("kr", nil, "Key result spec title:type:target[:weight] (repeatable)")

	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalCompleteCmd)
	goalCmd.AddCommand(goalAbandonCmd)
	rootCmd.AddCommand(goalCmd)
}
