package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dayfold/dayfold/internal/types"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the current weekly plan",
	Long: `Display the weekly plan covering today.

Each weekday lists the task ids planned for it. Days that have already
been materialized and closed keep their historical assignment even if the
weekly plan changes afterwards.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		weekStart := clk.Today().WeekStart()

		plan, err := store.FindWeeklyPlan(ctx, owner, weekStart)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Week of %s ===", weekStart)))

		if plan == nil {
			fmt.Printf("  %s\n\n", gray("No weekly plan yet; use 'dayfold week set'"))
			return
		}

		for offset := 0; offset < 7; offset++ {
			date := weekStart.AddDays(offset)
			taskIDs := plan.TasksFor(date)
			label := fmt.Sprintf("%-9s %s", date.Weekday(), date)
			if len(taskIDs) == 0 {
				fmt.Printf("  %s %s\n", label, gray("-"))
				continue
			}
			fmt.Printf("  %s %s\n", label, strings.Join(taskIDs, ", "))
		}
		fmt.Println()
	},
}

var weekSetCmd = &cobra.Command{
	Use:   "set <weekday> <task-id>...",
	Short: "Assign tasks to a weekday of the current week",
	Long: `Replace one weekday's task list in the weekly plan covering today.

The update reconciles forward only: today and future days of the week
that are not yet materialized pick up the change; closed days are
untouched.

Examples:
  dayfold week set monday t-1 t-2
  dayfold week set fri t-42`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		weekday, err := parseWeekday(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		taskIDs := args[1:]

		weekStart := clk.Today().WeekStart()
		plan, err := store.FindWeeklyPlan(ctx, owner, weekStart)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if plan == nil {
			plan = &types.WeeklyPlan{
				OwnerID:   owner,
				WeekStart: weekStart,
				Days:      make(map[time.Weekday][]string),
			}
		}
		plan.Days[weekday] = taskIDs

		var reconciled int
		if err := withRetry(func() error {
			var innerErr error
			reconciled, innerErr = engine.ApplyWeeklyPlanUpdate(ctx, plan)
			return innerErr
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s now has %d task(s)", green("✓"), weekday, len(taskIDs))
		if reconciled > 0 {
			fmt.Printf("; materialized %d day(s)", reconciled)
		}
		fmt.Println()
	},
}

func parseWeekday(raw string) (time.Weekday, error) {
	names := map[string]time.Weekday{
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
		"sunday": time.Sunday, "sun": time.Sunday,
	}
	day, ok := names[strings.ToLower(raw)]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", raw)
	}
	return day, nil
}

func init() {
	weekCmd.AddCommand(weekSetCmd)
	rootCmd.AddCommand(weekCmd)
}
