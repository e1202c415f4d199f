package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dayfold/dayfold/internal/events"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the recent event feed",
	Long: `Display recent domain events, newest first.

The event log is the append-only record everything else derives from:
task completions, day closes, weekly plan updates, and goal status
changes.

Examples:
  dayfold activity
  dayfold activity -n 50
  dayfold activity --type day_closed`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")
		eventType, _ := cmd.Flags().GetString("type")

		var eventList []*events.DomainEvent
		var err error
		if eventType == "" {
			eventList, err = store.GetRecentEvents(ctx, owner, limit)
		} else {
			eventList, err = store.GetEvents(ctx, events.EventFilter{
				OwnerID: owner,
				Type:    events.EventType(eventType),
				Limit:   limit,
			})
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching events: %v\n", err)
			os.Exit(1)
		}

		if len(eventList) == 0 {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("\n%s No events found\n\n", yellow("✨"))
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("\n%s Recent activity (%d events):\n\n", cyan("📋"), len(eventList))

		// Newest last, so the feed reads top to bottom.
		for i := len(eventList) - 1; i >= 0; i-- {
			displayEvent(eventList[i])
		}
		fmt.Println()
	},
}

func displayEvent(event *events.DomainEvent) {
	gray := color.New(color.FgHiBlack).SprintFunc()
	timestamp := gray(event.OccurredAt.Format("2006-01-02 15:04"))

	switch event.Type {
	case events.EventTypeTaskCompleted:
		green := color.New(color.FgGreen).SprintFunc()
		if data, err := event.GetTaskCompletedData(); err == nil {
			fmt.Printf("  %s %s completed %s\n", timestamp, green("✓"), data.TaskID)
			return
		}
	case events.EventTypeDayClosed:
		yellow := color.New(color.FgYellow).SprintFunc()
		if data, err := event.GetDayClosedData(); err == nil {
			fmt.Printf("  %s %s closed %s at %.0f%%\n", timestamp, yellow("⏹"), data.Date, data.CompletionRatio*100)
			return
		}
	case events.EventTypeWeeklyPlanUpdated:
		cyan := color.New(color.FgCyan).SprintFunc()
		if data, err := event.GetWeeklyPlanUpdatedData(); err == nil {
			fmt.Printf("  %s %s updated week of %s (%d day(s) materialized)\n",
				timestamp, cyan("📅"), data.WeekStart, data.DaysReconciled)
			return
		}
	case events.EventTypeGoalStatusChanged:
		magenta := color.New(color.FgMagenta).SprintFunc()
		if data, err := event.GetGoalStatusChangedData(); err == nil {
			fmt.Printf("  %s %s goal %s: %s → %s\n", timestamp, magenta("◎"),
				data.GoalID, data.FromStatus, data.ToStatus)
			return
		}
	}
	fmt.Printf("  %s %s\n", timestamp, event.Type)
}

func init() {
	activityCmd.Flags().IntP("limit", "n", 20, "Number of recent events to show")
	activityCmd.Flags().StringP("type", "t", "", "Filter by event type")
	rootCmd.AddCommand(activityCmd)
}
