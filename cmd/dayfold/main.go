// dayfold is a temporal consistency engine for personal planning: weekly
// intent becomes daily structure, closed days become immutable truth, and
// goals, streaks, and nudges are derived from the recorded facts.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dayfold/dayfold/internal/clock"
	"github.com/dayfold/dayfold/internal/config"
	"github.com/dayfold/dayfold/internal/events"
	"github.com/dayfold/dayfold/internal/goals"
	"github.com/dayfold/dayfold/internal/nudge"
	"github.com/dayfold/dayfold/internal/planning"
	"github.com/dayfold/dayfold/internal/storage"
	"github.com/dayfold/dayfold/internal/streaks"
)

// Shared by every subcommand; wired in PersistentPreRunE.
var (
	cfg    config.Config
	store  storage.Storage
	clk    clock.Clock
	bus    *events.Bus
	engine *planning.Engine
	owner  string
)

var rootCmd = &cobra.Command{
	Use:   "dayfold",
	Short: "Plan weeks, close days, keep streaks honest",
	Long: `dayfold tracks tasks, weekly plans, and goals.

Weekly plans describe intent. Materializing a day turns intent into an
editable daily plan; closing the day freezes it forever. Goal progress,
streaks, and nudges are all derived from the resulting event history and
never edited directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.FromEnv()
		if err != nil {
			return err
		}
		if flagOwner, _ := cmd.Flags().GetString("owner"); flagOwner != "" {
			cfg.Owner = flagOwner
		}
		owner = cfg.Owner

		clk, err = clock.NewSystem(cfg.TimeZone)
		if err != nil {
			return fmt.Errorf("failed to resolve time zone: %w", err)
		}

		store, err = storage.NewStorage(cmd.Context(), &storage.Config{Path: cfg.DBPath})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}

		bus = events.NewBus()
		if err := wireSubscribers(bus, store); err != nil {
			return err
		}
		engine = planning.NewEngine(store, bus, clk)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

// wireSubscribers builds the event registry. Registration order within a
// type is delivery order; the registry freezes on first publish.
func wireSubscribers(bus *events.Bus, store storage.Storage) error {
	evaluator := goals.NewEvaluator(store, int64(cfg.GoalEvalConcurrency))
	deriver := streaks.NewDeriver(store)
	dispatcher := nudge.NewDispatcher(store, nudge.DefaultRules(), cfg.NudgesPerHour)

	subscriptions := []struct {
		eventType events.EventType
		handler   events.Handler
	}{
		{events.EventTypeTaskCompleted, evaluator},
		{events.EventTypeDayClosed, evaluator},
		{events.EventTypeDayClosed, deriver},
		{events.EventTypeDayClosed, dispatcher},
	}
	for _, sub := range subscriptions {
		if err := bus.Subscribe(sub.eventType, sub.handler); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", sub.handler.Name(), err)
		}
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().String("owner", "", "Owner identity (default: DAYFOLD_OWNER or $USER)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
