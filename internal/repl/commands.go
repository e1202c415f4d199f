package repl

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dayfold/dayfold/internal/types"
)

func (r *REPL) cmdToday(args []string) error {
	plan, err := r.engine.MaterializeDay(r.ctx, r.owner, r.clock.Today())
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("%s (%s)", plan.Date, plan.Date.Weekday())))
	if len(plan.Entries) == 0 {
		fmt.Printf("  %s\n\n", gray("Nothing planned"))
		return nil
	}
	for _, entry := range plan.Entries {
		title := entry.TaskID
		if task, err := r.store.GetTask(r.ctx, entry.TaskID); err == nil && task != nil {
			title = fmt.Sprintf("%s %s", task.Title, gray("("+entry.TaskID+")"))
		}
		mark := gray("○")
		if entry.Status == types.EntryCompleted {
			mark = green("✓")
		}
		fmt.Printf("  %s %s\n", mark, title)
	}
	fmt.Println()
	return nil
}

func (r *REPL) cmdDone(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: done <task-id>")
	}

	plan, err := r.store.FindDailyPlan(r.ctx, r.owner, r.clock.Today())
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("no plan for today; run 'today' first")
	}

	if err := r.engine.CompleteTask(r.ctx, plan.ID, args[0]); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Completed %s\n", green("✓"), args[0])
	return nil
}

func (r *REPL) cmdClose(args []string) error {
	plan, err := r.store.FindDailyPlan(r.ctx, r.owner, r.clock.Today())
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("no plan for today; nothing to close")
	}

	ratio := plan.CompletionRatio()
	if err := r.engine.CloseDay(r.ctx, plan.ID); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Closed %s at %.0f%%\n", green("✓"), plan.Date, ratio*100)
	return nil
}

func (r *REPL) cmdStreak(args []string) error {
	state, err := r.store.GetStreakState(r.ctx, r.owner)
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack).SprintFunc()
	if state == nil {
		fmt.Printf("%s\n", gray("No days closed yet"))
		return nil
	}
	fmt.Printf("🔥 %d day(s), longest %d %s\n", state.CurrentStreak, state.LongestStreak,
		gray("(last evaluated "+state.LastEvaluatedDate.String()+")"))
	return nil
}

func (r *REPL) cmdTasks(args []string) error {
	tasks, err := r.store.ListTasks(r.ctx, r.owner)
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack).SprintFunc()
	if len(tasks) == 0 {
		fmt.Printf("%s\n", gray("No tasks yet"))
		return nil
	}
	for _, task := range tasks {
		line := fmt.Sprintf("  %s  %s", task.ID, task.Title)
		if task.KeyResultID != "" {
			line += gray(" → " + task.KeyResultID)
		}
		fmt.Println(line)
	}
	return nil
}

func (r *REPL) cmdGoals(args []string) error {
	goals, err := r.store.ListActiveGoals(r.ctx, r.owner)
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	if len(goals) == 0 {
		fmt.Printf("%s\n", gray("No active goals"))
		return nil
	}
	for _, goal := range goals {
		fraction := goal.Progress()
		filled := int(fraction * 10)
		if filled > 10 {
			filled = 10
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
		fmt.Printf("  %s %s %s %.0f%%\n", cyan(goal.ID), goal.Title, bar, fraction*100)
	}
	return nil
}
