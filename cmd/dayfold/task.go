package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dayfold/dayfold/internal/types"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Long: `Create a task, optionally linked to a key result.

A task is pure intent: completion is recorded on daily plans, never on
the task itself. Only the title can change after creation.

Examples:
  dayfold task add "Morning run" --key-result kr-12
  dayfold task add "Read chapter 4"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		keyResultID, _ := cmd.Flags().GetString("key-result")

		if keyResultID != "" {
			kr, err := store.GetKeyResult(ctx, keyResultID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if kr == nil {
				fmt.Fprintf(os.Stderr, "Error: key result %s does not exist\n", keyResultID)
				os.Exit(1)
			}
		}

		task := &types.Task{
			ID:          "t-" + uuid.New().String()[:8],
			OwnerID:     owner,
			Title:       args[0],
			KeyResultID: keyResultID,
		}
		if err := store.CreateTask(ctx, task); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Created %s: %s\n", green("✓"), task.ID, task.Title)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		tasks, err := store.ListTasks(ctx, owner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(tasks) == 0 {
			fmt.Printf("%s\n", gray("No tasks yet"))
			return
		}
		for _, task := range tasks {
			line := fmt.Sprintf("  %s  %s", task.ID, task.Title)
			if task.KeyResultID != "" {
				line += gray(" → " + task.KeyResultID)
			}
			fmt.Println(line)
		}
	},
}

var taskRenameCmd = &cobra.Command{
	Use:   "rename <task-id> <title>",
	Short: "Edit a task's title",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.UpdateTaskTitle(context.Background(), args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Renamed %s\n", green("✓"), args[0])
	},
}

func init() {
	taskAddCmd.Flags().StringP("key-result", "k", "", "Key result this task contributes to")
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskRenameCmd)
	rootCmd.AddCommand(taskCmd)
}
