// Package repl provides an interactive shell over the planning engine.
package repl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/dayfold/dayfold/internal/clock"
	"github.com/dayfold/dayfold/internal/planning"
	"github.com/dayfold/dayfold/internal/storage"
)

// REPL represents the interactive shell
type REPL struct {
	store    storage.Storage
	engine   *planning.Engine
	clock    clock.Clock
	owner    string
	rl       *readline.Instance
	ctx      context.Context
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Store  storage.Storage
	Engine *planning.Engine
	Clock  clock.Clock
	Owner  string
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("planning engine is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("clock is required")
	}

	owner := cfg.Owner
	if owner == "" {
		owner = "default"
	}

	r := &REPL{
		store:    cfg.Store,
		engine:   cfg.Engine,
		clock:    cfg.Clock,
		owner:    owner,
		commands: make(map[string]CommandHandler),
	}
	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("dayfold> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		AutoComplete:      r.completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

// processInput processes a single line of input
func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	if handler, ok := r.commands[parts[0]]; ok {
		return handler(parts[1:])
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("%s Unknown command %q. Type 'help' for available commands.\n", yellow("Note:"), parts[0])
	return nil
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["today"] = r.cmdToday
	r.commands["done"] = r.cmdDone
	r.commands["close"] = r.cmdClose
	r.commands["streak"] = r.cmdStreak
	r.commands["tasks"] = r.cmdTasks
	r.commands["goals"] = r.cmdGoals
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
}

func (r *REPL) completer() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(r.commands))
	for name := range r.commands {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("dayfold"))
	fmt.Printf("Owner %s, today is %s\n", r.owner, r.clock.Today())
	fmt.Println()
	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("Available Commands:"))
	help := [][2]string{
		{"today", "materialize and show today's plan"},
		{"done <task-id>", "complete a task on today's plan"},
		{"close", "close today, freezing it into history"},
		{"streak", "show current and longest streaks"},
		{"tasks", "list tasks"},
		{"goals", "list active goals with progress"},
		{"exit", "leave the shell"},
	}
	for _, h := range help {
		fmt.Printf("  %-16s %s\n", h[0], gray(h[1]))
	}
	fmt.Println()
	return nil
}

func (r *REPL) cmdExit(args []string) error {
	fmt.Println("Goodbye!")
	return io.EOF
}
