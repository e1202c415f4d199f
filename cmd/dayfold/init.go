package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the dayfold database",
	Long: `Initialize dayfold in the configured location.

Creates the database directory and schema. Running it against an
existing database is harmless.

Example:
  dayfold init
  DAYFOLD_DB_PATH=/tmp/scratch.db dayfold init`,
	Run: func(cmd *cobra.Command, args []string) {
		// PersistentPreRunE already opened (and thereby created) the
		// database; this command exists so first-time setup has an
		// explicit, obvious entry point.
		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		abs := cfg.DBPath
		if resolved, err := filepath.Abs(cfg.DBPath); err == nil {
			abs = resolved
		}

		fmt.Printf("\n%s Initialized dayfold\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(abs))
		fmt.Printf("  Owner:    %s\n", cyan(owner))
		fmt.Printf("  Zone:     %s\n\n", cyan(cfg.TimeZone))
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cfg.String())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}
