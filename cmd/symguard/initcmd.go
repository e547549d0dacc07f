package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"symguard/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [project]",
	Short: "Write a default configuration into the project",
	Long: `Creates .symguard/config.json with the default settings so a project
can pin its rule path, output directory, and fact source.

Examples:
  symguard init
  symguard init ./MyApp`,
	Args: cobra.MaximumNArgs(1),
	Run:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	projectPath, err := filepath.Abs(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid project path: %v\n", err)
		os.Exit(1)
	}

	configPath := filepath.Join(projectPath, ".symguard", "config.json")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", configPath)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(projectPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", configPath)
}
