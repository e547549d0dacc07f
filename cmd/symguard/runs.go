package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"symguard/internal/storage"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs <project>",
	Short: "List recent analysis runs recorded for a project",
	Args:  cobra.ExactArgs(1),
	Run:   runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	projectPath, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid project path: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.Open(projectPath, newLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	runs, err := db.RecentRuns(runsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return
	}

	fmt.Printf("%-36s  %-20s  %8s  %8s  %8s\n", "RUN", "WHEN", "SYMBOLS", "RULES", "EXCLUDED")
	for _, run := range runs {
		fmt.Printf("%-36s  %-20s  %8d  %8d  %8d\n",
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.SymbolCount,
			run.RuleCount,
			run.ExcludedCount)
	}
}
