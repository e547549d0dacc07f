package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"symguard/internal/pipeline"
)

var (
	matchRules   string
	matchReport  string
	matchList    string
	matchWorkers int
	matchQuiet   bool
)

var matchCmd = &cobra.Command{
	Use:   "match <graph.json[.zst]>",
	Short: "Evaluate exclusion rules against a saved graph document",
	Long: `Loads a previously resolved graph document and evaluates the rule set
against it, without touching project source. Useful for iterating on rules
or re-running analysis on a graph produced elsewhere.

Examples:
  symguard match out/symbol_graph.json --rules rules/
  symguard match graph.json.zst --report report.json --list names.txt`,
	Args: cobra.ExactArgs(1),
	Run:  runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchRules, "rules", "rules", "Rule file or directory")
	matchCmd.Flags().StringVar(&matchReport, "report", "", "Path for the detailed JSON report")
	matchCmd.Flags().StringVar(&matchList, "list", "", "Path for the flat exclusion name list")
	matchCmd.Flags().IntVar(&matchWorkers, "workers", 0, "Rule evaluation workers (0 = one per CPU)")
	matchCmd.Flags().BoolVar(&matchQuiet, "quiet", false, "Suppress the summary on stdout")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) {
	logger := newLogger()

	rep, err := pipeline.MatchDocument(args[0], matchRules, matchWorkers, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if matchReport != "" {
		if err := rep.SaveDetailed(matchReport); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if matchList != "" {
		if err := rep.SaveFlatList(matchList); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if !matchQuiet {
		rep.PrintSummary(os.Stdout)
	}

	// Without an output path the detailed report goes to stdout, so the
	// command composes in shell pipelines.
	if matchReport == "" && matchList == "" && matchQuiet {
		if err := rep.WriteDetailed(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
