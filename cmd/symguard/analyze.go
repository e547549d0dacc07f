package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"symguard/internal/config"
	"symguard/internal/pipeline"
)

var (
	analyzeRules     string
	analyzeOutputDir string
	analyzeReport    string
	analyzeList      string
	analyzeFromScip  string
	analyzeKeep      bool
	analyzeQuiet     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <project>",
	Short: "Run the full exclusion analysis against a project",
	Long: `Scans the project's resources, extracts symbol facts from source (or a
SCIP index), resolves the symbol graph, evaluates the exclusion rules, and
writes the exclusion report and flat name list.

Examples:
  symguard analyze ./MyApp
  symguard analyze ./MyApp --rules rules/ --output-dir out/
  symguard analyze ./MyApp --from-scip index.scip
  symguard analyze ./MyApp --keep-intermediate`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRules, "rules", "", "Rule file or directory (default: from config)")
	analyzeCmd.Flags().StringVar(&analyzeOutputDir, "output-dir", "", "Directory for analysis outputs (default: from config)")
	analyzeCmd.Flags().StringVar(&analyzeReport, "report", "", "Path for the detailed JSON report")
	analyzeCmd.Flags().StringVar(&analyzeList, "list", "", "Path for the flat exclusion name list")
	analyzeCmd.Flags().StringVar(&analyzeFromScip, "from-scip", "", "Use a pre-built SCIP index instead of parsing source")
	analyzeCmd.Flags().BoolVar(&analyzeKeep, "keep-intermediate", false, "Keep the resolved graph document in the output directory")
	analyzeCmd.Flags().BoolVar(&analyzeQuiet, "quiet", false, "Suppress the summary on stdout")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	projectPath, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid project path: %v\n", err)
		os.Exit(1)
	}
	if info, err := os.Stat(projectPath); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: project directory not found: %s\n", projectPath)
		os.Exit(1)
	}

	logger := newLogger()
	cfg, err := config.Load(projectPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		ProjectPath:      projectPath,
		Config:           cfg,
		RulesPath:        analyzeRules,
		OutputDir:        analyzeOutputDir,
		ReportPath:       analyzeReport,
		ListPath:         analyzeList,
		SCIPIndexPath:    analyzeFromScip,
		KeepIntermediate: analyzeKeep,
		Logger:           logger,
	}
	if !analyzeQuiet {
		opts.SummaryWriter = os.Stdout
	}

	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report:  %s\n", result.ReportPath)
	fmt.Printf("List:    %s\n", result.ListPath)
	if result.GraphPath != "" {
		fmt.Printf("Graph:   %s\n", result.GraphPath)
	}
}
