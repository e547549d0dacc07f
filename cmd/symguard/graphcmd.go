package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"symguard/internal/config"
	"symguard/internal/extract"
	"symguard/internal/graph"
	"symguard/internal/scan"
	"symguard/internal/scipfacts"
)

var (
	graphBuildOut  string
	graphBuildScip string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build and inspect resolved symbol graph documents",
}

var graphBuildCmd = &cobra.Command{
	Use:   "build <project>",
	Short: "Resolve a project's symbol graph and save it",
	Long: `Runs the fact and resolution stages only and writes the resolved graph
document. The saved document feeds 'symguard match' later.

Examples:
  symguard graph build ./MyApp -o graph.json
  symguard graph build ./MyApp -o graph.json.zst --from-scip index.scip`,
	Args: cobra.ExactArgs(1),
	Run:  runGraphBuild,
}

var graphInspectCmd = &cobra.Command{
	Use:   "inspect <graph.json[.zst]>",
	Short: "Print summary information about a saved graph document",
	Args:  cobra.ExactArgs(1),
	Run:   runGraphInspect,
}

func init() {
	graphBuildCmd.Flags().StringVarP(&graphBuildOut, "output", "o", "symbol_graph.json", "Output path (.zst compresses)")
	graphBuildCmd.Flags().StringVar(&graphBuildScip, "from-scip", "", "Use a pre-built SCIP index instead of parsing source")
	graphCmd.AddCommand(graphBuildCmd)
	graphCmd.AddCommand(graphInspectCmd)
	rootCmd.AddCommand(graphCmd)
}

func runGraphBuild(cmd *cobra.Command, args []string) {
	projectPath, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid project path: %v\n", err)
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

	var facts []graph.FileFacts
	if graphBuildScip != "" {
		index, err := scipfacts.Load(graphBuildScip)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		facts = scipfacts.Convert(index, logger)
	} else {
		facts, err = extract.NewExtractor(logger).ExtractProject(ctx, projectPath, cfg.Scan.ExcludeDirs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	names := scan.New(projectPath, cfg.Scan.ExcludeDirs, logger).Run()

	store := graph.NewStore(logger)
	store.SetExternalReferences(names.Names())
	for _, file := range facts {
		if err := store.AddFile(file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	store.Resolve()
	if err := store.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store.BuildClosures()

	doc := store.Document(projectPath, time.Now())
	if err := doc.Save(graphBuildOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d symbols, %d edges)\n", graphBuildOut, store.Len(), len(store.Edges()))
}

func runGraphInspect(cmd *cobra.Command, args []string) {
	doc, err := graph.LoadDocument(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	kinds := make(map[graph.SymbolKind]int)
	external := 0
	for _, sym := range doc.Symbols {
		kinds[sym.Kind]++
		if sym.IsExternal {
			external++
		}
	}
	edgeTypes := make(map[graph.EdgeType]int)
	for _, e := range doc.Edges {
		edgeTypes[e.Type]++
	}

	fmt.Printf("Project:   %s\n", doc.Metadata.AnalyzedProjectPath)
	fmt.Printf("Analyzed:  %s\n", doc.Metadata.AnalyzedAtTimestamp)
	fmt.Printf("Symbols:   %d (%d external)\n", len(doc.Symbols), external)
	fmt.Printf("Edges:     %d\n", len(doc.Edges))
	for _, kind := range []graph.SymbolKind{
		graph.KindClass, graph.KindStruct, graph.KindEnum, graph.KindProtocol,
		graph.KindMethod, graph.KindProperty, graph.KindFunction,
		graph.KindInitializer, graph.KindSubscript, graph.KindOperator, graph.KindUnknown,
	} {
		if n := kinds[kind]; n > 0 {
			fmt.Printf("  %-12s %d\n", kind, n)
		}
	}
	fmt.Println("Edge types:")
	for _, t := range []graph.EdgeType{
		graph.EdgeSupertypeOf, graph.EdgeAdoptsInterface, graph.EdgeOverrides,
		graph.EdgeContains, graph.EdgeHasDeclaredType,
	} {
		if n := edgeTypes[t]; n > 0 {
			fmt.Printf("  %-18s %d\n", t, n)
		}
	}
}
