// Package pipeline chains the analysis stages end to end: resource scan,
// fact extraction, graph resolution, rule matching, and report output.
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"symguard/internal/config"
	"symguard/internal/errors"
	"symguard/internal/extract"
	"symguard/internal/graph"
	"symguard/internal/logging"
	"symguard/internal/match"
	"symguard/internal/output"
	"symguard/internal/report"
	"symguard/internal/rules"
	"symguard/internal/scan"
	"symguard/internal/scipfacts"
	"symguard/internal/storage"
)

// Options selects inputs and outputs for one analysis run. Empty fields
// fall back to the loaded project configuration.
type Options struct {
	ProjectPath string
	Config      *config.Config

	RulesPath  string
	OutputDir  string
	ReportPath string
	ListPath   string

	// SCIPIndexPath switches fact production from source extraction to a
	// pre-built SCIP index.
	SCIPIndexPath string

	KeepIntermediate bool

	// SummaryWriter receives the human-readable summary; nil suppresses it.
	SummaryWriter io.Writer

	Logger *logging.Logger
}

// Result reports where the run wrote its outputs and what it found.
type Result struct {
	Report *report.Report

	GraphPath  string
	ReportPath string
	ListPath   string

	RunID       string
	SymbolCount int
	EdgeCount   int
	RuleCount   int
}

// Run executes the full analysis pipeline against a project directory.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.ProjectPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rulesPath := opts.RulesPath
	if rulesPath == "" {
		rulesPath = resolvePath(opts.ProjectPath, cfg.Rules.Path)
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = resolvePath(opts.ProjectPath, cfg.Output.Dir)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.New(errors.ReportWriteFailed, "failed to create output directory", err).WithPath(outputDir)
	}

	ruleList, err := rules.Load(rulesPath)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded rules", map[string]interface{}{
		"path": rulesPath, "count": len(ruleList)})

	names := scan.New(opts.ProjectPath, cfg.Scan.ExcludeDirs, logger).Run()
	logger.Info("scanned project resources", map[string]interface{}{
		"identifiers": names.Total(), "files": names.FilesScanned})

	facts, err := produceFacts(ctx, opts, cfg, logger)
	if err != nil {
		return nil, err
	}

	store := graph.NewStore(logger)
	store.SetExternalReferences(names.Names())
	for _, file := range facts {
		if err := store.AddFile(file); err != nil {
			return nil, err
		}
	}
	store.Resolve()
	if err := store.Validate(); err != nil {
		return nil, err
	}
	store.BuildClosures()
	logger.Info("resolved symbol graph", map[string]interface{}{
		"symbols": store.Len(), "edges": len(store.Edges())})

	result := &Result{
		SymbolCount: store.Len(),
		EdgeCount:   len(store.Edges()),
		RuleCount:   len(ruleList),
	}

	// The document only gets built and encoded when something consumes it:
	// the saved intermediate or the history fingerprint.
	keepGraph := opts.KeepIntermediate || cfg.Output.KeepIntermediate
	var doc *graph.Document
	if keepGraph || cfg.History.Enabled {
		doc = store.Document(opts.ProjectPath, time.Now())
	}

	if keepGraph {
		graphPath := filepath.Join(outputDir, "symbol_graph.json")
		if cfg.Output.CompressGraph {
			graphPath += ".zst"
		}
		if err := doc.Save(graphPath); err != nil {
			return nil, err
		}
		result.GraphPath = graphPath
	}

	engine := match.NewEngine(store, logger)
	engine.Workers = cfg.Match.Workers
	records := engine.Run(ruleList)

	rep := report.Build(store, records)
	result.Report = rep

	result.ReportPath = opts.ReportPath
	if result.ReportPath == "" {
		result.ReportPath = filepath.Join(outputDir, "exclusion_report.json")
	}
	if err := rep.SaveDetailed(result.ReportPath); err != nil {
		return nil, err
	}
	result.ListPath = opts.ListPath
	if result.ListPath == "" {
		result.ListPath = filepath.Join(outputDir, "exclusion_list.txt")
	}
	if err := rep.SaveFlatList(result.ListPath); err != nil {
		return nil, err
	}

	if opts.SummaryWriter != nil {
		rep.PrintSummary(opts.SummaryWriter)
	}

	if cfg.History.Enabled {
		encoded, err := output.EncodeIndented(doc)
		if err != nil {
			return nil, errors.New(errors.InternalError, "failed to encode graph document", err)
		}
		recordHistory(opts.ProjectPath, logger, storage.Run{
			ProjectPath:      opts.ProjectPath,
			GraphFingerprint: storage.Fingerprint(encoded),
			SymbolCount:      result.SymbolCount,
			EdgeCount:        result.EdgeCount,
			RuleCount:        result.RuleCount,
			ExcludedCount:    len(rep.Entries),
		}, result)
	}

	return result, nil
}

// produceFacts picks the fact source: a SCIP index when one is configured
// or requested, tree-sitter extraction otherwise.
func produceFacts(ctx context.Context, opts Options, cfg *config.Config, logger *logging.Logger) ([]graph.FileFacts, error) {
	indexPath := opts.SCIPIndexPath
	if indexPath == "" && cfg.Scip.Enabled {
		indexPath = resolvePath(opts.ProjectPath, cfg.Scip.IndexPath)
	}
	if indexPath != "" {
		index, err := scipfacts.Load(indexPath)
		if err != nil {
			return nil, err
		}
		logger.Info("converting SCIP index", map[string]interface{}{"path": indexPath})
		return scipfacts.Convert(index, logger), nil
	}

	if !extract.IsAvailable() {
		return nil, errors.New(errors.ExtractFailed,
			"source extraction is unavailable in this build; point the run at a SCIP index instead", nil)
	}
	return extract.NewExtractor(logger).ExtractProject(ctx, opts.ProjectPath, cfg.Scan.ExcludeDirs)
}

// recordHistory persists run metadata. History failures are logged and
// never fail the run.
func recordHistory(projectPath string, logger *logging.Logger, run storage.Run, result *Result) {
	db, err := storage.Open(projectPath, logger)
	if err != nil {
		logger.Warn("history database unavailable, skipping run record", map[string]interface{}{
			"error": err.Error()})
		return
	}
	defer db.Close()

	id, err := db.RecordRun(run)
	if err != nil {
		logger.Warn("failed to record run", map[string]interface{}{"error": err.Error()})
		return
	}
	result.RunID = id
}

// MatchDocument evaluates rules against a previously saved graph document.
func MatchDocument(graphPath, rulesPath string, workers int, logger *logging.Logger) (*report.Report, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	doc, err := graph.LoadDocument(graphPath)
	if err != nil {
		return nil, err
	}
	store, err := doc.Store(logger)
	if err != nil {
		return nil, err
	}

	ruleList, err := rules.Load(rulesPath)
	if err != nil {
		return nil, err
	}

	engine := match.NewEngine(store, logger)
	engine.Workers = workers
	return report.Build(store, engine.Run(ruleList)), nil
}

func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
