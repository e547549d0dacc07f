//go:build cgo

// Package extract builds per-file symbol drafts and relationship intents
// from Swift source using tree-sitter. It is one of two fact producers;
// SCIP indexes are the other.
package extract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/swift"

	"symguard/internal/graph"
	"symguard/internal/logging"
)

// Extractor parses Swift files into graph facts.
type Extractor struct {
	logger *logging.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{logger: logger}
}

// IsAvailable reports whether tree-sitter extraction was compiled in.
func IsAvailable() bool { return true }

// fileResult carries one file's facts plus its extension declarations,
// which can only be attached once every file's types are known.
type fileResult struct {
	facts      graph.FileFacts
	extensions []extensionDraft
}

// extensionDraft records an `extension Name { ... }` block: the member
// drafts it declares and the protocols its inheritance clause adopts.
type extensionDraft struct {
	typeName  string
	memberIDs []string
	adopts    []string
	location  *graph.Location
}

// ExtractProject parses every .swift file under root (path-sorted, so runs
// are deterministic) and links extension members to the declaring type.
// Extensions of types with no declaration in the project get an external
// draft synthesized once per name.
func (e *Extractor) ExtractProject(ctx context.Context, root string, excludeDirs []string) ([]graph.FileFacts, error) {
	paths, err := swiftFiles(root, excludeDirs)
	if err != nil {
		return nil, err
	}

	// Files parse concurrently but results keep path order, so symbol ids
	// and intent order never depend on scheduling.
	slots := make([]*fileResult, len(paths))
	workers := runtime.NumCPU()
	if workers > len(paths) {
		workers = len(paths)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, err := e.extractFile(ctx, root, paths[i])
				if err != nil {
					e.logger.Warn("failed to parse source file, skipping", map[string]interface{}{
						"path": paths[i], "error": err.Error()})
					continue
				}
				slots[i] = &result
			}
		}()
	}
	for i := range paths {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]fileResult, 0, len(paths))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}

	e.linkExtensions(results)

	facts := make([]graph.FileFacts, 0, len(results))
	for _, r := range results {
		facts = append(facts, r.facts)
	}
	e.logger.Info("source extraction complete", map[string]interface{}{
		"files": len(facts),
	})
	return facts, nil
}

func swiftFiles(root string, excludeDirs []string) ([]string, error) {
	excluded := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		excluded[d] = true
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (excluded[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".swift") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (e *Extractor) extractFile(ctx context.Context, root, path string) (fileResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return e.ExtractSource(ctx, filepath.ToSlash(rel), source)
}

// ExtractSource parses one file's bytes. path is only used for symbol ids
// and locations, so callers may pass project-relative paths.
func (e *Extractor) ExtractSource(ctx context.Context, path string, source []byte) (fileResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(swift.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return fileResult{}, err
	}

	w := &walker{
		path:   path,
		source: source,
		facts:  graph.FileFacts{Path: path},
	}
	w.walk(tree.RootNode(), "")
	return fileResult{facts: w.facts, extensions: w.extensions}, nil
}

// linkExtensions attaches every extension's members to the first declared
// type with the extended name, matching how name intents bind elsewhere.
// Unknown names get one shared external draft appended to the extension's
// own file.
func (e *Extractor) linkExtensions(results []fileResult) {
	declared := make(map[string]string)
	for _, r := range results {
		for _, sym := range r.facts.Symbols {
			if sym.Kind.TypeLike() && !sym.IsExternal {
				if _, ok := declared[sym.Name]; !ok {
					declared[sym.Name] = sym.ID
				}
			}
		}
	}

	external := make(map[string]string)
	for i := range results {
		r := &results[i]
		for _, ext := range r.extensions {
			typeID, ok := declared[ext.typeName]
			if !ok {
				typeID, ok = external[ext.typeName]
				if !ok {
					draft := &graph.Symbol{
						ID:         fmt.Sprintf("external:extension:%s", ext.typeName),
						Name:       ext.typeName,
						Kind:       graph.KindUnknown,
						IsExternal: true,
					}
					r.facts.Symbols = append(r.facts.Symbols, draft)
					external[ext.typeName] = draft.ID
					typeID = draft.ID
					e.logger.Debug("extension extends undeclared type, synthesizing external draft",
						map[string]interface{}{"type": ext.typeName})
				}
			}
			for _, memberID := range ext.memberIDs {
				r.facts.Intents = append(r.facts.Intents,
					graph.ConcreteIntent(typeID, memberID, graph.EdgeContains))
			}
			for _, proto := range ext.adopts {
				r.facts.Intents = append(r.facts.Intents,
					graph.TypeNameIntent(typeID, proto, graph.EdgeAdoptsInterface))
			}
		}
	}
}
