// Package scan collects the external-reference name set: identifiers that
// appear outside compiled source (public ObjC headers, storyboards and
// xibs, plists, Localizable.strings, Core Data models) and therefore must
// survive renaming no matter what the symbol graph says.
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"symguard/internal/logging"
)

// Categories used across the result. Resource parsers add a few more of
// their own (segue_identifiers, entities, ...).
const (
	CategoryClasses    = "classes"
	CategoryProtocols  = "protocols"
	CategoryStructs    = "structs"
	CategoryEnums      = "enums"
	CategoryEnumCases  = "enum_cases"
	CategoryTypedefs   = "typedefs"
	CategoryFunctions  = "functions"
	CategoryConstants  = "constants"
	CategoryMacros     = "macros"
	CategoryMethods    = "methods"
	CategoryProperties = "properties"
)

// DefaultExcludeDirs are skipped during the walk on top of any dot
// directory. Vendored dependency trees describe someone else's API.
var DefaultExcludeDirs = []string{
	"Pods", "Carthage", ".build", "build", "DerivedData", "node_modules",
}

// Result accumulates names per category. The flat set is what feeds the
// graph's externally-referenced flags; categories only serve reporting.
type Result struct {
	categories map[string]map[string]struct{}

	FilesScanned int
}

func newResult() *Result {
	return &Result{categories: make(map[string]map[string]struct{})}
}

func (r *Result) add(category, name string) {
	set, ok := r.categories[category]
	if !ok {
		set = make(map[string]struct{})
		r.categories[category] = set
	}
	set[name] = struct{}{}
}

func (r *Result) addAll(category string, names map[string]struct{}) {
	for name := range names {
		r.add(category, name)
	}
}

func (r *Result) merge(other *Result) {
	for category, set := range other.categories {
		r.addAll(category, set)
	}
	r.FilesScanned += other.FilesScanned
}

// Names returns the flat deduplicated name set across all categories.
func (r *Result) Names() map[string]struct{} {
	flat := make(map[string]struct{})
	for _, set := range r.categories {
		for name := range set {
			flat[name] = struct{}{}
		}
	}
	return flat
}

// Category returns the sorted names of one category.
func (r *Result) Category(name string) []string {
	set := r.categories[name]
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Categories returns the sorted non-empty category names.
func (r *Result) Categories() []string {
	names := make([]string, 0, len(r.categories))
	for n, set := range r.categories {
		if len(set) > 0 {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Total counts unique names across all categories.
func (r *Result) Total() int {
	return len(r.Names())
}

// Scanner walks one project tree. Zero value is not usable; use New.
type Scanner struct {
	projectPath string
	excludeDirs map[string]bool
	logger      *logging.Logger
}

// New builds a scanner for a project root. extraExcludes extend (never
// replace) the default exclude list.
func New(projectPath string, extraExcludes []string, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.Nop()
	}
	excludes := make(map[string]bool, len(DefaultExcludeDirs)+len(extraExcludes))
	for _, d := range DefaultExcludeDirs {
		excludes[d] = true
	}
	for _, d := range extraExcludes {
		excludes[d] = true
	}
	return &Scanner{projectPath: projectPath, excludeDirs: excludes, logger: logger}
}

// Run walks the project and parses every recognized artifact. A missing or
// empty project yields an empty result, not an error: a project with no
// headers or resources simply has no external references.
func (s *Scanner) Run() *Result {
	result := newResult()

	info, err := os.Stat(s.projectPath)
	if err != nil || !info.IsDir() {
		s.logger.Warn("project path missing or not a directory, external reference set is empty",
			map[string]interface{}{"path": s.projectPath})
		return result
	}

	type workItem struct {
		path  string
		isDir bool
	}
	var work []workItem

	err = filepath.WalkDir(s.projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", map[string]interface{}{"path": path, "error": err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != s.projectPath && (s.excludeDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			if strings.HasSuffix(name, ".xcdatamodeld") {
				work = append(work, workItem{path: path, isDir: true})
				return filepath.SkipDir
			}
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".h", ".storyboard", ".xib", ".plist", ".entitlements", ".strings":
			work = append(work, workItem{path: path})
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("project walk aborted", map[string]interface{}{"error": err.Error()})
	}

	// Files parse in parallel into per-worker results; the merge is the
	// only synchronization point. Name sets are unordered, so the merge
	// order cannot affect the output.
	workers := runtime.NumCPU()
	if workers > len(work) {
		workers = len(work)
	}
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan workItem)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := newResult()
			for item := range jobs {
				if item.isDir {
					s.scanCoreDataModel(item.path, local)
				} else {
					switch strings.ToLower(filepath.Ext(item.path)) {
					case ".h":
						s.scanHeader(item.path, local)
					case ".storyboard", ".xib":
						s.scanInterfaceFile(item.path, local)
					case ".plist", ".entitlements":
						s.scanPlist(item.path, local)
					case ".strings":
						s.scanStringsFile(item.path, local)
					}
				}
				local.FilesScanned++
			}
			mu.Lock()
			result.merge(local)
			mu.Unlock()
		}()
	}
	for _, item := range work {
		jobs <- item
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("external reference scan complete", map[string]interface{}{
		"files": result.FilesScanned,
		"names": result.Total(),
	})
	return result
}

func (s *Scanner) readFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("failed to read file", map[string]interface{}{"path": path, "error": err.Error()})
		return "", false
	}
	return string(data), true
}
