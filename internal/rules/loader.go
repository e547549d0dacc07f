package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"symguard/internal/errors"
)

// ruleFile is the YAML document shape. Rule files either carry a top-level
// rules: list or are a bare list of rules.
type ruleFile struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Rules       []*Rule `yaml:"rules"`
}

// PackManifest is the optional rulepack.toml at the root of a rules
// directory: it names the pack and pins the rule files and their order.
type PackManifest struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Description string   `toml:"description"`
	Files       []string `toml:"files"`
}

// ManifestFileName is looked up inside a rules directory.
const ManifestFileName = "rulepack.toml"

// Load reads rules from a file or directory and compiles them.
// Directories with a rulepack.toml load the manifest's files in manifest
// order; otherwise every .yaml/.yml file loads in sorted name order.
func Load(path string) ([]*Rule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.RulesMalformed, "rules path not found", err).WithPath(path)
	}

	var list []*Rule
	if info.IsDir() {
		list, err = loadDir(path)
	} else {
		list, err = loadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.New(errors.RulesMalformed, "no rules found", nil).WithPath(path)
	}

	if err := CompileAll(list); err != nil {
		return nil, err
	}
	return list, nil
}

func loadDir(dir string) ([]*Rule, error) {
	manifestPath := filepath.Join(dir, ManifestFileName)
	if _, err := os.Stat(manifestPath); err == nil {
		return loadPack(dir, manifestPath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(errors.RulesMalformed, "failed to read rules directory", err).WithPath(dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var all []*Rule
	for _, name := range files {
		list, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		all = append(all, list...)
	}
	return all, nil
}

func loadPack(dir, manifestPath string) ([]*Rule, error) {
	var manifest PackManifest
	if _, err := toml.DecodeFile(manifestPath, &manifest); err != nil {
		return nil, errors.New(errors.RulesMalformed, "failed to parse rulepack manifest", err).WithPath(manifestPath)
	}
	if len(manifest.Files) == 0 {
		return nil, errors.New(errors.RulesMalformed, "rulepack manifest lists no files", nil).WithPath(manifestPath)
	}

	var all []*Rule
	for _, name := range manifest.Files {
		list, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		all = append(all, list...)
	}
	return all, nil
}

// LoadManifest reads a rulepack manifest if the rules path has one.
func LoadManifest(dir string) (*PackManifest, error) {
	manifestPath := filepath.Join(dir, ManifestFileName)
	if _, err := os.Stat(manifestPath); err != nil {
		return nil, nil
	}
	var manifest PackManifest
	if _, err := toml.DecodeFile(manifestPath, &manifest); err != nil {
		return nil, errors.New(errors.RulesMalformed, "failed to parse rulepack manifest", err).WithPath(manifestPath)
	}
	return &manifest, nil
}

func loadFile(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.RulesMalformed, "failed to read rule file", err).WithPath(path)
	}
	list, derr := decode(data)
	if derr != nil {
		return nil, derr.WithPath(path)
	}
	return list, nil
}

// Parse decodes and compiles rules from in-memory YAML. Callers reading from
// disk should use Load, which also handles directories and pack manifests.
func Parse(data []byte) ([]*Rule, error) {
	list, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := CompileAll(list); err != nil {
		return nil, err
	}
	return list, nil
}

func decode(data []byte) ([]*Rule, *errors.AnalyzerError) {
	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Rules) > 0 {
		return doc.Rules, nil
	}

	var bare []*Rule
	if err := yaml.Unmarshal(data, &bare); err != nil {
		return nil, errors.New(errors.RulesMalformed,
			fmt.Sprintf("rule file is neither a rules: document nor a rule list: %v", err), nil)
	}
	return bare, nil
}
