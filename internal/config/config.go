// Package config loads analyzer settings from .symguard/config.json in
// the analyzed project, with sensible defaults when no file exists.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the complete analyzer configuration.
type Config struct {
	Version     int    `json:"version" mapstructure:"version"`
	ProjectRoot string `json:"projectRoot" mapstructure:"projectRoot"`

	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Scip    ScipConfig    `json:"scip" mapstructure:"scip"`
	Rules   RulesConfig   `json:"rules" mapstructure:"rules"`
	Match   MatchConfig   `json:"match" mapstructure:"match"`
	Output  OutputConfig  `json:"output" mapstructure:"output"`
	History HistoryConfig `json:"history" mapstructure:"history"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls source and resource discovery.
type ScanConfig struct {
	ExcludeDirs []string `json:"excludeDirs" mapstructure:"excludeDirs"`
}

// ScipConfig points at an optional pre-built SCIP index.
type ScipConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	IndexPath string `json:"indexPath" mapstructure:"indexPath"`
}

// RulesConfig names the rule file or directory.
type RulesConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// MatchConfig tunes rule evaluation.
type MatchConfig struct {
	Workers int `json:"workers" mapstructure:"workers"`
}

// OutputConfig controls where reports land.
type OutputConfig struct {
	Dir              string `json:"dir" mapstructure:"dir"`
	KeepIntermediate bool   `json:"keepIntermediate" mapstructure:"keepIntermediate"`
	CompressGraph    bool   `json:"compressGraph" mapstructure:"compressGraph"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig selects log format and level.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Version:     1,
		ProjectRoot: ".",
		Scan: ScanConfig{
			ExcludeDirs: []string{},
		},
		Scip: ScipConfig{
			Enabled:   false,
			IndexPath: "index.scip",
		},
		Rules: RulesConfig{
			Path: "rules",
		},
		Match: MatchConfig{
			Workers: 0, // 0 means one per CPU
		},
		Output: OutputConfig{
			Dir:              "symguard-output",
			KeepIntermediate: false,
			CompressGraph:    false,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads .symguard/config.json under projectRoot. A missing file is
// not an error; defaults apply.
func Load(projectRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".symguard"))

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("projectRoot", defaults.ProjectRoot)
	v.SetDefault("scip.indexPath", defaults.Scip.IndexPath)
	v.SetDefault("rules.path", defaults.Rules.Path)
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("history.enabled", defaults.History.Enabled)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to .symguard/config.json.
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, ".symguard")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Match.Workers < 0 {
		return &ConfigError{Field: "match.workers", Message: "must be zero or positive"}
	}
	return nil
}

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
