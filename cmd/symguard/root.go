package main

import (
	"symguard/internal/logging"
	"symguard/internal/version"

	"github.com/spf13/cobra"
)

var (
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "symguard",
	Short: "symguard - obfuscation exclusion analyzer",
	Long: `symguard resolves a project's symbol graph and evaluates exclusion rules
against it, producing the set of symbol names an obfuscator must not rename:
entry points, members reachable through runtime lookup, interface-driven
storyboards and plists, and anything referenced outside the compiled module.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("symguard version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info",
		"Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "human",
		"Log format: human or json")
}

// newLogger builds the command logger from the persistent flags.
func newLogger() *logging.Logger {
	format := logging.HumanFormat
	if logFormatFlag == "json" {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.ParseLevel(logLevelFlag),
	})
}
