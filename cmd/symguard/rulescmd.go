package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"symguard/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate exclusion rule sets",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Parse and compile a rule file or directory",
	Long: `Loads the rule set the same way analyze does and reports the first
problem it finds: malformed YAML, a bad predicate, or an unknown operator.

Examples:
  symguard rules validate rules/
  symguard rules validate rules/uikit.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runRulesValidate,
}

var rulesListCmd = &cobra.Command{
	Use:   "list <path>",
	Short: "List the rules in a rule file or directory",
	Args:  cobra.ExactArgs(1),
	Run:   runRulesList,
}

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesValidate(cmd *cobra.Command, args []string) {
	list, err := rules.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: %d rules\n", len(list))
}

func runRulesList(cmd *cobra.Command, args []string) {
	list, err := rules.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, rule := range list {
		fmt.Printf("%-36s %s\n", rule.ID, rule.Description)
	}
}
