package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const summaryRuleLimit = 5

// PrintSummary writes the human-readable run summary: symbol totals, the
// exclusion rate, and the rules that contributed the most matches.
func (r *Report) PrintSummary(w io.Writer) {
	excluded := len(r.Entries)
	candidates := r.TotalSymbols - excluded

	line := strings.Repeat("=", 50)
	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "ANALYSIS SUMMARY")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Total Symbols Analyzed: %d\n", r.TotalSymbols)
	fmt.Fprintf(w, "Excluded Symbols:       %d\n", excluded)
	fmt.Fprintf(w, "Obfuscation Candidates: %d\n", candidates)
	if r.TotalSymbols > 0 {
		rate := float64(excluded) / float64(r.TotalSymbols) * 100
		fmt.Fprintf(w, "Exclusion Rate:         %.2f%%\n", rate)
	}
	fmt.Fprintln(w, line)

	top := r.topRules()
	if len(top) == 0 {
		return
	}
	fmt.Fprintf(w, "TOP %d EXCLUSION REASONS:\n", summaryRuleLimit)
	for _, rc := range top {
		fmt.Fprintf(w, "  - %-30s : %d symbols\n", rc.ruleID, rc.count)
	}
	fmt.Fprintln(w, line)
}

type ruleCount struct {
	ruleID string
	count  int
}

// topRules counts matched symbols per rule and returns the biggest
// contributors, ties broken by rule id so the summary is stable.
func (r *Report) topRules() []ruleCount {
	counts := make(map[string]int)
	for _, e := range r.Entries {
		for _, reason := range e.Reasons {
			counts[reason.RuleID]++
		}
	}

	list := make([]ruleCount, 0, len(counts))
	for id, n := range counts {
		list = append(list, ruleCount{id, n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].ruleID < list[j].ruleID
	})
	if len(list) > summaryRuleLimit {
		list = list[:summaryRuleLimit]
	}
	return list
}
