package match

import (
	"runtime"
	"sort"
	"sync"

	"symguard/internal/graph"
	"symguard/internal/logging"
	"symguard/internal/rules"
)

// Record is the atomic unit of the final report: one symbol matched by one
// rule. A symbol accumulates one record per matching rule; nothing is
// overwritten.
type Record struct {
	SymbolID    string `json:"symbolId"`
	RuleID      string `json:"ruleId"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
}

// Engine evaluates rules against a resolved, closure-complete store. The
// store is read-only from the engine's perspective.
type Engine struct {
	store  *graph.Store
	logger *logging.Logger

	// Workers bounds rule-level parallelism; 0 means NumCPU.
	Workers int
}

// NewEngine creates an engine over a resolved store.
func NewEngine(store *graph.Store, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{store: store, logger: logger}
}

// Run evaluates every rule and returns all match records. Rules are
// mutually independent and evaluated in parallel; the result is sorted by
// (symbol declaration order, rule order) so output never depends on
// scheduling.
func (e *Engine) Run(ruleList []*rules.Rule) []Record {
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(ruleList) {
		workers = len(ruleList)
	}
	if workers < 1 {
		workers = 1
	}

	symbols := e.store.Symbols()

	type indexed struct {
		record    Record
		symbolIdx int
		ruleIdx   int
	}

	var mu sync.Mutex
	var collected []indexed

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ruleIdx := range jobs {
				rule := ruleList[ruleIdx]
				var local []indexed
				for symbolIdx, sym := range symbols {
					if e.matches(sym, rule) {
						local = append(local, indexed{
							record: Record{
								SymbolID:    sym.ID,
								RuleID:      rule.ID,
								Description: rule.Description,
								Reason:      rule.Reason,
							},
							symbolIdx: symbolIdx,
							ruleIdx:   ruleIdx,
						})
					}
				}
				if len(local) > 0 {
					mu.Lock()
					collected = append(collected, local...)
					mu.Unlock()
				}
				e.logger.Debug("rule evaluated", map[string]interface{}{
					"rule":    rule.ID,
					"matches": len(local),
				})
			}
		}()
	}
	for i := range ruleList {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.Slice(collected, func(i, j int) bool {
		if collected[i].symbolIdx != collected[j].symbolIdx {
			return collected[i].symbolIdx < collected[j].symbolIdx
		}
		return collected[i].ruleIdx < collected[j].ruleIdx
	})

	records := make([]Record, len(collected))
	for i, c := range collected {
		records[i] = c.record
	}
	return records
}

// matches reports whether a symbol satisfies every predicate of a rule.
func (e *Engine) matches(sym *graph.Symbol, rule *rules.Rule) bool {
	c := rule.Compiled()
	if c == nil {
		// Rules are compiled at load; an uncompiled rule is a programming
		// error upstream, not something to guess about here.
		e.logger.Warn("skipping uncompiled rule", map[string]interface{}{"rule": rule.ID})
		return false
	}

	if len(c.Kinds) > 0 {
		found := false
		for _, k := range c.Kinds {
			if sym.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, pred := range c.Predicates {
		target := sym
		if pred.ViaParent {
			target = e.store.Parent(sym.ID)
			if target == nil {
				// No container: the predicate is false, not an error.
				return false
			}
		}

		v := attributeValue(target, pred.Attr)
		if v.kind == kindAbsent {
			e.logger.Warn("predicate attribute absent on candidate, treating as false", map[string]interface{}{
				"rule":      rule.ID,
				"predicate": pred.Raw,
				"symbol":    sym.ID,
			})
			return false
		}
		if !evaluate(v, pred.Op, pred.Value) {
			return false
		}
	}
	return true
}
