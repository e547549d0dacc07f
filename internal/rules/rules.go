// Package rules defines the declarative rule language: a rule binds one
// variable to a symbol-kind category and constrains it with a conjunction
// of predicates. Rules are loaded once, validated eagerly (a bad operator
// or kind aborts the run before any matching), and read-only afterwards.
package rules

import (
	"fmt"

	"symguard/internal/errors"
	"symguard/internal/graph"
)

// Rule is one named, declarative query over the resolved graph.
type Rule struct {
	ID          string    `yaml:"id" json:"id"`
	Description string    `yaml:"description" json:"description"`
	Reason      string    `yaml:"reason,omitempty" json:"reason,omitempty"`
	Pattern     []Clause  `yaml:"pattern" json:"pattern"`
	compiled    *Compiled `yaml:"-" json:"-"`
}

// Clause is one entry of a rule's pattern list: either a find binding or a
// where block. The YAML shape follows the rule files the analyzer has
// always consumed: pattern: [{find: {...}}, {where: [...]}].
type Clause struct {
	Find  *Find    `yaml:"find,omitempty" json:"find,omitempty"`
	Where []string `yaml:"where,omitempty" json:"where,omitempty"`
}

// Find binds the rule variable to a kind category. Kind accepts a single
// kind, a list of kinds, or the shorthand "type" covering every type-like
// kind; empty means all symbols.
type Find struct {
	Target string   `yaml:"target" json:"target"`
	Kind   KindSpec `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// KindSpec accepts a scalar or a sequence in YAML.
type KindSpec []string

// UnmarshalYAML lets rule authors write `kind: method` as well as
// `kind: [class, struct]`.
func (k *KindSpec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		if single != "" {
			*k = KindSpec{single}
		}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*k = KindSpec(many)
	return nil
}

// Compiled is the validated, evaluation-ready form of a rule.
type Compiled struct {
	Target     string
	Kinds      []graph.SymbolKind // empty means any kind
	Predicates []*Predicate
}

// Compiled returns the compiled pattern; Compile must have succeeded.
func (r *Rule) Compiled() *Compiled {
	return r.compiled
}

// Compile validates the rule and caches its evaluation-ready form.
// Every error carries the rule id so authors can locate the problem.
func (r *Rule) Compile() error {
	if r.ID == "" {
		return errors.New(errors.RulesMalformed, "rule has no id", nil)
	}

	var find *Find
	var where []string
	for _, clause := range r.Pattern {
		if clause.Find != nil {
			if find != nil {
				return errors.New(errors.RulesMalformed, "rule has more than one find clause", nil).WithRule(r.ID)
			}
			find = clause.Find
		}
		if clause.Where != nil {
			where = append(where, clause.Where...)
		}
	}
	if find == nil || find.Target == "" {
		return errors.New(errors.RulesMalformed, "rule has no find clause with a target variable", nil).WithRule(r.ID)
	}

	compiled := &Compiled{Target: find.Target}
	for _, kind := range find.Kind {
		if kind == "type" {
			for _, k := range graph.AllKinds {
				if k.DeclaredTypeLike() {
					compiled.Kinds = append(compiled.Kinds, k)
				}
			}
			continue
		}
		if !graph.IsValidKind(kind) {
			return errors.New(errors.UnknownKind,
				fmt.Sprintf("unknown symbol kind %q in find clause", kind), nil).WithRule(r.ID)
		}
		compiled.Kinds = append(compiled.Kinds, graph.SymbolKind(kind))
	}

	for _, raw := range where {
		pred, err := ParsePredicate(raw, find.Target)
		if err != nil {
			if ae, ok := err.(*errors.AnalyzerError); ok {
				return ae.WithRule(r.ID)
			}
			return errors.New(errors.RulesMalformed, err.Error(), nil).WithRule(r.ID)
		}
		compiled.Predicates = append(compiled.Predicates, pred)
	}

	r.compiled = compiled
	return nil
}

// CompileAll compiles every rule, failing fast on the first invalid one.
func CompileAll(list []*Rule) error {
	seen := make(map[string]bool, len(list))
	for _, r := range list {
		if err := r.Compile(); err != nil {
			return err
		}
		if seen[r.ID] {
			return errors.New(errors.RulesMalformed, "duplicate rule id", nil).WithRule(r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
