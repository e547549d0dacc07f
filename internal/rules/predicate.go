package rules

import (
	"fmt"
	"strings"

	"symguard/internal/errors"
)

// Predicate grammar: `<path> <operator> <literal-or-list>`. The path starts
// at the rule's bound variable and may take a single `parent` hop to the
// containing symbol before the terminal attribute name.
//
// Predicates are parsed into typed segments and operators up front; nothing
// about a predicate is interpreted from strings at evaluation time.

// Operator is a pure, side-effect-free comparison.
type Operator string

const (
	OpEqual       Operator = "=="
	OpNotEqual    Operator = "!="
	OpIn          Operator = "in"
	OpContains    Operator = "contains"
	OpContainsAny Operator = "contains_any"
	OpStartsWith  Operator = "starts_with"
)

var knownOperators = map[Operator]bool{
	OpEqual:       true,
	OpNotEqual:    true,
	OpIn:          true,
	OpContains:    true,
	OpContainsAny: true,
	OpStartsWith:  true,
}

// Literal is the right-hand side of a predicate: a scalar or a list.
type Literal struct {
	IsList bool
	Str    string
	List   []string
}

// Predicate is one compiled condition.
type Predicate struct {
	Raw string
	// ViaParent is set when the path hops to the containing symbol first.
	ViaParent bool
	// Attr is the terminal attribute name, e.g. "modifiers".
	Attr  string
	Op    Operator
	Value Literal
}

// ParsePredicate compiles one predicate string against the rule's bound
// variable name. Unknown operators are fatal; unknown attribute names are
// not (they evaluate to absent at match time, per the evaluation rules).
func ParsePredicate(raw, target string) (*Predicate, error) {
	fields := strings.Fields(raw)
	if len(fields) < 3 {
		return nil, errors.New(errors.RulesMalformed,
			fmt.Sprintf("predicate %q is not of the form <path> <operator> <value>", raw), nil)
	}

	path := fields[0]
	op := Operator(fields[1])
	valueStr := strings.Join(fields[2:], " ")

	if !knownOperators[op] {
		return nil, errors.New(errors.UnknownOperator,
			fmt.Sprintf("predicate %q uses unknown operator %q", raw, op), nil)
	}

	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return nil, errors.New(errors.RulesMalformed,
			fmt.Sprintf("predicate path %q has no attribute", path), nil)
	}
	if segments[0] != target {
		return nil, errors.New(errors.RulesMalformed,
			fmt.Sprintf("predicate path %q does not start at bound variable %q", path, target), nil)
	}

	pred := &Predicate{Raw: raw, Op: op}
	switch len(segments) {
	case 2:
		pred.Attr = segments[1]
	case 3:
		if segments[1] != "parent" {
			return nil, errors.New(errors.RulesMalformed,
				fmt.Sprintf("predicate path %q: only a single parent hop is supported", path), nil)
		}
		pred.ViaParent = true
		pred.Attr = segments[2]
	default:
		return nil, errors.New(errors.RulesMalformed,
			fmt.Sprintf("predicate path %q is too deep", path), nil)
	}

	pred.Value = parseLiteral(valueStr)
	return pred, nil
}

// parseLiteral reads a quoted or bare scalar, or a bracketed list.
// Follows the rule files' existing notation: 'x', "x", [a, 'b'].
func parseLiteral(s string) Literal {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		lit := Literal{IsList: true}
		if inner == "" {
			return lit
		}
		for _, item := range strings.Split(inner, ",") {
			lit.List = append(lit.List, unquote(strings.TrimSpace(item)))
		}
		return lit
	}

	return Literal{Str: unquote(s)}
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
