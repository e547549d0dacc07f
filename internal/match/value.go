// Package match evaluates compiled rules against the resolved symbol graph
// and collects one MatchRecord per (symbol, rule) pair that matches.
package match

import (
	"strings"

	"symguard/internal/graph"
	"symguard/internal/rules"
)

// valueKind tags the typed attribute-value union. Absence of an attribute
// is a first-class value, never an error.
type valueKind int

const (
	kindAbsent valueKind = iota
	kindString
	kindStringList
	kindBool
)

type value struct {
	kind valueKind
	str  string
	list []string
	b    bool
}

var absent = value{kind: kindAbsent}

func stringValue(s string) value { return value{kind: kindString, str: s} }
func listValue(l []string) value { return value{kind: kindStringList, list: l} }
func boolValue(b bool) value     { return value{kind: kindBool, b: b} }

// attributeValue reads one named attribute off a symbol. Unknown names and
// unset optional fields yield absent.
func attributeValue(sym *graph.Symbol, attr string) value {
	switch attr {
	case "name":
		return stringValue(sym.Name)
	case "kind":
		return stringValue(string(sym.Kind))
	case "attributes":
		return listValue(sym.Attributes)
	case "modifiers":
		return listValue(sym.Modifiers)
	case "declaredTypeName":
		if sym.DeclaredTypeName == "" {
			return absent
		}
		return stringValue(sym.DeclaredTypeName)
	case "superChain":
		if sym.SuperChain == nil {
			return absent
		}
		return listValue(sym.SuperChain)
	case "isExternalSymbol":
		return boolValue(sym.IsExternal)
	case "isExternallyReferenced":
		return boolValue(sym.ExternallyReferenced)
	case "file":
		if sym.Location == nil {
			return absent
		}
		return stringValue(sym.Location.File)
	default:
		return absent
	}
}

// evaluate applies one operator to an attribute value and a literal.
// All operators are pure; an absent left side always yields false.
func evaluate(v value, op rules.Operator, lit rules.Literal) bool {
	if v.kind == kindAbsent {
		return false
	}

	switch op {
	case rules.OpEqual:
		return equals(v, lit)
	case rules.OpNotEqual:
		return !equals(v, lit)
	case rules.OpIn:
		if !lit.IsList || v.kind != kindString {
			return false
		}
		for _, item := range lit.List {
			if v.str == item {
				return true
			}
		}
		return false
	case rules.OpContains:
		switch v.kind {
		case kindString:
			return !lit.IsList && strings.Contains(v.str, lit.Str)
		case kindStringList:
			if lit.IsList {
				return false
			}
			for _, item := range v.list {
				if item == lit.Str {
					return true
				}
			}
		}
		return false
	case rules.OpContainsAny:
		if !lit.IsList {
			return false
		}
		switch v.kind {
		case kindString:
			for _, item := range lit.List {
				if v.str == item {
					return true
				}
			}
		case kindStringList:
			for _, have := range v.list {
				for _, want := range lit.List {
					if have == want {
						return true
					}
				}
			}
		}
		return false
	case rules.OpStartsWith:
		return v.kind == kindString && !lit.IsList && strings.HasPrefix(v.str, lit.Str)
	}
	return false
}

func equals(v value, lit rules.Literal) bool {
	if lit.IsList {
		return false
	}
	switch v.kind {
	case kindString:
		return v.str == lit.Str
	case kindBool:
		return (v.b && lit.Str == "true") || (!v.b && lit.Str == "false")
	}
	return false
}
