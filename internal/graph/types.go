// Package graph holds the resolved program model: symbols, typed edges,
// reference resolution and supertype closure computation. The model is
// built once per run and is read-only once rule matching starts.
package graph

// SymbolKind classifies a declared or synthesized program entity.
type SymbolKind string

const (
	KindClass       SymbolKind = "class"
	KindStruct      SymbolKind = "struct"
	KindEnum        SymbolKind = "enum"
	KindProtocol    SymbolKind = "protocol"
	KindMethod      SymbolKind = "method"
	KindProperty    SymbolKind = "property"
	KindFunction    SymbolKind = "function"
	KindInitializer SymbolKind = "initializer"
	KindSubscript   SymbolKind = "subscript"
	KindOperator    SymbolKind = "operator"
	KindUnknown     SymbolKind = "unknown"
)

// AllKinds lists every valid symbol kind. Rule loading validates
// bound-variable categories against this set.
var AllKinds = []SymbolKind{
	KindClass, KindStruct, KindEnum, KindProtocol,
	KindMethod, KindProperty, KindFunction,
	KindInitializer, KindSubscript, KindOperator, KindUnknown,
}

// IsValidKind reports whether s names a known symbol kind.
func IsValidKind(s string) bool {
	for _, k := range AllKinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// TypeLike reports whether symbols of this kind can carry supertype or
// interface-adoption edges. Placeholders (kind unknown) count: a declared
// class may extend a type the analyzed codebase never defines.
func (k SymbolKind) TypeLike() bool {
	switch k {
	case KindClass, KindStruct, KindEnum, KindProtocol, KindUnknown:
		return true
	}
	return false
}

// DeclaredTypeLike reports whether this kind is a type declaration in the
// analyzed source. Used when resolving "type named X" references, which
// must never bind to a member or to another placeholder.
func (k SymbolKind) DeclaredTypeLike() bool {
	switch k {
	case KindClass, KindStruct, KindEnum, KindProtocol:
		return true
	}
	return false
}

// EdgeType classifies a directed relationship between two symbols.
type EdgeType string

const (
	// EdgeSupertypeOf links a type to its direct superclass.
	EdgeSupertypeOf EdgeType = "supertype-of"
	// EdgeAdoptsInterface links a type to a protocol it conforms to.
	EdgeAdoptsInterface EdgeType = "adopts-interface"
	// EdgeOverrides links an overriding member to the ancestor member it overrides.
	EdgeOverrides EdgeType = "overrides"
	// EdgeContains links a container to a member it declares. Contains edges
	// form a forest: every symbol has at most one contains-parent.
	EdgeContains EdgeType = "contains"
	// EdgeHasDeclaredType links a property to the type of its declared value.
	EdgeHasDeclaredType EdgeType = "has-declared-type"
)

// IsValidEdgeType reports whether s names a known edge type.
func IsValidEdgeType(s string) bool {
	switch EdgeType(s) {
	case EdgeSupertypeOf, EdgeAdoptsInterface, EdgeOverrides, EdgeContains, EdgeHasDeclaredType:
		return true
	}
	return false
}

// isA reports whether the edge participates in the generalized "is-a"
// relation folded into closure computation.
func (t EdgeType) isA() bool {
	return t == EdgeSupertypeOf || t == EdgeAdoptsInterface
}

// Location is a position in analyzed source. Synthesized symbols have none.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Symbol is one node of the program model.
//
// SuperChain uses nil to mean "not yet computed" and a non-nil (possibly
// empty) slice to mean "computed". Rule predicates treat the nil case as an
// absent attribute.
type Symbol struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Kind             SymbolKind `json:"kind"`
	Location         *Location  `json:"location,omitempty"`
	Attributes       []string   `json:"attributes,omitempty"`
	Modifiers        []string   `json:"modifiers,omitempty"`
	DeclaredTypeName string     `json:"declaredTypeName,omitempty"`
	// No omitempty: a computed-but-empty chain must persist as [] so it
	// stays distinguishable from a chain that was never computed.
	SuperChain []string `json:"superChain"`

	// IsExternal marks a placeholder synthesized for a name that resolved
	// to nothing declared in the analyzed codebase.
	IsExternal bool `json:"isExternalSymbol,omitempty"`

	// ExternallyReferenced marks a symbol whose exact name was found by the
	// external literal-reference scan (headers, storyboards, plists, ...).
	ExternallyReferenced bool `json:"isExternallyReferenced,omitempty"`
}

// Edge is a directed, typed relationship between two symbol ids.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type"`
}
