//go:build cgo

package extract

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"symguard/internal/graph"
)

// walker builds one file's facts from its syntax tree. Grammar versions
// shift node and field names, so missing nodes skip the declaration
// rather than abort the file.
type walker struct {
	path       string
	source     []byte
	facts      graph.FileFacts
	extensions []extensionDraft
}

func (w *walker) walk(node *sitter.Node, containerID string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_declaration":
		w.typeDeclaration(node, containerID)
	case "protocol_declaration":
		w.protocolDeclaration(node, containerID)
	case "function_declaration", "protocol_function_declaration":
		w.functionDeclaration(node, containerID)
	case "init_declaration":
		w.memberDeclaration(node, containerID, graph.KindInitializer, "init")
	case "subscript_declaration":
		w.memberDeclaration(node, containerID, graph.KindSubscript, "subscript")
	case "property_declaration", "protocol_property_declaration":
		w.propertyDeclaration(node, containerID)
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			w.walk(node.Child(i), containerID)
		}
	}
}

func (w *walker) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(w.source[node.StartByte():node.EndByte()])
}

func (w *walker) location(node *sitter.Node) *graph.Location {
	return &graph.Location{
		File:   w.path,
		Line:   int(node.StartPoint().Row) + 1,
		Column: int(node.StartPoint().Column) + 1,
	}
}

func (w *walker) symbolID(node *sitter.Node, name string) string {
	return fmt.Sprintf("%s:%d:%d#%s",
		w.path, node.StartPoint().Row+1, node.StartPoint().Column+1, name)
}

func (w *walker) addSymbol(sym *graph.Symbol, containerID string) {
	w.facts.Symbols = append(w.facts.Symbols, sym)
	if containerID != "" {
		w.facts.Intents = append(w.facts.Intents,
			graph.ConcreteIntent(containerID, sym.ID, graph.EdgeContains))
	}
}

// typeDeclaration handles class, struct, enum, actor, and extension blocks,
// which the Swift grammar folds into one node type.
func (w *walker) typeDeclaration(node *sitter.Node, containerID string) {
	keyword := declarationKeyword(node)
	if keyword == "extension" {
		w.extensionDeclaration(node)
		return
	}

	name := w.declaredName(node)
	if name == "" {
		return
	}

	var kind graph.SymbolKind
	switch keyword {
	case "struct":
		kind = graph.KindStruct
	case "enum":
		kind = graph.KindEnum
	default: // class, actor
		kind = graph.KindClass
	}

	attributes, modifiers := w.declarationModifiers(node)
	sym := &graph.Symbol{
		ID:         w.symbolID(node, name),
		Name:       name,
		Kind:       kind,
		Location:   w.location(node),
		Attributes: attributes,
		Modifiers:  modifiers,
	}
	w.addSymbol(sym, containerID)

	inherited := w.inheritanceNames(node)
	if kind == graph.KindClass && len(inherited) > 0 {
		// The first entry of a class inheritance clause is the superclass;
		// the rest are protocol adoptions. Source alone cannot always tell,
		// so protocol-only clauses just produce a supertype edge to an
		// external placeholder, which closures treat identically.
		w.facts.Intents = append(w.facts.Intents,
			graph.TypeNameIntent(sym.ID, inherited[0], graph.EdgeSupertypeOf))
		inherited = inherited[1:]
	}
	for _, proto := range inherited {
		w.facts.Intents = append(w.facts.Intents,
			graph.TypeNameIntent(sym.ID, proto, graph.EdgeAdoptsInterface))
	}

	w.walkBody(node, sym.ID)
}

func (w *walker) protocolDeclaration(node *sitter.Node, containerID string) {
	name := w.declaredName(node)
	if name == "" {
		return
	}
	attributes, modifiers := w.declarationModifiers(node)
	sym := &graph.Symbol{
		ID:         w.symbolID(node, name),
		Name:       name,
		Kind:       graph.KindProtocol,
		Location:   w.location(node),
		Attributes: attributes,
		Modifiers:  modifiers,
	}
	w.addSymbol(sym, containerID)

	for _, inherited := range w.inheritanceNames(node) {
		w.facts.Intents = append(w.facts.Intents,
			graph.TypeNameIntent(sym.ID, inherited, graph.EdgeAdoptsInterface))
	}
	w.walkBody(node, sym.ID)
}

// extensionDeclaration records the block for later linking; its member
// drafts are emitted now, containment comes when the extended type is
// resolved across the whole project.
func (w *walker) extensionDeclaration(node *sitter.Node) {
	name := baseTypeName(w.declaredName(node))
	if name == "" {
		return
	}
	ext := extensionDraft{
		typeName: name,
		adopts:   w.inheritanceNames(node),
		location: w.location(node),
	}

	before := len(w.facts.Symbols)
	w.walkBody(node, "")
	for _, sym := range w.facts.Symbols[before:] {
		ext.memberIDs = append(ext.memberIDs, sym.ID)
	}
	w.extensions = append(w.extensions, ext)
}

func (w *walker) functionDeclaration(node *sitter.Node, containerID string) {
	name := w.declaredName(node)
	if name == "" {
		return
	}
	kind := graph.KindFunction
	if containerID != "" {
		kind = graph.KindMethod
	}
	if isOperatorName(name) {
		kind = graph.KindOperator
	}
	w.namedMember(node, containerID, kind, name)
}

func (w *walker) memberDeclaration(node *sitter.Node, containerID string, kind graph.SymbolKind, name string) {
	w.namedMember(node, containerID, kind, name)
}

func (w *walker) namedMember(node *sitter.Node, containerID string, kind graph.SymbolKind, name string) {
	attributes, modifiers := w.declarationModifiers(node)
	sym := &graph.Symbol{
		ID:         w.symbolID(node, name),
		Name:       name,
		Kind:       kind,
		Location:   w.location(node),
		Attributes: attributes,
		Modifiers:  modifiers,
	}
	w.addSymbol(sym, containerID)

	if hasModifier(modifiers, "override") {
		w.facts.Intents = append(w.facts.Intents, graph.OverrideIntent(sym.ID, name))
	}
}

func (w *walker) propertyDeclaration(node *sitter.Node, containerID string) {
	name := w.propertyName(node)
	if name == "" {
		return
	}
	attributes, modifiers := w.declarationModifiers(node)
	sym := &graph.Symbol{
		ID:         w.symbolID(node, name),
		Name:       name,
		Kind:       graph.KindProperty,
		Location:   w.location(node),
		Attributes: attributes,
		Modifiers:  modifiers,
	}
	if typeName := w.annotatedTypeName(node); typeName != "" {
		sym.DeclaredTypeName = typeName
		w.facts.Intents = append(w.facts.Intents,
			graph.TypeNameIntent(sym.ID, typeName, graph.EdgeHasDeclaredType))
	}
	w.addSymbol(sym, containerID)

	if hasModifier(modifiers, "override") {
		w.facts.Intents = append(w.facts.Intents, graph.OverrideIntent(sym.ID, name))
	}
}

// walkBody descends into the declaration's body node only, so sibling
// declarations are not re-visited.
func (w *walker) walkBody(node *sitter.Node, containerID string) {
	body := node.ChildByFieldName("body")
	if body == nil {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch child.Type() {
			case "class_body", "enum_class_body", "protocol_body", "extension_body":
				body = child
			}
		}
	}
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		w.walk(body.Child(i), containerID)
	}
}

// declaredName reads the name field, falling back to the first identifier
// child for grammar variants without the field.
func (w *walker) declaredName(node *sitter.Node) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return w.text(nameNode)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "type_identifier", "simple_identifier", "user_type":
			return w.text(child)
		}
	}
	return ""
}

// propertyName digs the bound identifier out of let/var declarations.
// Tuple patterns bind several names; only the first is taken, which loses
// the rest but keeps ids unambiguous.
func (w *walker) propertyName(node *sitter.Node) string {
	var find func(n *sitter.Node) string
	find = func(n *sitter.Node) string {
		if n == nil {
			return ""
		}
		switch n.Type() {
		case "simple_identifier", "pattern":
			if n.Type() == "simple_identifier" {
				return w.text(n)
			}
		case "type_annotation", "function_body", "computed_property":
			return ""
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if name := find(n.Child(i)); name != "" {
				return name
			}
		}
		return ""
	}
	return find(node)
}

// annotatedTypeName returns the declared type of a property, reduced to
// its base name: optionals, generics, and implicit unwraps are stripped.
func (w *walker) annotatedTypeName(node *sitter.Node) string {
	var find func(n *sitter.Node) string
	find = func(n *sitter.Node) string {
		if n == nil {
			return ""
		}
		if n.Type() == "type_annotation" {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if child != nil && child.Type() != ":" {
					return baseTypeName(w.text(child))
				}
			}
			return ""
		}
		if n.Type() == "function_body" || n.Type() == "computed_property" {
			return ""
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if name := find(n.Child(i)); name != "" {
				return name
			}
		}
		return ""
	}
	return find(node)
}

// declarationModifiers collects @attributes (without the @) and plain
// modifiers like override, public, final, static.
func (w *walker) declarationModifiers(node *sitter.Node) (attributes, modifiers []string) {
	collect := func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if child.Type() == "attribute" {
				name := strings.TrimPrefix(w.text(child), "@")
				if cut := strings.IndexAny(name, "( \n"); cut >= 0 {
					name = name[:cut]
				}
				if name != "" {
					attributes = append(attributes, name)
				}
				continue
			}
			if strings.HasSuffix(child.Type(), "_modifier") {
				modifiers = append(modifiers, w.text(child))
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "modifiers":
			collect(child)
		case "attribute":
			// Some grammar versions attach attributes directly.
			name := strings.TrimPrefix(w.text(child), "@")
			if cut := strings.IndexAny(name, "( \n"); cut >= 0 {
				name = name[:cut]
			}
			if name != "" {
				attributes = append(attributes, name)
			}
		}
	}
	return attributes, modifiers
}

// inheritanceNames returns the base names of the declaration's inheritance
// clause in source order.
func (w *walker) inheritanceNames(node *sitter.Node) []string {
	var names []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "inheritance_specifier" {
			continue
		}
		if name := baseTypeName(w.text(child)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// declarationKeyword finds which keyword introduced a class_declaration
// node; the grammar uses that node for class, struct, enum, actor, and
// extension alike.
func declarationKeyword(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "class", "struct", "enum", "extension", "actor":
			return child.Type()
		}
	}
	return "class"
}

// baseTypeName strips optional markers, generic arguments, and module
// qualification from a type reference: "Foo.Bar<Baz>?" becomes "Bar".
func baseTypeName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimRight(name, "?!")
	if idx := strings.Index(name, "<"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	if strings.ContainsAny(name, "[]() ") {
		return ""
	}
	return name
}

func hasModifier(modifiers []string, want string) bool {
	for _, m := range modifiers {
		if m == want {
			return true
		}
	}
	return false
}

func isOperatorName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'))
}
