package graph

import (
	"fmt"
	"sync"

	"symguard/internal/logging"
)

// Store is the symbol table plus the edge set. Symbols are kept in an
// arena-style table keyed by id; all traversal goes through ids so the
// model never holds child pointers that could form ownership cycles.
//
// Ingestion (AddFile) may run concurrently across files; the internal mutex
// is the only synchronization point. Resolve and BuildClosures require that
// ingestion has finished for every file, and the cmd pipeline enforces that
// barrier. After BuildClosures the store is read-only.
type Store struct {
	mu sync.Mutex

	symbols map[string]*Symbol
	// order holds ids in insertion order. Resolution tie-breaks and report
	// ordering both rely on it, so ingestion must feed files deterministically.
	order      []string
	orderIndex map[string]int
	byName     map[string][]string

	edges []Edge
	// outgoing is indexed per edge type in append order.
	outgoing map[string]map[EdgeType][]Edge
	// isA merges supertype-of and adopts-interface edges per node,
	// preserving their declaration-order interleaving for closure walks.
	isA map[string][]Edge
	// containsParent enforces the forest invariant on contains edges.
	containsParent map[string]string
	children       map[string][]string

	pending      []Intent
	externalRefs map[string]struct{}

	logger *logging.Logger
}

// NewStore creates an empty store.
func NewStore(logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{
		symbols:        make(map[string]*Symbol),
		orderIndex:     make(map[string]int),
		byName:         make(map[string][]string),
		outgoing:       make(map[string]map[EdgeType][]Edge),
		isA:            make(map[string][]Edge),
		containsParent: make(map[string]string),
		children:       make(map[string][]string),
		externalRefs:   make(map[string]struct{}),
		logger:         logger,
	}
}

// SetExternalReferences installs the literal-reference name set before or
// during ingestion. A nil set is valid and means "no scanner output".
func (s *Store) SetExternalReferences(names map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if names == nil {
		s.logger.Warn("no external reference set supplied, flags default to false", nil)
		return
	}
	s.externalRefs = names
	for _, id := range s.order {
		sym := s.symbols[id]
		if _, ok := names[sym.Name]; ok {
			sym.ExternallyReferenced = true
		}
	}
}

// AddFile ingests one file's symbol drafts and relationship intents.
// No resolution happens here; forward references across files stay legal
// because intents are only queued.
func (s *Store) AddFile(facts FileFacts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sym := range facts.Symbols {
		if sym.ID == "" {
			return fmt.Errorf("file %s: symbol %q has no id", facts.Path, sym.Name)
		}
		if _, dup := s.symbols[sym.ID]; dup {
			return fmt.Errorf("file %s: duplicate symbol id %q", facts.Path, sym.ID)
		}
		if _, ok := s.externalRefs[sym.Name]; ok {
			sym.ExternallyReferenced = true
		}
		s.insertLocked(sym)
	}
	s.pending = append(s.pending, facts.Intents...)
	return nil
}

// AddSymbol inserts a single symbol draft. Used by graph document loading
// and by the resolver's placeholder synthesis.
func (s *Store) AddSymbol(sym *Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sym.ID == "" {
		return fmt.Errorf("symbol %q has no id", sym.Name)
	}
	if _, dup := s.symbols[sym.ID]; dup {
		return fmt.Errorf("duplicate symbol id %q", sym.ID)
	}
	if _, ok := s.externalRefs[sym.Name]; ok {
		sym.ExternallyReferenced = true
	}
	s.insertLocked(sym)
	return nil
}

func (s *Store) insertLocked(sym *Symbol) {
	s.symbols[sym.ID] = sym
	s.orderIndex[sym.ID] = len(s.order)
	s.order = append(s.order, sym.ID)
	s.byName[sym.Name] = append(s.byName[sym.Name], sym.ID)
}

// addEdge appends an edge and maintains the traversal indexes. The caller
// guarantees both endpoints exist.
func (s *Store) addEdge(e Edge) bool {
	if e.Type == EdgeContains {
		if parent, ok := s.containsParent[e.To]; ok {
			if parent != e.From {
				s.logger.Warn("contains edge would give symbol a second parent, skipping", map[string]interface{}{
					"symbol":         e.To,
					"existingParent": parent,
					"newParent":      e.From,
				})
			}
			return false
		}
		s.containsParent[e.To] = e.From
		s.children[e.From] = append(s.children[e.From], e.To)
	}

	s.edges = append(s.edges, e)
	byType := s.outgoing[e.From]
	if byType == nil {
		byType = make(map[EdgeType][]Edge)
		s.outgoing[e.From] = byType
	}
	byType[e.Type] = append(byType[e.Type], e)
	if e.Type.isA() {
		s.isA[e.From] = append(s.isA[e.From], e)
	}
	return true
}

// IsA returns the merged supertype-of and adopts-interface edges of a node
// in declaration order.
func (s *Store) IsA(id string) []Edge {
	return s.isA[id]
}

// Symbol returns the symbol for id, or nil.
func (s *Store) Symbol(id string) *Symbol {
	return s.symbols[id]
}

// Symbols returns all symbols in insertion order.
func (s *Store) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.symbols[id])
	}
	return out
}

// IndexOf returns the insertion index of a symbol id, or -1.
func (s *Store) IndexOf(id string) int {
	if i, ok := s.orderIndex[id]; ok {
		return i
	}
	return -1
}

// Len returns the number of symbols.
func (s *Store) Len() int {
	return len(s.order)
}

// Edges returns the resolved edge set.
func (s *Store) Edges() []Edge {
	return s.edges
}

// Outgoing returns the outgoing edges of the given type in append order.
func (s *Store) Outgoing(id string, t EdgeType) []Edge {
	if byType, ok := s.outgoing[id]; ok {
		return byType[t]
	}
	return nil
}

// Parent returns the contains-parent of a symbol, or nil.
func (s *Store) Parent(id string) *Symbol {
	if parentID, ok := s.containsParent[id]; ok {
		return s.symbols[parentID]
	}
	return nil
}

// Children returns the ids directly contained by the given symbol.
func (s *Store) Children(id string) []string {
	return s.children[id]
}

// memberNamed returns the id of a directly contained member with the given
// name, preferring declaration order.
func (s *Store) memberNamed(typeID, name string) (string, bool) {
	for _, childID := range s.children[typeID] {
		if child := s.symbols[childID]; child != nil && child.Name == name {
			return childID, true
		}
	}
	return "", false
}

// declaredTypesNamed returns ids of declared (non-placeholder) type symbols
// with the given name, in declaration order.
func (s *Store) declaredTypesNamed(name string) []string {
	var out []string
	for _, id := range s.byName[name] {
		if s.symbols[id].Kind.DeclaredTypeLike() {
			out = append(out, id)
		}
	}
	return out
}

// isExternallyReferencedName reports whether the scanner saw this name.
func (s *Store) isExternallyReferencedName(name string) bool {
	_, ok := s.externalRefs[name]
	return ok
}
