package graph

// Closure computation fills in SuperChain for every type-like symbol: the
// ordered, duplicate-free list of all ancestor names reachable through
// supertype and interface-adoption edges. Results are memoized per node so
// shared ancestors are computed once, and an in-progress marker set keeps
// malformed cyclic input from recursing forever.

type closureBuilder struct {
	store *Store
	cache map[string][]string
}

// BuildClosures computes SuperChain for every type-like node, then
// propagates each non-empty chain down to contained members. Safe to run
// again on an already-propagated store: members with a chain keep it.
func (s *Store) BuildClosures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := &closureBuilder{
		store: s,
		cache: make(map[string][]string),
	}

	// order is appended to when placeholders were synthesized during
	// resolution; iterating it covers declared and external types alike.
	for _, id := range s.order {
		sym := s.symbols[id]
		if !sym.Kind.TypeLike() {
			continue
		}
		// The marker set is scoped per top-level call, not shared across
		// components, so independent hierarchies stay independent.
		chain := b.chainFor(id, make(map[string]bool))
		sym.SuperChain = chain
	}

	for _, id := range s.order {
		sym := s.symbols[id]
		if sym.Kind.TypeLike() && len(sym.SuperChain) > 0 {
			s.propagateChain(id, sym.SuperChain)
		}
	}
}

// chainFor returns the ancestor-name closure of one node. A node reached
// while its own chain is still being computed (a cycle) contributes an
// empty list for that occurrence instead of recursing.
func (b *closureBuilder) chainFor(id string, inProgress map[string]bool) []string {
	if chain, ok := b.cache[id]; ok {
		return chain
	}
	if inProgress[id] {
		return nil
	}
	inProgress[id] = true

	var chain []string
	for _, edge := range b.store.IsA(id) {
		ancestor := b.store.symbols[edge.To]
		if ancestor == nil || edge.To == id {
			continue
		}
		chain = append(chain, ancestor.Name)
		chain = append(chain, b.chainFor(edge.To, inProgress)...)
	}
	delete(inProgress, id)

	chain = dedupPreservingOrder(chain)
	b.cache[id] = chain
	return chain
}

// dedupPreservingOrder keeps the first occurrence of every name, so a
// diamond ancestor appears once at its earliest position. Always returns a
// non-nil slice: a computed-but-empty chain must stay distinguishable from
// an uncomputed one.
func dedupPreservingOrder(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// propagateChain walks contains edges breadth-first from a type and hands
// the type's chain to every reached member that does not have one yet. The
// chain value is shared, not copied per member; the model is immutable from
// here on so sharing is safe. The visited set bounds the walk to
// linear-in-edges cost even with deep containment.
func (s *Store) propagateChain(typeID string, chain []string) {
	visited := map[string]bool{typeID: true}
	queue := append([]string(nil), s.children[typeID]...)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		member := s.symbols[id]
		if member == nil {
			continue
		}
		if member.SuperChain == nil {
			member.SuperChain = chain
		}
		queue = append(queue, s.children[id]...)
	}
}
