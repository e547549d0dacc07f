package graph

import (
	"fmt"
)

// Resolution rewrites every pending intent into a concrete edge. Names that
// resolve to nothing declared in the analyzed codebase get a synthesized
// external placeholder, created at most once per distinct name per
// namespace: type placeholders and member placeholders are separate
// registries, so a type named X and a method named X never collide.

type placeholderRegistry struct {
	types map[string]string
	// members is keyed by owner id + member name.
	members map[string]string
	counter int
}

func newPlaceholderRegistry() *placeholderRegistry {
	return &placeholderRegistry{
		types:   make(map[string]string),
		members: make(map[string]string),
	}
}

func (r *placeholderRegistry) nextID(name string) string {
	r.counter++
	return fmt.Sprintf("external:%s#%d", name, r.counter)
}

// Resolve consumes the pending intent list and produces the final edge set.
// It must run after ingestion has completed for every file. After Resolve
// returns, no edge references a missing symbol id.
func (s *Store) Resolve() {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry := newPlaceholderRegistry()
	// External type symbols ingested as drafts (an extension of a type the
	// project never declares) claim their name up front, so a later
	// type-name intent reuses them instead of minting a second placeholder
	// for the same name.
	for _, id := range s.order {
		sym := s.symbols[id]
		if sym.IsExternal && sym.Kind.TypeLike() {
			if _, ok := registry.types[sym.Name]; !ok {
				registry.types[sym.Name] = id
			}
		}
	}

	intents := s.pending
	s.pending = nil

	// Three passes: containment first so every member's containing type is
	// known, then is-a and declared-type edges, then overrides, which need
	// the origin's container AND that container's supertype edges in place.
	for _, intent := range intents {
		if intent.EdgeType == EdgeContains {
			s.resolveOne(intent, registry)
		}
	}
	for _, intent := range intents {
		if intent.EdgeType != EdgeContains && intent.EdgeType != EdgeOverrides {
			s.resolveOne(intent, registry)
		}
	}
	for _, intent := range intents {
		if intent.EdgeType == EdgeOverrides {
			s.resolveOne(intent, registry)
		}
	}
}

func (s *Store) resolveOne(intent Intent, registry *placeholderRegistry) {
	if _, ok := s.symbols[intent.FromID]; !ok {
		s.logger.Warn("intent origin does not exist, dropping", map[string]interface{}{
			"fromId":   intent.FromID,
			"edgeType": string(intent.EdgeType),
		})
		return
	}

	switch intent.TargetKind {
	case TargetConcreteID:
		if _, ok := s.symbols[intent.TargetID]; !ok {
			s.logger.Warn("concrete intent target does not exist, dropping", map[string]interface{}{
				"fromId":   intent.FromID,
				"targetId": intent.TargetID,
				"edgeType": string(intent.EdgeType),
			})
			return
		}
		s.addEdge(Edge{From: intent.FromID, To: intent.TargetID, Type: intent.EdgeType})

	case TargetTypeName:
		targetID := s.bindTypeName(intent.TargetName, registry)
		s.addEdge(Edge{From: intent.FromID, To: targetID, Type: intent.EdgeType})

	case TargetOverrideName:
		targetID, ok := s.bindOverride(intent.FromID, intent.TargetName, registry)
		if !ok {
			s.logger.Warn("override has no resolvable ancestor member, dropping", map[string]interface{}{
				"fromId": intent.FromID,
				"member": intent.TargetName,
			})
			return
		}
		s.addEdge(Edge{From: intent.FromID, To: targetID, Type: EdgeOverrides})

	default:
		s.logger.Warn("unknown intent target kind, dropping", map[string]interface{}{
			"targetKind": string(intent.TargetKind),
		})
	}
}

// bindTypeName finds the declared type named name, tie-breaking by
// declaration order, or synthesizes a type-namespace placeholder.
func (s *Store) bindTypeName(name string, registry *placeholderRegistry) string {
	if ids := s.declaredTypesNamed(name); len(ids) > 0 {
		if len(ids) > 1 {
			s.logger.Debug("ambiguous type name, binding first declaration", map[string]interface{}{
				"name":       name,
				"candidates": len(ids),
			})
		}
		return ids[0]
	}

	if id, ok := registry.types[name]; ok {
		return id
	}
	placeholder := &Symbol{
		ID:                   registry.nextID(name),
		Name:                 name,
		Kind:                 KindUnknown,
		IsExternal:           true,
		ExternallyReferenced: s.isExternallyReferencedName(name),
	}
	s.insertLocked(placeholder)
	registry.types[name] = placeholder.ID
	s.logger.Debug("synthesized external type placeholder", map[string]interface{}{"name": name})
	return placeholder.ID
}

// bindOverride locates the member named memberName in an ancestor of the
// origin's containing type. Only direct supertype and interface edges are
// walked, in declaration order. Declared ancestors must already contain the
// member; external ancestors get a placeholder member synthesized under
// them so the override edge always has a concrete, queryable target.
func (s *Store) bindOverride(fromID, memberName string, registry *placeholderRegistry) (string, bool) {
	containerID, ok := s.containsParent[fromID]
	if !ok {
		return "", false
	}

	for _, edge := range s.IsA(containerID) {
		ancestor := s.symbols[edge.To]
		if ancestor == nil {
			continue
		}

		if memberID, found := s.memberNamed(ancestor.ID, memberName); found {
			return memberID, true
		}

		if ancestor.IsExternal {
			memberKey := ancestor.ID + "\x00" + memberName
			if id, exists := registry.members[memberKey]; exists {
				return id, true
			}
			member := &Symbol{
				ID:                   registry.nextID(memberName),
				Name:                 memberName,
				Kind:                 KindMethod,
				IsExternal:           true,
				ExternallyReferenced: s.isExternallyReferencedName(memberName),
			}
			s.insertLocked(member)
			registry.members[memberKey] = member.ID
			s.addEdge(Edge{From: ancestor.ID, To: member.ID, Type: EdgeContains})
			s.logger.Debug("synthesized external member placeholder", map[string]interface{}{
				"member": memberName,
				"under":  ancestor.Name,
			})
			return member.ID, true
		}
	}
	return "", false
}

// Validate checks the no-dangling-edges guarantee. A failure here means a
// bug in resolution or a hand-edited graph document.
func (s *Store) Validate() error {
	for _, e := range s.edges {
		if _, ok := s.symbols[e.From]; !ok {
			return fmt.Errorf("edge %s references missing from-id %q", e.Type, e.From)
		}
		if _, ok := s.symbols[e.To]; !ok {
			return fmt.Errorf("edge %s references missing to-id %q", e.Type, e.To)
		}
	}
	return nil
}
