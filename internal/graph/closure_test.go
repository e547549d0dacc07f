package graph

import (
	"reflect"
	"testing"

	"symguard/internal/logging"
)

// buildResolved ingests one file of facts and runs resolution.
func buildResolved(t *testing.T, facts FileFacts) *Store {
	t.Helper()
	s := NewStore(logging.Nop())
	if err := s.AddFile(facts); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	s.Resolve()
	return s
}

func TestChainDedupOrder(t *testing.T) {
	// T : [A, B], A : [C], B : [A]. The diamond back to A must not
	// duplicate A or C, and every name keeps its earliest position.
	s := buildResolved(t, FileFacts{
		Path: "a.swift",
		Symbols: []*Symbol{
			typeDraft("t", "T", KindClass),
			typeDraft("a", "A", KindClass),
			typeDraft("b", "B", KindClass),
			typeDraft("c", "C", KindProtocol),
		},
		Intents: []Intent{
			TypeNameIntent("t", "A", EdgeSupertypeOf),
			TypeNameIntent("t", "B", EdgeAdoptsInterface),
			TypeNameIntent("a", "C", EdgeAdoptsInterface),
			TypeNameIntent("b", "A", EdgeSupertypeOf),
		},
	})

	s.BuildClosures()

	want := []string{"A", "C", "B"}
	if got := s.Symbol("t").SuperChain; !reflect.DeepEqual(got, want) {
		t.Errorf("T.superChain = %v, want %v", got, want)
	}
}

func TestChainFollowsDeclarationOrder(t *testing.T) {
	s := buildResolved(t, FileFacts{
		Path: "a.swift",
		Symbols: []*Symbol{
			typeDraft("t", "T", KindClass),
		},
		Intents: []Intent{
			TypeNameIntent("t", "UIView", EdgeSupertypeOf),
			TypeNameIntent("t", "Codable", EdgeAdoptsInterface),
			TypeNameIntent("t", "Equatable", EdgeAdoptsInterface),
		},
	})

	s.BuildClosures()

	want := []string{"UIView", "Codable", "Equatable"}
	if got := s.Symbol("t").SuperChain; !reflect.DeepEqual(got, want) {
		t.Errorf("T.superChain = %v, want %v", got, want)
	}
}

func TestCycleSafety(t *testing.T) {
	// Malformed input: A and B name each other as supertype. Closure must
	// terminate and return finite chains.
	s := buildResolved(t, FileFacts{
		Path: "a.swift",
		Symbols: []*Symbol{
			typeDraft("a", "A", KindClass),
			typeDraft("b", "B", KindClass),
		},
		Intents: []Intent{
			TypeNameIntent("a", "B", EdgeSupertypeOf),
			TypeNameIntent("b", "A", EdgeSupertypeOf),
		},
	})

	s.BuildClosures()

	chainA := s.Symbol("a").SuperChain
	chainB := s.Symbol("b").SuperChain
	if chainA == nil || chainB == nil {
		t.Fatal("Chains must be computed (non-nil) even on cyclic input")
	}
	if len(chainA) > 2 || len(chainB) > 2 {
		t.Errorf("Cyclic chains should stay finite, got %v and %v", chainA, chainB)
	}
}

func TestSelfCycleSafety(t *testing.T) {
	s := buildResolved(t, FileFacts{
		Path: "a.swift",
		Symbols: []*Symbol{
			typeDraft("a", "A", KindClass),
		},
		Intents: []Intent{
			TypeNameIntent("a", "A", EdgeSupertypeOf),
		},
	})

	s.BuildClosures()

	if got := s.Symbol("a").SuperChain; got == nil {
		t.Error("Self-referential type should still get a computed chain")
	}
}

func TestEmptyChainIsComputedNotAbsent(t *testing.T) {
	s := buildResolved(t, FileFacts{
		Path:    "a.swift",
		Symbols: []*Symbol{typeDraft("a", "Standalone", KindClass)},
	})

	s.BuildClosures()

	chain := s.Symbol("a").SuperChain
	if chain == nil {
		t.Fatal("Type-like node must have a present (possibly empty) chain after closure")
	}
	if len(chain) != 0 {
		t.Errorf("Standalone type should have an empty chain, got %v", chain)
	}
}

func TestPropagationToMembers(t *testing.T) {
	s := buildResolved(t, FileFacts{
		Path: "a.swift",
		Symbols: []*Symbol{
			typeDraft("t", "HomeViewController", KindClass),
			memberDraft("t.m", "viewDidLoad", KindMethod, "override"),
			memberDraft("t.p", "titleLabel", KindProperty),
		},
		Intents: []Intent{
			ConcreteIntent("t", "t.m", EdgeContains),
			ConcreteIntent("t", "t.p", EdgeContains),
			TypeNameIntent("t", "UIViewController", EdgeSupertypeOf),
		},
	})

	s.BuildClosures()

	want := []string{"UIViewController"}
	if got := s.Symbol("t.m").SuperChain; !reflect.DeepEqual(got, want) {
		t.Errorf("Method should inherit containing type's chain, got %v", got)
	}
	if got := s.Symbol("t.p").SuperChain; !reflect.DeepEqual(got, want) {
		t.Errorf("Property should inherit containing type's chain, got %v", got)
	}
}

func TestPropagationSharesChainValue(t *testing.T) {
	s := buildResolved(t, FileFacts{
		Path: "a.swift",
		Symbols: []*Symbol{
			typeDraft("t", "T", KindClass),
			memberDraft("t.m", "run", KindMethod),
		},
		Intents: []Intent{
			ConcreteIntent("t", "t.m", EdgeContains),
			TypeNameIntent("t", "Base", EdgeSupertypeOf),
		},
	})

	s.BuildClosures()

	typeChain := s.Symbol("t").SuperChain
	memberChain := s.Symbol("t.m").SuperChain
	if len(typeChain) == 0 || len(memberChain) == 0 {
		t.Fatal("Both chains should be non-empty")
	}
	if &typeChain[0] != &memberChain[0] {
		t.Error("Member chain should share the type's backing array, not a copy")
	}
}

func TestPropagationIdempotence(t *testing.T) {
	s := buildResolved(t, FileFacts{
		Path: "a.swift",
		Symbols: []*Symbol{
			typeDraft("t", "T", KindClass),
			typeDraft("inner", "Inner", KindStruct),
			memberDraft("t.m", "run", KindMethod),
			memberDraft("inner.m", "innerRun", KindMethod),
		},
		Intents: []Intent{
			ConcreteIntent("t", "t.m", EdgeContains),
			ConcreteIntent("t", "inner", EdgeContains),
			ConcreteIntent("inner", "inner.m", EdgeContains),
			TypeNameIntent("t", "Base", EdgeSupertypeOf),
		},
	})

	s.BuildClosures()

	snapshot := make(map[string][]string)
	for _, sym := range s.Symbols() {
		snapshot[sym.ID] = append([]string(nil), sym.SuperChain...)
	}

	s.BuildClosures()

	for _, sym := range s.Symbols() {
		if !reflect.DeepEqual(append([]string(nil), sym.SuperChain...), snapshot[sym.ID]) {
			t.Errorf("Chain for %s changed on second propagation: %v vs %v",
				sym.ID, sym.SuperChain, snapshot[sym.ID])
		}
	}
}

func TestNestedTypeKeepsOwnChain(t *testing.T) {
	s := buildResolved(t, FileFacts{
		Path: "a.swift",
		Symbols: []*Symbol{
			typeDraft("outer", "Outer", KindClass),
			typeDraft("inner", "Inner", KindClass),
		},
		Intents: []Intent{
			ConcreteIntent("outer", "inner", EdgeContains),
			TypeNameIntent("outer", "OuterBase", EdgeSupertypeOf),
			TypeNameIntent("inner", "InnerBase", EdgeSupertypeOf),
		},
	})

	s.BuildClosures()

	if got := s.Symbol("inner").SuperChain; !reflect.DeepEqual(got, []string{"InnerBase"}) {
		t.Errorf("Nested type must keep its own chain, got %v", got)
	}
}
