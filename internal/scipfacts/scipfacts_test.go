package scipfacts

import (
	"os"
	"path/filepath"
	"testing"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"symguard/internal/graph"
	"symguard/internal/logging"
)

func sampleIndex() *scippb.Index {
	const (
		vcSym    = "scip-swift maven . . App/HomeViewController#"
		loadSym  = "scip-swift maven . . App/HomeViewController#viewDidLoad()."
		protoSym = "scip-swift maven . . App/Refreshable#"
	)
	return &scippb.Index{
		Metadata: &scippb.Metadata{ProjectRoot: "file:///app"},
		Documents: []*scippb.Document{
			{
				RelativePath: "Sources/Home.swift",
				Language:     "swift",
				Symbols: []*scippb.SymbolInformation{
					{
						Symbol:      vcSym,
						DisplayName: "HomeViewController",
						Kind:        scippb.SymbolInformation_Class,
						Relationships: []*scippb.Relationship{
							{Symbol: protoSym, IsImplementation: true},
							{Symbol: "scip-swift maven . . UIKit/UIViewController#", IsImplementation: true},
						},
					},
					{
						Symbol:          loadSym,
						DisplayName:     "viewDidLoad",
						Kind:            scippb.SymbolInformation_Method,
						EnclosingSymbol: vcSym,
					},
				},
				Occurrences: []*scippb.Occurrence{
					{Symbol: vcSym, SymbolRoles: int32(scippb.SymbolRole_Definition), Range: []int32{2, 6, 2, 24}},
					{Symbol: loadSym, SymbolRoles: int32(scippb.SymbolRole_Definition), Range: []int32{5, 18, 5, 29}},
					{Symbol: vcSym, SymbolRoles: 0, Range: []int32{20, 4, 20, 22}},
					{Symbol: "local 3", SymbolRoles: int32(scippb.SymbolRole_Definition), Range: []int32{6, 8, 6, 9}},
				},
			},
			{
				RelativePath: "Sources/Refreshable.swift",
				Language:     "swift",
				Symbols: []*scippb.SymbolInformation{
					{Symbol: protoSym, DisplayName: "Refreshable", Kind: scippb.SymbolInformation_Protocol},
				},
				Occurrences: []*scippb.Occurrence{
					{Symbol: protoSym, SymbolRoles: int32(scippb.SymbolRole_Definition), Range: []int32{0, 9, 0, 20}},
				},
			},
		},
	}
}

func TestConvertDefinitions(t *testing.T) {
	facts := Convert(sampleIndex(), logging.Nop())

	if len(facts) != 2 {
		t.Fatalf("Expected 2 file facts, got %d", len(facts))
	}
	// relative-path ordering
	if facts[0].Path != "Sources/Home.swift" || facts[1].Path != "Sources/Refreshable.swift" {
		t.Errorf("Documents not sorted by path: %s, %s", facts[0].Path, facts[1].Path)
	}

	home := facts[0]
	if len(home.Symbols) != 2 {
		t.Fatalf("Expected 2 symbols (locals and references skipped), got %d", len(home.Symbols))
	}
	vc := home.Symbols[0]
	if vc.Name != "HomeViewController" || vc.Kind != graph.KindClass {
		t.Errorf("Unexpected class symbol %+v", vc)
	}
	if vc.Location == nil || vc.Location.Line != 3 || vc.Location.Column != 7 {
		t.Errorf("SCIP ranges are zero-based, location should be 3:7, got %+v", vc.Location)
	}
	if load := home.Symbols[1]; load.Kind != graph.KindMethod {
		t.Errorf("viewDidLoad kind = %s, want method", load.Kind)
	}
}

func TestConvertIntents(t *testing.T) {
	facts := Convert(sampleIndex(), logging.Nop())
	home := facts[0]

	var contains, adoptsConcrete, supertypeByName bool
	for _, intent := range home.Intents {
		switch {
		case intent.EdgeType == graph.EdgeContains && intent.TargetKind == graph.TargetConcreteID:
			contains = true
		case intent.EdgeType == graph.EdgeAdoptsInterface && intent.TargetKind == graph.TargetConcreteID:
			adoptsConcrete = true
		case intent.EdgeType == graph.EdgeSupertypeOf && intent.TargetKind == graph.TargetTypeName &&
			intent.TargetName == "UIViewController":
			supertypeByName = true
		}
	}
	if !contains {
		t.Error("Enclosing symbol should produce a concrete contains intent")
	}
	if !adoptsConcrete {
		t.Error("Implementation of an indexed protocol should produce a concrete adopts intent")
	}
	if !supertypeByName {
		t.Error("Implementation of an unindexed type should fall back to a name intent")
	}
}

func TestConvertFeedsResolver(t *testing.T) {
	facts := Convert(sampleIndex(), logging.Nop())

	s := graph.NewStore(logging.Nop())
	for _, f := range facts {
		if err := s.AddFile(f); err != nil {
			t.Fatalf("AddFile failed: %v", err)
		}
	}
	s.Resolve()
	if err := s.Validate(); err != nil {
		t.Fatalf("Converted facts produced dangling edges: %v", err)
	}
	s.BuildClosures()

	var vc *graph.Symbol
	for _, sym := range s.Symbols() {
		if sym.Name == "HomeViewController" {
			vc = sym
		}
	}
	if vc == nil {
		t.Fatal("HomeViewController missing after ingestion")
	}
	want := map[string]bool{"Refreshable": true, "UIViewController": true}
	for _, name := range vc.SuperChain {
		delete(want, name)
	}
	if len(want) != 0 {
		t.Errorf("Chain missing entries %v, got %v", want, vc.SuperChain)
	}
}

func TestLoadRoundtrip(t *testing.T) {
	data, err := proto.Marshal(sampleIndex())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "index.scip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	index, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(index.Documents) != 2 {
		t.Errorf("Expected 2 documents, got %d", len(index.Documents))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.scip")); err == nil {
		t.Error("Expected error for missing index")
	}
}
