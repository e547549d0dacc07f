//go:build cgo

package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"symguard/internal/graph"
	"symguard/internal/logging"
)

const homeControllerSwift = `import UIKit

@objc class HomeViewController: UIViewController, Refreshable {
    @IBOutlet var titleLabel: UILabel!
    var itemCount: Int = 0

    override func viewDidLoad() {
        super.viewDidLoad()
    }

    @IBAction func refreshTapped(_ sender: Any) {
    }
}

struct Price {
    let amount: Decimal
}

func formatPrice(_ price: Price) -> String {
    return ""
}
`

func extractOne(t *testing.T, source string) graph.FileFacts {
	t.Helper()
	e := NewExtractor(logging.Nop())
	result, err := e.ExtractSource(context.Background(), "Sources/Test.swift", []byte(source))
	if err != nil {
		t.Fatalf("ExtractSource failed: %v", err)
	}
	return result.facts
}

func symbolNamed(facts graph.FileFacts, name string) *graph.Symbol {
	for _, s := range facts.Symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func TestExtractTypesAndMembers(t *testing.T) {
	facts := extractOne(t, homeControllerSwift)

	vc := symbolNamed(facts, "HomeViewController")
	if vc == nil {
		t.Fatal("HomeViewController not extracted")
	}
	if vc.Kind != graph.KindClass {
		t.Errorf("HomeViewController kind = %s, want class", vc.Kind)
	}
	if !hasString(vc.Attributes, "objc") {
		t.Errorf("Missing objc attribute: %v", vc.Attributes)
	}

	if price := symbolNamed(facts, "Price"); price == nil || price.Kind != graph.KindStruct {
		t.Errorf("Price should be a struct, got %+v", price)
	}
	if fn := symbolNamed(facts, "formatPrice"); fn == nil || fn.Kind != graph.KindFunction {
		t.Errorf("formatPrice should be a free function, got %+v", fn)
	}
	if m := symbolNamed(facts, "viewDidLoad"); m == nil || m.Kind != graph.KindMethod {
		t.Errorf("viewDidLoad should be a method, got %+v", m)
	}

	label := symbolNamed(facts, "titleLabel")
	if label == nil || label.Kind != graph.KindProperty {
		t.Fatalf("titleLabel should be a property, got %+v", label)
	}
	if !hasString(label.Attributes, "IBOutlet") {
		t.Errorf("titleLabel missing IBOutlet attribute: %v", label.Attributes)
	}
	if label.DeclaredTypeName != "UILabel" {
		t.Errorf("titleLabel declared type = %q, want UILabel", label.DeclaredTypeName)
	}
}

func TestExtractIntents(t *testing.T) {
	facts := extractOne(t, homeControllerSwift)
	vc := symbolNamed(facts, "HomeViewController")
	load := symbolNamed(facts, "viewDidLoad")
	if vc == nil || load == nil {
		t.Fatal("fixture symbols missing")
	}

	var hasSupertype, hasAdopts, hasContains, hasOverride, hasDeclaredType bool
	for _, intent := range facts.Intents {
		switch {
		case intent.TargetKind == graph.TargetTypeName && intent.EdgeType == graph.EdgeSupertypeOf &&
			intent.FromID == vc.ID && intent.TargetName == "UIViewController":
			hasSupertype = true
		case intent.TargetKind == graph.TargetTypeName && intent.EdgeType == graph.EdgeAdoptsInterface &&
			intent.FromID == vc.ID && intent.TargetName == "Refreshable":
			hasAdopts = true
		case intent.TargetKind == graph.TargetConcreteID && intent.EdgeType == graph.EdgeContains &&
			intent.FromID == vc.ID && intent.TargetID == load.ID:
			hasContains = true
		case intent.TargetKind == graph.TargetOverrideName && intent.FromID == load.ID &&
			intent.TargetName == "viewDidLoad":
			hasOverride = true
		case intent.TargetKind == graph.TargetTypeName && intent.EdgeType == graph.EdgeHasDeclaredType &&
			intent.TargetName == "UILabel":
			hasDeclaredType = true
		}
	}
	if !hasSupertype {
		t.Error("Missing supertype intent to UIViewController")
	}
	if !hasAdopts {
		t.Error("Missing adopts intent to Refreshable")
	}
	if !hasContains {
		t.Error("Missing contains intent for viewDidLoad")
	}
	if !hasOverride {
		t.Error("Missing override intent for viewDidLoad")
	}
	if !hasDeclaredType {
		t.Error("Missing has-declared-type intent for titleLabel")
	}
}

func TestExtractOverrideModifier(t *testing.T) {
	facts := extractOne(t, homeControllerSwift)
	load := symbolNamed(facts, "viewDidLoad")
	if load == nil {
		t.Fatal("viewDidLoad not extracted")
	}
	if !hasString(load.Modifiers, "override") {
		t.Errorf("viewDidLoad missing override modifier: %v", load.Modifiers)
	}
}

func TestExtractProtocol(t *testing.T) {
	facts := extractOne(t, `protocol Refreshable: AnyObject {
    func refresh()
}
`)
	proto := symbolNamed(facts, "Refreshable")
	if proto == nil || proto.Kind != graph.KindProtocol {
		t.Fatalf("Refreshable should be a protocol, got %+v", proto)
	}
	if m := symbolNamed(facts, "refresh"); m == nil || m.Kind != graph.KindMethod {
		t.Errorf("Protocol requirement should extract as method, got %+v", m)
	}
}

func TestExtensionLinking(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("A/Model.swift", "struct Order {\n    let id: Int\n}\n")
	write("B/Model+Extras.swift", `extension Order: CustomStringConvertible {
    var description: String { return "" }
}

extension JSONDecoder {
    func decodeOrder() {}
}
`)

	e := NewExtractor(logging.Nop())
	allFacts, err := e.ExtractProject(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("ExtractProject failed: %v", err)
	}

	s := graph.NewStore(logging.Nop())
	for _, facts := range allFacts {
		if err := s.AddFile(facts); err != nil {
			t.Fatalf("AddFile failed: %v", err)
		}
	}
	s.Resolve()
	if err := s.Validate(); err != nil {
		t.Fatalf("Graph has dangling edges after extension linking: %v", err)
	}

	var order, desc, decode *graph.Symbol
	for _, sym := range s.Symbols() {
		switch sym.Name {
		case "Order":
			if !sym.IsExternal {
				order = sym
			}
		case "description":
			desc = sym
		case "decodeOrder":
			decode = sym
		}
	}
	if order == nil || desc == nil || decode == nil {
		t.Fatal("fixture symbols missing after ingestion")
	}

	if parent := s.Parent(desc.ID); parent == nil || parent.ID != order.ID {
		t.Errorf("description should attach to declared Order, got %+v", parent)
	}
	if parent := s.Parent(decode.ID); parent == nil || !parent.IsExternal || parent.Name != "JSONDecoder" {
		t.Errorf("decodeOrder should attach to an external JSONDecoder draft, got %+v", parent)
	}
}

func TestExtractDeterministicIDs(t *testing.T) {
	first := extractOne(t, homeControllerSwift)
	second := extractOne(t, homeControllerSwift)

	if len(first.Symbols) != len(second.Symbols) {
		t.Fatalf("Symbol counts differ: %d vs %d", len(first.Symbols), len(second.Symbols))
	}
	for i := range first.Symbols {
		if first.Symbols[i].ID != second.Symbols[i].ID {
			t.Errorf("Symbol ids differ at %d: %s vs %s", i, first.Symbols[i].ID, second.Symbols[i].ID)
		}
	}
}

func hasString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
