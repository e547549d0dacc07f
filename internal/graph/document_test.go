package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	stderrors "errors"

	sgerrors "symguard/internal/errors"
	"symguard/internal/logging"
)

func resolvedFixture(t *testing.T) *Store {
	t.Helper()
	s := buildResolved(t, FileFacts{
		Path: "Sources/App.swift",
		Symbols: []*Symbol{
			typeDraft("t", "HomeViewController", KindClass),
			memberDraft("t.m", "viewDidLoad", KindMethod, "override"),
			typeDraft("u", "Standalone", KindStruct),
		},
		Intents: []Intent{
			ConcreteIntent("t", "t.m", EdgeContains),
			TypeNameIntent("t", "UIViewController", EdgeSupertypeOf),
			OverrideIntent("t.m", "viewDidLoad"),
		},
	})
	s.BuildClosures()
	return s
}

func TestDocumentRoundTrip(t *testing.T) {
	s := resolvedFixture(t)
	doc := s.Document("/proj/App", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	path := filepath.Join(t.TempDir(), "symgraph.json")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	if loaded.Metadata.AnalyzedProjectPath != "/proj/App" {
		t.Errorf("Unexpected project path %q", loaded.Metadata.AnalyzedProjectPath)
	}
	if len(loaded.Symbols) != len(doc.Symbols) {
		t.Errorf("Symbol count mismatch: %d vs %d", len(loaded.Symbols), len(doc.Symbols))
	}
	if len(loaded.Edges) != len(doc.Edges) {
		t.Errorf("Edge count mismatch: %d vs %d", len(loaded.Edges), len(doc.Edges))
	}

	// A computed-but-empty chain must survive persistence as computed.
	for _, sym := range loaded.Symbols {
		if sym.ID == "u" {
			if sym.SuperChain == nil {
				t.Error("Standalone's empty chain should load as computed, not absent")
			}
		}
	}
}

func TestDocumentRoundTripZstd(t *testing.T) {
	s := resolvedFixture(t)
	doc := s.Document("/proj/App", time.Now())

	path := filepath.Join(t.TempDir(), "symgraph.json.zst")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	// zstd frame magic.
	if !bytes.HasPrefix(raw, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Error("File should be zstd-compressed")
	}

	loaded, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if len(loaded.Symbols) != len(doc.Symbols) {
		t.Errorf("Symbol count mismatch after compression round trip")
	}
}

func TestDocumentSaveZstdUnwritablePath(t *testing.T) {
	s := resolvedFixture(t)
	doc := s.Document("/proj/App", time.Now())

	path := filepath.Join(t.TempDir(), "missing-dir", "symgraph.json.zst")
	err := doc.Save(path)
	if err == nil {
		t.Fatal("Save to a nonexistent directory should fail")
	}
	var analyzerErr *sgerrors.AnalyzerError
	if !stderrors.As(err, &analyzerErr) || analyzerErr.Code != sgerrors.ReportWriteFailed {
		t.Errorf("Expected REPORT_WRITE_FAILED, got %v", err)
	}
}

func TestDocumentSaveIsDeterministic(t *testing.T) {
	s := resolvedFixture(t)
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.json")
	p2 := filepath.Join(dir, "b.json")
	if err := s.Document("/proj/App", at).Save(p1); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Document("/proj/App", at).Save(p2); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	a, _ := os.ReadFile(p1)
	b, _ := os.ReadFile(p2)
	if !bytes.Equal(a, b) {
		t.Error("Two saves of the same store should be byte-identical")
	}
}

func TestLoadDocumentMissing(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "nope.json"))
	var ae *sgerrors.AnalyzerError
	if !stderrors.As(err, &ae) || ae.Code != sgerrors.GraphMissing {
		t.Errorf("Expected GRAPH_MISSING, got %v", err)
	}
}

func TestLoadDocumentRejectsDanglingEdge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	content := `{
		"metadata": {"analyzedProjectPath": "/p", "analyzedAtTimestamp": "2026-08-01T00:00:00Z"},
		"symbols": [{"id": "a", "name": "A", "kind": "class"}],
		"edges": [{"from": "a", "to": "ghost", "type": "supertype-of"}]
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := LoadDocument(path)
	var ae *sgerrors.AnalyzerError
	if !stderrors.As(err, &ae) || ae.Code != sgerrors.GraphMalformed {
		t.Errorf("Expected GRAPH_MALFORMED, got %v", err)
	}
}

func TestLoadDocumentRejectsUnknownEdgeType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	content := `{
		"metadata": {"analyzedProjectPath": "/p", "analyzedAtTimestamp": "2026-08-01T00:00:00Z"},
		"symbols": [{"id": "a", "name": "A", "kind": "class"}],
		"edges": [{"from": "a", "to": "a", "type": "calls"}]
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadDocument(path); err == nil {
		t.Error("Unknown edge type should be rejected")
	}
}

func TestDocumentStoreRebuild(t *testing.T) {
	s := resolvedFixture(t)
	doc := s.Document("/proj/App", time.Now())

	rebuilt, err := doc.Store(logging.Nop())
	if err != nil {
		t.Fatalf("Store rebuild failed: %v", err)
	}

	if rebuilt.Len() != s.Len() {
		t.Errorf("Symbol count mismatch: %d vs %d", rebuilt.Len(), s.Len())
	}
	if err := rebuilt.Validate(); err != nil {
		t.Errorf("Rebuilt store should validate: %v", err)
	}
	if got := rebuilt.Symbol("t").SuperChain; !reflect.DeepEqual(got, []string{"UIViewController"}) {
		t.Errorf("Chain should survive rebuild, got %v", got)
	}
	if parent := rebuilt.Parent("t.m"); parent == nil || parent.ID != "t" {
		t.Errorf("Contains index should be rebuilt, got %+v", parent)
	}
}
