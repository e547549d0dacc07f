package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"symguard/internal/graph"
	"symguard/internal/logging"
	"symguard/internal/match"
)

func reportStore(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore(logging.Nop())
	facts := graph.FileFacts{
		Path: "Sources/App.swift",
		Symbols: []*graph.Symbol{
			{ID: "a", Name: "AppDelegate", Kind: graph.KindClass,
				Location: &graph.Location{File: "Sources/App.swift", Line: 3, Column: 1}},
			{ID: "a.launch", Name: "didFinishLaunching", Kind: graph.KindMethod},
			{ID: "b", Name: "PriceFormatter", Kind: graph.KindStruct},
		},
		Intents: []graph.Intent{
			graph.ConcreteIntent("a", "a.launch", graph.EdgeContains),
		},
	}
	if err := s.AddFile(facts); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	s.Resolve()
	s.BuildClosures()
	return s
}

func sampleRecords() []match.Record {
	return []match.Record{
		{SymbolID: "a", RuleID: "entry-points", Description: "app entry points keep their names"},
		{SymbolID: "a", RuleID: "external-refs", Description: "referenced outside source", Reason: "named in Info.plist"},
		{SymbolID: "a.launch", RuleID: "entry-points", Description: "app entry points keep their names"},
	}
}

func TestBuildGroupsRecordsPerSymbol(t *testing.T) {
	s := reportStore(t)
	r := Build(s, sampleRecords())

	if len(r.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(r.Entries))
	}
	first := r.Entries[0]
	if first.Name != "AppDelegate" || len(first.Reasons) != 2 {
		t.Errorf("Unexpected first entry %+v", first)
	}
	if first.Reasons[0].RuleID != "entry-points" || first.Reasons[1].RuleID != "external-refs" {
		t.Errorf("Reason order not preserved: %+v", first.Reasons)
	}
	if first.Location == nil || first.Location.Line != 3 {
		t.Errorf("Location not carried into entry: %+v", first.Location)
	}
	if r.TotalSymbols != s.Len() {
		t.Errorf("TotalSymbols = %d, want %d", r.TotalSymbols, s.Len())
	}
}

func TestNamesSortedAndDeduplicated(t *testing.T) {
	s := reportStore(t)
	records := append(sampleRecords(),
		match.Record{SymbolID: "b", RuleID: "entry-points", Description: "d"})
	r := Build(s, records)

	got := r.Names()
	want := []string{"AppDelegate", "PriceFormatter", "didFinishLaunching"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestWriteDetailedIsValidJSON(t *testing.T) {
	s := reportStore(t)
	r := Build(s, sampleRecords())

	var buf bytes.Buffer
	if err := r.WriteDetailed(&buf); err != nil {
		t.Fatalf("WriteDetailed failed: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 JSON entries, got %d", len(decoded))
	}
	if decoded[0]["name"] != "AppDelegate" {
		t.Errorf("Unexpected first JSON entry: %v", decoded[0])
	}
	if _, hasReason := decoded[0]["reasons"].([]interface{}); !hasReason {
		t.Errorf("Entry missing reasons list: %v", decoded[0])
	}
}

func TestWriteDetailedEmptyReportIsEmptyArray(t *testing.T) {
	s := reportStore(t)
	r := Build(s, nil)

	var buf bytes.Buffer
	if err := r.WriteDetailed(&buf); err != nil {
		t.Fatalf("WriteDetailed failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("Empty report should serialize as [], got %q", got)
	}
}

func TestWriteFlatList(t *testing.T) {
	s := reportStore(t)
	r := Build(s, sampleRecords())

	var buf bytes.Buffer
	if err := r.WriteFlatList(&buf); err != nil {
		t.Fatalf("WriteFlatList failed: %v", err)
	}
	want := "AppDelegate\ndidFinishLaunching\n"
	if buf.String() != want {
		t.Errorf("Flat list = %q, want %q", buf.String(), want)
	}
}

func TestPrintSummary(t *testing.T) {
	s := reportStore(t)
	r := Build(s, sampleRecords())

	var buf bytes.Buffer
	r.PrintSummary(&buf)
	out := buf.String()

	for _, want := range []string{
		"Total Symbols Analyzed: 3",
		"Excluded Symbols:       2",
		"Obfuscation Candidates: 1",
		"Exclusion Rate:         66.67%",
		"entry-points",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary missing %q:\n%s", want, out)
		}
	}
}

func TestTopRulesOrderedByCountThenID(t *testing.T) {
	r := &Report{Entries: []Entry{
		{Name: "A", Reasons: []Reason{{RuleID: "zeta"}, {RuleID: "alpha"}}},
		{Name: "B", Reasons: []Reason{{RuleID: "zeta"}}},
		{Name: "C", Reasons: []Reason{{RuleID: "beta"}}},
	}}

	top := r.topRules()
	if len(top) != 3 {
		t.Fatalf("Expected 3 rule counts, got %d", len(top))
	}
	if top[0].ruleID != "zeta" || top[0].count != 2 {
		t.Errorf("Top rule should be zeta(2), got %+v", top[0])
	}
	if top[1].ruleID != "alpha" || top[2].ruleID != "beta" {
		t.Errorf("Ties must break by rule id: %+v", top[1:])
	}
}
