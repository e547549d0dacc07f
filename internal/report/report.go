// Package report assembles match records into the two output artifacts:
// a detailed JSON report grouping every matched symbol with the ordered
// list of rules that matched it, and a flat deduplicated name list for
// feeding obfuscator exclusion files directly.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"symguard/internal/errors"
	"symguard/internal/graph"
	"symguard/internal/match"
	"symguard/internal/output"
)

// Reason is one rule's contribution to a symbol's exclusion.
type Reason struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
}

// Entry is one excluded symbol with every reason it matched, in rule order.
type Entry struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind"`
	Location *graph.Location `json:"location,omitempty"`
	Reasons  []Reason        `json:"reasons"`
}

// Report is the assembled analysis result.
type Report struct {
	Entries []Entry

	// TotalSymbols counts every symbol in the graph, placeholders included,
	// so the exclusion rate reflects the whole namespace the rules saw.
	TotalSymbols int
}

// Build groups match records per symbol. Records arrive sorted by symbol
// insertion order then rule order, so entries and their reasons keep the
// deterministic order the engine produced.
func Build(store *graph.Store, records []match.Record) *Report {
	r := &Report{TotalSymbols: store.Len()}

	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.SymbolID]
		if !ok {
			sym := store.Symbol(rec.SymbolID)
			if sym == nil {
				continue
			}
			i = len(r.Entries)
			index[rec.SymbolID] = i
			r.Entries = append(r.Entries, Entry{
				Name:     sym.Name,
				Kind:     string(sym.Kind),
				Location: sym.Location,
			})
		}
		r.Entries[i].Reasons = append(r.Entries[i].Reasons, Reason{
			RuleID:      rec.RuleID,
			Description: rec.Description,
			Reason:      rec.Reason,
		})
	}
	return r
}

// Names returns the sorted, deduplicated names of every excluded symbol.
func (r *Report) Names() []string {
	seen := make(map[string]bool, len(r.Entries))
	var names []string
	for _, e := range r.Entries {
		if !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names
}

// WriteDetailed writes the entries as indented deterministic JSON.
func (r *Report) WriteDetailed(w io.Writer) error {
	entries := r.Entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := output.EncodeIndented(entries)
	if err != nil {
		return errors.New(errors.ReportWriteFailed, "failed to encode report", err)
	}
	_, err = w.Write(append(data, '\n'))
	if err != nil {
		return errors.New(errors.ReportWriteFailed, "failed to write report", err)
	}
	return nil
}

// WriteFlatList writes the sorted deduplicated name list, one name per line.
func (r *Report) WriteFlatList(w io.Writer) error {
	for _, name := range r.Names() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return errors.New(errors.ReportWriteFailed, "failed to write name list", err)
		}
	}
	return nil
}

// SaveDetailed writes the detailed report to a file.
func (r *Report) SaveDetailed(path string) error {
	return r.saveTo(path, r.WriteDetailed)
}

// SaveFlatList writes the flat name list to a file.
func (r *Report) SaveFlatList(path string) error {
	return r.saveTo(path, r.WriteFlatList)
}

func (r *Report) saveTo(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(errors.ReportWriteFailed, "failed to create report file", err).WithPath(path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.New(errors.ReportWriteFailed, "failed to close report file", err).WithPath(path)
	}
	return nil
}
