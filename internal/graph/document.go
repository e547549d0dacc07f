package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"symguard/internal/errors"
	"symguard/internal/logging"
	"symguard/internal/output"
)

// Metadata describes provenance of a persisted graph document.
type Metadata struct {
	AnalyzedProjectPath string `json:"analyzedProjectPath"`
	AnalyzedAtTimestamp string `json:"analyzedAtTimestamp"`
}

// Document is the persisted graph format other tools may consume.
type Document struct {
	Metadata Metadata  `json:"metadata"`
	Symbols  []*Symbol `json:"symbols"`
	Edges    []Edge    `json:"edges"`
}

// Document snapshots the store into the on-disk format. Symbols keep
// insertion order so repeated runs produce identical files.
func (s *Store) Document(projectPath string, analyzedAt time.Time) *Document {
	return &Document{
		Metadata: Metadata{
			AnalyzedProjectPath: projectPath,
			AnalyzedAtTimestamp: analyzedAt.UTC().Format(time.RFC3339),
		},
		Symbols: s.Symbols(),
		Edges:   s.Edges(),
	}
}

// Save writes the document as deterministic JSON. A path ending in .zst is
// compressed with zstd.
func (d *Document) Save(path string) error {
	data, err := output.EncodeIndented(d)
	if err != nil {
		return errors.New(errors.InternalError, "failed to encode graph document", err).WithPath(path)
	}

	if strings.HasSuffix(path, ".zst") {
		f, err := os.Create(path)
		if err != nil {
			return errors.New(errors.ReportWriteFailed, "failed to create graph document", err).WithPath(path)
		}
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return errors.New(errors.InternalError, "failed to create zstd writer", err).WithPath(path)
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			f.Close()
			return errors.New(errors.ReportWriteFailed, "failed to write graph document", err).WithPath(path)
		}
		if err := enc.Close(); err != nil {
			f.Close()
			return errors.New(errors.ReportWriteFailed, "failed to flush graph document", err).WithPath(path)
		}
		if err := f.Close(); err != nil {
			return errors.New(errors.ReportWriteFailed, "failed to close graph document", err).WithPath(path)
		}
		return nil
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.New(errors.ReportWriteFailed, "failed to write graph document", err).WithPath(path)
	}
	return nil
}

// LoadDocument reads and validates a persisted graph document.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.GraphMissing, "symbol graph document not found", err).WithPath(path)
		}
		return nil, errors.New(errors.GraphMalformed, "failed to open symbol graph document", err).WithPath(path)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.New(errors.GraphMalformed, "failed to open zstd stream", err).WithPath(path)
		}
		defer dec.Close()
		reader = dec
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.New(errors.GraphMalformed, "failed to read symbol graph document", err).WithPath(path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.GraphMalformed, "symbol graph document is not valid JSON", err).WithPath(path)
	}
	if err := doc.validate(); err != nil {
		return nil, errors.New(errors.GraphMalformed, err.Error(), nil).WithPath(path)
	}
	return &doc, nil
}

func (d *Document) validate() error {
	ids := make(map[string]bool, len(d.Symbols))
	for i, sym := range d.Symbols {
		if sym == nil || sym.ID == "" {
			return fmt.Errorf("symbol at index %d has no id", i)
		}
		if ids[sym.ID] {
			return fmt.Errorf("duplicate symbol id %q", sym.ID)
		}
		if !IsValidKind(string(sym.Kind)) {
			return fmt.Errorf("symbol %q has unknown kind %q", sym.ID, sym.Kind)
		}
		ids[sym.ID] = true
	}
	for i, e := range d.Edges {
		if !IsValidEdgeType(string(e.Type)) {
			return fmt.Errorf("edge at index %d has unknown type %q", i, e.Type)
		}
		if !ids[e.From] || !ids[e.To] {
			return fmt.Errorf("edge at index %d references missing symbol (%s -> %s)", i, e.From, e.To)
		}
	}
	return nil
}

// Store rebuilds a resolved store from a persisted document. Edges are
// trusted as already resolved; the forest invariant is still enforced.
func (d *Document) Store(logger *logging.Logger) (*Store, error) {
	s := NewStore(logger)
	for _, sym := range d.Symbols {
		if err := s.AddSymbol(sym); err != nil {
			return nil, errors.New(errors.GraphMalformed, err.Error(), nil)
		}
	}
	s.mu.Lock()
	for _, e := range d.Edges {
		s.addEdge(e)
	}
	s.mu.Unlock()
	return s, nil
}
