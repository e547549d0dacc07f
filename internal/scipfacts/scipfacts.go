// Package scipfacts converts a SCIP index into the same per-file fact
// stream the tree-sitter extractor produces. Projects that already run a
// SCIP indexer skip source parsing entirely.
package scipfacts

import (
	"os"
	"sort"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"symguard/internal/errors"
	"symguard/internal/graph"
	"symguard/internal/logging"
)

// Load reads and parses a SCIP index file.
func Load(path string) (*scippb.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ExtractFailed, "failed to read SCIP index", err).WithPath(path)
	}
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.New(errors.ExtractFailed, "failed to parse SCIP index", err).WithPath(path)
	}
	return &index, nil
}

// Convert turns an index into per-file facts. Documents convert in
// relative-path order so ingestion is deterministic regardless of how the
// indexer emitted them.
func Convert(index *scippb.Index, logger *logging.Logger) []graph.FileFacts {
	if logger == nil {
		logger = logging.Nop()
	}

	docs := make([]*scippb.Document, len(index.Documents))
	copy(docs, index.Documents)
	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })

	// Definitions across the whole index, so relationships between two
	// indexed symbols become concrete intents instead of name lookups.
	defined := make(map[string]*scippb.SymbolInformation)
	for _, doc := range docs {
		for _, info := range doc.Symbols {
			defined[info.Symbol] = info
		}
	}

	var all []graph.FileFacts
	for _, doc := range docs {
		facts := convertDocument(doc, defined, logger)
		if len(facts.Symbols) > 0 || len(facts.Intents) > 0 {
			all = append(all, facts)
		}
	}
	logger.Info("SCIP conversion complete", map[string]interface{}{
		"documents": len(all),
	})
	return all
}

func convertDocument(doc *scippb.Document, defined map[string]*scippb.SymbolInformation, logger *logging.Logger) graph.FileFacts {
	facts := graph.FileFacts{Path: doc.RelativePath}

	infos := make(map[string]*scippb.SymbolInformation, len(doc.Symbols))
	for _, info := range doc.Symbols {
		infos[info.Symbol] = info
	}

	seen := make(map[string]bool)
	for _, occ := range doc.Occurrences {
		if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) == 0 {
			continue
		}
		id := occ.Symbol
		if id == "" || strings.HasPrefix(id, "local ") || seen[id] {
			continue
		}
		seen[id] = true

		info := infos[id]
		name := symbolName(id, info)
		if name == "" {
			logger.Debug("SCIP occurrence has no usable name, skipping", map[string]interface{}{
				"symbol": id,
			})
			continue
		}

		sym := &graph.Symbol{
			ID:       id,
			Name:     name,
			Kind:     symbolKind(id, info),
			Location: occurrenceLocation(doc.RelativePath, occ),
		}
		facts.Symbols = append(facts.Symbols, sym)
		facts.Intents = append(facts.Intents, symbolIntents(id, info, defined)...)
	}
	return facts
}

func occurrenceLocation(path string, occ *scippb.Occurrence) *graph.Location {
	if len(occ.Range) < 2 {
		return &graph.Location{File: path}
	}
	return &graph.Location{
		File:   path,
		Line:   int(occ.Range[0]) + 1,
		Column: int(occ.Range[1]) + 1,
	}
}

// symbolIntents derives containment and is-a intents from the symbol's
// enclosing symbol and relationships. Targets defined in the index bind
// by id; everything else goes through name resolution.
func symbolIntents(id string, info *scippb.SymbolInformation, defined map[string]*scippb.SymbolInformation) []graph.Intent {
	if info == nil {
		return nil
	}

	var intents []graph.Intent
	if enc := info.EnclosingSymbol; enc != "" {
		if _, ok := defined[enc]; ok {
			intents = append(intents, graph.ConcreteIntent(enc, id, graph.EdgeContains))
		}
	}

	for _, rel := range info.Relationships {
		if !rel.IsImplementation {
			continue
		}
		edgeType := graph.EdgeSupertypeOf
		target, targetDefined := defined[rel.Symbol]
		if targetDefined && symbolKind(rel.Symbol, target) == graph.KindProtocol {
			edgeType = graph.EdgeAdoptsInterface
		}
		if targetDefined {
			intents = append(intents, graph.ConcreteIntent(id, rel.Symbol, edgeType))
			continue
		}
		if name := symbolName(rel.Symbol, nil); name != "" {
			intents = append(intents, graph.TypeNameIntent(id, name, edgeType))
		}
	}
	return intents
}

// symbolName prefers the indexer-provided display name; otherwise the last
// descriptor of the SCIP symbol spelling is used.
func symbolName(id string, info *scippb.SymbolInformation) string {
	if info != nil && info.DisplayName != "" {
		return info.DisplayName
	}
	parsed, err := scippb.ParseSymbol(id)
	if err != nil || len(parsed.Descriptors) == 0 {
		return ""
	}
	return parsed.Descriptors[len(parsed.Descriptors)-1].Name
}

func symbolKind(id string, info *scippb.SymbolInformation) graph.SymbolKind {
	if info != nil {
		if kind, ok := kindFromInfo(info.Kind); ok {
			return kind
		}
	}
	return kindFromDescriptor(id)
}

func kindFromInfo(kind scippb.SymbolInformation_Kind) (graph.SymbolKind, bool) {
	switch kind {
	case scippb.SymbolInformation_Class, scippb.SymbolInformation_SingletonClass,
		scippb.SymbolInformation_Object:
		return graph.KindClass, true
	case scippb.SymbolInformation_Struct:
		return graph.KindStruct, true
	case scippb.SymbolInformation_Enum:
		return graph.KindEnum, true
	case scippb.SymbolInformation_Interface, scippb.SymbolInformation_Protocol,
		scippb.SymbolInformation_Trait:
		return graph.KindProtocol, true
	case scippb.SymbolInformation_Method, scippb.SymbolInformation_StaticMethod,
		scippb.SymbolInformation_AbstractMethod, scippb.SymbolInformation_SingletonMethod:
		return graph.KindMethod, true
	case scippb.SymbolInformation_Property, scippb.SymbolInformation_StaticProperty,
		scippb.SymbolInformation_Field, scippb.SymbolInformation_StaticField,
		scippb.SymbolInformation_Variable, scippb.SymbolInformation_Constant,
		scippb.SymbolInformation_EnumMember:
		return graph.KindProperty, true
	case scippb.SymbolInformation_Function:
		return graph.KindFunction, true
	case scippb.SymbolInformation_Constructor:
		return graph.KindInitializer, true
	case scippb.SymbolInformation_Subscript:
		return graph.KindSubscript, true
	case scippb.SymbolInformation_Operator:
		return graph.KindOperator, true
	default:
		return graph.KindUnknown, false
	}
}

// kindFromDescriptor falls back on the symbol spelling's final descriptor
// suffix when the indexer left Kind unspecified.
func kindFromDescriptor(id string) graph.SymbolKind {
	parsed, err := scippb.ParseSymbol(id)
	if err != nil || len(parsed.Descriptors) == 0 {
		return graph.KindUnknown
	}
	switch parsed.Descriptors[len(parsed.Descriptors)-1].Suffix {
	case scippb.Descriptor_Type:
		return graph.KindClass
	case scippb.Descriptor_Method:
		return graph.KindMethod
	case scippb.Descriptor_Term:
		return graph.KindProperty
	default:
		return graph.KindUnknown
	}
}
