package graph

// Fact ingestion input. The source parser (tree-sitter or SCIP) emits, per
// file, symbol drafts plus relationship intents whose targets may be plain
// names. Targets are a tagged union so resolution can happen in one explicit
// pass after every declaration is known, instead of incrementally-updated
// lookup tables that would make results depend on file order.

// TargetKind tags how an intent identifies the edge target.
type TargetKind string

const (
	// TargetConcreteID means the target is an already-known symbol id.
	TargetConcreteID TargetKind = "concrete-id"
	// TargetTypeName means "a type named X", resolved against declared types.
	TargetTypeName TargetKind = "type-name"
	// TargetOverrideName means "the member named Y in the ancestor chain of
	// the intent origin's containing type".
	TargetOverrideName TargetKind = "override-name"
)

// Intent is one unresolved relationship.
type Intent struct {
	FromID     string     `json:"fromId"`
	TargetKind TargetKind `json:"targetKind"`
	// TargetID is set for concrete-id intents.
	TargetID string `json:"targetId,omitempty"`
	// TargetName is set for type-name and override-name intents.
	TargetName string   `json:"targetName,omitempty"`
	EdgeType   EdgeType `json:"edgeType"`
}

// ConcreteIntent builds an intent whose target id is already known.
func ConcreteIntent(fromID, toID string, edgeType EdgeType) Intent {
	return Intent{FromID: fromID, TargetKind: TargetConcreteID, TargetID: toID, EdgeType: edgeType}
}

// TypeNameIntent builds an intent targeting "a type named X".
func TypeNameIntent(fromID, typeName string, edgeType EdgeType) Intent {
	return Intent{FromID: fromID, TargetKind: TargetTypeName, TargetName: typeName, EdgeType: edgeType}
}

// OverrideIntent builds an intent targeting the overridden member named Y.
func OverrideIntent(fromID, memberName string) Intent {
	return Intent{FromID: fromID, TargetKind: TargetOverrideName, TargetName: memberName, EdgeType: EdgeOverrides}
}

// FileFacts is everything the parser learned from one source file.
type FileFacts struct {
	Path    string    `json:"path"`
	Symbols []*Symbol `json:"symbols"`
	Intents []Intent  `json:"intents"`
}
