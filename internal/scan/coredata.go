package scan

import (
	"os"
	"path/filepath"
	"strings"
)

// scanCoreDataModel reads every version inside a .xcdatamodeld bundle.
// Entity, attribute, and relationship names are resolved by string through
// NSManagedObject key-value coding, so all of them stay unrenamed.
func (s *Scanner) scanCoreDataModel(modelDir string, result *Result) {
	entries, err := os.ReadDir(modelDir)
	if err != nil {
		s.logger.Warn("failed to read Core Data model bundle", map[string]interface{}{
			"path": modelDir, "error": err.Error()})
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xcdatamodel") {
			continue
		}
		contents := filepath.Join(modelDir, entry.Name(), "contents")
		if _, err := os.Stat(contents); err != nil {
			continue
		}
		s.scanModelContents(contents, result)
	}
}

func (s *Scanner) scanModelContents(path string, result *Result) {
	root, ok := s.parseXML(path)
	if !ok {
		return
	}

	var walk func(n *xmlNode)
	walk = func(n *xmlNode) {
		switch n.XMLName.Local {
		case "entity":
			if v := n.attr("name"); v != "" {
				result.add(CategoryEntities, v)
			}
			for i := range n.Children {
				child := &n.Children[i]
				name := child.attr("name")
				if name == "" {
					continue
				}
				switch child.XMLName.Local {
				case "attribute":
					result.add(CategoryCDAttributes, name)
				case "relationship":
					result.add(CategoryRelationships, name)
				}
			}
		case "fetchRequest":
			if v := n.attr("name"); v != "" {
				result.add(CategoryFetchRequests, v)
			}
		}
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	walk(root)
}
