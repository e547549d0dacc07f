package scan

import (
	"encoding/xml"
	"regexp"
	"strings"
)

// Resource-only categories.
const (
	CategoryModules        = "modules"
	CategoryOutlets        = "outlets"
	CategoryActions        = "actions"
	CategorySegues         = "segue_identifiers"
	CategoryReuseIDs       = "reuse_identifiers"
	CategoryStoryboardIDs  = "storyboard_identifiers"
	CategoryRestorationIDs = "restoration_identifiers"
	CategoryRuntimeAttrs   = "runtime_attributes"
	CategoryURLSchemes     = "url_schemes"
	CategoryDocumentTypes  = "document_types"
	CategoryUTIs           = "uti_identifiers"
	CategoryUserActivities = "user_activity_types"
	CategoryAppGroups      = "app_groups"
	CategoryKeychainGroups = "keychain_groups"
	CategoryEntities       = "entities"
	CategoryCDAttributes   = "coredata_attributes"
	CategoryRelationships  = "relationships"
	CategoryFetchRequests  = "fetch_requests"
	CategoryStringsKeys    = "strings_keys"
)

// systemClasses are SDK classes that storyboards reference constantly;
// they carry no renaming risk and would bury real custom classes.
var systemClasses = map[string]bool{
	"UIResponder": true, "UIViewController": true, "UIView": true,
	"UITableView": true, "UICollectionView": true, "UIButton": true,
	"UILabel": true, "UIImageView": true, "UITableViewCell": true,
	"UICollectionViewCell": true, "UIScrollView": true, "UIStackView": true,
	"UINavigationController": true, "UITabBarController": true,
	"NSObject": true, "NSManagedObject": true,
}

var reIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validClassName(name string) bool {
	return len(name) > 1 && !systemClasses[name] && reIdentifier.MatchString(name)
}

// xmlNode is a generic DOM good enough for storyboards, plists, and Core
// Data model contents. Apple's formats are small trees of attributes.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (s *Scanner) parseXML(path string) (*xmlNode, bool) {
	data, ok := s.readFile(path)
	if !ok {
		return nil, false
	}
	var root xmlNode
	if err := xml.Unmarshal([]byte(data), &root); err != nil {
		s.logger.Warn("failed to parse XML resource", map[string]interface{}{"path": path, "error": err.Error()})
		return nil, false
	}
	return &root, true
}

// scanInterfaceFile pulls every runtime-looked-up name from a storyboard
// or xib: custom classes, outlet/action connections, and the various
// identifier attributes instantiated by string at runtime.
func (s *Scanner) scanInterfaceFile(path string, result *Result) {
	root, ok := s.parseXML(path)
	if !ok {
		return
	}

	var walk func(n *xmlNode)
	walk = func(n *xmlNode) {
		if v := n.attr("customClass"); validClassName(v) {
			result.add(CategoryClasses, v)
		}
		if v := n.attr("customModule"); validClassName(v) {
			result.add(CategoryModules, v)
		}
		if v := n.attr("reuseIdentifier"); v != "" {
			result.add(CategoryReuseIDs, v)
		}
		if v := n.attr("storyboardIdentifier"); v != "" {
			result.add(CategoryStoryboardIDs, v)
		}
		if v := n.attr("restorationIdentifier"); v != "" {
			result.add(CategoryRestorationIDs, v)
		}

		switch n.XMLName.Local {
		case "connection":
			switch n.attr("kind") {
			case "outlet":
				if v := n.attr("property"); v != "" {
					result.add(CategoryOutlets, v)
				}
			case "action":
				if v := n.attr("selector"); v != "" {
					result.add(CategoryActions, v)
				}
			}
		case "segue":
			if v := n.attr("identifier"); v != "" {
				result.add(CategorySegues, v)
			}
		case "userDefinedRuntimeAttribute":
			for _, part := range strings.Split(n.attr("keyPath"), ".") {
				if len(part) > 1 && reIdentifier.MatchString(part) {
					result.add(CategoryRuntimeAttrs, part)
				}
			}
		}

		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	walk(root)
}

// plistCollectors maps the plist keys whose values name symbols or
// runtime-registered identifiers to their result category.
var plistStringKeys = map[string]string{
	"CFBundleTypeName":          CategoryDocumentTypes,
	"UTTypeIdentifier":          CategoryUTIs,
	"NSPrincipalClass":          CategoryClasses,
	"NSExtensionPrincipalClass": CategoryClasses,
}

var plistArrayKeys = map[string]string{
	"CFBundleURLSchemes":                    CategoryURLSchemes,
	"NSUserActivityTypes":                   CategoryUserActivities,
	"com.apple.security.application-groups": CategoryAppGroups,
	"keychain-access-groups":                CategoryKeychainGroups,
}

// scanPlist handles Info.plist and .entitlements files. Both are the same
// key/value XML shape, only the interesting keys differ.
func (s *Scanner) scanPlist(path string, result *Result) {
	root, ok := s.parseXML(path)
	if !ok {
		return
	}
	for i := range root.Children {
		if root.Children[i].XMLName.Local == "dict" {
			s.walkPlistDict(&root.Children[i], result)
		}
	}
}

func (s *Scanner) walkPlistDict(dict *xmlNode, result *Result) {
	children := dict.Children
	for i := 0; i < len(children)-1; i++ {
		if children[i].XMLName.Local != "key" {
			continue
		}
		key := strings.TrimSpace(children[i].Text)
		value := &children[i+1]

		if category, ok := plistStringKeys[key]; ok && value.XMLName.Local == "string" {
			if text := strings.TrimSpace(value.Text); text != "" {
				result.add(category, text)
			}
			continue
		}
		if category, ok := plistArrayKeys[key]; ok && value.XMLName.Local == "array" {
			for j := range value.Children {
				if value.Children[j].XMLName.Local == "string" {
					if text := strings.TrimSpace(value.Children[j].Text); text != "" {
						result.add(category, text)
					}
				}
			}
			continue
		}

		switch value.XMLName.Local {
		case "dict":
			s.walkPlistDict(value, result)
		case "array":
			for j := range value.Children {
				if value.Children[j].XMLName.Local == "dict" {
					s.walkPlistDict(&value.Children[j], result)
				}
			}
		}
	}
}

var reStringsEntry = regexp.MustCompile(`(?m)^"([^"]+)"\s*=\s*"[^"]*"\s*;`)

// scanStringsFile extracts localization keys. Keys reach the binary via
// NSLocalizedString lookups so renaming code that builds them is unsafe.
func (s *Scanner) scanStringsFile(path string, result *Result) {
	content, ok := s.readFile(path)
	if !ok {
		return
	}
	for _, m := range reStringsEntry.FindAllStringSubmatch(content, -1) {
		key := m[1]
		if len(key) <= 1 {
			continue
		}
		if !strings.ContainsFunc(key, func(r rune) bool {
			return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		}) {
			continue
		}
		result.add(CategoryStringsKeys, key)
	}
}
