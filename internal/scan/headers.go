package scan

import (
	"regexp"
	"strings"
)

// Public ObjC header surface. Everything a header declares is callable by
// name from outside the module, so every identifier found here lands in
// the external-reference set.
var (
	reInterface   = regexp.MustCompile(`@interface\s+(\w+)\s*[:(]`)
	reCategory    = regexp.MustCompile(`@interface\s+\w+\s*\((\w+)\)`)
	reProtocol    = regexp.MustCompile(`@protocol\s+(\w+)\b`)
	reStructTyped = regexp.MustCompile(`(?s)typedef\s+struct\s+\w*\s*\{[^}]*\}\s*(\w+)\s*;`)
	reStructPlain = regexp.MustCompile(`struct\s+(\w+)\s*\{`)
	reEnumNS      = regexp.MustCompile(`(?:NS_ENUM|NS_OPTIONS|NS_CLOSED_ENUM|NS_ERROR_ENUM)\s*\(\s*\w+\s*,\s*(\w+)\s*\)`)
	reEnumTypedef = regexp.MustCompile(`(?s)typedef\s+enum\s+\w*\s*(?::\s*\w+)?\s*\{[^}]*\}\s*(\w+)\s*;`)
	reEnumForward = regexp.MustCompile(`enum\s+(\w+)\s*:\s*\w+\s*;`)
	reSwiftEnum   = regexp.MustCompile(`typedef\s+SWIFT_ENUM\s*\([^,]+,\s*(\w+)\s*,`)
	reTypedefFn   = regexp.MustCompile(`typedef\s+.+\(\s*\*\s*(\w+)\s*\)\s*\(.*\)\s*;`)
	reTypedefBlk  = regexp.MustCompile(`typedef\s+.+\(\s*\^\s*(\w+)\s*\)\s*\(.*\)\s*;`)
	reTypedef     = regexp.MustCompile(`(?ms)^\s*typedef\s+([^;{}]+?)\s+(\w+)\s*;`)
	reFunction    = regexp.MustCompile(`(?m)^(?:extern\s+)?(?:static\s+)?(?:inline\s+)?[A-Z]\w*\s+\*?\s*(\w+)\s*\(`)
	reExportFn    = regexp.MustCompile(`(?m)^(?:FOUNDATION_EXPORT|NS_SWIFT_NAME|UIKIT_EXTERN|extern)\s+.*?\*?\s*([a-zA-Z_]\w+)\s*\(`)
	reExternConst = regexp.MustCompile(`(?:FOUNDATION_EXPORT|UIKIT_EXTERN|extern)\s+(?:const\s+)?[\w\s*]+?(?:const\s+)?(\w+)\s*;`)
	reExternArray = regexp.MustCompile(`(?:FOUNDATION_EXPORT|UIKIT_EXTERN|extern)\s+(?:const\s+)?[\w\s*]+\s+(\w+)\s*\[\s*\]`)
	reKConstant   = regexp.MustCompile(`\b(k[A-Z]\w+)\b`)
	reMacroDef    = regexp.MustCompile(`^#(?:ifndef|define)\s+([A-Za-z_]\w*)`)

	reInterfaceBlock = regexp.MustCompile(`(?s)@(?:interface|protocol).*?@end`)
	reMethodDecl     = regexp.MustCompile(`(?m)^\s*[-+]\s*\(.+?\)(.*?);`)
	reMethodAttr     = regexp.MustCompile(`\s+(?:__attribute__\s*\(.*?\)|SWIFT_\w+(?:\([^)]*\))?|NS_\w+(?:\([^)]*\))?)`)
	reSelectorLabel  = regexp.MustCompile(`(\w+)\s*:`)
	rePlainSelector  = regexp.MustCompile(`^[a-zA-Z_]\w*$`)

	reProperty      = regexp.MustCompile(`(?s)@property\s*\(([^)]*)\)\s*[^;]+?\b(\w+)\s*;`)
	reSwiftClsProp  = regexp.MustCompile(`(?s)SWIFT_CLASS_PROPERTY\s*\(\s*@property\s*\(([^)]*)\)\s*[^;]+?\b(\w+)\s*;\s*\)`)
	rePropGetter    = regexp.MustCompile(`getter\s*=\s*(\w+)`)
	rePropSetter    = regexp.MustCompile(`setter\s*=\s*(\w+:)`)
	reEnumNSBlock   = regexp.MustCompile(`(?s)(?:NS_ENUM|NS_OPTIONS|NS_CLOSED_ENUM|NS_ERROR_ENUM)\s*\([^)]+\)\s*\{([^}]+)\}`)
	reEnumTypBlock  = regexp.MustCompile(`(?s)typedef\s+enum[^{]*\{([^}]+)\}`)
	reEnumSwfBlock  = regexp.MustCompile(`(?s)typedef\s+SWIFT_ENUM\s*\([^)]+\)\s*\{([^}]+)\}`)
	reEnumCaseIdent = regexp.MustCompile(`^\s*([A-Za-z_]\w*)`)
)

// systemTypes never go into the exclusion set: renaming tools leave SDK
// names alone already, and matching them would flood the report.
var systemTypes = map[string]bool{
	"NSInteger": true, "NSUInteger": true, "CGFloat": true, "BOOL": true,
	"id": true, "void": true, "int": true, "float": true, "double": true,
	"char": true, "unsigned": true, "signed": true, "long": true, "short": true,
	"NSSecureCoding": true, "NSCopying": true, "NSCoding": true,
	"CFTimeInterval": true, "NSTimeInterval": true, "CGRect": true,
	"CGPoint": true, "CGSize": true, "NSRange": true,
	"char16_t": true, "char32_t": true, "uint_least16_t": true, "uint_least32_t": true,
}

var excludeIdentifier = []*regexp.Regexp{
	regexp.MustCompile(`^API_DEPRECATED`),
	regexp.MustCompile(`^API_AVAILABLE`),
	regexp.MustCompile(`^NS_SWIFT_UI_ACTOR$`),
	regexp.MustCompile(`^NS_AVAILABLE`),
	regexp.MustCompile(`^NS_DEPRECATED`),
	regexp.MustCompile(`^NS_(?:ENUM|OPTIONS|ERROR_ENUM|CLOSED_ENUM)$`),
	regexp.MustCompile(`^NS_DESIGNATED_INITIALIZER$`),
	regexp.MustCompile(`^UI_APPEARANCE_SELECTOR$`),
	regexp.MustCompile(`^OBJC_DESIGNATED_INITIALIZER$`),
	regexp.MustCompile(`^IB_DESIGNABLE$`),
	regexp.MustCompile(`^IBSegueAction$`),
	regexp.MustCompile(`^SWIFT_(?:CLASS|PROTOCOL|ENUM|CLASS_PROPERTY|RESILIENT_CLASS)$`),
	regexp.MustCompile(`^__\w+__$`),
	regexp.MustCompile(`^_Nonnull$`),
	regexp.MustCompile(`^_Nullable$`),
	regexp.MustCompile(`^_Null_unspecified$`),
}

func (s *Scanner) scanHeader(path string, result *Result) {
	raw, ok := s.readFile(path)
	if !ok {
		return
	}
	clean := stripComments(raw)

	found := make(map[string]map[string]struct{})
	collect := func(category string, re *regexp.Regexp, content string) {
		set, ok := found[category]
		if !ok {
			set = make(map[string]struct{})
			found[category] = set
		}
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			set[m[len(m)-1]] = struct{}{}
		}
	}

	collect(CategoryClasses, reInterface, clean)
	collect(CategoryProtocols, reProtocol, clean)
	collect(CategoryStructs, reStructTyped, clean)
	collect(CategoryStructs, reStructPlain, clean)
	collect(CategoryEnums, reEnumNS, clean)
	collect(CategoryEnums, reEnumTypedef, clean)
	collect(CategoryEnums, reEnumForward, clean)
	collect(CategoryEnums, reSwiftEnum, clean)
	collect(CategoryTypedefs, reTypedefFn, clean)
	collect(CategoryTypedefs, reTypedefBlk, clean)
	collect(CategoryFunctions, reFunction, clean)
	collect(CategoryFunctions, reExportFn, clean)
	collect(CategoryConstants, reExternConst, clean)
	collect(CategoryConstants, reExternArray, clean)
	collect(CategoryConstants, reKConstant, clean)

	mergeSet(found, CategoryTypedefs, plainTypedefs(clean))
	mergeSet(found, CategoryMacros, macroNames(raw))
	mergeSet(found, CategoryEnumCases, enumCases(clean))
	mergeSet(found, CategoryMethods, methodSelectors(clean))
	mergeSet(found, CategoryProperties, propertyAccessors(clean))

	// Category names on @interface Foo (Bar) extend an existing class;
	// the category name itself never appears in the binary.
	categories := make(map[string]struct{})
	for _, m := range reCategory.FindAllStringSubmatch(clean, -1) {
		categories[m[1]] = struct{}{}
	}

	for category, set := range found {
		for name := range set {
			if _, isCat := categories[name]; isCat {
				continue
			}
			if keepIdentifier(name) {
				result.add(category, name)
			}
		}
	}
}

func mergeSet(found map[string]map[string]struct{}, category string, names map[string]struct{}) {
	set, ok := found[category]
	if !ok {
		found[category] = names
		return
	}
	for n := range names {
		set[n] = struct{}{}
	}
}

// plainTypedefs matches simple typedefs. The regexp cannot exclude
// enum/struct/union forms itself, so those are filtered here; function
// pointer and block typedefs are handled by their own patterns.
func plainTypedefs(content string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, m := range reTypedef.FindAllStringSubmatch(content, -1) {
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "enum") || strings.HasPrefix(body, "struct") || strings.HasPrefix(body, "union") {
			continue
		}
		if strings.Contains(body, "(") {
			continue
		}
		names[m[2]] = struct{}{}
	}
	return names
}

// macroNames reads #ifndef/#define lines from the raw (uncommented)
// content since the comment stripper leaves preprocessor lines intact.
func macroNames(raw string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") {
			continue
		}
		if m := reMacroDef.FindStringSubmatch(line); m != nil && len(m[1]) > 1 {
			names[m[1]] = struct{}{}
		}
	}
	return names
}

func enumCases(content string) map[string]struct{} {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "#define") {
			lines = append(lines, line)
		}
	}
	clean := strings.Join(lines, "\n")

	cases := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{reEnumNSBlock, reEnumTypBlock, reEnumSwfBlock} {
		for _, m := range re.FindAllStringSubmatch(clean, -1) {
			for _, entry := range strings.Split(m[1], ",") {
				entry = strings.TrimSpace(entry)
				if entry == "" {
					continue
				}
				if c := reEnumCaseIdent.FindStringSubmatch(entry); c != nil {
					cases[c[1]] = struct{}{}
				}
			}
		}
	}
	return cases
}

// methodSelectors walks @interface/@protocol blocks and rebuilds each
// declared method's selector (label:label: for parameterized methods).
func methodSelectors(content string) map[string]struct{} {
	selectors := make(map[string]struct{})
	for _, block := range reInterfaceBlock.FindAllString(content, -1) {
		for _, m := range reMethodDecl.FindAllStringSubmatch(block, -1) {
			sig := reMethodAttr.ReplaceAllString(strings.TrimSpace(m[1]), "")
			if !strings.Contains(sig, ":") {
				sel := strings.TrimSpace(sig)
				if rePlainSelector.MatchString(sel) {
					selectors[sel] = struct{}{}
				}
				continue
			}
			var labels []string
			for _, lm := range reSelectorLabel.FindAllStringSubmatch(sig, -1) {
				labels = append(labels, lm[1])
			}
			if len(labels) > 0 {
				selectors[strings.Join(labels, ":")+":"] = struct{}{}
			}
		}
	}
	return selectors
}

// propertyAccessors derives the runtime-visible getter and setter names
// of every @property, honoring explicit getter=/setter= attributes.
func propertyAccessors(content string) map[string]struct{} {
	names := make(map[string]struct{})

	addProperty := func(attributes, propName string, readOnly bool) {
		if len(propName) <= 1 {
			return
		}
		if g := rePropGetter.FindStringSubmatch(attributes); g != nil {
			names[g[1]] = struct{}{}
		} else {
			names[propName] = struct{}{}
		}
		if readOnly {
			return
		}
		lower := strings.ToLower(propName)
		if strings.Contains(lower, "delegate") || strings.Contains(lower, "datasource") {
			return
		}
		if st := rePropSetter.FindStringSubmatch(attributes); st != nil {
			names[st[1]] = struct{}{}
		} else {
			names["set"+strings.ToUpper(propName[:1])+propName[1:]+":"] = struct{}{}
		}
	}

	for _, m := range reProperty.FindAllStringSubmatch(content, -1) {
		attrs := m[1]
		readOnly := strings.Contains(attrs, "readonly") || strings.Contains(attrs, "class")
		addProperty(attrs, m[2], readOnly)
	}
	for _, m := range reSwiftClsProp.FindAllStringSubmatch(content, -1) {
		addProperty(m[1], m[2], true)
	}
	return names
}

func keepIdentifier(name string) bool {
	if len(name) <= 1 {
		return false
	}
	first := name[0]
	if !(first == '_' || (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return false
	}
	if systemTypes[name] {
		return false
	}
	for _, re := range excludeIdentifier {
		if re.MatchString(name) {
			return false
		}
	}
	// Lowercase names starting with a single underscore are almost always
	// macro parameters or reserved spellings, except mangled _Tt names.
	if strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "_Tt") {
		if rest := name[1:]; rest == strings.ToLower(rest) {
			return false
		}
	}
	return true
}

type stripState int

const (
	stateNormal stripState = iota
	stateLineComment
	stateBlockComment
	stateString
	stateStringEscape
	statePreprocessor
)

// stripComments removes // and /* */ comments while preserving string
// literals and preprocessor lines (including continuation backslashes).
func stripComments(source string) string {
	var b strings.Builder
	b.Grow(len(source))
	state := stateNormal

	for i := 0; i < len(source); i++ {
		ch := source[i]
		switch state {
		case stateNormal:
			switch {
			case ch == '/' && i+1 < len(source) && source[i+1] == '/':
				state = stateLineComment
				i++
			case ch == '/' && i+1 < len(source) && source[i+1] == '*':
				state = stateBlockComment
				i++
			case ch == '"':
				b.WriteByte(ch)
				state = stateString
			case ch == '@' && i+1 < len(source) && source[i+1] == '"':
				b.WriteString(`@"`)
				i++
				state = stateString
			case ch == '#' && (i == 0 || source[i-1] == '\n'):
				b.WriteByte(ch)
				state = statePreprocessor
			default:
				b.WriteByte(ch)
			}
		case stateString:
			b.WriteByte(ch)
			if ch == '\\' {
				state = stateStringEscape
			} else if ch == '"' {
				state = stateNormal
			}
		case stateStringEscape:
			b.WriteByte(ch)
			state = stateString
		case stateLineComment:
			if ch == '\n' {
				b.WriteByte(ch)
				state = stateNormal
			}
		case stateBlockComment:
			if ch == '*' && i+1 < len(source) && source[i+1] == '/' {
				i++
				state = stateNormal
			}
		case statePreprocessor:
			b.WriteByte(ch)
			if ch == '\n' && (i == 0 || source[i-1] != '\\') {
				state = stateNormal
			}
		}
	}
	return b.String()
}
