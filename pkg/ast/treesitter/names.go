package treesitter

import (
	"strings"
)

// scope resolves class names written in a file to fully qualified names,
// following the namespace and the use imports in effect.
type scope struct {
	namespace string
	uses      map[string]string // lower-cased alias -> fully qualified name
}

func newScope(namespace string) *scope {
	return &scope{
		namespace: strings.Trim(namespace, `\`),
		uses:      make(map[string]string),
	}
}

// addUse records an import. Without an alias the last segment is the alias.
func (s *scope) addUse(name, alias string) {
	name = strings.Trim(name, `\`)
	if name == "" {
		return
	}
	if alias == "" {
		alias = lastSegment(name)
	}
	s.uses[strings.ToLower(alias)] = name
}

// qualify prefixes a declared name with the current namespace.
func (s *scope) qualify(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + `\` + name
}

// resolve returns the fully qualified form of a class name as written.
func (s *scope) resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, `\`) {
		return name[1:]
	}
	if rest, ok := cutPrefixFold(name, `namespace\`); ok {
		return s.qualify(rest)
	}
	first, rest, qualified := strings.Cut(name, `\`)
	if full, ok := s.uses[strings.ToLower(first)]; ok {
		if qualified {
			return full + `\` + rest
		}
		return full
	}
	return s.qualify(name)
}

// parseUse records the imports of a use statement from its source text:
// "use A\B, C as D;" and the grouped "use A\{B, C as D};". Function and
// constant imports do not name classes and are skipped.
func (s *scope) parseUse(text string) {
	body, ok := cutPrefixFold(strings.TrimSpace(text), "use")
	if !ok {
		return
	}
	body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), ";"))
	if isFunctionOrConst(body) {
		return
	}

	if open := strings.Index(body, "{"); open >= 0 {
		prefix := strings.Trim(strings.TrimSpace(body[:open]), `\`)
		inner := body[open+1:]
		if end := strings.LastIndex(inner, "}"); end >= 0 {
			inner = inner[:end]
		}
		for _, clause := range strings.Split(inner, ",") {
			if isFunctionOrConst(strings.TrimSpace(clause)) {
				continue
			}
			if name, alias := splitAlias(clause); name != "" {
				s.addUse(prefix+`\`+name, alias)
			}
		}
		return
	}

	for _, clause := range strings.Split(body, ",") {
		if name, alias := splitAlias(clause); name != "" {
			s.addUse(name, alias)
		}
	}
}

func splitAlias(clause string) (name, alias string) {
	fields := strings.Fields(clause)
	switch {
	case len(fields) == 0:
		return "", ""
	case len(fields) >= 3 && strings.EqualFold(fields[1], "as"):
		return fields[0], fields[2]
	default:
		return fields[0], ""
	}
}

func isFunctionOrConst(s string) bool {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return false
	}
	kw := strings.ToLower(fields[0])
	return kw == "function" || kw == "const"
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, `\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// scalarTypes are the built-in type names a hint can carry. They never name a
// class of the analyzed code.
var scalarTypes = map[string]bool{
	"array": true, "bool": true, "boolean": true, "callable": true,
	"false": true, "float": true, "double": true, "int": true,
	"integer": true, "iterable": true, "mixed": true, "never": true,
	"null": true, "object": true, "resource": true, "string": true,
	"true": true, "void": true,
}
