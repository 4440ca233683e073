package digraph

import (
	"fmt"
	"strings"
)

// Kind is the closed set of entity kinds a vertex can represent.
type Kind uint8

const (
	KindClass Kind = iota
	KindInterface
	KindTrait
	KindMethod
	KindImpl
	KindParam
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{KindClass, KindInterface, KindTrait, KindMethod, KindImpl, KindParam}

var kindNames = [...]string{
	KindClass:     "Class",
	KindInterface: "Interface",
	KindTrait:     "Trait",
	KindMethod:    "Method",
	KindImpl:      "Impl",
	KindParam:     "Param",
}

// String returns the short kind name (Class, Interface, Trait, Method, Impl, Param).
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind converts a short kind name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// IsType reports whether k is a type-level kind (class, interface or trait).
func (k Kind) IsType() bool {
	return k == KindClass || k == KindInterface || k == KindTrait
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown vertex kind %q", string(b))
	}
	*k = parsed
	return nil
}

// Vertex is a code entity. Two vertices are the same entity when both kind
// and name are equal.
type Vertex struct {
	Kind Kind   `json:"kind" toon:"kind"`
	Name string `json:"name" toon:"name"`
}

// String renders the vertex as Kind(name).
func (v Vertex) String() string {
	return v.Kind.String() + "(" + v.Name + ")"
}

// Class returns the vertex of a class.
func Class(fqcn string) Vertex { return Vertex{Kind: KindClass, Name: fqcn} }

// Interface returns the vertex of an interface.
func Interface(fqcn string) Vertex { return Vertex{Kind: KindInterface, Name: fqcn} }

// Trait returns the vertex of a trait.
func Trait(fqcn string) Vertex { return Vertex{Kind: KindTrait, Name: fqcn} }

// Method returns the signature vertex of method on its first declaring type.
func Method(fqcn, method string) Vertex {
	return Vertex{Kind: KindMethod, Name: MemberName(fqcn, method)}
}

// Impl returns the vertex of the body of method provided by fqcn.
func Impl(fqcn, method string) Vertex {
	return Vertex{Kind: KindImpl, Name: MemberName(fqcn, method)}
}

// Param returns the vertex of the parameter at position order of the
// signature or body named scope.
func Param(scope string, order int) Vertex {
	return Vertex{Kind: KindParam, Name: fmt.Sprintf("%s/%d", scope, order)}
}

// Owner returns the type a Method or Impl vertex belongs to, empty for
// other kinds.
func (v Vertex) Owner() string {
	if v.Kind != KindMethod && v.Kind != KindImpl {
		return ""
	}
	if i := strings.LastIndex(v.Name, "::"); i >= 0 {
		return v.Name[:i]
	}
	return ""
}

// MemberName joins a type and a member name as "Type::member".
func MemberName(fqcn, member string) string {
	return fqcn + "::" + member
}
