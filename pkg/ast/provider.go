package ast

import (
	"errors"
	"strings"
)

// ErrUnsupportedLanguage is returned when parsing a file with an unsupported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Position represents a location in source code.
type Position struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// TypeKind is the kind of a type declaration.
type TypeKind string

const (
	KindClass     TypeKind = "class"
	KindInterface TypeKind = "interface"
	KindTrait     TypeKind = "trait"
)

// Visibility of a method.
type Visibility string

const (
	Public    Visibility = "public"
	Protected Visibility = "protected"
	Private   Visibility = "private"
)

// File is the declaration tree of one source file.
type File struct {
	Path string
	// Namespace is the first namespace declared in the file.
	Namespace string
	Types     []*TypeDecl
	// Partial is set when the source had syntax errors and the declarations
	// were recovered around them.
	Partial bool
}

// TypeDecl is a class, interface or trait declaration.
type TypeDecl struct {
	Name string // fully qualified
	Kind TypeKind
	// Parent is the extended class. Interfaces list their extended
	// interfaces in Interfaces instead.
	Parent     string
	Interfaces []string
	Traits     []string
	Abstract   bool
	Methods    []*MethodDecl
	Pos        Position
}

// Method returns the method named name, or nil.
func (t *TypeDecl) Method(name string) *MethodDecl {
	for _, m := range t.Methods {
		if strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}

// MethodDecl is a method declaration with its body facts.
type MethodDecl struct {
	Name       string
	Visibility Visibility
	Abstract   bool
	Static     bool
	Params     []Param
	Calls      []Call
	News       []New
	Pos        Position
}

// HasBody reports whether the declaration carries an implementation. Interface
// methods never do; the caller decides for the declaring kind.
func (m *MethodDecl) HasBody() bool {
	return !m.Abstract
}

// IsMagic reports whether the method is a constructor, destructor or other
// double-underscore hook.
func (m *MethodDecl) IsMagic() bool {
	return strings.HasPrefix(m.Name, "__")
}

// Param is a formal parameter. TypeHint is the fully qualified class or
// interface name, or empty when the parameter is untyped or scalar.
type Param struct {
	Name     string
	TypeHint string
}

// ReceiverKind classifies the receiver of a call.
type ReceiverKind uint8

const (
	// ReceiverUnknown is a receiver whose type could not be inferred.
	ReceiverUnknown ReceiverKind = iota
	// ReceiverThis is $this->m().
	ReceiverThis
	// ReceiverSelf is self::m().
	ReceiverSelf
	// ReceiverStatic is static::m().
	ReceiverStatic
	// ReceiverParent is parent::m().
	ReceiverParent
	// ReceiverClass is Name::m() with Type holding the class.
	ReceiverClass
	// ReceiverVariable is $x->m() where $x has a known type in Type, from a
	// parameter type hint or a local assignment of a new expression.
	ReceiverVariable
)

var receiverNames = [...]string{
	ReceiverUnknown:  "unknown",
	ReceiverThis:     "this",
	ReceiverSelf:     "self",
	ReceiverStatic:   "static",
	ReceiverParent:   "parent",
	ReceiverClass:    "class",
	ReceiverVariable: "variable",
}

func (r ReceiverKind) String() string {
	if int(r) < len(receiverNames) {
		return receiverNames[r]
	}
	return "unknown"
}

// IsCurrentObject reports whether the receiver denotes the enclosing object
// or class without naming it.
func (r ReceiverKind) IsCurrentObject() bool {
	switch r {
	case ReceiverThis, ReceiverSelf, ReceiverStatic, ReceiverParent:
		return true
	}
	return false
}

// Call is a method invocation inside a method body.
type Call struct {
	Receiver ReceiverKind
	Type     string // set for ReceiverClass and ReceiverVariable
	Method   string
	Pos      Position
}

// New is an instantiation expression inside a method body.
type New struct {
	Type string
	Pos  Position
}

// Provider turns source files into declaration trees.
type Provider interface {
	// Parse reads and parses the file at path.
	Parse(path string) (*File, error)
	// ParseSource parses src as the content of path.
	ParseSource(path string, src []byte) (*File, error)
	// Close releases provider resources.
	Close()
}
