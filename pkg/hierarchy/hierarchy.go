// Package hierarchy builds the whole-program map of type name to parent,
// interfaces and traits, and answers first-declaration queries over it.
//
// The map is built from every file before any vertex exists, so a type may
// extend a type declared in a file processed later. Supertypes that were never
// declared (library or built-in types) are ignored. Cyclic inheritance does
// not loop: every walk carries a visited set and stops at a type it has
// already entered.
package hierarchy

import (
	"strings"

	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/digraph"
)

// Entry is the recorded shape of one type.
type Entry struct {
	Name       string
	Kind       ast.TypeKind
	Parent     string
	Interfaces []string
	Traits     []string

	decl *ast.TypeDecl
	// method key (lower case) -> declared name and visibility
	methods map[string]method
}

// Decl returns the declaration the entry was recorded from.
func (e *Entry) Decl() *ast.TypeDecl {
	return e.decl
}

type method struct {
	name    string
	private bool
}

// Map is the resolved hierarchy. It is immutable once Resolve returns.
type Map struct {
	entries    map[string]*Entry
	order      []string
	duplicates []string
}

// Resolve records every type declared in files.
// When a type is declared twice the first declaration wins.
func Resolve(files []*ast.File) *Map {
	m := &Map{entries: make(map[string]*Entry)}
	for _, f := range files {
		if f == nil {
			continue
		}
		for _, t := range f.Types {
			m.add(t)
		}
	}
	return m
}

func (m *Map) add(t *ast.TypeDecl) {
	if _, exists := m.entries[t.Name]; exists {
		m.duplicates = append(m.duplicates, t.Name)
		return
	}
	e := &Entry{
		Name:       t.Name,
		Kind:       t.Kind,
		Parent:     t.Parent,
		Interfaces: append([]string(nil), t.Interfaces...),
		Traits:     append([]string(nil), t.Traits...),
		decl:       t,
		methods:    make(map[string]method, len(t.Methods)),
	}
	for _, md := range t.Methods {
		key := methodKey(md.Name)
		if _, seen := e.methods[key]; seen {
			continue
		}
		e.methods[key] = method{name: md.Name, private: md.Visibility == ast.Private}
	}
	m.entries[t.Name] = e
	m.order = append(m.order, t.Name)
}

// Types returns every recorded type name in declaration order.
func (m *Map) Types() []string {
	return append([]string(nil), m.order...)
}

// Duplicates returns the names declared more than once.
func (m *Map) Duplicates() []string {
	return append([]string(nil), m.duplicates...)
}

// Lookup returns the entry of a type.
func (m *Map) Lookup(name string) (*Entry, bool) {
	e, ok := m.entries[name]
	return e, ok
}

// Canonical reports whether t is the declaration recorded for its name.
// Later declarations of a duplicated name are not.
func (m *Map) Canonical(t *ast.TypeDecl) bool {
	e, ok := m.Lookup(t.Name)
	return ok && e.Decl() == t
}

// Known reports whether name was declared in the input.
func (m *Map) Known(name string) bool {
	_, ok := m.entries[name]
	return ok
}

// Supertypes returns the known direct supertypes of name: its interfaces in
// declared order, then its parent class.
func (m *Map) Supertypes(name string) []string {
	e, ok := m.entries[name]
	if !ok {
		return nil
	}
	return m.supertypes(e)
}

func (m *Map) supertypes(e *Entry) []string {
	out := make([]string, 0, len(e.Interfaces)+1)
	for _, i := range e.Interfaces {
		if m.Known(i) {
			out = append(out, i)
		}
	}
	if e.Parent != "" && m.Known(e.Parent) {
		out = append(out, e.Parent)
	}
	return out
}

// FirstDeclaration returns the type highest in the hierarchy of typ that
// declares method, and the method name as spelled there.
//
// Supertypes are searched before the type itself: interfaces in declared
// order, then the parent, each recursively, and the first match wins. A type
// declares the methods of its own body and the methods imported from its
// traits. Private methods only count on typ itself since they are not
// inherited.
func (m *Map) FirstDeclaration(typ, method string) (declarer, name string, ok bool) {
	return m.firstDeclaration(typ, methodKey(method), true, make(map[string]bool))
}

func (m *Map) firstDeclaration(typ, key string, root bool, visited map[string]bool) (string, string, bool) {
	if visited[typ] {
		return "", "", false
	}
	visited[typ] = true

	e, ok := m.entries[typ]
	if !ok {
		return "", "", false
	}
	for _, super := range m.supertypes(e) {
		if d, n, ok := m.firstDeclaration(super, key, false, visited); ok {
			return d, n, true
		}
	}
	if n, ok := m.declaresOwn(e, key, root, make(map[string]bool)); ok {
		return typ, n, true
	}
	return "", "", false
}

// declaresOwn looks method up in the body of e and, recursively, in its traits.
func (m *Map) declaresOwn(e *Entry, key string, withPrivate bool, visited map[string]bool) (string, bool) {
	if visited[e.Name] {
		return "", false
	}
	visited[e.Name] = true

	if md, ok := e.methods[key]; ok && (withPrivate || !md.private) {
		return md.name, true
	}
	for _, t := range e.Traits {
		te, ok := m.entries[t]
		if !ok {
			continue
		}
		if n, ok := m.declaresOwn(te, key, withPrivate, visited); ok {
			return n, true
		}
	}
	return "", false
}

// BodyProvider returns the type whose body holds method for typ: typ itself
// when it declares the method directly, otherwise the first used trait that
// provides it, searched recursively in declared order.
func (m *Map) BodyProvider(typ, method string) (string, bool) {
	return m.bodyProvider(typ, methodKey(method), make(map[string]bool))
}

func (m *Map) bodyProvider(typ, key string, visited map[string]bool) (string, bool) {
	if visited[typ] {
		return "", false
	}
	visited[typ] = true

	e, ok := m.entries[typ]
	if !ok {
		return "", false
	}
	if _, ok := e.methods[key]; ok {
		return typ, true
	}
	for _, t := range e.Traits {
		if p, ok := m.bodyProvider(t, key, visited); ok {
			return p, true
		}
	}
	return "", false
}

// Imported is a method a type gets from one of its traits.
type Imported struct {
	Trait  string
	Method *ast.MethodDecl
}

// ImportedMethods returns the methods typ gets from its traits and does not
// declare in its own body, searched in declared order and recursively. When
// two traits provide the same name the first one wins.
func (m *Map) ImportedMethods(typ string) []Imported {
	e, ok := m.entries[typ]
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(e.methods))
	for key := range e.methods {
		seen[key] = true
	}

	var out []Imported
	visited := map[string]bool{typ: true}
	var walk func(traits []string)
	walk = func(traits []string) {
		for _, t := range traits {
			te, ok := m.entries[t]
			if !ok || visited[t] {
				continue
			}
			visited[t] = true
			for _, md := range te.decl.Methods {
				key := methodKey(md.Name)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, Imported{Trait: t, Method: md})
			}
			walk(te.Traits)
		}
	}
	walk(e.Traits)
	return out
}

// Ancestors returns typ followed by every type it transitively extends,
// implements or uses, known or not, each once.
func (m *Map) Ancestors(typ string) []string {
	var out []string
	visited := make(map[string]bool)
	var walk func(string)
	walk = func(name string) {
		if name == "" || visited[name] {
			return
		}
		visited[name] = true
		out = append(out, name)
		e, ok := m.entries[name]
		if !ok {
			return
		}
		for _, i := range e.Interfaces {
			walk(i)
		}
		for _, t := range e.Traits {
			walk(t)
		}
		walk(e.Parent)
	}
	walk(typ)
	return out
}

// InHierarchy reports whether other is typ or one of its ancestors.
func (m *Map) InHierarchy(typ, other string) bool {
	for _, a := range m.Ancestors(typ) {
		if a == other {
			return true
		}
	}
	return false
}

// Cycles returns the groups of types that transitively extend, implement or
// use each other. A type naming itself forms a group of one.
func (m *Map) Cycles() [][]string {
	g := digraph.New()
	vertex := func(name string) digraph.Vertex {
		return digraph.Vertex{Kind: vertexKind(m.entries[name].Kind), Name: name}
	}

	var cycles [][]string
	for _, name := range m.order {
		g.AddVertex(vertex(name))
	}
	for _, name := range m.order {
		e := m.entries[name]
		related := append(append(append([]string(nil), e.Interfaces...), e.Traits...), e.Parent)
		for _, r := range related {
			if !m.Known(r) {
				continue
			}
			if r == name {
				cycles = append(cycles, []string{name})
				continue
			}
			g.AddEdge(vertex(name), vertex(r))
		}
	}

	for _, scc := range digraph.ToGonum(g, nil).Cycles() {
		names := make([]string, len(scc))
		for i, v := range scc {
			names[i] = v.Name
		}
		cycles = append(cycles, names)
	}
	return cycles
}

func vertexKind(k ast.TypeKind) digraph.Kind {
	switch k {
	case ast.KindInterface:
		return digraph.KindInterface
	case ast.KindTrait:
		return digraph.KindTrait
	default:
		return digraph.KindClass
	}
}

// methodKey folds method names: PHP resolves them case-insensitively.
func methodKey(name string) string {
	return strings.ToLower(name)
}
