// Package model holds the language-agnostic declaration graph shared by every
// pipeline stage: source units, declarations, imports and reference tokens.
package model

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindClass          Kind = "class"
	KindInterface      Kind = "interface"
	KindEnum           Kind = "enum"
	KindRecord         Kind = "record"
	KindAnnotationType Kind = "annotationType"
	KindFunction       Kind = "function"
	KindField          Kind = "field"
	KindNamespace      Kind = "namespace"
)

// IsType reports whether declarations of this kind introduce a type name.
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindRecord, KindAnnotationType:
		return true
	}
	return false
}

// Visibility is ordered: a larger value is more visible.
type Visibility int

const (
	VisibilityPrivate Visibility = iota
	VisibilityPackage
	VisibilityProtected
	VisibilityPublic
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityPackage:
		return "package"
	case VisibilityProtected:
		return "protected"
	case VisibilityPublic:
		return "public"
	}
	return fmt.Sprintf("visibility(%d)", int(v))
}

// ParseMinVisibility maps a configured minimum visibility to its threshold.
func ParseMinVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return VisibilityPublic, nil
	case "public+protected", "protected":
		return VisibilityProtected, nil
	case "public+protected+package", "package":
		return VisibilityPackage, nil
	case "all", "private":
		return VisibilityPrivate, nil
	}
	return 0, fmt.Errorf("unrecognized min visibility %q (expected public, public+protected, public+protected+package or all)", s)
}

type DetailLevel int

const (
	DetailSignatures DetailLevel = iota
	DetailSignaturesFields
	DetailFullMinusBodies
)

func (d DetailLevel) String() string {
	switch d {
	case DetailSignatures:
		return "signatures"
	case DetailSignaturesFields:
		return "signatures+fields"
	case DetailFullMinusBodies:
		return "full-minus-bodies"
	}
	return fmt.Sprintf("detail(%d)", int(d))
}

func ParseDetailLevel(s string) (DetailLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signatures", "signatures-only":
		return DetailSignatures, nil
	case "signatures+fields":
		return DetailSignaturesFields, nil
	case "full-minus-bodies", "full":
		return DetailFullMinusBodies, nil
	}
	return 0, fmt.Errorf("unrecognized detail level %q (expected signatures-only, signatures+fields or full-minus-bodies)", s)
}

type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

type TypeParam struct {
	Name   string
	Bounds []string
}

// Annotation is an annotation or decorator usage site. Args keeps the
// argument list as written, including the surrounding parentheses.
type Annotation struct {
	Name string
	Args string
}

type Param struct {
	Name        string
	Type        string
	Default     string
	Variadic    bool
	Annotations []Annotation
}

// Modifiers carries the resolved visibility plus the remaining qualifiers in
// source order (static, final, abstract, sealed, default, async, ...).
type Modifiers struct {
	Visibility Visibility
	Explicit   bool
	Qualifiers []string
}

func (m Modifiers) Has(qualifier string) bool {
	for _, q := range m.Qualifiers {
		if q == qualifier {
			return true
		}
	}
	return false
}

// Declaration is a single tagged variant covering every declaration kind.
// Children are owned; the parent pointer is for lookup only.
type Declaration struct {
	Kind        Kind
	Name        string
	Modifiers   Modifiers
	TypeParams  []TypeParam
	Annotations []Annotation

	Params      []Param
	Result      string
	Throws      []string
	Constructor bool
	Compact     bool
	HasBody     bool
	// EnumConstant marks a field that is a constant of its enclosing enum.
	EnumConstant bool

	Extends    []string
	Implements []string
	Permits    []string
	Components []Param

	Default string
	Value   string

	Location Location
	Children []*Declaration

	locals   map[string]struct{}
	parent   *Declaration
	detached bool

	// removed holds children taken out by Prune. They no longer render but
	// still declare names for scoping.
	removed []*Declaration
}

func (d *Declaration) Parent() *Declaration {
	return d.parent
}

func (d *Declaration) AddChild(child *Declaration) {
	child.parent = d
	d.Children = append(d.Children, child)
}

// Detach marks the declaration as removed from the forest. The parent link is
// kept so lookups from stale tokens still terminate.
func (d *Declaration) Detach() {
	d.detached = true
}

// Attached reports whether neither d nor any ancestor has been detached.
func (d *Declaration) Attached() bool {
	for n := d; n != nil; n = n.parent {
		if n.detached {
			return false
		}
	}
	return true
}

func (d *Declaration) AddLocal(name string) {
	if name == "" {
		return
	}
	if d.locals == nil {
		d.locals = make(map[string]struct{})
	}
	d.locals[name] = struct{}{}
}

func (d *Declaration) HasLocal(name string) bool {
	_, ok := d.locals[name]
	return ok
}

func (d *Declaration) Locals() []string {
	out := make([]string, 0, len(d.locals))
	for name := range d.locals {
		out = append(out, name)
	}
	return out
}

// HasMember reports whether d directly declares a member or record component
// called name.
func (d *Declaration) HasMember(name string) bool {
	for _, c := range d.Children {
		if c.Name == name && !c.Kind.IsType() {
			return true
		}
	}
	for _, c := range d.removed {
		if c.Name == name && !c.Kind.IsType() {
			return true
		}
	}
	for _, c := range d.Components {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (d *Declaration) HasTypeParam(name string) bool {
	for _, tp := range d.TypeParams {
		if tp.Name == name {
			return true
		}
	}
	return false
}

// Walk visits d and its descendants in declaration order. Returning false from
// fn skips the subtree below the visited node.
func (d *Declaration) Walk(fn func(*Declaration) bool) {
	if !fn(d) {
		return
	}
	for _, c := range d.Children {
		c.Walk(fn)
	}
}

// Prune removes the children for which drop returns true, detaching them,
// and returns what was removed.
func (d *Declaration) Prune(drop func(*Declaration) bool) []*Declaration {
	var removed []*Declaration
	d.Children, removed = pruneList(d.Children, drop)
	d.removed = append(d.removed, removed...)
	return removed
}

// walkDeclared visits d and every descendant, pruned ones included.
func (d *Declaration) walkDeclared(fn func(*Declaration) bool) bool {
	if !fn(d) {
		return false
	}
	for _, c := range d.Children {
		if !c.walkDeclared(fn) {
			return false
		}
	}
	for _, c := range d.removed {
		if !c.walkDeclared(fn) {
			return false
		}
	}
	return true
}

func pruneList(decls []*Declaration, drop func(*Declaration) bool) (kept, removed []*Declaration) {
	kept = decls[:0]
	for _, c := range decls {
		if drop(c) {
			c.Detach()
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}

// QualifiedName joins the enclosing declaration names with dots.
func (d *Declaration) QualifiedName() string {
	parts := []string{}
	for n := d; n != nil; n = n.parent {
		parts = append([]string{n.Name}, parts...)
	}
	return strings.Join(parts, ".")
}

// SourceUnit is one parsed file. It exclusively owns its declarations,
// imports and tokens.
type SourceUnit struct {
	Path         string
	Language     string
	Package      string
	Declarations []*Declaration
	Imports      []*ImportEntry
	Tokens       []ReferenceToken
	// Globals are file-scope bindings that are not declarations.
	Globals map[string]struct{}

	removed []*Declaration
}

func (u *SourceUnit) HasGlobal(name string) bool {
	_, ok := u.Globals[name]
	return ok
}

func (u *SourceUnit) Walk(fn func(*Declaration) bool) {
	for _, d := range u.Declarations {
		d.Walk(fn)
	}
}

// Prune removes the top-level declarations for which drop returns true.
// Removed declarations stay visible to DeclaresType and DeclaresTopLevel.
func (u *SourceUnit) Prune(drop func(*Declaration) bool) []*Declaration {
	var removed []*Declaration
	u.Declarations, removed = pruneList(u.Declarations, drop)
	u.removed = append(u.removed, removed...)
	return removed
}

// DeclaresType reports whether any type in the file is called name, pruned
// types included.
func (u *SourceUnit) DeclaresType(name string) bool {
	found := false
	visit := func(d *Declaration) bool {
		if d.Kind.IsType() && d.Name == name {
			found = true
		}
		return !found
	}
	for _, list := range [][]*Declaration{u.Declarations, u.removed} {
		for _, d := range list {
			if !d.walkDeclared(visit) {
				return true
			}
		}
	}
	return found
}

// DeclaresTopLevel reports whether a file-scope declaration, pruned or not,
// is called name.
func (u *SourceUnit) DeclaresTopLevel(name string) bool {
	for _, list := range [][]*Declaration{u.Declarations, u.removed} {
		for _, d := range list {
			if d.Name == name {
				return true
			}
		}
	}
	return false
}

// ResetUsage prepares the imports for a fresh resolution pass.
func (u *SourceUnit) ResetUsage() {
	for _, imp := range u.Imports {
		imp.Used = imp.Pinned
	}
}

func (u *SourceUnit) UnusedImports() []*ImportEntry {
	var out []*ImportEntry
	for _, imp := range u.Imports {
		if !imp.Used {
			out = append(out, imp)
		}
	}
	return out
}
