// # internal/engine/parser/types.go
package parser

import (
	"distiller/internal/engine/model"
)

// RawTree is what an adapter produces: grammar-shaped declaration nodes plus
// the reference stream. The builder normalizes it into a model.SourceUnit.
type RawTree struct {
	Path     string
	Language string
	Package  string
	Imports  []RawImport
	Nodes    []*RawNode
	Tokens   []RawToken
	// Globals are file-scope bindings that are not declarations, such as
	// module-level loop variables.
	Globals []string
}

func (t *RawTree) addGlobal(name string) {
	if name == "" {
		return
	}
	for _, existing := range t.Globals {
		if existing == name {
			return
		}
	}
	t.Globals = append(t.Globals, name)
}

type RawImport struct {
	Path     string
	Alias    string
	From     string
	Static   bool
	Wildcard bool
	Location model.Location
}

// Raw node kinds emitted by adapters.
const (
	NodeClass              = "class"
	NodeInterface          = "interface"
	NodeEnum               = "enum"
	NodeRecord             = "record"
	NodeAnnotationType     = "annotation_type"
	NodeMethod             = "method"
	NodeConstructor        = "constructor"
	NodeCompactConstructor = "compact_constructor"
	NodeAnnotationElement  = "annotation_element"
	NodeField              = "field"
	NodeEnumConstant       = "enum_constant"
	NodeFunction           = "function"
	NodeAssignment         = "assignment"
)

type RawNode struct {
	ID          int
	Kind        string
	Name        string
	Modifiers   []string
	Annotations []model.Annotation
	TypeParams  []model.TypeParam
	Params      []model.Param
	Result      string
	Throws      []string
	Extends     []string
	Implements  []string
	Permits     []string
	Components  []model.Param
	Default     string
	Value       string
	HasBody     bool
	Locals      []string
	Location    model.Location
	Children    []*RawNode
}

func (n *RawNode) addLocal(name string) {
	if name == "" {
		return
	}
	for _, existing := range n.Locals {
		if existing == name {
			return
		}
	}
	n.Locals = append(n.Locals, name)
}

// RawToken references its owner by RawNode.ID; zero means file scope.
type RawToken struct {
	Name     string
	Path     string
	Role     model.ReferenceRole
	Context  model.TokenContext
	Owner    int
	Location model.Location
}
