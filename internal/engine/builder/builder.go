// Package builder normalizes adapter output into the language-agnostic
// declaration forest of package model.
package builder

import (
	"distiller/internal/core/errors"
	"distiller/internal/engine/model"
	"distiller/internal/engine/parser"
)

var rawKinds = map[string]model.Kind{
	parser.NodeClass:              model.KindClass,
	parser.NodeInterface:          model.KindInterface,
	parser.NodeEnum:               model.KindEnum,
	parser.NodeRecord:             model.KindRecord,
	parser.NodeAnnotationType:     model.KindAnnotationType,
	parser.NodeMethod:             model.KindFunction,
	parser.NodeConstructor:        model.KindFunction,
	parser.NodeCompactConstructor: model.KindFunction,
	parser.NodeAnnotationElement:  model.KindFunction,
	parser.NodeFunction:           model.KindFunction,
	parser.NodeField:              model.KindField,
	parser.NodeEnumConstant:       model.KindField,
	parser.NodeAssignment:         model.KindField,
}

// Builder turns a RawTree into a SourceUnit using the conventions registered
// for the tree's language.
type Builder struct {
	conventions map[string]Conventions
}

func New() *Builder {
	return &Builder{
		conventions: map[string]Conventions{
			"java":   javaConventions{},
			"python": pythonConventions{},
		},
	}
}

func (b *Builder) Register(language string, c Conventions) {
	b.conventions[language] = c
}

// Build converts tree. Declaration and import order follow the source.
func (b *Builder) Build(tree *parser.RawTree) (*model.SourceUnit, error) {
	conv, ok := b.conventions[tree.Language]
	if !ok {
		return nil, errors.UnsupportedLanguage(tree.Path, tree.Language)
	}

	unit := &model.SourceUnit{
		Path:     tree.Path,
		Language: tree.Language,
		Package:  tree.Package,
	}

	for i, raw := range tree.Imports {
		unit.Imports = append(unit.Imports, buildImport(conv, raw, i))
	}

	owners := make(map[int]*model.Declaration)
	for _, raw := range tree.Nodes {
		decl, err := b.buildDeclaration(conv, raw, nil, owners)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxPath, tree.Path)
		}
		unit.Declarations = append(unit.Declarations, decl)
	}

	if len(tree.Globals) > 0 {
		unit.Globals = make(map[string]struct{}, len(tree.Globals))
		for _, name := range tree.Globals {
			unit.Globals[name] = struct{}{}
		}
	}

	unit.Tokens = make([]model.ReferenceToken, 0, len(tree.Tokens))
	for _, raw := range tree.Tokens {
		tok := model.ReferenceToken{
			Name:     raw.Name,
			Path:     raw.Path,
			Role:     raw.Role,
			Context:  raw.Context,
			Location: raw.Location,
		}
		if raw.Owner != 0 {
			owner, ok := owners[raw.Owner]
			if !ok {
				err := errors.New(errors.CodeInternal, "reference token owned by unknown declaration")
				err = errors.AddContext(err, errors.CtxPath, tree.Path)
				return nil, errors.AddContext(err, errors.CtxSymbol, raw.Path)
			}
			tok.Owner = owner
		}
		unit.Tokens = append(unit.Tokens, tok)
	}
	return unit, nil
}

func (b *Builder) buildDeclaration(conv Conventions, raw *parser.RawNode, parent *model.Declaration, owners map[int]*model.Declaration) (*model.Declaration, error) {
	kind, ok := rawKinds[raw.Kind]
	if !ok {
		return nil, errors.New(errors.CodeInternal, "unknown raw declaration kind: "+raw.Kind)
	}

	decl := &model.Declaration{
		Kind:         kind,
		Name:         raw.Name,
		TypeParams:   raw.TypeParams,
		Annotations:  raw.Annotations,
		Params:       raw.Params,
		Result:       raw.Result,
		Throws:       raw.Throws,
		Constructor:  raw.Kind == parser.NodeConstructor || raw.Kind == parser.NodeCompactConstructor,
		Compact:      raw.Kind == parser.NodeCompactConstructor,
		HasBody:      raw.HasBody,
		EnumConstant: raw.Kind == parser.NodeEnumConstant,
		Extends:      raw.Extends,
		Implements:   raw.Implements,
		Permits:      raw.Permits,
		Components:   raw.Components,
		Default:      raw.Default,
		Value:        raw.Value,
		Location:     raw.Location,
	}
	if decl.Constructor {
		decl.Result = ""
	}
	decl.Modifiers = conv.Modifiers(raw, parent)
	for _, name := range raw.Locals {
		decl.AddLocal(name)
	}

	// Attach before building children so conventions can look at the parent
	// chain of nested declarations.
	if parent != nil {
		parent.AddChild(decl)
	}
	owners[raw.ID] = decl

	for _, child := range raw.Children {
		if _, err := b.buildDeclaration(conv, child, decl, owners); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func buildImport(conv Conventions, raw parser.RawImport, order int) *model.ImportEntry {
	entry := &model.ImportEntry{
		Path:     raw.Path,
		Alias:    raw.Alias,
		Static:   raw.Static,
		Wildcard: raw.Wildcard,
		Order:    order,
		Location: raw.Location,
		From:     raw.From,
	}
	entry.Binding, entry.Nested = conv.Binding(raw)
	if conv.Pinned(raw) {
		entry.Pinned = true
		entry.MarkUsed()
	}
	return entry
}
