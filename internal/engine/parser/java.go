package parser

import (
	"context"
	"distiller/internal/engine/model"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var javaTypeKinds = map[string]string{
	"class_declaration":           NodeClass,
	"interface_declaration":       NodeInterface,
	"enum_declaration":            NodeEnum,
	"record_declaration":          NodeRecord,
	"annotation_type_declaration": NodeAnnotationType,
}

var javaMemberKinds = map[string]string{
	"method_declaration":                  NodeMethod,
	"constructor_declaration":             NodeConstructor,
	"compact_constructor_declaration":     NodeCompactConstructor,
	"annotation_type_element_declaration": NodeAnnotationElement,
}

// JavaAdapter extracts declarations and references from Java sources using
// tree-sitter-java. Local and anonymous classes are flattened into the member
// that contains them.
type JavaAdapter struct {
	pool   *ParserPool
	engine *ExtractorEngine
}

func NewJavaAdapter(pool *ParserPool) *JavaAdapter {
	a := &JavaAdapter{pool: pool}
	a.engine = NewExtractorEngine(map[string]NodeHandler{
		"package_declaration":                 a.extractPackage,
		"import_declaration":                  a.extractImport,
		"class_declaration":                   a.extractType,
		"interface_declaration":               a.extractType,
		"enum_declaration":                    a.extractType,
		"record_declaration":                  a.extractType,
		"annotation_type_declaration":         a.extractType,
		"method_declaration":                  a.extractMember,
		"constructor_declaration":             a.extractMember,
		"compact_constructor_declaration":     a.extractMember,
		"annotation_type_element_declaration": a.extractMember,
		"field_declaration":                   a.extractField,
		"constant_declaration":                a.extractField,
		"enum_constant":                       a.extractEnumConstant,
		"static_initializer":                  a.extractInitializer,
		"block":                               a.extractInitializer,
		"line_comment":                        a.extractComment,
		"block_comment":                       a.extractComment,
		"type_identifier":                     a.typeReference,
		"scoped_type_identifier":              a.typeReference,
		"identifier":                          a.valueReference,
		"field_access":                        a.qualifiedReference,
		"scoped_identifier":                   a.qualifiedReference,
		"method_invocation":                   a.methodInvocation,
		"method_reference":                    a.methodReference,
		"annotation":                          a.annotationUsage,
		"marker_annotation":                   a.annotationUsage,
		"element_value_pair":                  a.elementValuePair,
		"variable_declarator":                 a.variableDeclarator,
		"formal_parameter":                    a.bindingSite,
		"spread_parameter":                    a.bindingSite,
		"catch_formal_parameter":              a.bindingSite,
		"enhanced_for_statement":              a.bindingSite,
		"resource":                            a.bindingSite,
		"instanceof_expression":               a.bindingSite,
		"type_pattern":                        a.bindingSite,
		"receiver_parameter":                  a.skipIdentifiers,
		"labeled_statement":                   a.skipIdentifiers,
		"break_statement":                     a.skipIdentifiers,
		"continue_statement":                  a.skipIdentifiers,
		"lambda_expression":                   a.lambda,
		"record_pattern":                      a.recordPattern,
		"type_parameter":                      a.typeParameter,
	})
	return a
}

func (a *JavaAdapter) Language() string {
	return "java"
}

func (a *JavaAdapter) Parse(ctx context.Context, path string, source []byte) (*RawTree, error) {
	tree, err := parseTree(a.pool, path, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	ectx := NewExtractionContext(path, a.Language(), source)
	a.engine.Walk(ectx, tree.RootNode())
	return ectx.Tree, nil
}

func (a *JavaAdapter) extractPackage(ctx *ExtractionContext, node *sitter.Node) bool {
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			ctx.Tree.Package = ctx.Text(child)
		case "line_comment", "block_comment":
			a.engine.Walk(ctx, child)
		}
	}
	return true
}

func (a *JavaAdapter) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	imp := RawImport{Location: ctx.Location(node)}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.Wildcard = true
		case "scoped_identifier", "identifier":
			imp.Path = compactSpace(ctx.Text(child))
		case "line_comment", "block_comment":
			a.engine.Walk(ctx, child)
		}
	}
	if imp.Path != "" {
		ctx.Tree.Imports = append(ctx.Tree.Imports, imp)
	}
	return true
}

func (a *JavaAdapter) extractType(ctx *ExtractionContext, node *sitter.Node) bool {
	nameNode := node.ChildByFieldName("name")
	name := ctx.Text(nameNode)

	if ctx.InCode() {
		// Local class: its name shadows imports inside the member, and its
		// contents count as the member's code.
		ctx.Bind(name)
		a.walkExcept(ctx, node, "name")
		return true
	}

	n := ctx.NewNode(javaTypeKinds[node.Kind()], name, node)
	ctx.Attach(n)
	ctx.Push(n)
	defer ctx.Pop()

	a.applyModifiers(ctx, n, node)
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParams = a.typeParams(ctx, tp)
		a.engine.Walk(ctx, tp)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "superclass":
			n.Extends = append(n.Extends, a.typeTexts(ctx, child)...)
			a.engine.Walk(ctx, child)
		case "super_interfaces":
			n.Implements = append(n.Implements, a.typeTexts(ctx, childOfKind(child, "type_list"))...)
			a.engine.Walk(ctx, child)
		case "extends_interfaces":
			n.Extends = append(n.Extends, a.typeTexts(ctx, childOfKind(child, "type_list"))...)
			a.engine.Walk(ctx, child)
		case "permits":
			n.Permits = append(n.Permits, a.typeTexts(ctx, childOfKind(child, "type_list"))...)
			a.engine.Walk(ctx, child)
		case "line_comment", "block_comment":
			a.engine.Walk(ctx, child)
		}
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		n.Components = a.params(ctx, params)
		a.engine.Walk(ctx, params)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		n.HasBody = true
		a.engine.WalkChildren(ctx, body)
	}
	return true
}

func (a *JavaAdapter) extractMember(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.InCode() {
		a.walkExcept(ctx, node, "name")
		return true
	}

	name := ctx.Text(node.ChildByFieldName("name"))
	n := ctx.NewNode(javaMemberKinds[node.Kind()], name, node)
	ctx.Attach(n)
	ctx.Push(n)
	defer ctx.Pop()

	a.applyModifiers(ctx, n, node)
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParams = a.typeParams(ctx, tp)
		a.engine.Walk(ctx, tp)
	}
	if typ := node.ChildByFieldName("type"); typ != nil {
		n.Result = compactSpace(ctx.Text(typ) + ctx.Text(node.ChildByFieldName("dimensions")))
		a.engine.Walk(ctx, typ)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		n.Params = a.params(ctx, params)
		a.engine.Walk(ctx, params)
	}
	if throws := childOfKind(node, "throws"); throws != nil {
		n.Throws = a.typeTexts(ctx, throws)
		a.engine.Walk(ctx, throws)
	}
	if node.Kind() == "annotation_type_element_declaration" {
		if def := node.ChildByFieldName("value"); def != nil {
			n.Default = compactSpace(ctx.Text(def))
			a.engine.WalkCode(ctx, def)
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		n.HasBody = true
		a.engine.WalkCode(ctx, body)
	}
	return true
}

func (a *JavaAdapter) extractField(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.InCode() {
		return false
	}

	typ := node.ChildByFieldName("type")
	for _, decl := range childrenByField(node, "declarator") {
		name := ctx.Text(decl.ChildByFieldName("name"))
		n := ctx.NewNode(NodeField, name, node)
		ctx.Attach(n)
		ctx.Push(n)

		a.applyModifiers(ctx, n, node)
		n.Result = compactSpace(ctx.Text(typ) + ctx.Text(decl.ChildByFieldName("dimensions")))
		a.engine.Walk(ctx, typ)
		if value := decl.ChildByFieldName("value"); value != nil {
			n.Value = compactSpace(ctx.Text(value))
			a.engine.WalkCode(ctx, value)
		}
		ctx.Pop()
	}
	return true
}

func (a *JavaAdapter) extractEnumConstant(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.Text(node.ChildByFieldName("name"))
	if ctx.InCode() {
		ctx.Bind(name)
		a.walkExcept(ctx, node, "name")
		return true
	}

	n := ctx.NewNode(NodeEnumConstant, name, node)
	ctx.Attach(n)
	ctx.Push(n)
	defer ctx.Pop()

	a.applyModifiers(ctx, n, node)
	if args := node.ChildByFieldName("arguments"); args != nil {
		n.Value = compactSpace(ctx.Text(args))
		a.engine.WalkCode(ctx, args)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		n.HasBody = true
		a.engine.WalkCode(ctx, body)
	}
	return true
}

// extractInitializer handles static and instance initializer blocks at type
// level. Blocks met while already in code fall through to the default walk.
func (a *JavaAdapter) extractInitializer(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.InCode() {
		return false
	}
	ctx.code++
	a.engine.WalkChildren(ctx, node)
	ctx.code--
	return true
}

func (a *JavaAdapter) extractComment(ctx *ExtractionContext, node *sitter.Node) bool {
	recordDocumentation(ctx, node)
	return true
}

func (a *JavaAdapter) typeReference(ctx *ExtractionContext, node *sitter.Node) bool {
	if node.Kind() == "type_identifier" {
		text := ctx.Text(node)
		ctx.Reference(text, text, model.RoleType, node)
		return true
	}
	if parts, ok := qualifiedParts(ctx, node); ok {
		ctx.Reference(parts[0], strings.Join(parts, "."), model.RoleType, node)
		return true
	}
	// Outer<T>.Inner: only the leftmost part can refer to an import.
	if first := node.NamedChild(0); first != nil {
		a.engine.Walk(ctx, first)
	}
	return true
}

func (a *JavaAdapter) valueReference(ctx *ExtractionContext, node *sitter.Node) bool {
	text := ctx.Text(node)
	ctx.Reference(text, text, model.RoleValue, node)
	return true
}

func (a *JavaAdapter) qualifiedReference(ctx *ExtractionContext, node *sitter.Node) bool {
	if parts, ok := qualifiedParts(ctx, node); ok {
		ctx.Reference(parts[0], strings.Join(parts, "."), model.RoleValue, node)
		return true
	}
	object := node.ChildByFieldName("object")
	if object == nil {
		object = node.ChildByFieldName("scope")
	}
	a.engine.Walk(ctx, object)
	return true
}

func (a *JavaAdapter) methodInvocation(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.Text(node.ChildByFieldName("name"))
	object := node.ChildByFieldName("object")
	switch {
	case object == nil:
		ctx.Reference(name, name, model.RoleCall, node)
	default:
		if parts, ok := qualifiedParts(ctx, object); ok {
			ctx.Reference(parts[0], strings.Join(append(parts, name), "."), model.RoleValue, object)
		} else {
			a.engine.Walk(ctx, object)
		}
	}
	a.engine.Walk(ctx, node.ChildByFieldName("type_arguments"))
	a.engine.Walk(ctx, node.ChildByFieldName("arguments"))
	return true
}

func (a *JavaAdapter) methodReference(ctx *ExtractionContext, node *sitter.Node) bool {
	target := node.Child(0)
	if target == nil {
		return true
	}
	if parts, ok := qualifiedParts(ctx, target); ok {
		ctx.Reference(parts[0], strings.Join(parts, "."), model.RoleValue, target)
	} else {
		a.engine.Walk(ctx, target)
	}
	if targs := childOfKind(node, "type_arguments"); targs != nil {
		a.engine.Walk(ctx, targs)
	}
	return true
}

func (a *JavaAdapter) annotationUsage(ctx *ExtractionContext, node *sitter.Node) bool {
	nameNode := node.ChildByFieldName("name")
	if parts, ok := qualifiedParts(ctx, nameNode); ok {
		ctx.Reference(parts[0], strings.Join(parts, "."), model.RoleType, nameNode)
	}
	if args := node.ChildByFieldName("arguments"); args != nil {
		a.engine.WalkCode(ctx, args)
	}
	return true
}

func (a *JavaAdapter) elementValuePair(ctx *ExtractionContext, node *sitter.Node) bool {
	a.engine.Walk(ctx, node.ChildByFieldName("value"))
	return true
}

func (a *JavaAdapter) variableDeclarator(ctx *ExtractionContext, node *sitter.Node) bool {
	if name := node.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
		ctx.Bind(ctx.Text(name))
	}
	a.engine.Walk(ctx, node.ChildByFieldName("dimensions"))
	a.engine.Walk(ctx, node.ChildByFieldName("value"))
	return true
}

// bindingSite handles nodes that introduce a name: the "name" field (or a
// bare identifier child) is bound, everything else is walked.
func (a *JavaAdapter) bindingSite(ctx *ExtractionContext, node *sitter.Node) bool {
	hasNameField := node.ChildByFieldName("name") != nil
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		field := node.FieldNameForChild(uint32(i))
		switch {
		case field == "name":
			if child.Kind() == "identifier" {
				ctx.Bind(ctx.Text(child))
			}
		case field == "left" || field == "value":
			a.engine.Walk(ctx, child)
		case !hasNameField && child.Kind() == "identifier":
			ctx.Bind(ctx.Text(child))
		default:
			a.engine.Walk(ctx, child)
		}
	}
	return true
}

func (a *JavaAdapter) skipIdentifiers(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "identifier" {
			continue
		}
		a.engine.Walk(ctx, child)
	}
	return true
}

func (a *JavaAdapter) lambda(ctx *ExtractionContext, node *sitter.Node) bool {
	params := node.ChildByFieldName("parameters")
	if params != nil {
		switch params.Kind() {
		case "identifier":
			ctx.Bind(ctx.Text(params))
		case "inferred_parameters":
			for _, p := range namedChildren(params) {
				if p.Kind() == "identifier" {
					ctx.Bind(ctx.Text(p))
				}
			}
		default:
			a.engine.Walk(ctx, params)
		}
	}
	a.engine.Walk(ctx, node.ChildByFieldName("body"))
	return true
}

func (a *JavaAdapter) recordPattern(ctx *ExtractionContext, node *sitter.Node) bool {
	for _, child := range namedChildren(node) {
		if child.Kind() == "identifier" {
			text := ctx.Text(child)
			ctx.Reference(text, text, model.RoleType, child)
			continue
		}
		a.engine.Walk(ctx, child)
	}
	return true
}

func (a *JavaAdapter) typeParameter(ctx *ExtractionContext, node *sitter.Node) bool {
	named := false
	for _, child := range namedChildren(node) {
		if child.Kind() == "type_identifier" && !named {
			named = true
			if ctx.InCode() {
				ctx.Bind(ctx.Text(child))
			}
			continue
		}
		a.engine.Walk(ctx, child)
	}
	return true
}

func (a *JavaAdapter) walkExcept(ctx *ExtractionContext, node *sitter.Node, skipField string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == skipField {
			continue
		}
		a.engine.Walk(ctx, node.Child(i))
	}
}

// applyModifiers copies keywords and annotations from the modifiers child of
// decl onto n. n must already be the current owner so annotation tokens are
// attributed to it.
func (a *JavaAdapter) applyModifiers(ctx *ExtractionContext, n *RawNode, decl *sitter.Node) {
	mods := childOfKind(decl, "modifiers")
	if mods == nil {
		return
	}
	for i := uint(0); i < mods.ChildCount(); i++ {
		child := mods.Child(i)
		switch child.Kind() {
		case "annotation", "marker_annotation":
			n.Annotations = append(n.Annotations, a.annotation(ctx, child))
			a.engine.Walk(ctx, child)
		case "line_comment", "block_comment":
			a.engine.Walk(ctx, child)
		default:
			if !child.IsNamed() {
				n.Modifiers = append(n.Modifiers, child.Kind())
			}
		}
	}
}

func (a *JavaAdapter) annotation(ctx *ExtractionContext, node *sitter.Node) model.Annotation {
	return model.Annotation{
		Name: compactSpace(ctx.Text(node.ChildByFieldName("name"))),
		Args: compactSpace(ctx.Text(node.ChildByFieldName("arguments"))),
	}
}

func (a *JavaAdapter) typeParams(ctx *ExtractionContext, node *sitter.Node) []model.TypeParam {
	var out []model.TypeParam
	for _, tp := range namedChildren(node) {
		if tp.Kind() != "type_parameter" {
			continue
		}
		var param model.TypeParam
		for _, child := range namedChildren(tp) {
			switch child.Kind() {
			case "type_identifier":
				if param.Name == "" {
					param.Name = ctx.Text(child)
				}
			case "type_bound":
				param.Bounds = append(param.Bounds, a.typeTexts(ctx, child)...)
			}
		}
		out = append(out, param)
	}
	return out
}

func (a *JavaAdapter) params(ctx *ExtractionContext, node *sitter.Node) []model.Param {
	var out []model.Param
	for _, p := range namedChildren(node) {
		switch p.Kind() {
		case "formal_parameter":
			out = append(out, model.Param{
				Name:        ctx.Text(p.ChildByFieldName("name")),
				Type:        compactSpace(ctx.Text(p.ChildByFieldName("type")) + ctx.Text(p.ChildByFieldName("dimensions"))),
				Annotations: a.modifierAnnotations(ctx, p),
			})
		case "spread_parameter":
			param := model.Param{Variadic: true, Annotations: a.modifierAnnotations(ctx, p)}
			for _, child := range namedChildren(p) {
				switch child.Kind() {
				case "modifiers", "annotation", "marker_annotation":
				case "variable_declarator":
					param.Name = ctx.Text(child.ChildByFieldName("name"))
				default:
					if param.Type == "" {
						param.Type = compactSpace(ctx.Text(child))
					}
				}
			}
			out = append(out, param)
		}
	}
	return out
}

func (a *JavaAdapter) modifierAnnotations(ctx *ExtractionContext, node *sitter.Node) []model.Annotation {
	mods := childOfKind(node, "modifiers")
	var out []model.Annotation
	for _, child := range namedChildren(mods) {
		if child.Kind() == "annotation" || child.Kind() == "marker_annotation" {
			out = append(out, a.annotation(ctx, child))
		}
	}
	return out
}

// typeTexts returns the text of each type listed directly under node.
func (a *JavaAdapter) typeTexts(ctx *ExtractionContext, node *sitter.Node) []string {
	var out []string
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "line_comment", "block_comment", "annotation", "marker_annotation":
			continue
		}
		out = append(out, compactSpace(ctx.Text(child)))
	}
	return out
}

// qualifiedParts splits a dotted name made only of identifiers, e.g.
// Map.Entry or System.out, into its segments.
func qualifiedParts(ctx *ExtractionContext, node *sitter.Node) ([]string, bool) {
	if node == nil {
		return nil, false
	}
	switch node.Kind() {
	case "identifier", "type_identifier":
		return []string{ctx.Text(node)}, true
	case "scoped_identifier":
		scope, ok := qualifiedParts(ctx, node.ChildByFieldName("scope"))
		if !ok {
			return nil, false
		}
		return append(scope, ctx.Text(node.ChildByFieldName("name"))), true
	case "field_access":
		object, ok := qualifiedParts(ctx, node.ChildByFieldName("object"))
		if !ok {
			return nil, false
		}
		return append(object, ctx.Text(node.ChildByFieldName("field"))), true
	case "scoped_type_identifier":
		named := namedChildren(node)
		if len(named) < 2 {
			return nil, false
		}
		scope, ok := qualifiedParts(ctx, named[0])
		if !ok {
			return nil, false
		}
		last := named[len(named)-1]
		if last.Kind() != "type_identifier" {
			return nil, false
		}
		return append(scope, ctx.Text(last)), true
	}
	return nil, false
}

func compactSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
