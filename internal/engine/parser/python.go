package parser

import (
	"context"
	"distiller/internal/engine/model"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonAdapter extracts declarations and references from Python sources
// using tree-sitter-python. Docstrings and comments are documentation.
type PythonAdapter struct {
	pool   *ParserPool
	engine *ExtractorEngine
}

func NewPythonAdapter(pool *ParserPool) *PythonAdapter {
	a := &PythonAdapter{pool: pool}
	a.engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement":        a.extractImport,
		"import_from_statement":   a.extractFromImport,
		"future_import_statement": a.extractFutureImport,
		"class_definition":        a.extractClass,
		"function_definition":     a.extractFunction,
		"decorated_definition":    a.extractDecorated,
		"expression_statement":    a.extractStatement,
		"assignment":              a.assignment,
		"comment":                 a.extractComment,
		"identifier":              a.valueReference,
		"attribute":               a.attributeReference,
		"call":                    a.call,
		"keyword_argument":        a.keywordArgument,
		"for_statement":           a.loop,
		"for_in_clause":           a.loop,
		"as_pattern":              a.asPattern,
		"named_expression":        a.namedExpression,
		"except_clause":           a.exceptClause,
		"lambda":                  a.lambda,
		"parameters":              a.parameters,
		"lambda_parameters":       a.parameters,
		"global_statement":        a.skip,
		"nonlocal_statement":      a.skip,
	})
	return a
}

func (a *PythonAdapter) Language() string {
	return "python"
}

func (a *PythonAdapter) Parse(ctx context.Context, path string, source []byte) (*RawTree, error) {
	tree, err := parseTree(a.pool, path, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	ectx := NewExtractionContext(path, a.Language(), source)
	a.engine.Walk(ectx, tree.RootNode())
	return ectx.Tree, nil
}

func (a *PythonAdapter) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for _, child := range childrenByField(node, "name") {
		imp := RawImport{Location: ctx.Location(child)}
		switch child.Kind() {
		case "dotted_name":
			imp.Path = ctx.Text(child)
		case "aliased_import":
			imp.Path = ctx.Text(child.ChildByFieldName("name"))
			imp.Alias = ctx.Text(child.ChildByFieldName("alias"))
		default:
			continue
		}
		ctx.Tree.Imports = append(ctx.Tree.Imports, imp)
	}
	return true
}

func (a *PythonAdapter) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	module := ctx.Text(node.ChildByFieldName("module_name"))
	if childOfKind(node, "wildcard_import") != nil {
		ctx.Tree.Imports = append(ctx.Tree.Imports, RawImport{
			Path:     module,
			From:     module,
			Wildcard: true,
			Location: ctx.Location(node),
		})
		return true
	}
	for _, child := range childrenByField(node, "name") {
		imp := RawImport{From: module, Location: ctx.Location(child)}
		switch child.Kind() {
		case "dotted_name":
			imp.Path = joinModule(module, ctx.Text(child))
		case "aliased_import":
			imp.Path = joinModule(module, ctx.Text(child.ChildByFieldName("name")))
			imp.Alias = ctx.Text(child.ChildByFieldName("alias"))
		default:
			continue
		}
		ctx.Tree.Imports = append(ctx.Tree.Imports, imp)
	}
	return true
}

func (a *PythonAdapter) extractFutureImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for _, child := range childrenByField(node, "name") {
		name := ctx.Text(child)
		if child.Kind() == "aliased_import" {
			name = ctx.Text(child.ChildByFieldName("name"))
		}
		ctx.Tree.Imports = append(ctx.Tree.Imports, RawImport{
			Path:     joinModule("__future__", name),
			From:     "__future__",
			Location: ctx.Location(child),
		})
	}
	return true
}

func joinModule(module, name string) string {
	if module == "" || strings.HasSuffix(module, ".") {
		return module + name
	}
	return module + "." + name
}

func (a *PythonAdapter) extractClass(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.Text(node.ChildByFieldName("name"))
	if ctx.InCode() {
		ctx.Bind(name)
		a.walkDecorators(ctx, node)
		a.walkExcept(ctx, node, "name")
		return true
	}

	n := ctx.NewNode(NodeClass, name, node)
	ctx.Attach(n)
	ctx.Push(n)
	defer ctx.Pop()

	n.Annotations = a.decorators(ctx, node)
	a.walkDecorators(ctx, node)
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParams = a.typeParams(ctx, tp)
	}
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for _, arg := range namedChildren(supers) {
			if arg.Kind() == "comment" {
				continue
			}
			n.Extends = append(n.Extends, compactSpace(ctx.Text(arg)))
		}
		a.engine.WalkCode(ctx, supers)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		n.HasBody = true
		a.engine.WalkChildren(ctx, body)
	}
	return true
}

func (a *PythonAdapter) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.Text(node.ChildByFieldName("name"))
	if ctx.InCode() {
		ctx.Bind(name)
		a.walkDecorators(ctx, node)
		a.walkExcept(ctx, node, "name")
		return true
	}

	n := ctx.NewNode(NodeFunction, name, node)
	ctx.Attach(n)
	ctx.Push(n)
	defer ctx.Pop()

	if childOfKind(node, "async") != nil {
		n.Modifiers = append(n.Modifiers, "async")
	}
	n.Annotations = a.decorators(ctx, node)
	a.walkDecorators(ctx, node)
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		n.TypeParams = a.typeParams(ctx, tp)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		n.Params = a.params(ctx, params)
		a.engine.Walk(ctx, params)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		n.Result = compactSpace(ctx.Text(ret))
		a.engine.Walk(ctx, ret)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		n.HasBody = true
		a.engine.WalkCode(ctx, body)
	}
	return true
}

// extractDecorated defers to the wrapped definition, which reads its
// decorators through the parent node.
func (a *PythonAdapter) extractDecorated(ctx *ExtractionContext, node *sitter.Node) bool {
	a.engine.Walk(ctx, node.ChildByFieldName("definition"))
	return true
}

func (a *PythonAdapter) decoratorNodes(node *sitter.Node) []*sitter.Node {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}
	var out []*sitter.Node
	for _, child := range namedChildren(parent) {
		if child.Kind() == "decorator" {
			out = append(out, child)
		}
	}
	return out
}

func (a *PythonAdapter) decorators(ctx *ExtractionContext, node *sitter.Node) []model.Annotation {
	var out []model.Annotation
	for _, dec := range a.decoratorNodes(node) {
		expr := dec.NamedChild(0)
		if expr == nil {
			continue
		}
		ann := model.Annotation{Name: compactSpace(ctx.Text(expr))}
		if expr.Kind() == "call" {
			ann.Name = compactSpace(ctx.Text(expr.ChildByFieldName("function")))
			ann.Args = compactSpace(ctx.Text(expr.ChildByFieldName("arguments")))
		}
		out = append(out, ann)
	}
	return out
}

func (a *PythonAdapter) walkDecorators(ctx *ExtractionContext, node *sitter.Node) {
	for _, dec := range a.decoratorNodes(node) {
		a.engine.WalkCode(ctx, dec)
	}
}

// extractStatement treats a bare string statement as a docstring and turns
// class or module level assignments into field declarations.
func (a *PythonAdapter) extractStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	named := namedChildren(node)
	if len(named) == 1 && named[0].Kind() == "string" && childOfKind(named[0], "interpolation") == nil {
		recordDocumentation(ctx, named[0])
		return true
	}
	if ctx.InCode() || len(named) != 1 || named[0].Kind() != "assignment" {
		return false
	}

	assign := named[0]
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		// Tuple targets and attribute stores stay plain code at file scope.
		a.engine.WalkCode(ctx, assign)
		return true
	}

	n := ctx.NewNode(NodeAssignment, ctx.Text(left), assign)
	ctx.Attach(n)
	ctx.Push(n)
	defer ctx.Pop()

	if typ := assign.ChildByFieldName("type"); typ != nil {
		n.Result = compactSpace(ctx.Text(typ))
		a.engine.Walk(ctx, typ)
	}
	if right := assign.ChildByFieldName("right"); right != nil {
		n.Value = compactSpace(ctx.Text(right))
		a.engine.WalkCode(ctx, right)
	}
	return true
}

// assignment handles assignments inside code: plain identifier targets bind.
func (a *PythonAdapter) assignment(ctx *ExtractionContext, node *sitter.Node) bool {
	a.bindPattern(ctx, node.ChildByFieldName("left"))
	a.engine.Walk(ctx, node.ChildByFieldName("type"))
	a.engine.Walk(ctx, node.ChildByFieldName("right"))
	return true
}

func (a *PythonAdapter) extractComment(ctx *ExtractionContext, node *sitter.Node) bool {
	recordDocumentation(ctx, node)
	return true
}

func (a *PythonAdapter) valueReference(ctx *ExtractionContext, node *sitter.Node) bool {
	text := ctx.Text(node)
	ctx.Reference(text, text, model.RoleValue, node)
	return true
}

func (a *PythonAdapter) attributeReference(ctx *ExtractionContext, node *sitter.Node) bool {
	if parts, ok := a.dottedParts(ctx, node); ok {
		ctx.Reference(parts[0], strings.Join(parts, "."), model.RoleValue, node)
		return true
	}
	a.engine.Walk(ctx, node.ChildByFieldName("object"))
	return true
}

func (a *PythonAdapter) call(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn != nil && fn.Kind() == "identifier" {
		text := ctx.Text(fn)
		ctx.Reference(text, text, model.RoleCall, fn)
	} else {
		a.engine.Walk(ctx, fn)
	}
	a.engine.Walk(ctx, node.ChildByFieldName("arguments"))
	return true
}

func (a *PythonAdapter) keywordArgument(ctx *ExtractionContext, node *sitter.Node) bool {
	a.engine.Walk(ctx, node.ChildByFieldName("value"))
	return true
}

func (a *PythonAdapter) loop(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if node.FieldNameForChild(uint32(i)) == "left" {
			a.bindPattern(ctx, child)
			continue
		}
		a.engine.Walk(ctx, child)
	}
	return true
}

func (a *PythonAdapter) asPattern(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if node.FieldNameForChild(uint32(i)) == "alias" {
			a.bindPattern(ctx, child)
			continue
		}
		a.engine.Walk(ctx, child)
	}
	return true
}

func (a *PythonAdapter) namedExpression(ctx *ExtractionContext, node *sitter.Node) bool {
	ctx.Bind(ctx.Text(node.ChildByFieldName("name")))
	a.engine.Walk(ctx, node.ChildByFieldName("value"))
	return true
}

func (a *PythonAdapter) exceptClause(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if node.FieldNameForChild(uint32(i)) == "alias" {
			a.bindPattern(ctx, child)
			continue
		}
		a.engine.Walk(ctx, child)
	}
	return true
}

func (a *PythonAdapter) lambda(ctx *ExtractionContext, node *sitter.Node) bool {
	a.engine.Walk(ctx, node.ChildByFieldName("parameters"))
	a.engine.Walk(ctx, node.ChildByFieldName("body"))
	return true
}

// parameters binds every parameter name and walks annotations and defaults.
func (a *PythonAdapter) parameters(ctx *ExtractionContext, node *sitter.Node) bool {
	for _, p := range namedChildren(node) {
		switch p.Kind() {
		case "identifier":
			ctx.Bind(ctx.Text(p))
		case "list_splat_pattern", "dictionary_splat_pattern":
			a.bindPattern(ctx, p)
		case "typed_parameter":
			for _, child := range namedChildren(p) {
				if child.Kind() == "type" {
					a.engine.Walk(ctx, child)
					continue
				}
				a.bindPattern(ctx, child)
			}
		case "default_parameter", "typed_default_parameter":
			a.bindPattern(ctx, p.ChildByFieldName("name"))
			a.engine.Walk(ctx, p.ChildByFieldName("type"))
			a.engine.WalkCode(ctx, p.ChildByFieldName("value"))
		case "comment":
			a.engine.Walk(ctx, p)
		}
	}
	return true
}

func (a *PythonAdapter) skip(ctx *ExtractionContext, node *sitter.Node) bool {
	return true
}

// bindPattern binds identifiers of an assignment target; attribute and
// subscript targets are reads of their base object.
func (a *PythonAdapter) bindPattern(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		ctx.Bind(ctx.Text(node))
	case "attribute", "subscript":
		a.engine.Walk(ctx, node)
	default:
		for _, child := range namedChildren(node) {
			a.bindPattern(ctx, child)
		}
	}
}

func (a *PythonAdapter) walkExcept(ctx *ExtractionContext, node *sitter.Node, skipField string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == skipField {
			continue
		}
		a.engine.Walk(ctx, node.Child(i))
	}
}

func (a *PythonAdapter) params(ctx *ExtractionContext, node *sitter.Node) []model.Param {
	var out []model.Param
	for _, p := range namedChildren(node) {
		switch p.Kind() {
		case "identifier":
			out = append(out, model.Param{Name: ctx.Text(p)})
		case "list_splat_pattern":
			out = append(out, model.Param{Name: ctx.Text(p), Variadic: true})
		case "dictionary_splat_pattern":
			out = append(out, model.Param{Name: ctx.Text(p)})
		case "typed_parameter":
			param := model.Param{Type: compactSpace(ctx.Text(p.ChildByFieldName("type")))}
			for _, child := range namedChildren(p) {
				if child.Kind() != "type" {
					param.Name = ctx.Text(child)
					param.Variadic = child.Kind() == "list_splat_pattern"
					break
				}
			}
			out = append(out, param)
		case "default_parameter", "typed_default_parameter":
			out = append(out, model.Param{
				Name:    ctx.Text(p.ChildByFieldName("name")),
				Type:    compactSpace(ctx.Text(p.ChildByFieldName("type"))),
				Default: compactSpace(ctx.Text(p.ChildByFieldName("value"))),
			})
		case "keyword_separator":
			out = append(out, model.Param{Name: "*"})
		case "positional_separator":
			out = append(out, model.Param{Name: "/"})
		}
	}
	return out
}

func (a *PythonAdapter) typeParams(ctx *ExtractionContext, node *sitter.Node) []model.TypeParam {
	var out []model.TypeParam
	for _, child := range namedChildren(node) {
		if child.Kind() == "comment" {
			continue
		}
		out = append(out, model.TypeParam{Name: compactSpace(ctx.Text(child))})
	}
	return out
}

func (a *PythonAdapter) dottedParts(ctx *ExtractionContext, node *sitter.Node) ([]string, bool) {
	if node == nil {
		return nil, false
	}
	switch node.Kind() {
	case "identifier":
		return []string{ctx.Text(node)}, true
	case "attribute":
		object, ok := a.dottedParts(ctx, node.ChildByFieldName("object"))
		if !ok {
			return nil, false
		}
		return append(object, ctx.Text(node.ChildByFieldName("attribute"))), true
	}
	return nil, false
}
