package parser

import (
	"distiller/internal/engine/model"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for a language-specific adapter.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the state shared by the handlers of one parse:
// the raw tree under construction, the stack of enclosing raw declarations and
// how deep the walk currently is inside executable code.
type ExtractionContext struct {
	Source            []byte
	Tree              *RawTree
	ProcessedChildren bool // If true, the walker will skip this node's children

	scopes []*RawNode
	code   int
	nextID int
}

func NewExtractionContext(path, language string, source []byte) *ExtractionContext {
	return &ExtractionContext{
		Source: source,
		Tree:   &RawTree{Path: path, Language: language},
	}
}

func (c *ExtractionContext) ResetProcessedChildren() {
	c.ProcessedChildren = false
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	ctx.ResetProcessedChildren()
	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop && !ctx.ProcessedChildren {
		e.WalkChildren(ctx, node)
	}
}

func (e *ExtractorEngine) WalkChildren(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

// WalkCode walks node as executable code: declarations met inside it are
// flattened into the current owner instead of becoming raw nodes.
func (e *ExtractorEngine) WalkCode(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	ctx.code++
	e.Walk(ctx, node)
	ctx.code--
}

func (c *ExtractionContext) InCode() bool {
	return c.code > 0
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Location(node *sitter.Node) model.Location {
	return model.Location{
		File:   c.Tree.Path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

func (c *ExtractionContext) ChildText(node *sitter.Node, kind string) string {
	if child := childOfKind(node, kind); child != nil {
		return c.Text(child)
	}
	return ""
}

// NewNode allocates a raw declaration positioned at node. It is not attached
// anywhere until Attach is called.
func (c *ExtractionContext) NewNode(kind, name string, node *sitter.Node) *RawNode {
	c.nextID++
	return &RawNode{
		ID:       c.nextID,
		Kind:     kind,
		Name:     name,
		Location: c.Location(node),
	}
}

// Attach appends n to the innermost enclosing declaration, or to the file.
func (c *ExtractionContext) Attach(n *RawNode) {
	if owner := c.Owner(); owner != nil {
		owner.Children = append(owner.Children, n)
		return
	}
	c.Tree.Nodes = append(c.Tree.Nodes, n)
}

func (c *ExtractionContext) Push(n *RawNode) {
	c.scopes = append(c.scopes, n)
}

func (c *ExtractionContext) Pop() {
	if len(c.scopes) > 0 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

func (c *ExtractionContext) Owner() *RawNode {
	if len(c.scopes) == 0 {
		return nil
	}
	return c.scopes[len(c.scopes)-1]
}

func (c *ExtractionContext) ownerID() int {
	if owner := c.Owner(); owner != nil {
		return owner.ID
	}
	return 0
}

// Bind records a local binding (parameter, variable, pattern) in the current
// owner, or at file scope.
func (c *ExtractionContext) Bind(name string) {
	if owner := c.Owner(); owner != nil {
		owner.addLocal(name)
		return
	}
	c.Tree.addGlobal(name)
}

func (c *ExtractionContext) Reference(name, path string, role model.ReferenceRole, node *sitter.Node) {
	if name == "" {
		return
	}
	if path == "" {
		path = name
	}
	c.Tree.Tokens = append(c.Tree.Tokens, RawToken{
		Name:     name,
		Path:     path,
		Role:     role,
		Context:  model.ContextCode,
		Owner:    c.ownerID(),
		Location: c.Location(node),
	})
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// childrenByField returns every child stored under field, in order. Some
// grammar fields (declarator, name) repeat.
func childrenByField(node *sitter.Node, field string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			if child := node.Child(i); child != nil {
				out = append(out, child)
			}
		}
	}
	return out
}
