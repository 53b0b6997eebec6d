// # internal/engine/parser/parser.go
package parser

import (
	"context"
	"distiller/internal/core/errors"
	"distiller/internal/shared/util"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Adapter converts one language's source text into a RawTree. Implementations
// must report malformed input as a SYNTAX_ERROR DomainError.
type Adapter interface {
	Language() string
	Parse(ctx context.Context, path string, source []byte) (*RawTree, error)
}

// Parser is the adapter registry keyed by language id, plus extension based
// language detection.
type Parser struct {
	loader     *GrammarLoader
	adapters   map[string]Adapter
	extensions map[string]string
	filenames  map[string]string
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		adapters:   make(map[string]Adapter),
		extensions: make(map[string]string),
		filenames:  make(map[string]string),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
		for _, name := range spec.Filenames {
			p.filenames[strings.ToLower(path.Base(name))] = lang
		}
	}
	return p
}

func (p *Parser) Register(lang string, a Adapter) {
	p.adapters[lang] = a
}

// RegisterDefaultAdapters registers the built-in adapter for every enabled
// language of the loader.
func (p *Parser) RegisterDefaultAdapters() error {
	for _, lang := range util.SortedStringKeys(p.loader.LanguageRegistry()) {
		pool, ok := p.loader.Pool(lang)
		if !ok {
			continue
		}
		switch lang {
		case "java":
			p.Register(lang, NewJavaAdapter(pool))
		case "python":
			p.Register(lang, NewPythonAdapter(pool))
		default:
			return errors.New(errors.CodeUnsupportedLanguage, fmt.Sprintf("no default adapter for enabled language: %s", lang))
		}
	}
	return nil
}

func (p *Parser) Lookup(lang string) (Adapter, error) {
	a, ok := p.adapters[lang]
	if !ok {
		return nil, errors.UnsupportedLanguage("", lang)
	}
	return a, nil
}

// Parse runs the adapter for language, detecting it from the path when empty.
func (p *Parser) Parse(ctx context.Context, filePath, language string, content []byte) (*RawTree, error) {
	if language == "" {
		language = p.DetectLanguage(filePath)
	}
	if language == "" {
		return nil, errors.UnsupportedLanguage(filePath, strings.TrimPrefix(filepath.Ext(filePath), "."))
	}
	adapter, err := p.Lookup(language)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, filePath)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeAborted, "parse cancelled")
	}
	return adapter.Parse(ctx, filePath, content)
}

func (p *Parser) DetectLanguage(filePath string) string {
	base := strings.ToLower(filepath.Base(filePath))
	if lang, ok := p.filenames[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	if lang, ok := p.extensions[ext]; ok {
		return lang
	}
	return ""
}

func (p *Parser) IsSupportedPath(filePath string) bool {
	return p.DetectLanguage(filePath) != ""
}

func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(p.extensions)
}

// parseTree parses source with pool and converts a tree with syntax errors
// into a SYNTAX_ERROR positioned at the first ERROR or MISSING node.
func parseTree(pool *ParserPool, filePath string, source []byte) (*sitter.Tree, error) {
	tree := pool.Parse(source)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	root := tree.RootNode()
	if root.HasError() {
		defer tree.Close()
		bad := firstErrorNode(root)
		if bad == nil {
			bad = root
		}
		line := int(bad.StartPosition().Row) + 1
		col := int(bad.StartPosition().Column) + 1
		msg := "syntax error"
		if bad.IsMissing() {
			msg = fmt.Sprintf("missing %s", bad.Kind())
		} else if text := strings.TrimSpace(bad.Utf8Text(source)); text != "" {
			msg = fmt.Sprintf("unexpected %q", truncate(firstLine(text), 40))
		}
		return nil, errors.SyntaxError(filePath, line, col, msg)
	}
	return tree, nil
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
