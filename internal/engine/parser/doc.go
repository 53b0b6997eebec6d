package parser

import (
	"distiller/internal/engine/model"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var (
	// {@link Foo#bar}, {@linkplain Foo}, {@value Foo#X}, @see Foo, @throws Foo
	docTagPattern  = regexp.MustCompile(`(?:\{@(?:link|linkplain|value)\s+|@(?:see|throws|exception)\s+)([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)`)
	docWordPattern = regexp.MustCompile(`[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*`)
)

// DocReference is an identifier-like mention found in comment text.
type DocReference struct {
	Name   string
	Path   string
	Offset int
}

// ScanDocumentation extracts identifier-like mentions from comment or
// docstring text: every doc-tag target plus every qualified or capitalized
// word. Results are de-duplicated by path, keeping the first offset.
func ScanDocumentation(text string) []DocReference {
	seen := make(map[string]bool)
	var out []DocReference
	add := func(path string, offset int) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		name := path
		if idx := strings.IndexByte(path, '.'); idx >= 0 {
			name = path[:idx]
		}
		out = append(out, DocReference{Name: name, Path: path, Offset: offset})
	}

	for _, m := range docTagPattern.FindAllStringSubmatchIndex(text, -1) {
		add(text[m[2]:m[3]], m[2])
	}
	for _, m := range docWordPattern.FindAllStringIndex(text, -1) {
		word := strings.TrimRight(text[m[0]:m[1]], ".")
		if !mentionsType(word) {
			continue
		}
		add(word, m[0])
	}
	return out
}

// mentionsType keeps capitalized words and qualified names with a
// capitalized segment; plain prose words are dropped.
func mentionsType(word string) bool {
	for _, seg := range strings.Split(word, ".") {
		if seg != "" && seg[0] >= 'A' && seg[0] <= 'Z' {
			return true
		}
	}
	return false
}

// recordDocumentation adds documentation tokens for every mention in the
// text of node, positioned at the mention itself.
func recordDocumentation(ctx *ExtractionContext, node *sitter.Node) {
	text := ctx.Text(node)
	start := ctx.Location(node)
	for _, ref := range ScanDocumentation(text) {
		loc := offsetLocation(start, text, ref.Offset)
		ctx.Tree.Tokens = append(ctx.Tree.Tokens, RawToken{
			Name:     ref.Name,
			Path:     ref.Path,
			Role:     model.RoleType,
			Context:  model.ContextDocumentation,
			Owner:    ctx.ownerID(),
			Location: loc,
		})
	}
}

func offsetLocation(start model.Location, text string, offset int) model.Location {
	prefix := text[:offset]
	lines := strings.Count(prefix, "\n")
	if lines == 0 {
		start.Column += offset
		return start
	}
	start.Line += lines
	start.Column = offset - strings.LastIndexByte(prefix, '\n')
	return start
}
