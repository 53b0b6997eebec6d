package builder

import (
	"distiller/internal/engine/model"
	"distiller/internal/engine/parser"
	"strings"
)

// Conventions captures what a language leaves implicit: default visibility,
// which modifiers are qualifiers and which simple name an import binds.
type Conventions interface {
	Modifiers(raw *parser.RawNode, parent *model.Declaration) model.Modifiers
	Binding(imp parser.RawImport) (binding string, nested []string)
	Pinned(imp parser.RawImport) bool
}

var javaVisibilityKeywords = map[string]model.Visibility{
	"public":    model.VisibilityPublic,
	"protected": model.VisibilityProtected,
	"private":   model.VisibilityPrivate,
}

type javaConventions struct{}

func (javaConventions) Modifiers(raw *parser.RawNode, parent *model.Declaration) model.Modifiers {
	var mods model.Modifiers
	for _, kw := range raw.Modifiers {
		if vis, ok := javaVisibilityKeywords[kw]; ok {
			mods.Visibility = vis
			mods.Explicit = true
			continue
		}
		mods.Qualifiers = append(mods.Qualifiers, kw)
	}
	if !mods.Explicit {
		mods.Visibility = javaDefaultVisibility(raw, parent)
	}
	return mods
}

func javaDefaultVisibility(raw *parser.RawNode, parent *model.Declaration) model.Visibility {
	if raw.Kind == parser.NodeEnumConstant {
		return model.VisibilityPublic
	}
	if parent == nil {
		return model.VisibilityPackage
	}
	switch parent.Kind {
	case model.KindInterface, model.KindAnnotationType:
		return model.VisibilityPublic
	case model.KindEnum:
		if raw.Kind == parser.NodeConstructor {
			return model.VisibilityPrivate
		}
	}
	return model.VisibilityPackage
}

// Binding: a single-type import binds its last segment; a nested-type import
// additionally records the type chain below the package, found by the first
// capitalized segment.
func (javaConventions) Binding(imp parser.RawImport) (string, []string) {
	if imp.Wildcard {
		return "", nil
	}
	segments := strings.Split(imp.Path, ".")
	binding := segments[len(segments)-1]
	if imp.Static {
		return binding, nil
	}
	for i, seg := range segments {
		if isCapitalized(seg) {
			return binding, append([]string(nil), segments[i:]...)
		}
	}
	return binding, []string{binding}
}

func (javaConventions) Pinned(parser.RawImport) bool {
	return false
}

// pythonDecoratorQualifiers maps well-known decorators onto qualifiers.
var pythonDecoratorQualifiers = map[string]string{
	"staticmethod":        "static",
	"classmethod":         "classmethod",
	"abstractmethod":      "abstract",
	"abc.abstractmethod":  "abstract",
	"property":            "property",
	"functools.cache":     "cached",
	"functools.lru_cache": "cached",
	"override":            "override",
	"typing.override":     "override",
}

type pythonConventions struct{}

func (pythonConventions) Modifiers(raw *parser.RawNode, _ *model.Declaration) model.Modifiers {
	mods := model.Modifiers{Visibility: pythonVisibility(raw.Name)}
	mods.Qualifiers = append(mods.Qualifiers, raw.Modifiers...)
	for _, ann := range raw.Annotations {
		if q, ok := pythonDecoratorQualifiers[ann.Name]; ok {
			mods.Qualifiers = append(mods.Qualifiers, q)
		}
	}
	return mods
}

// pythonVisibility follows the naming convention: a leading underscore marks
// a private name, except for dunder names.
func pythonVisibility(name string) model.Visibility {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4 {
		return model.VisibilityPublic
	}
	if strings.HasPrefix(name, "_") {
		return model.VisibilityPrivate
	}
	return model.VisibilityPublic
}

// Binding: `import a.b` binds a, an alias binds itself and `from m import x`
// binds x.
func (pythonConventions) Binding(imp parser.RawImport) (string, []string) {
	if imp.Wildcard {
		return "", nil
	}
	if imp.Alias != "" {
		return imp.Alias, nil
	}
	if imp.From != "" {
		segments := strings.Split(imp.Path, ".")
		return segments[len(segments)-1], nil
	}
	if idx := strings.IndexByte(imp.Path, '.'); idx >= 0 {
		return imp.Path[:idx], nil
	}
	return imp.Path, nil
}

func (pythonConventions) Pinned(imp parser.RawImport) bool {
	return imp.From == "__future__"
}

func isCapitalized(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
