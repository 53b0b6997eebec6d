package resolver

import (
	"distiller/internal/engine/model"
	"strings"
)

// importIndex is the lookup structure built once per resolution pass. Direct
// imports are keyed by the simple name they bind; wildcard imports are kept
// in declaration order for the fallback.
type importIndex struct {
	byBinding map[string][]*model.ImportEntry
	nested    []*model.ImportEntry
	wildcards []*model.ImportEntry
}

func buildIndex(imports []*model.ImportEntry) *importIndex {
	idx := &importIndex{byBinding: make(map[string][]*model.ImportEntry)}
	for _, imp := range imports {
		if imp.Wildcard {
			idx.wildcards = append(idx.wildcards, imp)
			continue
		}
		if imp.Binding != "" {
			idx.byBinding[imp.Binding] = append(idx.byBinding[imp.Binding], imp)
		}
		if imp.IsNested() {
			idx.nested = append(idx.nested, imp)
		}
	}
	return idx
}

// compatible reports whether a token in role may refer to imp.
func compatible(language string, role model.ReferenceRole, imp *model.ImportEntry) bool {
	if language != "java" {
		return true
	}
	switch role {
	case model.RoleType:
		return !imp.Static
	case model.RoleCall:
		return imp.Static
	}
	return true
}

// qualifiedMatches returns the nested-type imports whose qualified form, e.g.
// User.Address, the token path starts with.
func (idx *importIndex) qualifiedMatches(language string, tok model.ReferenceToken) []*model.ImportEntry {
	var out []*model.ImportEntry
	for _, imp := range idx.nested {
		if !compatible(language, tok.Role, imp) {
			continue
		}
		if hasPathPrefix(tok.Path, imp.NestedPath()) {
			out = append(out, imp)
		}
	}
	return out
}

// direct returns the direct imports binding the token's leftmost name. A
// nested-type import reached by its bare inner name is shadowed by a
// non-nested import of the same name.
func (idx *importIndex) direct(language string, tok model.ReferenceToken) []*model.ImportEntry {
	var plain, nested []*model.ImportEntry
	for _, imp := range idx.byBinding[tok.Name] {
		if !compatible(language, tok.Role, imp) {
			continue
		}
		if imp.IsNested() {
			nested = append(nested, imp)
			continue
		}
		plain = append(plain, imp)
	}
	if len(plain) > 0 {
		return plain
	}
	return nested
}

// narrowByPath keeps the candidates whose reference form is the longest
// prefix of the token path. `import os` and `import os.path` both bind os;
// os.path.join selects the latter, os.getcwd the former.
func narrowByPath(candidates []*model.ImportEntry, tok model.ReferenceToken) []*model.ImportEntry {
	best := -1
	var out []*model.ImportEntry
	for _, imp := range candidates {
		form := referenceForm(imp)
		if !hasPathPrefix(tok.Path, form) {
			continue
		}
		switch n := len(form); {
		case n > best:
			best = n
			out = []*model.ImportEntry{imp}
		case n == best:
			out = append(out, imp)
		}
	}
	if len(out) == 0 {
		return candidates
	}
	return out
}

// referenceForm is how code spells the import: the module path for a plain
// `import a.b`, the bound name otherwise.
func referenceForm(imp *model.ImportEntry) string {
	if imp.Alias == "" && imp.From == "" && !imp.Static && strings.HasPrefix(imp.Path, imp.Binding+".") {
		return imp.Path
	}
	return imp.Binding
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+".")
}
