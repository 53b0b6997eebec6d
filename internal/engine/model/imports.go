package model

import "strings"

// ImportEntry is one declared import. Path is the qualified name without any
// trailing wildcard; Binding is the simple name bound in file scope.
type ImportEntry struct {
	Path     string
	Binding  string
	Alias    string
	Static   bool
	Wildcard bool
	// Nested is the type chain below the package for nested-type imports,
	// e.g. [User Address] for com.example.User.Address.
	Nested   []string
	Used     bool
	Order    int
	Location Location
	// From is set for Python `from x import y` forms.
	From string
	// Pinned imports are used regardless of references, e.g. compiler
	// directives such as Python __future__ imports.
	Pinned bool
}

func (i *ImportEntry) HasAlias() bool {
	return i.Alias != ""
}

// MarkUsed sets Used. It never clears the flag.
func (i *ImportEntry) MarkUsed() {
	i.Used = true
}

func (i *ImportEntry) IsNested() bool {
	return len(i.Nested) > 1
}

// NestedPath is the dotted form a reference uses to reach a nested import,
// e.g. "User.Address".
func (i *ImportEntry) NestedPath() string {
	return strings.Join(i.Nested, ".")
}

// Container is the namespace an import draws from: the package for wildcards,
// the path minus its final segment otherwise.
func (i *ImportEntry) Container() string {
	if i.Wildcard {
		return i.Path
	}
	if idx := strings.LastIndex(i.Path, "."); idx >= 0 {
		return i.Path[:idx]
	}
	return ""
}

func (i *ImportEntry) String() string {
	var b strings.Builder
	if i.Static {
		b.WriteString("static ")
	}
	b.WriteString(i.Path)
	if i.Wildcard {
		b.WriteString(".*")
	}
	if i.Alias != "" {
		b.WriteString(" as ")
		b.WriteString(i.Alias)
	}
	return b.String()
}

type ReferenceRole string

const (
	RoleType  ReferenceRole = "type"
	RoleValue ReferenceRole = "value"
	RoleCall  ReferenceRole = "call"
)

type TokenContext string

const (
	ContextCode          TokenContext = "code"
	ContextDocumentation TokenContext = "documentation"
)

// ReferenceToken is one identifier occurrence. Name is the leftmost
// identifier, Path the dotted form as written. Owner is the innermost
// enclosing declaration, or nil at file scope.
type ReferenceToken struct {
	Name     string
	Path     string
	Role     ReferenceRole
	Context  TokenContext
	Owner    *Declaration
	Location Location
}

func (t ReferenceToken) IsCode() bool {
	return t.Context == ContextCode
}

// Live reports whether the token still belongs to code in the forest.
func (t ReferenceToken) Live() bool {
	return t.Owner == nil || t.Owner.Attached()
}
