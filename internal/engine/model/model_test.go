package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinVisibility(t *testing.T) {
	tests := []struct {
		in   string
		want Visibility
	}{
		{"public", VisibilityPublic},
		{"public+protected", VisibilityProtected},
		{"protected", VisibilityProtected},
		{"public+protected+package", VisibilityPackage},
		{"all", VisibilityPrivate},
		{" ALL ", VisibilityPrivate},
	}
	for _, tt := range tests {
		got, err := ParseMinVisibility(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMinVisibility("friends")
	assert.Error(t, err)
}

func TestParseDetailLevel(t *testing.T) {
	got, err := ParseDetailLevel("signatures-only")
	require.NoError(t, err)
	assert.Equal(t, DetailSignatures, got)

	got, err = ParseDetailLevel("signatures+fields")
	require.NoError(t, err)
	assert.Equal(t, DetailSignaturesFields, got)

	got, err = ParseDetailLevel("full-minus-bodies")
	require.NoError(t, err)
	assert.Equal(t, DetailFullMinusBodies, got)

	_, err = ParseDetailLevel("everything")
	assert.Error(t, err)
}

func TestVisibilityOrdering(t *testing.T) {
	assert.Less(t, VisibilityPrivate, VisibilityPackage)
	assert.Less(t, VisibilityPackage, VisibilityProtected)
	assert.Less(t, VisibilityProtected, VisibilityPublic)
	assert.Equal(t, "protected", VisibilityProtected.String())
}

func TestDeclarationTree(t *testing.T) {
	outer := &Declaration{Kind: KindClass, Name: "Outer"}
	inner := &Declaration{Kind: KindClass, Name: "Inner"}
	method := &Declaration{Kind: KindFunction, Name: "run"}
	outer.AddChild(inner)
	inner.AddChild(method)
	outer.AddChild(&Declaration{Kind: KindField, Name: "count"})

	assert.Same(t, inner, method.Parent())
	assert.Equal(t, "Outer.Inner.run", method.QualifiedName())
	assert.True(t, outer.HasMember("count"))
	assert.False(t, outer.HasMember("Inner"))

	var names []string
	outer.Walk(func(d *Declaration) bool {
		names = append(names, d.Name)
		return true
	})
	assert.Equal(t, []string{"Outer", "Inner", "run", "count"}, names)

	assert.True(t, method.Attached())
	inner.Detach()
	assert.False(t, method.Attached())
	assert.True(t, outer.Attached())
}

func TestLocals(t *testing.T) {
	fn := &Declaration{Kind: KindFunction, Name: "f"}
	fn.AddLocal("")
	fn.AddLocal("list")
	assert.True(t, fn.HasLocal("list"))
	assert.False(t, fn.HasLocal("map"))
	assert.Equal(t, []string{"list"}, fn.Locals())
}

func TestImportEntry(t *testing.T) {
	imp := &ImportEntry{Path: "com.example.User.Address", Binding: "Address", Nested: []string{"User", "Address"}}
	assert.True(t, imp.IsNested())
	assert.Equal(t, "User.Address", imp.NestedPath())
	assert.Equal(t, "com.example.User", imp.Container())

	wild := &ImportEntry{Path: "java.lang.Math", Static: true, Wildcard: true}
	assert.Equal(t, "java.lang.Math", wild.Container())
	assert.Equal(t, "static java.lang.Math.*", wild.String())

	wild.MarkUsed()
	wild.MarkUsed()
	assert.True(t, wild.Used)
}

func TestTokenLiveness(t *testing.T) {
	cls := &Declaration{Kind: KindClass, Name: "A"}
	m := &Declaration{Kind: KindFunction, Name: "m"}
	cls.AddChild(m)

	assert.True(t, ReferenceToken{Name: "List"}.Live())
	tok := ReferenceToken{Name: "List", Owner: m}
	assert.True(t, tok.Live())
	m.Detach()
	assert.False(t, tok.Live())
}

func TestPruneKeepsNamesDeclared(t *testing.T) {
	svc := &Declaration{Kind: KindClass, Name: "Svc"}
	logField := &Declaration{Kind: KindField, Name: "LOG"}
	cache := &Declaration{Kind: KindClass, Name: "Cache"}
	run := &Declaration{Kind: KindFunction, Name: "run"}
	svc.AddChild(logField)
	svc.AddChild(cache)
	svc.AddChild(run)
	helper := &Declaration{Kind: KindClass, Name: "Helper"}
	unit := &SourceUnit{Declarations: []*Declaration{svc, helper}}

	removed := unit.Prune(func(d *Declaration) bool { return d.Name == "Helper" })
	require.Len(t, removed, 1)
	removed = svc.Prune(func(d *Declaration) bool { return d.Name != "run" })
	require.Len(t, removed, 2)

	assert.Equal(t, []*Declaration{svc}, unit.Declarations)
	assert.Equal(t, []*Declaration{run}, svc.Children)
	assert.False(t, logField.Attached())
	assert.False(t, helper.Attached())
	assert.True(t, run.Attached())

	assert.True(t, svc.HasMember("LOG"))
	assert.True(t, unit.DeclaresType("Cache"))
	assert.True(t, unit.DeclaresType("Helper"))
	assert.True(t, unit.DeclaresTopLevel("Helper"))
	assert.False(t, unit.DeclaresTopLevel("Cache"))
	assert.False(t, unit.DeclaresType("Missing"))
}

func TestCollector(t *testing.T) {
	c := NewCollector("A.java")
	c.Report(SeverityWarning, DiagAmbiguousReference, Location{Line: 3, Column: 5}, "List", "ambiguous %s", "List")
	c.Add(Diagnostic{Severity: SeverityInfo, Code: DiagDocumentationOnlyImport, Line: 1})

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, "A.java", diags[0].File)
	assert.Equal(t, "ambiguous List", diags[0].Message)
	assert.Equal(t, 1, c.Count(DiagAmbiguousReference))

	SortDiagnostics(diags)
	assert.Equal(t, DiagDocumentationOnlyImport, diags[0].Code)
	assert.Contains(t, diags[1].String(), "A.java:3:5 warning [AMBIGUOUS_REFERENCE]")
}
