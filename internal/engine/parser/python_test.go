package parser

import (
	"context"
	"testing"

	"distiller/internal/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

func parsePython(t *testing.T, src string) *RawTree {
	t.Helper()
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	adapter := NewPythonAdapter(NewParserPool(lang))
	tree, err := adapter.Parse(context.Background(), "mod.py", []byte(src))
	require.NoError(t, err)
	return tree
}

func TestPythonAdapter_Imports(t *testing.T) {
	tree := parsePython(t, `from __future__ import annotations
import os
import os.path as osp
import xml.etree.ElementTree
from typing import List, Optional as Opt
from . import sibling
from .pkg import thing
from collections import *
`)
	require.Len(t, tree.Imports, 9)

	got := make([]RawImport, 0, len(tree.Imports))
	for _, imp := range tree.Imports {
		imp.Location = model.Location{}
		got = append(got, imp)
	}
	assert.Equal(t, []RawImport{
		{Path: "__future__.annotations", From: "__future__"},
		{Path: "os"},
		{Path: "os.path", Alias: "osp"},
		{Path: "xml.etree.ElementTree"},
		{Path: "typing.List", From: "typing"},
		{Path: "typing.Optional", Alias: "Opt", From: "typing"},
		{Path: ".sibling", From: "."},
		{Path: ".pkg.thing", From: ".pkg"},
		{Path: "collections", From: "collections", Wildcard: true},
	}, got)
}

func TestPythonAdapter_Declarations(t *testing.T) {
	tree := parsePython(t, `
LIMIT: int = 10

@dataclass(frozen=True)
class Point(Base, metaclass=Meta):
    """A point."""
    x: float = 0.0

    @staticmethod
    def origin() -> "Point":
        return Point()

    async def move(self, dx: float, *args, scale=1, **kw) -> None:
        pass

def _helper(a, /, b, *, c: int = 2):
    pass
`)
	require.Len(t, tree.Nodes, 3)

	limit := tree.Nodes[0]
	assert.Equal(t, NodeAssignment, limit.Kind)
	assert.Equal(t, "LIMIT", limit.Name)
	assert.Equal(t, "int", limit.Result)
	assert.Equal(t, "10", limit.Value)

	point := tree.Nodes[1]
	assert.Equal(t, NodeClass, point.Kind)
	assert.Equal(t, []model.Annotation{{Name: "dataclass", Args: "(frozen=True)"}}, point.Annotations)
	assert.Equal(t, []string{"Base", "metaclass=Meta"}, point.Extends)
	require.Len(t, point.Children, 3)
	assert.Equal(t, "x", point.Children[0].Name)
	assert.Equal(t, "float", point.Children[0].Result)

	origin := point.Children[1]
	assert.Equal(t, NodeFunction, origin.Kind)
	assert.Equal(t, []model.Annotation{{Name: "staticmethod"}}, origin.Annotations)
	assert.Equal(t, `"Point"`, origin.Result)

	move := point.Children[2]
	assert.Equal(t, []string{"async"}, move.Modifiers)
	assert.Equal(t, []model.Param{
		{Name: "self"},
		{Name: "dx", Type: "float"},
		{Name: "*args", Variadic: true},
		{Name: "scale", Default: "1"},
		{Name: "**kw"},
	}, move.Params)
	for _, name := range []string{"self", "dx", "args", "scale", "kw"} {
		assert.Contains(t, move.Locals, name)
	}

	helper := tree.Nodes[2]
	assert.Equal(t, []model.Param{
		{Name: "a"},
		{Name: "/"},
		{Name: "b"},
		{Name: "*"},
		{Name: "c", Type: "int", Default: "2"},
	}, helper.Params)
}

func TestPythonAdapter_References(t *testing.T) {
	tree := parsePython(t, `
import os

def run(path):
    data = json.loads(read(path))
    for key, value in data.items():
        print(key, os.path.join(value))
    with open(path) as fh:
        pass
    try:
        pass
    except ValueError as err:
        pass
    if (n := len(data)) > 0:
        pass
    return [x for x in data]
`)
	run := tree.Nodes[0]
	for _, name := range []string{"path", "data", "key", "value", "fh", "err", "n", "x"} {
		assert.Contains(t, run.Locals, name)
	}

	byName := map[string]RawToken{}
	for _, tok := range codeTokens(tree) {
		if _, seen := byName[tok.Name]; !seen {
			byName[tok.Name] = tok
		}
	}
	assert.Equal(t, "json.loads", byName["json"].Path)
	assert.Equal(t, model.RoleValue, byName["json"].Role)
	assert.Equal(t, model.RoleCall, byName["read"].Role)
	assert.Equal(t, model.RoleCall, byName["print"].Role)
	assert.Equal(t, "os.path.join", byName["os"].Path)
	assert.Equal(t, model.RoleValue, byName["ValueError"].Role)
	assert.Equal(t, run.ID, byName["os"].Owner)
	assert.NotContains(t, byName, "run")
}

func TestPythonAdapter_ModuleScope(t *testing.T) {
	tree := parsePython(t, `
import logging

for handler in logging.root.handlers:
    pass

logger = logging.getLogger(__name__)
`)
	assert.Contains(t, tree.Globals, "handler")
	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, "logger", tree.Nodes[0].Name)

	var fileScoped int
	for _, tok := range codeTokens(tree) {
		if tok.Name == "logging" && tok.Owner == 0 {
			fileScoped++
		}
	}
	assert.Equal(t, 1, fileScoped)
}

func TestPythonAdapter_Docstrings(t *testing.T) {
	tree := parsePython(t, `
def fetch():
    """Return a Session built by requests.Session."""
    # see HTTPAdapter for retries
    return 1
`)
	paths := map[string]bool{}
	for _, tok := range tree.Tokens {
		if tok.Context == model.ContextDocumentation {
			paths[tok.Path] = true
		}
	}
	assert.True(t, paths["Session"])
	assert.True(t, paths["requests.Session"])
	assert.True(t, paths["HTTPAdapter"])
	assert.Empty(t, codeTokens(tree))
}
