package emitter

import (
	"context"
	"testing"

	"distiller/internal/core/errors"
	"distiller/internal/engine/builder"
	"distiller/internal/engine/model"
	"distiller/internal/engine/parser"
	"distiller/internal/engine/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedUnit(t *testing.T, path, src string) *model.SourceUnit {
	t.Helper()
	loader, err := parser.NewGrammarLoader(nil)
	require.NoError(t, err)
	p := parser.NewParser(loader)
	require.NoError(t, p.RegisterDefaultAdapters())

	tree, err := p.Parse(context.Background(), path, "", []byte(src))
	require.NoError(t, err)
	unit, err := builder.New().Build(tree)
	require.NoError(t, err)

	catalog, err := resolver.DefaultCatalog()
	require.NoError(t, err)
	resolver.New(catalog, resolver.Options{}).Resolve(unit, nil)
	return unit
}

func emit(t *testing.T, unit *model.SourceUnit, opts Options) string {
	t.Helper()
	out, err := New(opts).Emit(unit)
	require.NoError(t, err)
	return out
}

const serviceJava = `package com.acme;

import java.util.List;
import java.util.Map;
import java.util.Set;

public class Service<T extends Comparable<T>> extends Base implements Runnable {
    private static final int LIMIT = 10;

    @Override
    public void run() {
        System.out.println("x");
    }

    protected <R> List<R> map(@Deprecated Map<String, R> in, String... keys) throws Exception {
        return null;
    }

    Service() { }
}
`

func TestEmit_JavaSignatures(t *testing.T) {
	unit := resolvedUnit(t, "Service.java", serviceJava)
	got := emit(t, unit, Options{Detail: model.DetailSignatures, IncludeImports: true})

	want := `package com.acme;

import java.util.List;
import java.util.Map;

public class Service<T extends Comparable<T>> extends Base implements Runnable {
    public void run();
    protected <R> List<R> map(Map<String, R> in, String... keys) throws Exception;
    Service();
}
`
	assert.Equal(t, want, got)
}

func TestEmit_JavaSignaturesAndFields(t *testing.T) {
	unit := resolvedUnit(t, "Service.java", serviceJava)
	got := emit(t, unit, Options{Detail: model.DetailSignaturesFields})

	want := `package com.acme;

public class Service<T extends Comparable<T>> extends Base implements Runnable {
    private static final int LIMIT;
    @Override
    public void run();
    protected <R> List<R> map(@Deprecated Map<String, R> in, String... keys) throws Exception;
    Service();
}
`
	assert.Equal(t, want, got)
}

func TestEmit_JavaFullMinusBodies(t *testing.T) {
	unit := resolvedUnit(t, "Service.java", serviceJava)
	got := emit(t, unit, Options{Detail: model.DetailFullMinusBodies, IncludeImports: true})

	want := `package com.acme;

import java.util.List;
import java.util.Map;

public class Service<T extends Comparable<T>> extends Base implements Runnable {
    private static final int LIMIT = 10;
    @Override
    public void run() { ... }
    protected <R> List<R> map(@Deprecated Map<String, R> in, String... keys) throws Exception { ... }
    Service() { ... }
}
`
	assert.Equal(t, want, got)
}

const shapesJava = `public enum Color implements Named {
    RED("r"),
    GREEN("g") {
        public String label() { return "G"; }
    };

    private final String code;

    Color(String code) { this.code = code; }
}

record Point(int x, int y) {
    public Point { }
}

@interface Marker {
    String value() default "x";
    int count();
}
`

func TestEmit_JavaEnumRecordAnnotation(t *testing.T) {
	unit := resolvedUnit(t, "Color.java", shapesJava)

	full := `public enum Color implements Named {
    RED("r"),
    GREEN("g") { ... };
    private final String code;
    Color(String code) { ... }
}

record Point(int x, int y) {
    public Point { ... }
}

@interface Marker {
    String value() default "x";
    int count();
}
`
	assert.Equal(t, full, emit(t, unit, Options{Detail: model.DetailFullMinusBodies}))

	signatures := `public enum Color implements Named {
    RED,
    GREEN;
    Color(String code);
}

record Point(int x, int y) {
    public Point { ... }
}

@interface Marker {
    String value();
    int count();
}
`
	assert.Equal(t, signatures, emit(t, unit, Options{Detail: model.DetailSignatures}))
}

func TestEmit_JavaCompactConstructor(t *testing.T) {
	unit := resolvedUnit(t, "Range.java", `
public record Range(int lo, int hi) {
    public Range {
        if (lo > hi) throw new IllegalArgumentException();
    }

    public int size() { return hi - lo; }
}
`)
	want := `public record Range(int lo, int hi) {
    public Range { ... }
    public int size();
}
`
	assert.Equal(t, want, emit(t, unit, Options{Detail: model.DetailSignatures}))
	assert.Equal(t, want, emit(t, unit, Options{Detail: model.DetailSignaturesFields}))
}

const repoPython = `import os
import json as j
import sys
from typing import List, Optional
from . import helpers

T = 5

class Repo(Base):
    limit: int = 3

    @property
    def name(self) -> str:
        return os.name

    async def fetch(self, key: str, retries=2, *args, **kwargs) -> Optional[List[str]]:
        return j.loads(helpers.get(key))
`

func TestEmit_PythonSignatures(t *testing.T) {
	unit := resolvedUnit(t, "repo.py", repoPython)
	got := emit(t, unit, Options{Detail: model.DetailSignatures, IncludeImports: true})

	want := `import os
import json as j
from typing import List, Optional
from . import helpers

class Repo(Base):
    def name(self) -> str
    async def fetch(self, key: str, retries=2, *args, **kwargs) -> Optional[List[str]]
`
	assert.Equal(t, want, got)
}

func TestEmit_PythonFullMinusBodies(t *testing.T) {
	unit := resolvedUnit(t, "repo.py", repoPython)
	got := emit(t, unit, Options{Detail: model.DetailFullMinusBodies})

	want := `T = 5

class Repo(Base):
    limit: int = 3
    @property
    def name(self) -> str: ...
    async def fetch(self, key: str, retries=2, *args, **kwargs) -> Optional[List[str]]: ...
`
	assert.Equal(t, want, got)
}

func TestEmit_PythonEmptyClass(t *testing.T) {
	unit := resolvedUnit(t, "empty.py", "class Empty:\n    x = 1\n")
	got := emit(t, unit, Options{Detail: model.DetailSignatures})
	assert.Equal(t, "class Empty:\n    pass\n", got)
}

func TestEmit_Framing(t *testing.T) {
	unit := resolvedUnit(t, "src/A.java", "class A {}\n")
	got := emit(t, unit, Options{Detail: model.DetailSignatures, Frame: true})
	assert.Equal(t, "<file path=\"src/A.java\">\nclass A {\n}\n</file>\n", got)
}

func TestEmit_Deterministic(t *testing.T) {
	unit := resolvedUnit(t, "Service.java", serviceJava)
	e := New(Options{Detail: model.DetailFullMinusBodies, IncludeImports: true, Frame: true})

	first, err := e.Emit(unit)
	require.NoError(t, err)
	second, err := e.Emit(unit)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmit_UnsupportedLanguage(t *testing.T) {
	_, err := New(Options{}).Emit(&model.SourceUnit{Path: "a.rb", Language: "ruby"})
	assert.True(t, errors.IsCode(err, errors.CodeUnsupportedLanguage))
}
