// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

func javaLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_java.Language())
}

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(javaLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Stats() != 1 {
		t.Fatalf("expected one leased parser, got %d", pool.Stats())
	}

	pool.Put(sp)
	if pool.Stats() != 0 {
		t.Fatalf("expected no leased parsers after Put, got %d", pool.Stats())
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(javaLanguage())

	// Must not panic.
	pool.Put(nil)
}

func TestParserPool_ParsesValidJava(t *testing.T) {
	pool := NewParserPool(javaLanguage())

	tree := pool.Parse([]byte("class A { void run() {} }\n"))
	if tree == nil {
		t.Fatal("expected non-nil parse tree for valid Java source")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		t.Fatalf("expected error-free root node")
	}
	if pool.Stats() != 0 {
		t.Fatalf("expected Parse to release its lease, got %d", pool.Stats())
	}
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(javaLanguage())

	const goroutines = 20
	const iters = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	src := []byte("class Run { int x; }\n")

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				tree := pool.Parse(src)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
					continue
				}
				tree.Close()
			}
		}()
	}

	wg.Wait()
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	pool := NewParserPool(javaLanguage())

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp2 := pool.Get()
	defer pool.Put(sp2)

	tree := sp2.Parse([]byte("interface Ok {}\n"), nil)
	if tree == nil {
		t.Fatal("parser should still parse correctly after Get")
	}
	defer tree.Close()
}
