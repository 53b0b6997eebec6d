package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pom.xml"), []byte("<project/>"), 0o644))
	nested := filepath.Join(root, "src", "main", "java")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := DetectProjectRoot([]string{nested})
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), got)

	file := filepath.Join(nested, "App.java")
	require.NoError(t, os.WriteFile(file, []byte("class App {}"), 0o644))
	got, err = DetectProjectRoot([]string{"", file})
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), got)
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	assert.Empty(t, FindConfigFile(nested))

	cfgPath := filepath.Join(root, DefaultFileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("version = 1\n"), 0o644))
	assert.Equal(t, cfgPath, FindConfigFile(nested))
}

func TestResolvePaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyproject.toml"), nil, 0o644))
	confDir := filepath.Join(root, "conf")
	require.NoError(t, os.MkdirAll(confDir, 0o755))

	cfg := Default()
	cfg.Distill.CatalogFile = "catalog.toml"
	cfg.Output.Path = "dist/out.txt"

	resolved, err := ResolvePaths(cfg, root, filepath.Join("conf", DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), resolved.ProjectRoot)
	assert.Equal(t, filepath.Join(confDir, DefaultFileName), resolved.ConfigFile)
	assert.Equal(t, filepath.Join(confDir, "catalog.toml"), resolved.CatalogFile)
	assert.Equal(t, filepath.Join(root, "dist", "out.txt"), resolved.OutputPath)

	resolved, err = ResolvePaths(cfg, root, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "catalog.toml"), resolved.CatalogFile)

	_, err = ResolvePaths(cfg, " ", "")
	assert.Error(t, err)
}

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, filepath.Clean("/base"), ResolveRelative("/base", "  "))
	assert.Equal(t, filepath.Clean("/abs/x"), ResolveRelative("/base", "/abs/x"))
	assert.Equal(t, filepath.Join("/base", "a", "b"), ResolveRelative("/base", "a/./b"))
}
