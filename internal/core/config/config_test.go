// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"distiller/internal/core/errors"
	"distiller/internal/engine/model"
	"distiller/internal/engine/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1

[distill]
min_visibility = "Public+Protected"
detail_level = "signatures+fields"
wildcard_strategy = "all"
include_imports = false
catalog_file = "catalog.toml"

[batch]
workers = 4

[exclude]
dirs = ["vendor"]
files = ["*_generated.java", "**/test_*.py"]

[languages.python]
extensions = [".py"]

[watch]
debounce = "1s"
max_rate = 5.0
burst = 3

[observability]
metrics_address = "127.0.0.1:9464"
service_name = "distiller-ci"

[output]
path = "out"
one_file_per_input = true
frame = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "public+protected", cfg.Distill.MinVisibility)
	assert.Equal(t, "signatures+fields", cfg.Distill.DetailLevel)
	assert.Equal(t, "all", cfg.Distill.WildcardStrategy)
	assert.Equal(t, "catalog.toml", cfg.Distill.CatalogFile)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, []string{"vendor"}, cfg.Exclude.Dirs)
	assert.Len(t, cfg.Exclude.Files, 2)
	assert.Equal(t, []string{".py"}, cfg.Languages["python"].Extensions)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 5.0, cfg.Watch.MaxRate)
	assert.Equal(t, 3, cfg.Watch.Burst)
	assert.Equal(t, "127.0.0.1:9464", cfg.Observability.MetricsAddress)
	assert.Equal(t, "distiller-ci", cfg.Observability.ServiceName)
	assert.True(t, cfg.Output.OneFilePerInput)

	settings, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, Settings{
		MinVisibility:  model.VisibilityProtected,
		Detail:         model.DetailSignaturesFields,
		Strategy:       resolver.WildcardAll,
		IncludeImports: false,
		Frame:          false,
	}, settings)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `version = 1`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "public", cfg.Distill.MinVisibility)
	assert.Equal(t, "signatures", cfg.Distill.DetailLevel)
	assert.Equal(t, "first", cfg.Distill.WildcardStrategy)
	assert.Equal(t, runtime.NumCPU(), cfg.Batch.Workers)
	assert.Contains(t, cfg.Exclude.Dirs, ".git")
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "distiller", cfg.Observability.ServiceName)
	assert.Equal(t, "distiller", cfg.MCP.ServerName)

	settings, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, model.VisibilityPublic, settings.MinVisibility)
	assert.Equal(t, model.DetailSignatures, settings.Detail)
	assert.Equal(t, resolver.WildcardFirst, settings.Strategy)
	assert.True(t, settings.IncludeImports)
	assert.True(t, settings.Frame)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = Load(writeConfig(t, "bad = toml = format"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.Distill.MinVisibility)

	cfg, err = LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "signatures", cfg.Distill.DetailLevel)

	_, err = LoadOrDefault(writeConfig(t, "[distill]\ndetail_level = \"everything\"\n"))
	require.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DISTILLER_DISTILL_MIN_VISIBILITY", "all")
	t.Setenv("DISTILLER_DISTILL_INCLUDE_IMPORTS", "false")
	t.Setenv("DISTILLER_BATCH_WORKERS", "7")
	t.Setenv("DISTILLER_WATCH_DEBOUNCE", "2s")
	t.Setenv("DISTILLER_WATCH_MAX_RATE", "not-a-number")

	cfg, err := Load(writeConfig(t, "[distill]\nmin_visibility = \"public\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.Distill.MinVisibility)
	require.NotNil(t, cfg.Distill.IncludeImports)
	assert.False(t, *cfg.Distill.IncludeImports)
	assert.Equal(t, 7, cfg.Batch.Workers)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 2.0, cfg.Watch.MaxRate, "unparseable override is ignored")
}

func TestLanguageOverrides(t *testing.T) {
	disabled := false
	cfg := Default()
	assert.Nil(t, cfg.LanguageOverrides())

	cfg.Languages = map[string]Language{"java": {Enabled: &disabled}}
	overrides := cfg.LanguageOverrides()
	require.Contains(t, overrides, "java")
	require.NotNil(t, overrides["java"].Enabled)
	assert.False(t, *overrides["java"].Enabled)
}
