package cliapp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greeterJava = `package demo;

import java.util.List;
import java.util.Map;

public class Greeter {
    private final Map<String, String> cache = null;

    public List<String> names() {
        return null;
    }

    private void helper() {
    }
}
`

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(args, streams{in: strings.NewReader(""), out: &out, err: &errOut})
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

// project lays out a small source tree with a config file and returns its
// root and config path.
func project(t *testing.T, configBody string) (string, string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/demo/Greeter.java": greeterJava,
		"src/demo/Broken.java":  "class Broken { void f( }",
		"scripts/tool.py":       "import os\nimport sys\n\n\ndef main(argv):\n    return sys.exit(argv)\n",
		"README.md":             "# demo\n",
		"build/Generated.java":  "public class Generated {}\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg := filepath.Join(root, "distiller.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("version = 1\n"+configBody), 0o644))
	return root, cfg
}

func TestVersion(t *testing.T) {
	res := run(t, "version")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "distiller "+Version)
}

func TestDistillToStdout(t *testing.T) {
	root, cfg := project(t, "")

	res := run(t, "distill", "--config", cfg, "--quiet", root)
	require.Equal(t, exitOK, res.code, res.stderr)

	assert.Contains(t, res.stdout, `<file path="src/demo/Greeter.java">`)
	assert.Contains(t, res.stdout, "    public List<String> names();\n")
	assert.NotContains(t, res.stdout, "java.util.Map")
	assert.Contains(t, res.stdout, `<file path="scripts/tool.py">`)
	assert.NotContains(t, res.stdout, "import os")

	// Broken input is reported, not emitted; build/ is excluded by default.
	assert.NotContains(t, res.stdout, "Broken")
	assert.NotContains(t, res.stdout, "Generated")
	assert.NotContains(t, res.stdout, "README")
}

func TestDistillSummaryAndDiagnostics(t *testing.T) {
	root, cfg := project(t, "")

	res := run(t, "distill", "--config", cfg, root)
	require.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stderr, "Distillation summary")
	assert.Contains(t, res.stderr, "SYNTAX_ERROR")
	assert.Contains(t, res.stderr, "Broken.java")
}

func TestDistillFlagOverrides(t *testing.T) {
	root, cfg := project(t, "")

	res := run(t, "distill", "--config", cfg, "-q",
		"--min-visibility", "all", "--no-frame", "--no-imports",
		filepath.Join(root, "src", "demo", "Greeter.java"))
	require.Equal(t, exitOK, res.code, res.stderr)

	assert.NotContains(t, res.stdout, "<file")
	assert.NotContains(t, res.stdout, "import ")
	assert.Contains(t, res.stdout, "private void helper();")
}

func TestDistillConfigSettings(t *testing.T) {
	root, cfg := project(t, `
[distill]
detail_level = "full-minus-bodies"

[output]
frame = false
`)

	res := run(t, "distill", "--config", cfg, "-q", filepath.Join(root, "src"))
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "public List<String> names() { ... }")
}

func TestDistillOneFilePerInput(t *testing.T) {
	root, cfg := project(t, "")
	outDir := filepath.Join(t.TempDir(), "out")

	res := run(t, "distill", "--config", cfg, "-q", "-o", outDir, "--one-file-per-input", root)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(filepath.Join(outDir, "src", "demo", "Greeter.java.distilled.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "public class Greeter {")

	_, err = os.Stat(filepath.Join(outDir, "src", "demo", "Broken.java.distilled.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDistillCombinedFile(t *testing.T) {
	root, cfg := project(t, "")
	out := filepath.Join(t.TempDir(), "nested", "all.txt")

	res := run(t, "distill", "--config", cfg, "-q", "-o", out, root)
	require.Equal(t, exitOK, res.code, res.stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.Index(string(data), "scripts/tool.py") < strings.Index(string(data), "src/demo/Greeter.java"),
		"outputs follow input order")
}

func TestExitCodes(t *testing.T) {
	root, cfg := project(t, "")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown flag", []string{"distill", "--nope"}, exitUsage},
		{"mcp takes no args", []string{"mcp", "--config", cfg, "extra"}, exitUsage},
		{"relative-to not a dir", []string{"distill", "--config", cfg, "--relative-to", filepath.Join(root, "README.md"), root}, exitUsage},
		{"bad visibility", []string{"distill", "--config", cfg, "--min-visibility", "secret", root}, exitFailure},
		{"bad workers", []string{"distill", "--config", cfg, "--workers", "0", root}, exitFailure},
		{"per-file without dir", []string{"distill", "--config", cfg, "--one-file-per-input", root}, exitFailure},
		{"missing config", []string{"distill", "--config", filepath.Join(root, "missing.toml"), root}, exitFailure},
		{"missing path", []string{"distill", "--config", cfg, filepath.Join(root, "nowhere")}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.args...)
			assert.Equal(t, tt.code, res.code, res.stderr)
			assert.Contains(t, res.stderr, "error:")
		})
	}
}

func TestInvalidConfigFileIsFatal(t *testing.T) {
	root, cfg := project(t, "[distill]\nmin_visibility = \"internal\"\n")

	res := run(t, "distill", "--config", cfg, root)
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "VALIDATION_ERROR")
	assert.Empty(t, res.stdout)
}
