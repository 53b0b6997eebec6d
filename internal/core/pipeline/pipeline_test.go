package pipeline

import (
	"context"
	"testing"

	"distiller/internal/core/config"
	"distiller/internal/core/errors"
	"distiller/internal/engine/model"
	"distiller/internal/engine/parser"
	"distiller/internal/engine/resolver"
	"distiller/internal/shared/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T) *parser.Parser {
	t.Helper()
	loader, err := parser.NewGrammarLoader(nil)
	require.NoError(t, err)
	p := parser.NewParser(loader)
	require.NoError(t, p.RegisterDefaultAdapters())
	return p
}

func newPipeline(t *testing.T, settings config.Settings) *Pipeline {
	t.Helper()
	catalog, err := resolver.DefaultCatalog()
	require.NoError(t, err)
	return New(newParser(t), catalog, settings)
}

func publicSettings() config.Settings {
	return config.Settings{
		MinVisibility:  model.VisibilityPublic,
		Detail:         model.DetailSignatures,
		Strategy:       resolver.WildcardFirst,
		IncludeImports: true,
		Frame:          true,
	}
}

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

func TestDistillJava(t *testing.T) {
	p := newPipeline(t, publicSettings())

	res := p.Distill(context.Background(), "src/Greeter.java", "", []byte(greeterJava))
	require.NoError(t, res.Err)

	assert.Equal(t, "java", res.Language)
	assert.Equal(t, `<file path="src/Greeter.java">
package demo;

import java.util.List;

public class Greeter {
    public List<String> names();
}
</file>
`, res.Output)
	assert.Equal(t, []string{"java.util.Map"}, res.Removed)
	assert.Equal(t, []string{"java.util.Map"}, res.Orphaned)
	assert.Equal(t, 2, res.Pruned)
	assert.Equal(t, observability.StatusDistilled, res.Status())
}

func TestDistillKeepsEverythingAtAll(t *testing.T) {
	settings := publicSettings()
	settings.MinVisibility = model.VisibilityPrivate
	settings.Frame = false
	p := newPipeline(t, settings)

	res := p.Distill(context.Background(), "Greeter.java", "java", []byte(greeterJava))
	require.NoError(t, res.Err)
	assert.Empty(t, res.Removed)
	assert.Zero(t, res.Pruned)
	assert.Contains(t, res.Output, "import java.util.Map;")
	assert.Contains(t, res.Output, "private void helper();")
}

func TestDistillPythonWithoutImports(t *testing.T) {
	settings := publicSettings()
	settings.IncludeImports = false
	settings.Frame = false
	p := newPipeline(t, settings)

	src := "import os\nimport json\n\n\ndef dump(data):\n    return json.dumps(data)\n"
	res := p.Distill(context.Background(), "tools/dump.py", "", []byte(src))
	require.NoError(t, res.Err)

	assert.Equal(t, []string{"os"}, res.Removed)
	assert.Equal(t, "def dump(data)\n", res.Output)
}

func TestDistillSyntaxError(t *testing.T) {
	p := newPipeline(t, publicSettings())

	res := p.Distill(context.Background(), "Broken.java", "", []byte("class Broken { void f( }"))
	require.Error(t, res.Err)
	assert.True(t, errors.IsCode(res.Err, errors.CodeSyntax))
	assert.Empty(t, res.Output)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, model.DiagSyntaxError, res.Diagnostics[0].Code)
	assert.Equal(t, "Broken.java", res.Diagnostics[0].File)
	assert.Positive(t, res.Diagnostics[0].Line)
	assert.Equal(t, observability.StatusSyntaxError, res.Status())
}

func TestDistillUnsupportedLanguage(t *testing.T) {
	p := newPipeline(t, publicSettings())

	res := p.Distill(context.Background(), "script.rb", "", []byte("puts 1"))
	require.Error(t, res.Err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, model.DiagUnsupportedLanguage, res.Diagnostics[0].Code)
	assert.Equal(t, observability.StatusUnsupported, res.Status())
}

func TestDistillReportsResolverDiagnostics(t *testing.T) {
	p := newPipeline(t, publicSettings())

	src := `import java.awt.List;
import java.util.List;

public class Clash {
    public List names() { return null; }
}
`
	res := p.Distill(context.Background(), "Clash.java", "", []byte(src))
	require.NoError(t, res.Err)
	var ambiguous int
	for _, d := range res.Diagnostics {
		if d.Code == model.DiagAmbiguousReference {
			ambiguous++
		}
	}
	assert.Equal(t, 1, ambiguous)
	assert.Equal(t, []string{"java.awt.List"}, res.Removed)
}

func TestWithSettings(t *testing.T) {
	p := newPipeline(t, publicSettings())
	full := publicSettings()
	full.Detail = model.DetailFullMinusBodies
	full.Frame = false

	q := p.WithSettings(full)
	assert.Equal(t, full, q.Settings())
	assert.Equal(t, publicSettings(), p.Settings())

	res := q.Distill(context.Background(), "Greeter.java", "", []byte(greeterJava))
	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "public List<String> names() { ... }")
}
