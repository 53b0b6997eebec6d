// Package pipeline runs source files through parse, build, resolve, filter
// and emit, one file at a time or as a bounded parallel batch.
package pipeline

import (
	"context"
	"distiller/internal/core/config"
	"distiller/internal/core/errors"
	"distiller/internal/engine/builder"
	"distiller/internal/engine/emitter"
	"distiller/internal/engine/model"
	"distiller/internal/engine/parser"
	"distiller/internal/engine/resolver"
	"distiller/internal/engine/visibility"
	"distiller/internal/shared/observability"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result is the outcome of distilling one file. Output is empty when Err is
// set.
type Result struct {
	Path     string
	Language string
	Output   string
	// Removed lists imports dropped from the output, in declaration order.
	Removed []string
	// Orphaned is the subset of Removed that only pruned declarations used.
	Orphaned    []string
	Pruned      int
	Diagnostics []model.Diagnostic
	Err         error
	Duration    time.Duration
}

func (r *Result) OK() bool {
	return r.Err == nil
}

// Status is the files_total label for r.
func (r *Result) Status() string {
	switch {
	case r.Err == nil:
		return observability.StatusDistilled
	case errors.IsCode(r.Err, errors.CodeSyntax):
		return observability.StatusSyntaxError
	case errors.IsCode(r.Err, errors.CodeUnsupportedLanguage):
		return observability.StatusUnsupported
	case errors.IsCode(r.Err, errors.CodeAborted):
		return observability.StatusAborted
	}
	return observability.StatusFailed
}

// Pipeline holds the stateless stages shared by every worker. All of its
// methods are safe for concurrent use.
type Pipeline struct {
	parser   *parser.Parser
	builder  *builder.Builder
	resolver *resolver.Resolver
	filter   *visibility.Filter
	emitter  *emitter.Emitter
	settings config.Settings
}

func New(p *parser.Parser, catalog *resolver.Catalog, settings config.Settings) *Pipeline {
	r := resolver.New(catalog, resolver.Options{Strategy: settings.Strategy})
	return &Pipeline{
		parser:   p,
		builder:  builder.New(),
		resolver: r,
		filter:   visibility.New(settings.MinVisibility, r),
		emitter: emitter.New(emitter.Options{
			Detail:         settings.Detail,
			IncludeImports: settings.IncludeImports,
			Frame:          settings.Frame,
		}),
		settings: settings,
	}
}

func (p *Pipeline) Settings() config.Settings {
	return p.settings
}

// WithSettings returns a pipeline sharing the parser and catalog with
// different distillation settings.
func (p *Pipeline) WithSettings(settings config.Settings) *Pipeline {
	return New(p.parser, p.resolver.Catalog(), settings)
}

// Distill runs the whole pipeline over source. displayPath names the file in
// output framing and diagnostics; language may be empty to detect it from
// displayPath. Failures, panics included, are reported through the result.
func (p *Pipeline) Distill(ctx context.Context, displayPath, language string, source []byte) (res *Result) {
	start := time.Now()
	res = &Result{Path: displayPath, Language: language}
	sink := model.NewCollector(displayPath)

	ctx, span := observability.Tracer.Start(ctx, "pipeline.Distill",
		trace.WithAttributes(attribute.String("file", displayPath)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while distilling file", "path", displayPath, "panic", r, "stack", string(debug.Stack()))
			res.Err = errors.AddContext(errors.New(errors.CodeInternal, fmt.Sprintf("panic: %v", r)), errors.CtxPath, displayPath)
			res.Output = ""
			sink.Add(errors.ToDiagnostic(displayPath, res.Err))
		}
		res.Diagnostics = sink.Diagnostics()
		res.Duration = time.Since(start)
		record(res)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, string(errors.CodeOf(res.Err)))
		}
	}()

	if language == "" {
		language = p.parser.DetectLanguage(displayPath)
		res.Language = language
	}

	unit, err := p.parse(ctx, displayPath, language, source)
	if err != nil {
		res.Err = err
		sink.Add(errors.ToDiagnostic(displayPath, err))
		return res
	}

	resolution := p.resolver.Resolve(unit, sink)
	filtered := p.filter.Apply(unit)
	res.Pruned = filtered.Pruned

	orphaned := make(map[*model.ImportEntry]bool, len(filtered.Orphaned))
	for _, imp := range filtered.Orphaned {
		orphaned[imp] = true
		res.Orphaned = append(res.Orphaned, imp.String())
	}
	for _, imp := range resolution.Unused {
		res.Removed = append(res.Removed, imp.String())
	}
	// Orphans were used before pruning, so Resolve did not list them.
	for _, imp := range unit.Imports {
		if orphaned[imp] {
			res.Removed = append(res.Removed, imp.String())
		}
	}
	observability.ImportsTotal.WithLabelValues(observability.ImportUsed).Add(float64(len(unit.Imports) - len(res.Removed)))
	observability.ImportsTotal.WithLabelValues(observability.ImportUnused).Add(float64(len(resolution.Unused)))
	observability.ImportsTotal.WithLabelValues(observability.ImportOrphaned).Add(float64(len(filtered.Orphaned)))

	_, emitSpan := observability.Tracer.Start(ctx, "pipeline.emit")
	out, err := p.emitter.Emit(unit)
	emitSpan.End()
	if err != nil {
		res.Err = err
		sink.Add(errors.ToDiagnostic(displayPath, err))
		return res
	}
	res.Output = out
	span.SetAttributes(
		attribute.Int("imports.removed", len(res.Removed)),
		attribute.Int("declarations.pruned", res.Pruned),
	)
	return res
}

func (p *Pipeline) parse(ctx context.Context, path, language string, source []byte) (*model.SourceUnit, error) {
	ctx, span := observability.Tracer.Start(ctx, "pipeline.parse",
		trace.WithAttributes(attribute.String("language", language)))
	defer span.End()

	start := time.Now()
	tree, err := p.parser.Parse(ctx, path, language, source)
	if language != "" {
		observability.ParseDuration.WithLabelValues(language).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	return p.builder.Build(tree)
}

func record(res *Result) {
	observability.FilesTotal.WithLabelValues(res.Status()).Inc()
	for _, d := range res.Diagnostics {
		observability.DiagnosticsTotal.WithLabelValues(string(d.Code)).Inc()
	}
}
