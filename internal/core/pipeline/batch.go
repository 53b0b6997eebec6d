package pipeline

import (
	"context"
	"distiller/internal/core/errors"
	"distiller/internal/core/scan"
	"distiller/internal/engine/model"
	"distiller/internal/shared/observability"
	"distiller/internal/shared/util"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type BatchOptions struct {
	Workers int
	// BasePath makes framed paths relative for files below it.
	BasePath string
	// OnResult is called once per file as it completes. Calls are serialized.
	OnResult func(*Result)
}

type Batch struct {
	pipeline *Pipeline
	opts     BatchOptions
}

func NewBatch(p *Pipeline, opts BatchOptions) *Batch {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Batch{pipeline: p, opts: opts}
}

// Report holds one result per input file, in input order.
type Report struct {
	RunID   string
	Results []*Result
	Summary Summary
}

type Summary struct {
	RunID              string
	Files              int
	Distilled          int
	SyntaxErrors       int
	Unsupported        int
	Failed             int
	Aborted            int
	ImportsRemoved     int
	ImportsOrphaned    int
	DeclarationsPruned int
	Diagnostics        map[model.DiagnosticCode]int
	Duration           time.Duration
}

// resultSink collects results from concurrent workers.
type resultSink struct {
	mu       sync.Mutex
	results  []*Result
	onResult func(*Result)
}

func (s *resultSink) put(i int, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[i] = res
	if s.onResult != nil {
		s.onResult(res)
	}
}

// Run distills files over a bounded worker pool. A failing file never stops
// its siblings. Once ctx is done, files not yet scheduled are reported as
// ABORTED without being read.
func (b *Batch) Run(ctx context.Context, files []scan.File) *Report {
	start := time.Now()
	runID := uuid.New().String()

	ctx, span := observability.Tracer.Start(ctx, "pipeline.Batch",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("files", len(files)),
			attribute.Int("workers", b.opts.Workers),
		))
	defer span.End()

	slog.Debug("batch starting", "run_id", runID, "files", len(files), "workers", b.opts.Workers)

	sink := &resultSink{results: make([]*Result, len(files)), onResult: b.opts.OnResult}
	g := new(errgroup.Group)
	g.SetLimit(b.opts.Workers)

	for i, f := range files {
		if ctx.Err() != nil {
			sink.put(i, b.aborted(f))
			continue
		}
		g.Go(func() error {
			sink.put(i, b.process(ctx, f))
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{RunID: runID, Results: sink.results}
	report.Summary = Summarize(runID, sink.results, time.Since(start))

	for _, res := range report.Results {
		if res.Err != nil && res.Status() != observability.StatusAborted {
			slog.Warn("failed to distill file", "path", res.Path, "code", errors.CodeOf(res.Err), "error", res.Err)
		}
	}
	sum := report.Summary
	slog.Info("batch finished",
		"run_id", runID,
		"files", sum.Files,
		"distilled", sum.Distilled,
		"syntax_errors", sum.SyntaxErrors,
		"imports_removed", sum.ImportsRemoved,
		"duration", sum.Duration,
		"heap_mb", util.HeapAllocMB(),
	)
	return report
}

func (b *Batch) process(ctx context.Context, f scan.File) (res *Result) {
	display := b.DisplayPath(f.Path)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while distilling file", "path", f.Path, "panic", r, "stack", string(debug.Stack()))
			err := errors.AddContext(errors.New(errors.CodeInternal, fmt.Sprintf("panic: %v", r)), errors.CtxPath, display)
			res = failedResult(display, f.Language, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return b.aborted(f)
	}
	language := f.Language
	if language == "" {
		language = b.pipeline.parser.DetectLanguage(f.Path)
	}
	if language == "" {
		ext := strings.TrimPrefix(filepath.Ext(f.Path), ".")
		return failedResult(display, "", errors.UnsupportedLanguage(display, ext))
	}
	source, err := os.ReadFile(f.Path)
	if err != nil {
		code := errors.CodeInternal
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return failedResult(display, language, errors.AddContext(errors.Wrap(err, code, "read source"), errors.CtxPath, display))
	}
	return b.pipeline.Distill(ctx, display, language, source)
}

func (b *Batch) aborted(f scan.File) *Result {
	display := b.DisplayPath(f.Path)
	err := errors.AddContext(errors.New(errors.CodeAborted, "batch aborted before the file was processed"), errors.CtxPath, display)
	return failedResult(display, f.Language, err)
}

// DisplayPath is the slash separated path used in framing and diagnostics.
func (b *Batch) DisplayPath(path string) string {
	if b.opts.BasePath != "" {
		if abs, err := filepath.Abs(path); err == nil {
			if rel, err := filepath.Rel(b.opts.BasePath, abs); err == nil && !strings.HasPrefix(rel, "..") {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.ToSlash(path)
}

func failedResult(path, language string, err error) *Result {
	res := &Result{
		Path:        path,
		Language:    language,
		Err:         err,
		Diagnostics: []model.Diagnostic{errors.ToDiagnostic(path, err)},
	}
	record(res)
	return res
}

// Summarize aggregates results into batch counts.
func Summarize(runID string, results []*Result, elapsed time.Duration) Summary {
	sum := Summary{
		RunID:       runID,
		Files:       len(results),
		Diagnostics: make(map[model.DiagnosticCode]int),
		Duration:    elapsed,
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		switch res.Status() {
		case observability.StatusDistilled:
			sum.Distilled++
		case observability.StatusSyntaxError:
			sum.SyntaxErrors++
		case observability.StatusUnsupported:
			sum.Unsupported++
		case observability.StatusAborted:
			sum.Aborted++
		default:
			sum.Failed++
		}
		sum.ImportsRemoved += len(res.Removed)
		sum.ImportsOrphaned += len(res.Orphaned)
		sum.DeclarationsPruned += res.Pruned
		for _, d := range res.Diagnostics {
			sum.Diagnostics[d.Code]++
		}
	}
	return sum
}

// Diagnostics flattens and sorts the diagnostics of every result.
func (r *Report) Diagnostics() []model.Diagnostic {
	var out []model.Diagnostic
	for _, res := range r.Results {
		out = append(out, res.Diagnostics...)
	}
	model.SortDiagnostics(out)
	return out
}
