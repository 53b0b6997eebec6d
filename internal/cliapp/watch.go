package cliapp

import (
	"context"
	"distiller/internal/core/config"
	"distiller/internal/core/pipeline"
	"distiller/internal/core/scan"
	"distiller/internal/core/watcher"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd(opts *globalOptions, std streams) *cobra.Command {
	var (
		settings settingsFlags
		output   outputFlags
	)
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Distill once, then re-distill files as they change",
		Long: `Watch runs an initial distillation and then re-distills every source file
that is created or modified. Edits to the config file reload the
distillation settings without restarting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			override := func(cfg *config.Config) {
				settings.apply(cmd, cfg)
				output.apply(cmd, cfg)
			}
			rt, err := newRuntime(ctx, opts, override)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runWatch(ctx, rt, args, output, override, std)
		},
	}
	settings.register(cmd)
	output.register(cmd)
	return cmd
}

// session owns the state that changes while watching: the active pipeline
// and the latest result per file.
type session struct {
	rt       *runtime
	base     string
	std      streams
	pipeline atomic.Pointer[pipeline.Pipeline]

	mu      sync.Mutex
	results map[string]*pipeline.Result
}

func (s *session) distill(ctx context.Context, files []scan.File) *pipeline.Report {
	batch := pipeline.NewBatch(s.pipeline.Load(), pipeline.BatchOptions{
		Workers:  s.rt.cfg.Batch.Workers,
		BasePath: s.base,
	})
	report := batch.Run(ctx, files)

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := make([]*pipeline.Result, 0, len(report.Results))
	for _, res := range report.Results {
		s.results[res.Path] = res
		changed = append(changed, res)
	}
	printDiagnostics(s.std.err, report.Diagnostics(), false)

	// Stdout gets only what changed; files get the full current state.
	if !s.rt.cfg.Output.OneFilePerInput && s.rt.paths.OutputPath == "" {
		if err := pipeline.WriteCombined(s.std.out, changed); err != nil {
			slog.Error("failed to write output", "error", err)
		}
		return report
	}
	if err := writeOutputs(s.rt, s.snapshot(), s.std); err != nil {
		slog.Error("failed to write output", "error", err)
	}
	return report
}

// snapshot returns the latest results sorted by path. Callers hold mu.
func (s *session) snapshot() []*pipeline.Result {
	paths := make([]string, 0, len(s.results))
	for p := range s.results {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]*pipeline.Result, 0, len(paths))
	for _, p := range paths {
		out = append(out, s.results[p])
	}
	return out
}

func runWatch(ctx context.Context, rt *runtime, roots []string, output outputFlags, override func(*config.Config), std streams) error {
	base, err := resolveBase(rt, roots, output.relativeTo)
	if err != nil {
		return err
	}
	s := &session{rt: rt, base: base, std: std, results: make(map[string]*pipeline.Result)}
	s.pipeline.Store(rt.pipeline)

	files, err := rt.scanner.Scan(ctx, roots)
	if err != nil {
		return err
	}
	report := s.distill(ctx, files)
	if !output.quiet {
		_, _ = std.err.Write([]byte(renderSummary(report.Summary)))
	}

	w, err := watcher.NewWatcher(rt.scanner, watcher.Options{
		Debounce: rt.cfg.Watch.Debounce,
		MaxRate:  rt.cfg.Watch.MaxRate,
		Burst:    rt.cfg.Watch.Burst,
	}, func(changed []scan.File) {
		slog.Info("re-distilling changed files", "count", len(changed))
		s.distill(ctx, changed)
	})
	if err != nil {
		return err
	}
	defer w.Close()
	w.Prime(files)
	if err := w.Watch(roots); err != nil {
		return err
	}

	if rt.configFile != "" {
		cw := config.NewWatcher(rt.configFile, func(cfg *config.Config) {
			override(cfg)
			if err := config.Validate(cfg); err != nil {
				slog.Warn("ignoring reloaded configuration", "error", err)
				return
			}
			settings, err := cfg.Settings()
			if err != nil {
				slog.Warn("ignoring reloaded configuration", "error", err)
				return
			}
			s.pipeline.Store(s.pipeline.Load().WithSettings(settings))
			w.SetDebounce(cfg.Watch.Debounce)
			slog.Info("distillation settings reloaded",
				"min_visibility", settings.MinVisibility,
				"detail", settings.Detail,
			)
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config reload disabled", "path", rt.configFile, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	slog.Info("watching for changes", "paths", roots)
	<-ctx.Done()
	slog.Info("watch stopped")
	return nil
}
