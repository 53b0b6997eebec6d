package cliapp

import (
	"context"
	"distiller/internal/core/config"
	"distiller/internal/core/pipeline"
	"distiller/internal/shared/util"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

type outputFlags struct {
	path       string
	perFile    bool
	quiet      bool
	relativeTo string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.path, "output", "o", "", "write output to this file, or directory with --one-file-per-input (default stdout)")
	flags.BoolVar(&f.perFile, "one-file-per-input", false, "write one <path>"+pipeline.OutputSuffix+" per input under --output")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress and summary")
	flags.StringVar(&f.relativeTo, "relative-to", "", "directory display paths are relative to")
}

func (f *outputFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Path = f.path
	}
	if flags.Changed("one-file-per-input") {
		cfg.Output.OneFilePerInput = f.perFile
	}
}

func newDistillCmd(opts *globalOptions, std streams) *cobra.Command {
	var (
		settings settingsFlags
		output   outputFlags
	)
	cmd := &cobra.Command{
		Use:   "distill [paths...]",
		Short: "Distill source files and directories",
		Long: `Distill walks the given files and directories (default ".") and writes the
distilled form of every Java and Python source found. A file that fails to
parse is reported and skipped; the rest of the batch still completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, opts, func(cfg *config.Config) {
				settings.apply(cmd, cfg)
				output.apply(cmd, cfg)
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			return runDistill(ctx, rt, args, output, opts.verbose, std)
		},
	}
	settings.register(cmd)
	output.register(cmd)
	return cmd
}

func runDistill(ctx context.Context, rt *runtime, roots []string, output outputFlags, verbose bool, std streams) error {
	files, err := rt.scanner.Scan(ctx, roots)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Warn("no source files found", "paths", strings.Join(roots, ","))
		return nil
	}

	base, err := resolveBase(rt, roots, output.relativeTo)
	if err != nil {
		return err
	}

	var (
		onResult func(*pipeline.Result)
		finish   = func() {}
	)
	if !output.quiet && len(files) > 1 {
		bar := newProgressBar(std.err, len(files))
		onResult = func(*pipeline.Result) { _ = bar.Add(1) }
		finish = func() { _ = bar.Finish() }
	}

	report := rt.newBatch(base, onResult).Run(ctx, files)
	finish()
	if err := writeOutputs(rt, report.Results, std); err != nil {
		return err
	}

	if !output.quiet {
		printDiagnostics(std.err, report.Diagnostics(), verbose)
		_, _ = std.err.Write([]byte(renderSummary(report.Summary)))
	}
	return ctx.Err()
}

// writeOutputs sends successful results to the configured destination.
func writeOutputs(rt *runtime, results []*pipeline.Result, std streams) error {
	out := rt.paths.OutputPath
	switch {
	case rt.cfg.Output.OneFilePerInput:
		written, err := pipeline.WritePerFile(out, results)
		if err != nil {
			return err
		}
		slog.Debug("wrote distilled files", "dir", out, "count", len(written))
		return nil
	case out != "":
		var b strings.Builder
		if err := pipeline.WriteCombined(&b, results); err != nil {
			return err
		}
		return util.WriteStringWithDirs(out, b.String(), 0o644)
	default:
		return pipeline.WriteCombined(std.out, results)
	}
}

func resolveBase(rt *runtime, roots []string, relativeTo string) (string, error) {
	if relativeTo == "" {
		return rt.basePath(roots), nil
	}
	info, err := os.Stat(relativeTo)
	if err != nil || !info.IsDir() {
		return "", usageErrorf("--relative-to %q is not a directory", relativeTo)
	}
	return filepath.Abs(relativeTo)
}
