package cliapp

import (
	"context"
	"distiller/internal/core/config"
	"distiller/internal/core/pipeline"
	"distiller/internal/core/scan"
	"distiller/internal/engine/parser"
	"distiller/internal/engine/resolver"
	"distiller/internal/shared/observability"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// settingsFlags are the per-run overrides of the [distill] and [batch]
// sections shared by every command that distills.
type settingsFlags struct {
	minVisibility string
	detail        string
	wildcard      string
	noImports     bool
	noFrame       bool
	workers       int
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.minVisibility, "min-visibility", "", "lowest visibility kept: public, public+protected, public+protected+package or all")
	flags.StringVar(&f.detail, "detail", "", "detail level: signatures-only, signatures+fields or full-minus-bodies")
	flags.StringVar(&f.wildcard, "wildcard-strategy", "", "wildcard fallback: first or all")
	flags.BoolVar(&f.noImports, "no-imports", false, "omit imports from the output")
	flags.BoolVar(&f.noFrame, "no-frame", false, "do not wrap each output in a <file> element")
	flags.IntVarP(&f.workers, "workers", "j", 0, "parallel workers (default from config)")
}

// apply copies the flags that were set onto cfg.
func (f *settingsFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("min-visibility") {
		cfg.Distill.MinVisibility = f.minVisibility
	}
	if flags.Changed("detail") {
		cfg.Distill.DetailLevel = f.detail
	}
	if flags.Changed("wildcard-strategy") {
		cfg.Distill.WildcardStrategy = f.wildcard
	}
	if flags.Changed("no-imports") {
		include := !f.noImports
		cfg.Distill.IncludeImports = &include
	}
	if flags.Changed("no-frame") {
		frame := !f.noFrame
		cfg.Output.Frame = &frame
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = f.workers
	}
}

// runtime is everything a command needs after configuration is settled.
type runtime struct {
	cfg        *config.Config
	configFile string
	paths      config.ResolvedPaths
	cwd        string
	parser     *parser.Parser
	scanner    *scan.Scanner
	pipeline   *pipeline.Pipeline

	metrics         *observability.MetricsServer
	shutdownTracing func(context.Context) error
}

// loadConfig finds and loads the configuration, applies overrides and
// validates the result. An explicit --config must exist.
func loadConfig(opts *globalOptions, cwd string, override func(*config.Config)) (*config.Config, string, error) {
	path := opts.configPath
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		path = config.FindConfigFile(cwd)
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		slog.Debug("using config file", "path", path)
	}

	if override != nil {
		override(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, "", err
		}
	}
	return cfg, path, nil
}

func newRuntime(ctx context.Context, opts *globalOptions, override func(*config.Config)) (*runtime, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, configFile, err := loadConfig(opts, cwd, override)
	if err != nil {
		return nil, err
	}
	paths, err := config.ResolvePaths(cfg, cwd, configFile)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:             cfg,
		configFile:      paths.ConfigFile,
		paths:           paths,
		cwd:             cwd,
		shutdownTracing: func(context.Context) error { return nil },
	}
	if err := rt.buildPipeline(); err != nil {
		return nil, err
	}
	if err := rt.startObservability(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) buildPipeline() error {
	registry, err := parser.BuildLanguageRegistry(rt.cfg.LanguageOverrides())
	if err != nil {
		return err
	}
	loader, err := parser.NewGrammarLoader(registry)
	if err != nil {
		return err
	}
	p := parser.NewParser(loader)
	if err := p.RegisterDefaultAdapters(); err != nil {
		return err
	}

	catalog, err := resolver.DefaultCatalog()
	if err != nil {
		return err
	}
	if rt.paths.CatalogFile != "" {
		catalog, err = resolver.LoadCatalogFile(catalog, rt.paths.CatalogFile)
		if err != nil {
			return err
		}
	}

	scanner, err := scan.New(p, rt.cfg.Exclude.Dirs, rt.cfg.Exclude.Files)
	if err != nil {
		return err
	}
	settings, err := rt.cfg.Settings()
	if err != nil {
		return err
	}

	rt.parser = p
	rt.scanner = scanner
	rt.pipeline = pipeline.New(p, catalog, settings)
	slog.Debug("pipeline ready",
		"extensions", p.SupportedExtensions(),
		"min_visibility", settings.MinVisibility,
		"detail", settings.Detail,
		"wildcard_strategy", settings.Strategy,
	)
	return nil
}

func (rt *runtime) startObservability(ctx context.Context) error {
	obs := rt.cfg.Observability
	if obs.MetricsAddress != "" {
		rt.metrics = observability.NewMetricsServer(obs.MetricsAddress)
		if err := rt.metrics.Start(); err != nil {
			rt.metrics = nil
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	shutdown, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:    obs.TracingEndpoint,
		Insecure:    obs.Insecure,
		ServiceName: obs.ServiceName,
	})
	rt.shutdownTracing = shutdown
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	return nil
}

// Close flushes spans and stops the metrics endpoint.
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.shutdownTracing(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
	if rt.metrics != nil {
		if err := rt.metrics.Stop(ctx); err != nil {
			slog.Warn("failed to stop metrics server", "error", err)
		}
	}
}

// basePath picks the directory display paths are made relative to: the
// single directory argument when there is one, the working directory
// otherwise.
func (rt *runtime) basePath(roots []string) string {
	if len(roots) == 1 {
		if info, err := os.Stat(roots[0]); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(roots[0]); err == nil {
				return abs
			}
		}
	}
	return rt.cwd
}

func (rt *runtime) newBatch(base string, onResult func(*pipeline.Result)) *pipeline.Batch {
	return pipeline.NewBatch(rt.pipeline, pipeline.BatchOptions{
		Workers:  rt.cfg.Batch.Workers,
		BasePath: base,
		OnResult: onResult,
	})
}
