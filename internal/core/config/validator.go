package config

import (
	"distiller/internal/core/errors"
	"distiller/internal/engine/model"
	"distiller/internal/engine/parser"
	"distiller/internal/engine/resolver"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// Validate runs every section check. The first failure is returned as a
// VALIDATION_ERROR.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateVersion,
		validateDistill,
		validateBatch,
		validateExclude,
		validateLanguages,
		validateWatch,
		validateObservability,
		validateOutput,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid configuration")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateDistill(cfg *Config) error {
	if _, err := model.ParseMinVisibility(cfg.Distill.MinVisibility); err != nil {
		return fmt.Errorf("distill.min_visibility: %w", err)
	}
	if _, err := model.ParseDetailLevel(cfg.Distill.DetailLevel); err != nil {
		return fmt.Errorf("distill.detail_level: %w", err)
	}
	if _, err := resolver.ParseWildcardStrategy(cfg.Distill.WildcardStrategy); err != nil {
		return fmt.Errorf("distill.wildcard_strategy: %w", err)
	}
	return nil
}

func validateBatch(cfg *Config) error {
	if cfg.Batch.Workers < 1 || cfg.Batch.Workers > 256 {
		return fmt.Errorf("batch.workers must be between 1 and 256, got %d", cfg.Batch.Workers)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, dir := range cfg.Exclude.Dirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("exclude.dirs[%d] must not be empty", i)
		}
		if hasWildcard(dir) {
			return fmt.Errorf("exclude.dirs[%d] must be a plain directory name, got %q", i, dir)
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("exclude.files[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files[%d] is not a valid glob: %w", i, err)
		}
	}
	return nil
}

func validateLanguages(cfg *Config) error {
	for language, settings := range cfg.Languages {
		if language == "" {
			return fmt.Errorf("languages key must not be empty")
		}
		for _, ext := range settings.Extensions {
			if strings.TrimSpace(ext) == "" {
				return fmt.Errorf("languages.%s.extensions must not include empty values", language)
			}
		}
		for _, name := range settings.Filenames {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("languages.%s.filenames must not include empty values", language)
			}
		}
	}
	if _, err := parser.BuildLanguageRegistry(cfg.LanguageOverrides()); err != nil {
		return fmt.Errorf("languages: %w", err)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 10*time.Millisecond || cfg.Watch.Debounce > time.Minute {
		return fmt.Errorf("watch.debounce must be between 10ms and 1m")
	}
	if cfg.Watch.MaxRate > 1000 {
		return fmt.Errorf("watch.max_rate must be at most 1000 runs per second")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := cfg.Observability.MetricsAddress; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_address %q is not host:port: %w", addr, err)
		}
	}
	if strings.ContainsAny(cfg.Observability.ServiceName, " \t\n") {
		return fmt.Errorf("observability.service_name must not contain whitespace")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if cfg.Output.OneFilePerInput && cfg.Output.Path == "" {
		return fmt.Errorf("output.path must name a directory when output.one_file_per_input is set")
	}
	return nil
}

func hasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]{}")
}

// LanguageOverrides converts the [languages] tables into registry overrides.
func (c *Config) LanguageOverrides() map[string]parser.LanguageOverride {
	if len(c.Languages) == 0 {
		return nil
	}
	out := make(map[string]parser.LanguageOverride, len(c.Languages))
	for id, lang := range c.Languages {
		out[id] = parser.LanguageOverride{
			Enabled:    lang.Enabled,
			Extensions: lang.Extensions,
			Filenames:  lang.Filenames,
		}
	}
	return out
}
