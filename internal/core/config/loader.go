package config

import (
	"distiller/internal/core/errors"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	normalize(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when path is empty or
// the file does not exist. Any other failure is returned.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		cfg := Default()
		ApplyEnvOverrides(cfg)
		return cfg, Validate(cfg)
	}
	cfg, err := Load(path)
	if errors.IsCode(err, errors.CodeNotFound) {
		cfg = Default()
		ApplyEnvOverrides(cfg)
		return cfg, Validate(cfg)
	}
	return cfg, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Distill.MinVisibility) == "" {
		cfg.Distill.MinVisibility = "public"
	}
	if strings.TrimSpace(cfg.Distill.DetailLevel) == "" {
		cfg.Distill.DetailLevel = "signatures"
	}
	if strings.TrimSpace(cfg.Distill.WildcardStrategy) == "" {
		cfg.Distill.WildcardStrategy = "first"
	}
	if cfg.Distill.IncludeImports == nil {
		enabled := true
		cfg.Distill.IncludeImports = &enabled
	}

	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = runtime.NumCPU()
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "node_modules", "target", "build", "__pycache__", ".venv"}
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxRate <= 0 {
		cfg.Watch.MaxRate = 2
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 1
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "distiller"
	}

	if cfg.Output.Frame == nil {
		enabled := true
		cfg.Output.Frame = &enabled
	}

	if strings.TrimSpace(cfg.MCP.ServerName) == "" {
		cfg.MCP.ServerName = "distiller"
	}
}

func normalize(cfg *Config) {
	cfg.Distill.MinVisibility = strings.ToLower(strings.TrimSpace(cfg.Distill.MinVisibility))
	cfg.Distill.DetailLevel = strings.ToLower(strings.TrimSpace(cfg.Distill.DetailLevel))
	cfg.Distill.WildcardStrategy = strings.ToLower(strings.TrimSpace(cfg.Distill.WildcardStrategy))
	cfg.Distill.CatalogFile = strings.TrimSpace(cfg.Distill.CatalogFile)
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.Observability.MetricsAddress = strings.TrimSpace(cfg.Observability.MetricsAddress)
	cfg.Observability.TracingEndpoint = strings.TrimSpace(cfg.Observability.TracingEndpoint)

	if len(cfg.Languages) == 0 {
		return
	}
	normalized := make(map[string]Language, len(cfg.Languages))
	for id, lang := range cfg.Languages {
		normalized[strings.ToLower(strings.TrimSpace(id))] = lang
	}
	cfg.Languages = normalized
}
