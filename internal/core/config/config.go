// Package config loads distiller.toml, fills defaults and validates it. An
// invalid configuration is fatal before any file is processed.
package config

import (
	"distiller/internal/engine/model"
	"distiller/internal/engine/resolver"
	"time"
)

const DefaultFileName = "distiller.toml"

type Config struct {
	Version       int                 `toml:"version"`
	Distill       Distill             `toml:"distill"`
	Batch         Batch               `toml:"batch"`
	Exclude       Exclude             `toml:"exclude"`
	Languages     map[string]Language `toml:"languages"`
	Watch         Watch               `toml:"watch"`
	Observability Observability       `toml:"observability"`
	Output        Output              `toml:"output"`
	MCP           MCP                 `toml:"mcp"`
}

type Distill struct {
	MinVisibility    string `toml:"min_visibility"`
	DetailLevel      string `toml:"detail_level"`
	WildcardStrategy string `toml:"wildcard_strategy"`
	IncludeImports   *bool  `toml:"include_imports"`
	// CatalogFile layers extra well-known package members over the embedded
	// catalog.
	CatalogFile string `toml:"catalog_file"`
}

type Batch struct {
	Workers int `toml:"workers"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
	Filenames  []string `toml:"filenames"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// MaxRate caps re-distillation runs per second.
	MaxRate float64 `toml:"max_rate"`
	Burst   int     `toml:"burst"`
}

type Observability struct {
	MetricsAddress  string `toml:"metrics_address"`
	TracingEndpoint string `toml:"tracing_endpoint"`
	Insecure        bool   `toml:"insecure"`
	ServiceName     string `toml:"service_name"`
}

type Output struct {
	Path            string `toml:"path"`
	OneFilePerInput bool   `toml:"one_file_per_input"`
	Frame           *bool  `toml:"frame"`
}

type MCP struct {
	ServerName    string `toml:"server_name"`
	ServerVersion string `toml:"server_version"`
}

// Settings are the typed distillation options every worker reads.
type Settings struct {
	MinVisibility  model.Visibility
	Detail         model.DetailLevel
	Strategy       resolver.WildcardStrategy
	IncludeImports bool
	Frame          bool
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Settings parses the distill section. Validate has already rejected bad
// values for a loaded config, so an error here means the config was changed
// after loading.
func (c *Config) Settings() (Settings, error) {
	vis, err := model.ParseMinVisibility(c.Distill.MinVisibility)
	if err != nil {
		return Settings{}, err
	}
	detail, err := model.ParseDetailLevel(c.Distill.DetailLevel)
	if err != nil {
		return Settings{}, err
	}
	strategy, err := resolver.ParseWildcardStrategy(c.Distill.WildcardStrategy)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		MinVisibility:  vis,
		Detail:         detail,
		Strategy:       strategy,
		IncludeImports: boolValue(c.Distill.IncludeImports, true),
		Frame:          boolValue(c.Output.Frame, true),
	}, nil
}

func boolValue(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
